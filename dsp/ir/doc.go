// Package ir loads and prepares impulse responses for partitioned
// convolution.
//
// An Impulse holds planar float64 channels at a known sample rate. It can
// be decoded from WAV files or any go-audio buffer, resampled to the
// processing rate, normalized, and trimmed of pre-delay and inaudible
// tails before it is handed to conv.Partition:
//
//	imp, err := ir.ReadFile("hall.wav")
//	if err != nil {
//		return err
//	}
//	imp, err = imp.Resample(48000, ir.QualityHigh)
//	if err != nil {
//		return err
//	}
//	imp.Normalize(ir.NormalizeEnergy)
//	filter, err := conv.Partition64(imp.Channels, 512)
//
// Schroeder, DecayTime and RT60 describe the energy decay of a response;
// Trim uses the same curve to find the tail cut.
package ir
