// Package convolver drives one partitioned convolution engine per audio
// channel behind a single session.
//
// A Session starts out as a pass-through. LoadImpulse or LoadFile prepares
// an impulse response for the configured channel count and sample rate and
// swaps the new engines in without blocking the processing goroutine:
//
//	s, err := convolver.NewSession(
//		core.WithSampleRate(48000),
//		core.WithBlockSize(256),
//		core.WithPruning(-90, 4),
//	)
//	if err != nil {
//		return err
//	}
//	if err := s.LoadFile("hall.wav"); err != nil {
//		log.Printf("using dry signal: %v", err)
//	}
//
//	// audio callback, any frame count
//	s.ProcessInterleaved(out, in)
//
// ProcessBlock works on planar data of exactly one block per channel and
// adds no latency. ProcessInterleaved accepts any number of frames and adds
// one block of latency. Use one or the other on a given session.
package convolver
