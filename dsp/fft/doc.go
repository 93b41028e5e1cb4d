// Package fft provides the power-of-two transforms used by the convolution
// engines.
//
// Two plan types are offered:
//
//   - [PlanT]: an in-place complex radix-2 decimation-in-time transform with
//     explicit twiddle and bit-reversal tables.
//   - [RealPlanT]: a real-to-complex transform of N samples that runs one
//     N/2-point complex transform and separates the packed spectra.
//
// Neither transform normalizes. A forward/inverse round trip scales the signal
// by the transform size; callers apply 1/N where they need it.
//
// # Backends
//
// [PlanT] is the portable reference. [NewTransformer] can select a faster
// backend behind the same [Transformer] contract:
//
//	t, err := fft.NewTransformer[complex128](10, fft.BackendAlgoFFT)
//
// [RealPlanT] accepts the same choice through [WithBackend]. Plans own their
// tables; nothing is cached globally.
//
// # Precision
//
// Precision is chosen by type parameter: complex64/float32 or
// complex128/float64. There is no runtime precision flag.
package fft
