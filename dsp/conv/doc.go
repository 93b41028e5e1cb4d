// Package conv provides partitioned, block-based and one-shot convolution.
//
// The centerpiece is [EngineT], a uniformly partitioned convolution engine
// for impulse responses of any length at a constant latency of one block:
//
//   - [Partition] splits an impulse response into blocks and stores their
//     spectra as a [FilterT], shareable between engines
//   - [EngineT] keeps a frequency-domain delay line of past input spectra
//     and multiply-accumulates it with the filter partitions every block
//   - [Prune] turns a filter into a [SparseFilterT], dropping bins below a
//     (optionally A-weighted) level so the accumulation skips them
//
// The package also offers the classic single-partition convolvers
// [OverlapAddT] and [OverlapSaveT], which accept an arbitrary spectral
// callback through ProcessFunc, and one-shot helpers for whole signals.
//
// # Usage
//
// Streaming with a long impulse response:
//
//	filter, err := conv.Partition64(ir, 256)
//	engine, err := conv.NewEngine(256)
//	err = engine.SetFilter(filter.Channel(0))
//	for each block {
//		engine.Process(block)
//	}
//
// One-shot convolution:
//
//	result, err := conv.Convolve(signal, kernel)  // Auto-selects best algorithm
//	result, err := conv.Direct(signal, kernel)    // Force direct convolution
//
// # Errors and contracts
//
// Setup functions return errors wrapping the package sentinels. The
// processing methods never return errors: a wrong block length or a call
// before a filter is bound panics, unless the module is built with the
// upols_release tag.
//
// # Build tags
//
//	purego         scalar kernels only
//	fastmath       approximate dB conversion in Prune
//	upols_release  no precondition checks on the processing path
package conv
