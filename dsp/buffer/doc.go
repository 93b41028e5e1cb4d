// Package buffer adapts streams of arbitrary length to fixed-size block
// processors. A BlockFIFO collects interleaved frames into planar blocks,
// hands each full block to a BlockProcessor, and plays the processed block
// back while the next one fills, so output lags input by exactly one block.
package buffer
