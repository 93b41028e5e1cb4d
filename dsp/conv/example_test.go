package conv_test

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-upols/dsp/conv"
)

func ExampleDirect() {
	// Simple moving average filter
	signal := []float64{1, 2, 3, 4, 5, 4, 3, 2, 1}
	kernel := []float64{0.25, 0.5, 0.25}

	result, _ := conv.Direct(signal, kernel)

	fmt.Printf("Input length: %d\n", len(signal))
	fmt.Printf("Kernel length: %d\n", len(kernel))
	fmt.Printf("Output length: %d\n", len(result))
	fmt.Printf("First few values: %.2f, %.2f, %.2f\n", result[0], result[1], result[2])

	// Output:
	// Input length: 9
	// Kernel length: 3
	// Output length: 11
	// First few values: 0.25, 1.00, 2.00
}

func ExampleConvolve() {
	// Convolve automatically selects the best algorithm
	signal := make([]float64, 1000)
	for i := range signal {
		signal[i] = math.Sin(2 * math.Pi * float64(i) / 50)
	}

	// Short kernel uses direct convolution
	shortKernel := []float64{0.2, 0.3, 0.3, 0.2}
	result1, _ := conv.Convolve(signal, shortKernel)
	fmt.Printf("Short kernel result length: %d\n", len(result1))

	// Longer kernel uses FFT-based convolution
	longKernel := make([]float64, 100)
	for i := range longKernel {
		longKernel[i] = math.Exp(-float64(i) / 20)
	}

	result2, _ := conv.Convolve(signal, longKernel)
	fmt.Printf("Long kernel result length: %d\n", len(result2))

	// Output:
	// Short kernel result length: 1003
	// Long kernel result length: 1099
}

func ExampleEngine() {
	// A three-block echo: the input comes back after 200 samples at half level.
	ir := make([]float64, 201)
	ir[0] = 1
	ir[200] = 0.5

	filter, _ := conv.Partition64([][]float64{ir}, 64)
	engine, _ := conv.NewEngine(64)
	_ = engine.SetFilter(filter.Channel(0))

	fmt.Printf("Partitions: %d\n", engine.NumPartitions())

	block := make([]float64, 64)
	out := make([]float64, 0, 256)
	for n := range 4 {
		clear(block)
		if n == 0 {
			block[0] = 1
		}
		engine.Process(block)
		out = append(out, block...)
	}

	fmt.Printf("y[0]=%.2f y[200]=%.2f y[100]=%.2f\n", out[0], out[200], math.Abs(out[100]))

	// Output:
	// Partitions: 4
	// y[0]=1.00 y[200]=0.50 y[100]=0.00
}

func ExampleOverlapAdd() {
	kernel := make([]float64, 64)
	for i := range kernel {
		kernel[i] = math.Exp(-float64(i) / 10)
	}

	convolver, _ := conv.NewOverlapAdd(kernel, 256)
	fmt.Printf("Block size: %d\n", convolver.BlockSize())
	fmt.Printf("FFT size: %d\n", convolver.FFTSize())
	fmt.Printf("Partitions: %d\n", convolver.NumPartitions())

	// Output:
	// Block size: 256
	// FFT size: 512
	// Partitions: 2
}

func ExamplePrune() {
	ir := make([]float64, 512)
	for i := range ir {
		ir[i] = math.Exp(-float64(i)/20) * math.Cos(float64(i))
	}

	filter, _ := conv.Partition64([][]float64{ir}, 128)
	sparse, _ := conv.Prune(filter, conv.PruneOptions{ThresholdDB: math.Inf(-1)})
	fmt.Printf("Kept %d of %d bins\n", sparse.NNZ(), filter.NumPartitions()*filter.NumBins())

	// Output:
	// Kept 516 of 516 bins
}
