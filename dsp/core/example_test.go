package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-upols/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(44100),
		core.WithBlockSize(256),
		core.WithPruning(-90, 4),
	)

	fmt.Printf("sampleRate=%.0f blockSize=%d pruning=%v\n", cfg.SampleRate, cfg.BlockSize, cfg.Pruning())

	// Output:
	// sampleRate=44100 blockSize=256 pruning=true
}
