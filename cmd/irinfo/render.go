package main

import (
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/cwbudde/algo-upols/dsp/convolver"
	"github.com/cwbudde/algo-upols/dsp/core"
	"github.com/cwbudde/algo-upols/dsp/ir"
)

// renderFile convolves opts.render with imp and writes opts.output. The
// first threshold of the list selects the pruning used for rendering.
func renderFile(w io.Writer, logger *slog.Logger, imp *ir.Impulse, opts options) error {
	dry, err := ir.ReadFile(opts.render)
	if err != nil {
		return err
	}

	threshold := math.Inf(-1)
	if len(opts.thresholds) > 0 {
		threshold = opts.thresholds[0]
	}
	session, err := convolver.NewSession(
		core.WithSampleRate(dry.SampleRate),
		core.WithChannels(dry.NumChannels()),
		core.WithBlockSize(opts.block),
		core.WithPruning(threshold, opts.keep),
		core.WithWeighting(opts.weighting),
		core.WithBackend(opts.backend),
		core.WithScheme(opts.scheme),
		core.WithNormalizeMode(ir.NormalizeNone),
		core.WithResampleQuality(opts.quality),
		core.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if err := session.LoadImpulse(imp); err != nil {
		return err
	}

	wet, err := render(session, dry, core.DBToLinear(opts.gainDB))
	if err != nil {
		return err
	}
	if err := ir.WriteFile(opts.output, wet, opts.bits); err != nil {
		return err
	}

	st := session.Stats()
	_, err = fmt.Fprintf(w, "\nRendered %s -> %s: %d frames, %d partitions, density %.1f%%, clipped %d\n",
		opts.render, opts.output, wet.Len(), st.Partitions, 100*st.Density, countClipped(wet))
	return err
}

// render runs dry through the session block by block, including the tail
// of the response.
func render(s *convolver.Session, dry *ir.Impulse, gain float64) (*ir.Impulse, error) {
	block := s.BlockSize()
	frames := dry.Len() + s.Stats().ImpulseLen - 1
	blocks := (frames + block - 1) / block

	out := make([][]float64, dry.NumChannels())
	for ch := range out {
		out[ch] = make([]float64, blocks*block)
		copy(out[ch], dry.Channels[ch])
	}

	planar := make([][]float64, len(out))
	for b := range blocks {
		for ch := range out {
			planar[ch] = out[ch][b*block : (b+1)*block]
		}
		s.ProcessBlock(planar)
	}

	for ch := range out {
		out[ch] = out[ch][:frames]
		for i := range out[ch] {
			out[ch][i] *= gain
		}
	}
	return ir.New(out, dry.SampleRate)
}

func countClipped(imp *ir.Impulse) int {
	n := 0
	for _, ch := range imp.Channels {
		for _, v := range ch {
			if core.Clamp(v, -1, 1) != v {
				n++
			}
		}
	}
	return n
}
