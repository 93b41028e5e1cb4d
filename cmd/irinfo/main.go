// Command irinfo reports how an impulse response partitions and prunes for
// uniformly partitioned convolution, and can render audio through it.
//
// Usage:
//
//	irinfo [flags] impulse.wav
//
// Examples:
//
//	irinfo hall.wav
//	irinfo -block 256 -threshold -60,-90,-120 -weighting a hall.wav
//	irinfo -rate 48000 -trim -norm peak hall.wav
//	irinfo -render dry.wav -o wet.wav -threshold -90 hall.wav
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-upols/dsp/conv"
	"github.com/cwbudde/algo-upols/dsp/core"
	"github.com/cwbudde/algo-upols/dsp/fft"
	"github.com/cwbudde/algo-upols/dsp/ir"
)

type options struct {
	block      int
	rate       float64
	thresholds []float64
	keep       int
	weighting  conv.Weighting
	norm       ir.NormalizeMode
	quality    ir.Quality
	backend    fft.Backend
	scheme     conv.Scheme
	trim       bool
	render     string
	output     string
	bits       int
	gainDB     float64
}

func main() {
	block := flag.Int("block", 512, "partition size in samples (power of two)")
	rate := flag.Float64("rate", 0, "resample the response to this rate in Hz (0 keeps it)")
	thresholds := flag.String("threshold", "-60,-90,-120", "comma-separated pruning thresholds in dB")
	keep := flag.Int("keep", 0, "lowest bins of every partition kept regardless of level")
	weighting := flag.String("weighting", "flat", "frequency weighting for pruning: flat or a")
	norm := flag.String("norm", "energy", "normalization: none, peak, rms or energy")
	quality := flag.String("quality", "high", "resample quality: quick, low, medium, high or veryhigh")
	backend := flag.String("backend", "reference", "FFT backend: reference, algofft or gonum")
	scheme := flag.String("scheme", "overlap-save", "engine scheme for -render: overlap-save or overlap-add")
	trim := flag.Bool("trim", false, "trim pre-delay and the inaudible tail before partitioning")
	render := flag.String("render", "", "WAV file to convolve with the response")
	output := flag.String("o", "out.wav", "output file for -render")
	bits := flag.Int("bits", 24, "output bit depth for -render: 16, 24 or 32")
	gain := flag.Float64("gain", 0, "output gain in dB for -render, limited to [-60, 24]")
	verbose := flag.Bool("v", false, "log setup details to stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: irinfo [flags] impulse.wav\n\n")
		fmt.Fprintf(os.Stderr, "Prints partition and pruning statistics of an impulse response.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  irinfo hall.wav\n")
		fmt.Fprintf(os.Stderr, "  irinfo -block 256 -threshold -60,-90 -weighting a hall.wav\n")
		fmt.Fprintf(os.Stderr, "  irinfo -render dry.wav -o wet.wav -threshold -90 hall.wav\n")
	}
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	opts, err := parseOptions(*block, *rate, *thresholds, *keep, *weighting, *norm, *quality, *backend, *scheme)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	opts.trim = *trim
	opts.render = *render
	opts.output = *output
	opts.bits = *bits
	opts.gainDB = core.Clamp(*gain, -60, 24)

	if err := run(os.Stdout, logger, flag.Arg(0), opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(block int, rate float64, thresholds string, keep int,
	weighting, norm, quality, backend, scheme string,
) (options, error) {
	opts := options{block: block, rate: rate, keep: keep}
	if !fft.IsPowerOf2(block) {
		return opts, fmt.Errorf("%w: %d", conv.ErrInvalidBlockSize, block)
	}
	if rate < 0 {
		return opts, fmt.Errorf("%w: %v", ir.ErrInvalidSampleRate, rate)
	}
	if keep < 0 {
		return opts, fmt.Errorf("negative -keep %d", keep)
	}

	var err error
	if opts.thresholds, err = parseThresholds(thresholds); err != nil {
		return opts, err
	}
	if opts.weighting, err = conv.ParseWeighting(weighting); err != nil {
		return opts, err
	}
	if opts.norm, err = ir.ParseNormalizeMode(norm); err != nil {
		return opts, err
	}
	if opts.quality, err = ir.ParseQuality(quality); err != nil {
		return opts, err
	}
	if opts.backend, err = fft.ParseBackend(backend); err != nil {
		return opts, err
	}
	if opts.scheme, err = conv.ParseScheme(scheme); err != nil {
		return opts, err
	}
	return opts, nil
}

// parseThresholds reads a comma-separated dB list. "off" or "-inf" stands
// for no pruning.
func parseThresholds(list string) ([]float64, error) {
	var out []float64
	for field := range strings.SplitSeq(list, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if strings.EqualFold(field, "off") {
			out = append(out, math.Inf(-1))
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) {
			return nil, fmt.Errorf("invalid threshold %q", field)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no thresholds given")
	}
	return out, nil
}

func run(w io.Writer, logger *slog.Logger, path string, opts options) error {
	imp, err := ir.ReadFile(path)
	if err != nil {
		return err
	}
	logger.Debug("impulse response decoded",
		"path", path, "channels", imp.NumChannels(), "rate", imp.SampleRate, "length", imp.Len())

	if opts.rate > 0 && opts.rate != imp.SampleRate {
		if imp, err = imp.Resample(opts.rate, opts.quality); err != nil {
			return err
		}
		logger.Debug("impulse response resampled", "rate", imp.SampleRate, "length", imp.Len())
	}
	if opts.trim {
		start, end, err := imp.Trim(ir.DefaultTrimOptions())
		if err != nil {
			return err
		}
		logger.Debug("impulse response trimmed", "start", start, "end", end)
	}
	gain, err := imp.Normalize(opts.norm)
	if err != nil {
		return err
	}

	if err := printSummary(w, path, imp, gain); err != nil {
		return err
	}

	filter, err := conv.Partition64(imp.Channels, opts.block, fft.WithBackend(opts.backend))
	if err != nil {
		return err
	}
	if err := printPruning(w, filter, imp.SampleRate, opts); err != nil {
		return err
	}

	if opts.render != "" {
		return renderFile(w, logger, imp, opts)
	}
	return nil
}

func printSummary(w io.Writer, path string, imp *ir.Impulse, gain float64) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "File:\t%s\n", path)
	fmt.Fprintf(tw, "Channels:\t%d\n", imp.NumChannels())
	fmt.Fprintf(tw, "Sample rate:\t%.0f Hz\n", imp.SampleRate)
	fmt.Fprintf(tw, "Length:\t%d samples (%s)\n", imp.Len(), imp.Duration())
	fmt.Fprintf(tw, "Normalize gain:\t%+.2f dB\n", core.LinearToDB(gain))
	fmt.Fprintf(tw, "Peak:\t%.2f dBFS\n", core.LinearToDB(imp.Peak()))
	if rt, err := imp.RT60(); err == nil {
		fmt.Fprintf(tw, "RT60:\t%.3f s\n", rt)
	} else {
		fmt.Fprintf(tw, "RT60:\tn/a\n")
	}
	fmt.Fprintln(tw)
	return tw.Flush()
}

func printPruning(w io.Writer, filter *conv.Filter, sampleRate float64, opts options) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Threshold [dB]\tBlock\tPartitions\tKept bins\tTotal bins\tDensity\tLevel floor\n")
	fmt.Fprintf(tw, "--------------\t-----\t----------\t---------\t----------\t-------\t-----------\n")

	total := filter.NumChannels() * filter.NumPartitions() * filter.NumBins()
	for _, th := range opts.thresholds {
		sparse, err := conv.Prune(filter, conv.PruneOptions{
			ThresholdDB: th,
			KeepLowBins: opts.keep,
			Weighting:   opts.weighting,
			SampleRate:  sampleRate,
		})
		if err != nil {
			return err
		}
		label, floor := "off", "-"
		if !math.IsInf(th, -1) {
			label = strconv.FormatFloat(th, 'f', 1, 64)
			floor = fmt.Sprintf("%.2e", core.DBToLinear(th))
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f%%\t%s\n",
			label,
			filter.BlockSize(),
			filter.NumPartitions(),
			sparse.NNZ(),
			total,
			100*sparse.Density(),
			floor,
		)
	}
	return tw.Flush()
}
