package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/fit"
	fitcommon "github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/internal/logging"
	"github.com/cwbudde/algo-eqfit/peq"
	"github.com/cwbudde/algo-eqfit/preset"
)

type config struct {
	inputPath     string
	outputPath    string
	eqPath        string
	predictedPath string
	reportPath    string
	outputIR      string
	irLength      int
	resume        bool
	opts          fit.Options
	sweep         curve.SweepOptions
}

func main() {
	def := fit.DefaultOptions()
	inputPath := flag.String("input", "", "Measured response to correct (text curve or impulse-response WAV)")
	outputPath := flag.String("output", "", "Target response (text curve or impulse-response WAV)")
	eqOut := flag.String("eq-out", "", "Equalizer text path (default: eq/eq_<output>_<input>.txt)")
	predictedOut := flag.String("predicted-out", "", "Predicted corrected curve path (default: eq/predicted_<output>_<input>.txt)")
	reportPath := flag.String("report", "", "Report JSON path (default: <eq-out>.report.json)")
	outputIR := flag.String("output-ir", "", "Optional path to write the equalizer impulse response WAV")
	irLength := flag.Int("ir-length", 8192, "Impulse response length in samples for --output-ir")
	filters := flag.Int("filters", def.FilterCount, "Number of peaking filters")
	iters := flag.Int("iters", def.Iterations, "Annealing iterations per worker and round")
	workers := flag.String("workers", "6", "Parallel annealing workers (number or 'auto')")
	rounds := flag.Int("rounds", def.Rounds, "Optimisation rounds")
	deviation := flag.String("deviation", "1,1,1", "Initial deviation: center octaves, Q, gain dB")
	deviationDecay := flag.Float64("deviation-decay", def.DeviationDecay, "Deviation factor applied after each round")
	minErrorPerSample := flag.Float64("min-error-per-sample", def.MinErrorPerSample, "Stop once error <= this times the sample count")
	lowerFreq := flag.Float64("lower-freq", def.LowerFreq, "Lowest filter center and sweep frequency in Hz")
	upperFreq := flag.Float64("upper-freq", def.UpperFreq, "Highest filter center and sweep frequency in Hz")
	minQ := flag.Float64("min-q", def.MinQ, "Minimum filter Q")
	maxQ := flag.Float64("max-q", def.MaxQ, "Maximum filter Q")
	minGain := flag.Float64("min-gain", def.MinGain, "Minimum filter gain in dB")
	maxGain := flag.Float64("max-gain", def.MaxGain, "Maximum filter gain in dB")
	sampleRate := flag.Float64("sample-rate", def.SampleRate, "Filter design sample rate in Hz")
	seed := flag.Int64("seed", 0, "Random seed (0 derives one from the clock)")
	refineEvals := flag.Int("refine-evals", 0, "Mayfly polish evaluation budget after annealing (0 disables)")
	refinePop := flag.Int("refine-pop", def.RefinePop, "Mayfly male and female population size")
	resume := flag.Bool("resume", false, "Start from the filters in an existing report")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" {
		die("--input and --output are required")
	}
	log, err := logging.New(*logLevel)
	if err != nil {
		die("invalid --log-level: %v", err)
	}
	defer func() { _ = log.Sync() }()

	parsedWorkers, err := fitcommon.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}
	dev, err := fitcommon.ParseFloats(*deviation, 3)
	if err != nil {
		die("invalid --deviation: %v", err)
	}

	opts := def
	opts.FilterCount = *filters
	opts.Iterations = *iters
	opts.Workers = parsedWorkers
	opts.Rounds = *rounds
	opts.Deviation = fit.Deviation{dev[0], dev[1], dev[2]}
	opts.DeviationDecay = *deviationDecay
	opts.MinErrorPerSample = *minErrorPerSample
	opts.LowerFreq = *lowerFreq
	opts.UpperFreq = *upperFreq
	opts.MinQ = *minQ
	opts.MaxQ = *maxQ
	opts.MinGain = *minGain
	opts.MaxGain = *maxGain
	opts.SampleRate = *sampleRate
	opts.Seed = *seed
	opts.RefineEvals = *refineEvals
	opts.RefinePop = *refinePop
	if err := opts.Validate(); err != nil {
		die("invalid options: %v", err)
	}

	sweep := curve.DefaultSweepOptions()
	sweep.Lower = *lowerFreq
	sweep.Upper = *upperFreq
	if err := sweep.Validate(); err != nil {
		die("invalid frequency range: %v", err)
	}
	if *irLength < 1 {
		*irLength = 1
	}

	cfg := &config{
		inputPath:     *inputPath,
		outputPath:    *outputPath,
		eqPath:        *eqOut,
		predictedPath: *predictedOut,
		reportPath:    *reportPath,
		outputIR:      *outputIR,
		irLength:      *irLength,
		resume:        *resume,
		opts:          opts,
		sweep:         sweep,
	}
	cfg.fillDefaults()

	rep, err := run(cfg, os.Stdout, log)
	if err != nil {
		die("%v", err)
	}
	fmt.Printf("Done evals=%d elapsed=%.1fs error=%.4f min_error=%.4f similarity=%.2f%% eq=%s\n",
		rep.Evaluations, rep.DurationSec, rep.Error, rep.MinError, rep.Metrics.Similarity*100.0, rep.EQPath)
}

// run fits the equalizer and writes every output. Nothing is written when
// loading or fitting fails.
func run(cfg *config, stdout io.Writer, log *zap.Logger) (*preset.Report, error) {
	started := time.Now()
	input, err := loadCurve(cfg.inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	output, err := loadCurve(cfg.outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}
	input, err = curve.Normalise(input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	output, err = curve.Normalise(output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}
	diff, err := curve.Difference(input, output, cfg.sweep)
	if err != nil {
		return nil, fmt.Errorf("difference curve: %w", err)
	}
	fmt.Fprintf(stdout, "Difference curve: %d samples %.0f..%.0f Hz\n", len(diff), diff[0].Freq, diff[len(diff)-1].Freq)
	for _, p := range diff {
		log.Debug("difference", zap.Float64("freq", p.Freq), zap.Float64("gain", p.Gain))
	}

	var start peq.Bank
	resumed := false
	if cfg.resume {
		if bank, ok, err := loadBankFromReport(cfg.reportPath, cfg.opts); err != nil {
			log.Warn("resume skipped", zap.String("report", cfg.reportPath), zap.Error(err))
		} else if ok {
			start, resumed = bank, true
			fmt.Fprintf(stdout, "Resumed filters from %s\n", cfg.reportPath)
		}
	}

	search, err := fit.NewSearch(cfg.opts, diff, log)
	if err != nil {
		return nil, err
	}
	res, err := search.Run(start)
	if err != nil {
		return nil, fmt.Errorf("fit failed: %w", err)
	}
	fmt.Fprintf(stdout, "error: %g, min error: %g\n", res.Error, res.MinError)

	eq, err := preset.Assemble(res.Bank, input)
	if err != nil {
		return nil, err
	}
	fmt.Fprintln(stdout, eq.EQ())

	rep, err := preset.NewReport(res, eq, diff)
	if err != nil {
		return nil, err
	}
	rep.InputPath = cfg.inputPath
	rep.OutputPath = cfg.outputPath
	rep.EQPath = cfg.eqPath
	rep.PredictedPath = cfg.predictedPath
	rep.OutputIR = cfg.outputIR
	rep.Options = cfg.opts
	rep.Resumed = resumed
	rep.DurationSec = time.Since(started).Seconds()

	if err := writeOutputs(cfg, eq, rep); err != nil {
		return nil, fmt.Errorf("failed to write outputs: %w", err)
	}
	return rep, nil
}
