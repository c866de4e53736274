package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-eqfit/analysis"
	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/measure"
	"github.com/cwbudde/algo-eqfit/preset"
)

func main() {
	inputPath := flag.String("input", "", "Measured response (text curve or impulse-response WAV)")
	outputPath := flag.String("output", "", "Target response (text curve or impulse-response WAV)")
	eqPath := flag.String("eq", "", "Equalizer text to evaluate")
	lowerFreq := flag.Float64("lower-freq", curve.DefaultSweepOptions().Lower, "Lowest sweep frequency in Hz (match the fit)")
	upperFreq := flag.Float64("upper-freq", curve.DefaultSweepOptions().Upper, "Highest sweep frequency in Hz (match the fit)")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *inputPath == "" || *outputPath == "" || *eqPath == "" {
		die("--input, --output and --eq are required")
	}

	sweep, err := sweepOptions(*lowerFreq, *upperFreq)
	if err != nil {
		die("invalid frequency range: %v", err)
	}
	metrics, preamp, err := evaluate(*inputPath, *outputPath, *eqPath, sweep)
	if err != nil {
		die("%v", err)
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Samples:          %d\n", metrics.Samples)
	fmt.Printf("Preamp:           %g dB\n", preamp)
	fmt.Println()
	fmt.Printf("Sum |error|:      %.3f dB\n", metrics.SumAbsDB)
	fmt.Printf("Mean |error|:     %.3f dB\n", metrics.MeanAbsDB)
	fmt.Printf("RMSE:             %.3f dB\n", metrics.RMSEDB)
	fmt.Printf("Max |error|:      %.3f dB at %.0f Hz\n", metrics.MaxAbsDB, metrics.MaxAbsFreq)
	fmt.Printf("Bias:             %+.3f dB (stddev %.3f dB)\n", metrics.BiasDB, metrics.StdDevDB)
	fmt.Printf("─────────────────────────────────────────\n")
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)
}

// evaluate compares the equalizer's response with the correction needed to
// move input onto output.
func evaluate(inputPath, outputPath, eqPath string, sweep curve.SweepOptions) (analysis.Metrics, float64, error) {
	input, err := loadNormalised(inputPath)
	if err != nil {
		return analysis.Metrics{}, 0, fmt.Errorf("failed to read input: %w", err)
	}
	output, err := loadNormalised(outputPath)
	if err != nil {
		return analysis.Metrics{}, 0, fmt.Errorf("failed to read output: %w", err)
	}
	diff, err := curve.Difference(input, output, sweep)
	if err != nil {
		return analysis.Metrics{}, 0, fmt.Errorf("difference curve: %w", err)
	}
	preamp, bank, err := preset.ReadEQ(eqPath)
	if err != nil {
		return analysis.Metrics{}, 0, fmt.Errorf("failed to read eq: %w", err)
	}
	return analysis.Compare(diff, bank), preamp, nil
}

// sweepOptions returns the default grid limited to [lower, upper], the same
// grid eq-fit builds from its frequency flags.
func sweepOptions(lower, upper float64) (curve.SweepOptions, error) {
	o := curve.DefaultSweepOptions()
	o.Lower = lower
	o.Upper = upper
	return o, o.Validate()
}

func loadNormalised(path string) (curve.Curve, error) {
	var (
		c   curve.Curve
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		c, err = measure.ReadImpulseResponse(path)
	} else {
		c, err = curve.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return curve.Normalise(c)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
