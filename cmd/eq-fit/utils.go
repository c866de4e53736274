package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/fit"
	"github.com/cwbudde/algo-eqfit/measure"
	"github.com/cwbudde/algo-eqfit/peq"
	"github.com/cwbudde/algo-eqfit/preset"
)

func (c *config) fillDefaults() {
	if c.eqPath == "" {
		c.eqPath = defaultOutputPath("eq", c.outputPath, c.inputPath)
	}
	if c.predictedPath == "" {
		c.predictedPath = defaultOutputPath("predicted", c.outputPath, c.inputPath)
	}
	if c.reportPath == "" {
		c.reportPath = c.eqPath + ".report.json"
	}
}

// defaultOutputPath returns eq/<kind>_<output file>_<input file>.txt.
func defaultOutputPath(kind, outputPath, inputPath string) string {
	name := fmt.Sprintf("%s_%s_%s.txt", kind, filepath.Base(outputPath), filepath.Base(inputPath))
	return filepath.Join("eq", name)
}

// loadCurve reads a text measurement, or an impulse response for .wav files.
func loadCurve(path string) (curve.Curve, error) {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return measure.ReadImpulseResponse(path)
	}
	return curve.ReadFile(path)
}

func loadBankFromReport(path string, opts fit.Options) (peq.Bank, bool, error) {
	rep, ok, err := preset.LoadReport(path)
	if err != nil || !ok {
		return nil, false, err
	}
	bank := rep.Bank(opts.SampleRate)
	if len(bank) == 0 {
		return nil, false, nil
	}
	if len(bank) != opts.FilterCount {
		return nil, false, fmt.Errorf("report has %d filters, want %d", len(bank), opts.FilterCount)
	}
	for i, f := range bank {
		bank[i] = opts.ClampFilter(f)
	}
	return bank, true, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
