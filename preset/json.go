package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-eqfit/analysis"
	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/fit"
	"github.com/cwbudde/algo-eqfit/peq"
)

// Report is the JSON record of one fitting run.
type Report struct {
	InputPath     string           `json:"input_path"`
	OutputPath    string           `json:"output_path"`
	EQPath        string           `json:"eq_path"`
	PredictedPath string           `json:"predicted_path,omitempty"`
	OutputIR      string           `json:"output_ir,omitempty"`
	Samples       int              `json:"samples"`
	Options       fit.Options      `json:"options"`
	Seed          int64            `json:"seed"`
	DurationSec   float64          `json:"elapsed_seconds"`
	Evaluations   int64            `json:"evaluations"`
	InitialError  float64          `json:"initial_error"`
	Error         float64          `json:"error"`
	MinError      float64          `json:"min_error"`
	EarlyStop     bool             `json:"early_stop"`
	Refined       bool             `json:"refined"`
	Metrics       analysis.Metrics `json:"metrics"`
	Preamp        float64          `json:"preamp"`
	Filters       []peq.Filter     `json:"filters"`
	Rounds        []fit.RoundStat  `json:"rounds,omitempty"`
	Resumed       bool             `json:"resumed,omitempty"`
}

// NewReport fills a report from a search result, the assembled equalizer
// and the difference curve it was fitted against.
func NewReport(res *fit.Result, eq *Result, diff curve.Curve) (*Report, error) {
	if res == nil || eq == nil {
		return nil, errors.New("preset: nil result")
	}
	return &Report{
		Samples:      len(diff),
		Seed:         res.Seed,
		Evaluations:  res.Evaluations,
		InitialError: res.InitialError,
		Error:        res.Error,
		MinError:     res.MinError,
		EarlyStop:    res.EarlyStop,
		Refined:      res.Refined,
		Metrics:      analysis.Compare(diff, eq.Bank),
		Preamp:       eq.Preamp,
		Filters:      append([]peq.Filter(nil), eq.Bank...),
		Rounds:       res.Rounds,
	}, nil
}

// EncodeReport renders r as indented JSON with a trailing newline.
func EncodeReport(r *Report) ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// WriteReport writes r as indented JSON, creating parent directories.
func WriteReport(path string, r *Report) error {
	b, err := EncodeReport(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// LoadReport reads a report. A missing file is not an error; ok is false.
func LoadReport(path string) (*Report, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, false, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, true, nil
}

// Bank returns the report's filters. Entries without a sample rate get
// sampleRate.
func (r *Report) Bank(sampleRate float64) peq.Bank {
	bank := make(peq.Bank, len(r.Filters))
	for i, f := range r.Filters {
		if f.SampleRate <= 0 {
			f.SampleRate = sampleRate
		}
		bank[i] = f
	}
	return bank
}
