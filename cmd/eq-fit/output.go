package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/preset"
)

// pendingFile is one output; write fills a temporary path that is renamed
// onto path once every output has been written.
type pendingFile struct {
	path  string
	write func(tmp string) error
}

func bytesFile(path string, b []byte) pendingFile {
	return pendingFile{path: path, write: func(tmp string) error {
		return os.WriteFile(tmp, b, 0o644)
	}}
}

// writeOutputs renders every output first and commits them together, so a
// failed write leaves none of them behind.
func writeOutputs(cfg *config, eq *preset.Result, rep *preset.Report) error {
	report, err := preset.EncodeReport(rep)
	if err != nil {
		return err
	}
	files := []pendingFile{
		bytesFile(cfg.eqPath, []byte(preset.Format(eq.Preamp, eq.Bank))),
		bytesFile(cfg.predictedPath, []byte(curve.Format(eq.Predicted))),
	}
	if cfg.outputIR != "" {
		samples := impulseResponse(eq, cfg.irLength)
		sr := int(cfg.opts.SampleRate)
		files = append(files, pendingFile{path: cfg.outputIR, write: func(tmp string) error {
			return fitcommon.WriteMonoWAV(tmp, samples, sr)
		}})
	}
	files = append(files, bytesFile(cfg.reportPath, report))
	return commitFiles(files)
}

func commitFiles(files []pendingFile) (err error) {
	for _, f := range files {
		if fi, statErr := os.Stat(f.path); statErr == nil && fi.IsDir() {
			return fmt.Errorf("%s is a directory", f.path)
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return err
		}
	}

	tmps := make([]string, 0, len(files))
	defer func() {
		if err != nil {
			for _, t := range tmps {
				_ = os.Remove(t)
			}
		}
	}()
	for _, f := range files {
		tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".tmp*")
		if err != nil {
			return err
		}
		name := tmp.Name()
		tmps = append(tmps, name)
		if err := tmp.Close(); err != nil {
			return err
		}
		if err := f.write(name); err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		if err := os.Chmod(name, 0o644); err != nil {
			return err
		}
	}
	for i, f := range files {
		if err := os.Rename(tmps[i], f.path); err != nil {
			return err
		}
	}
	return nil
}

// impulseResponse renders preamp and bank as a biquad cascade and returns
// n samples of its impulse response.
func impulseResponse(eq *preset.Result, n int) []float32 {
	ir := eq.Bank.Chain(eq.Preamp).ImpulseResponse(n)
	out := make([]float32, len(ir))
	for i, v := range ir {
		out[i] = float32(fitcommon.Clamp(v, -1, 1))
	}
	return out
}
