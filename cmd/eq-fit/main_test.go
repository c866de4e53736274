package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/fit"
	"github.com/cwbudde/algo-eqfit/internal/fitcommon"
	"github.com/cwbudde/algo-eqfit/peq"
	"github.com/cwbudde/algo-eqfit/preset"
)

func writeCurve(t *testing.T, path string, c curve.Curve) {
	t.Helper()
	if err := curve.WriteFile(path, c); err != nil {
		t.Fatalf("write curve: %v", err)
	}
}

func testConfig(t *testing.T) *config {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	writeCurve(t, in, curve.Curve{{Freq: 20, Gain: 0}, {Freq: 400, Gain: 0}, {Freq: 18000, Gain: 0}})
	writeCurve(t, out, curve.Curve{{Freq: 20, Gain: 0}, {Freq: 400, Gain: 0}, {Freq: 18000, Gain: 6}})

	opts := fit.DefaultOptions()
	opts.FilterCount = 2
	opts.Iterations = 200
	opts.Workers = 2
	opts.Rounds = 2
	opts.Seed = 5
	cfg := &config{
		inputPath:     in,
		outputPath:    out,
		eqPath:        filepath.Join(dir, "eq", "eq.txt"),
		predictedPath: filepath.Join(dir, "eq", "predicted.txt"),
		irLength:      256,
		opts:          opts,
		sweep:         curve.DefaultSweepOptions(),
	}
	cfg.fillDefaults()
	return cfg
}

func TestDefaultOutputPath(t *testing.T) {
	got := defaultOutputPath("eq", "meas/target.txt", "meas/headphone.csv")
	want := filepath.Join("eq", "eq_target.txt_headphone.csv.txt")
	if got != want {
		t.Fatalf("defaultOutputPath() = %q, want %q", got, want)
	}
}

func TestFillDefaults(t *testing.T) {
	cfg := &config{inputPath: "a.txt", outputPath: "b.txt"}
	cfg.fillDefaults()
	if cfg.eqPath != filepath.Join("eq", "eq_b.txt_a.txt.txt") {
		t.Fatalf("eq path = %q", cfg.eqPath)
	}
	if cfg.reportPath != cfg.eqPath+".report.json" {
		t.Fatalf("report path = %q", cfg.reportPath)
	}
	if cfg.predictedPath == "" {
		t.Fatalf("predicted path not set")
	}
}

func TestLoadCurveWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ir.WAV")
	ir := make([]float32, 512)
	ir[0] = 0.5
	if err := fitcommon.WriteMonoWAV(path, ir, 48000); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	c, err := loadCurve(path)
	if err != nil {
		t.Fatalf("loadCurve: %v", err)
	}
	if len(c) == 0 || c[0].Freq != 20 {
		t.Fatalf("unexpected curve: %d points", len(c))
	}
}

func TestRunWritesOutputs(t *testing.T) {
	cfg := testConfig(t)
	cfg.outputIR = filepath.Join(filepath.Dir(cfg.eqPath), "eq.wav")
	rep, err := run(cfg, io.Discard, zap.NewNop())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Seed != 5 || len(rep.Filters) != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	preamp, bank, err := preset.ReadEQ(cfg.eqPath)
	if err != nil {
		t.Fatalf("ReadEQ: %v", err)
	}
	if preamp > 0 || preamp != rep.Preamp {
		t.Fatalf("preamp = %v, report %v", preamp, rep.Preamp)
	}
	if len(bank) != 2 || bank[0].Center > bank[1].Center {
		t.Fatalf("eq filters not sorted: %+v", bank)
	}
	pred, err := curve.ReadFile(cfg.predictedPath)
	if err != nil || len(pred) != 3 {
		t.Fatalf("predicted curve: %v %+v", err, pred)
	}
	if _, ok, err := preset.LoadReport(cfg.reportPath); err != nil || !ok {
		t.Fatalf("report missing: ok=%v err=%v", ok, err)
	}
	if _, sr, err := fitcommon.ReadWAVMono(cfg.outputIR); err != nil || sr != int(peq.DefaultSampleRate) {
		t.Fatalf("impulse response: sr=%d err=%v", sr, err)
	}
}

func TestRunResumesFromReport(t *testing.T) {
	cfg := testConfig(t)
	first, err := run(cfg, io.Discard, zap.NewNop())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	cfg.resume = true
	cfg.opts.Rounds = 1
	second, err := run(cfg, io.Discard, zap.NewNop())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Resumed {
		t.Fatalf("expected resumed run")
	}
	if second.InitialError > first.Error+1e-9 {
		t.Fatalf("resumed initial error %v above previous result %v", second.InitialError, first.Error)
	}

	cfg.opts.FilterCount = 3
	third, err := run(cfg, io.Discard, zap.NewNop())
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Resumed {
		t.Fatalf("report with a different filter count must not resume")
	}
}

func TestRunMissingInputWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.inputPath = filepath.Join(t.TempDir(), "missing.txt")
	if _, err := run(cfg, io.Discard, zap.NewNop()); err == nil {
		t.Fatalf("expected error")
	}
	for _, p := range []string{cfg.eqPath, cfg.predictedPath, cfg.reportPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist (err=%v)", p, err)
		}
	}
}

func TestLoadBankFromReportClampsFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rep.json")
	rep := &preset.Report{Filters: []peq.Filter{
		{Center: 5, Q: 10, Gain: 3},
		{Center: 1000, Q: 1, Gain: -200},
	}}
	if err := preset.WriteReport(path, rep); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	opts := fit.DefaultOptions()
	opts.FilterCount = 2
	bank, ok, err := loadBankFromReport(path, opts)
	if err != nil || !ok {
		t.Fatalf("loadBankFromReport: ok=%v err=%v", ok, err)
	}
	if bank[0].Center != 20 || bank[0].Q != 5 || bank[1].Gain != -100 {
		t.Fatalf("filters not clamped: %+v", bank)
	}
	if bank[0].SampleRate != opts.SampleRate {
		t.Fatalf("sample rate = %v", bank[0].SampleRate)
	}

	opts.FilterCount = 4
	if _, ok, err := loadBankFromReport(path, opts); ok || err == nil {
		t.Fatalf("expected filter count mismatch error, ok=%v err=%v", ok, err)
	}
}

func TestLoadBankFromReportMissing(t *testing.T) {
	_, ok, err := loadBankFromReport("/nonexistent/path.json", fit.DefaultOptions())
	if ok || err != nil {
		t.Fatalf("expected silent miss, ok=%v err=%v", ok, err)
	}
}

func assertNoOutputs(t *testing.T, cfg *config) {
	t.Helper()
	for _, p := range []string{cfg.eqPath, cfg.predictedPath, cfg.reportPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist (err=%v)", p, err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(cfg.eqPath))
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("read eq dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("leftover files in eq dir: %v", entries)
	}
}

func TestRunUnwritablePredictedPathWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.predictedPath = filepath.Join(blocker, "predicted.txt")
	if _, err := run(cfg, io.Discard, zap.NewNop()); err == nil {
		t.Fatalf("expected write error")
	}
	assertNoOutputs(t, cfg)
}

func TestRunReportPathIsDirectoryWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	cfg.reportPath = t.TempDir()
	if _, err := run(cfg, io.Discard, zap.NewNop()); err == nil {
		t.Fatalf("expected write error")
	}
	for _, p := range []string{cfg.eqPath, cfg.predictedPath} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("%s should not exist (err=%v)", p, err)
		}
	}
}

func TestCommitFilesRemovesTempsOnFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.txt")
	files := []pendingFile{
		bytesFile(good, []byte("a")),
		{path: filepath.Join(dir, "b.txt"), write: func(string) error { return os.ErrPermission }},
	}
	if err := commitFiles(files); err == nil {
		t.Fatalf("expected error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %v", entries)
	}
}
