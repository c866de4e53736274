package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/fit"
	"github.com/cwbudde/algo-eqfit/peq"
)

func TestReportRoundTrip(t *testing.T) {
	bank := peq.Bank{peq.NewFilter(4000, 2, -1.5), peq.NewFilter(100, 0.7, 3)}
	input := curve.Curve{{Freq: 100, Gain: 0}, {Freq: 1000, Gain: 1}, {Freq: 4000, Gain: -2}}
	eq, err := Assemble(bank, input)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	res := &fit.Result{
		Bank:        bank,
		Error:       12.5,
		MinError:    0.6,
		Seed:        7,
		Evaluations: 300,
		Rounds:      []fit.RoundStat{{Round: 1, BestError: 12.5, BestWorker: 2}},
	}
	rep, err := NewReport(res, eq, input)
	if err != nil {
		t.Fatalf("NewReport: %v", err)
	}
	rep.Options = fit.DefaultOptions()

	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := WriteReport(path, rep); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	got, ok, err := LoadReport(path)
	if err != nil || !ok {
		t.Fatalf("LoadReport: ok=%v err=%v", ok, err)
	}
	if got.Seed != 7 || got.Error != 12.5 || got.Preamp != eq.Preamp {
		t.Fatalf("report fields mismatch: %+v", got)
	}
	if got.Options.FilterCount != 20 || got.Options.Deviation != (fit.Deviation{1, 1, 1}) {
		t.Fatalf("options mismatch: %+v", got.Options)
	}
	b := got.Bank(peq.DefaultSampleRate)
	if len(b) != 2 || b[0] != eq.Bank[0] || b[1] != eq.Bank[1] {
		t.Fatalf("bank mismatch: got=%+v want=%+v", b, eq.Bank)
	}
	if len(got.Rounds) != 1 || got.Rounds[0].BestWorker != 2 {
		t.Fatalf("rounds mismatch: %+v", got.Rounds)
	}
}

func TestLoadReportMissingFile(t *testing.T) {
	rep, ok, err := LoadReport(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || rep != nil {
		t.Fatalf("expected no report, got ok=%v rep=%+v", ok, rep)
	}
}

func TestLoadReportRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadReport(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestReportBankFillsSampleRate(t *testing.T) {
	rep := &Report{Filters: []peq.Filter{{Center: 1000, Q: 1, Gain: 2}}}
	b := rep.Bank(48000)
	if b[0].SampleRate != 48000 {
		t.Fatalf("sample rate = %v, want 48000", b[0].SampleRate)
	}
}
