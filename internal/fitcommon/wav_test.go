package fitcommon

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadMonoWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ir.wav")
	data := []float32{0, 0.5, -0.5, 0.25}
	if err := WriteMonoWAV(path, data, 44100); err != nil {
		t.Fatalf("WriteMonoWAV: %v", err)
	}
	got, sr, err := ReadWAVMono(path)
	if err != nil {
		t.Fatalf("ReadWAVMono: %v", err)
	}
	if sr != 44100 {
		t.Fatalf("sample rate = %d, want 44100", sr)
	}
	if len(got) != len(data) {
		t.Fatalf("frames = %d, want %d", len(got), len(data))
	}
	for i, v := range got {
		if math.Abs(v) > 1 {
			t.Fatalf("sample %d = %f outside [-1, 1]", i, v)
		}
	}
}

func TestReadWAVMonoMissing(t *testing.T) {
	if _, _, err := ReadWAVMono(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteMonoWAVReportsWriteFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	if err := WriteMonoWAV("/dev/full", make([]float32, 4096), 44100); err == nil {
		t.Fatal("expected error writing to a full device")
	}
}
