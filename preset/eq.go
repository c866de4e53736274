package preset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-eqfit/curve"
	"github.com/cwbudde/algo-eqfit/peq"
)

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Format renders the equalizer text:
//
//	Preamp: <preamp> dB
//	Filter 1: ON PK Fc <center> Hz Gain <gain> dB Q <Q>
//
// with one filter line per bank entry in bank order and no trailing newline.
func Format(preamp float64, bank peq.Bank) string {
	var b strings.Builder
	b.WriteString("Preamp: ")
	b.WriteString(formatNum(preamp))
	b.WriteString(" dB")
	for i, f := range bank {
		fmt.Fprintf(&b, "\nFilter %d: ON PK Fc %s Hz Gain %s dB Q %s",
			i+1, formatNum(f.Center), formatNum(f.Gain), formatNum(f.Q))
	}
	return b.String()
}

// WriteEQ writes Format(preamp, bank) to path, creating parent directories.
func WriteEQ(path string, preamp float64, bank peq.Bank) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Format(preamp, bank)), 0o644)
}

var (
	preampRE = regexp.MustCompile(`^Preamp:\s*(\S+)\s*dB`)
	filterRE = regexp.MustCompile(`^Filter\s*\d*:\s*(ON|OFF)\s+PK\s+Fc\s+(\S+)\s*Hz\s+Gain\s+(\S+)\s*dB\s+Q\s+(\S+)`)
)

// ParseEQ reads equalizer text. Peaking filters that are switched off and
// lines it does not recognize are skipped.
func ParseEQ(r io.Reader) (float64, peq.Bank, error) {
	var (
		preamp float64
		bank   peq.Bank
	)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if m := preampRE.FindStringSubmatch(text); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, nil, fmt.Errorf("line %d: preamp: %w", line, err)
			}
			preamp = v
			continue
		}
		m := filterRE.FindStringSubmatch(text)
		if m == nil || m[1] != "ON" {
			continue
		}
		var vals [3]float64
		for i, s := range m[2:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("line %d: %w", line, err)
			}
			vals[i] = v
		}
		bank = append(bank, peq.NewFilter(vals[0], vals[2], vals[1]))
	}
	if err := sc.Err(); err != nil {
		return 0, nil, err
	}
	return preamp, bank, nil
}

// ReadEQ parses an equalizer text file.
func ReadEQ(path string) (float64, peq.Bank, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()
	preamp, bank, err := ParseEQ(f)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return preamp, bank, nil
}

// WritePredicted writes the predicted corrected curve as "freq gain" lines.
func WritePredicted(path string, predicted curve.Curve) error {
	return curve.WriteFile(path, predicted)
}
