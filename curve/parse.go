package curve

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParsePoints reads one "freq gain" sample per line. Fields may be separated
// by whitespace or commas and anything after the second field is ignored.
// Lines that do not start with two numbers, or whose frequency is not
// positive, are skipped. Only read errors are reported.
func ParsePoints(r io.Reader) (Curve, error) {
	var out Curve
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if p, ok := parseLine(sc.Text()); ok {
			out = append(out, p)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseLine(line string) (Point, bool) {
	fields := strings.Fields(strings.ReplaceAll(line, ",", " "))
	if len(fields) < 2 {
		return Point{}, false
	}
	freq, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, false
	}
	gain, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, false
	}
	if !(freq > 0) {
		return Point{}, false
	}
	return Point{Freq: freq, Gain: gain}, true
}

// ReadFile parses a measurement text file.
func ReadFile(path string) (Curve, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := ParsePoints(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return c, nil
}

// Format renders c as "freq gain" lines without a trailing newline.
func Format(c Curve) string {
	var b strings.Builder
	for i, p := range c {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strconv.FormatFloat(p.Freq, 'f', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(p.Gain, 'f', -1, 64))
	}
	return b.String()
}

// WriteFile writes c as "freq gain" lines.
func WriteFile(path string, c Curve) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(Format(c)), 0o644)
}
