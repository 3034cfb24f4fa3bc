package timeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errEmptyTime    = errors.New("empty timestamp")
	errNegativeTime = errors.New("negative timestamp")
)

// ParseTime converts a timestamp to seconds. Accepted forms are plain
// seconds ("45", "45.5") and timecodes "MM:SS", "HH:MM:SS", each with an
// optional fraction. Every field is decimal digits only; a decimal comma
// is read as a dot.
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errEmptyTime
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: %q", errNegativeTime, s)
	}

	if !strings.Contains(s, ":") {
		v, err := parseSecondsField(s)
		if err != nil {
			return 0, fmt.Errorf("timestamp %q: %w", s, err)
		}
		return v, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("timecode %q has too many fields", s)
	}
	secs, err := parseSecondsField(parts[len(parts)-1])
	if err != nil {
		return 0, fmt.Errorf("timecode %q: %w", s, err)
	}
	if secs >= 60 {
		return 0, fmt.Errorf("timecode %q: seconds must be < 60", s)
	}
	units := parts[:len(parts)-1]
	total := secs
	scale := 60.0
	for i := len(units) - 1; i >= 0; i-- {
		n, err := parseDigits(units[i])
		if err != nil {
			return 0, fmt.Errorf("timecode %q: %w", s, err)
		}
		if len(units) == 2 && i == 1 && n >= 60 {
			return 0, fmt.Errorf("timecode %q: minutes must be < 60", s)
		}
		total += float64(n) * scale
		scale *= 60
	}
	return total, nil
}

func parseDigits(f string) (int, error) {
	if f == "" {
		return 0, errors.New("empty field")
	}
	for _, r := range f {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("field %q is not numeric", f)
		}
	}
	return strconv.Atoi(f)
}

func parseSecondsField(f string) (float64, error) {
	whole, frac, hasFrac := strings.Cut(f, ".")
	if _, err := parseDigits(whole); err != nil {
		return 0, err
	}
	if hasFrac {
		if _, err := parseDigits(frac); err != nil {
			return 0, err
		}
	}
	return strconv.ParseFloat(f, 64)
}

// FormatTime renders seconds as HH:MM:SS.mmm.
func FormatTime(sec float64) string {
	if sec < 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
		return "--:--:--.---"
	}
	ms := int64(math.Round(sec * 1000))
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}
