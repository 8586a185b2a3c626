package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Hours is a daily trading window parsed from "HH:MM-HH:MM". When the start
// is at or after the end the window wraps midnight ("22:00-02:00" covers
// late evening through early morning).
type Hours struct {
	start int // minutes since midnight
	end   int
}

// ParseHours validates and parses a trading window string.
func ParseHours(s string) (Hours, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Hours{}, fmt.Errorf("trading hours %q: want HH:MM-HH:MM", s)
	}
	start, err := parseClock(parts[0])
	if err != nil {
		return Hours{}, fmt.Errorf("trading hours %q: %w", s, err)
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Hours{}, fmt.Errorf("trading hours %q: %w", s, err)
	}
	return Hours{start: start, end: end}, nil
}

func parseClock(s string) (int, error) {
	hm := strings.Split(strings.TrimSpace(s), ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("bad clock %q", s)
	}
	h, err := strconv.Atoi(hm[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", hm[0])
	}
	m, err := strconv.Atoi(hm[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", hm[1])
	}
	return h*60 + m, nil
}

// Contains reports whether t falls inside the window.
func (h Hours) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if h.start >= h.end {
		return m >= h.start || m <= h.end
	}
	return m >= h.start && m <= h.end
}
