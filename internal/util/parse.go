package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration given either as Go syntax ("1500ms",
// "2s") or as decimal seconds ("1.5").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative duration: %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// ParsePID parses a positive process identifier.
func ParsePID(s string) (int, error) {
	pid, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid PID: %w", err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("invalid PID value: %d", pid)
	}
	return pid, nil
}
