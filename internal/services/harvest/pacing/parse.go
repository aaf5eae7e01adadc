package pacing

import (
	"math"
	"strconv"
	"strings"
	"time"

	perr "tubemail/internal/platform/errors"
)

// ParseDelay reads "500ms", "1.5s", "3s" or bare seconds like "0.5"
// empty input is zero
func ParseDelay(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	num, unit := s, time.Second
	switch {
	case strings.HasSuffix(s, "ms"):
		num, unit = strings.TrimSuffix(s, "ms"), time.Millisecond
	case strings.HasSuffix(s, "s"):
		num = strings.TrimSuffix(s, "s")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, perr.WithField(perr.Configf("invalid delay %q, use e.g. 500ms, 1.5s or 0.5", s), "delay")
	}
	if f < 0 {
		return 0, perr.WithField(perr.Configf("delay %q must not be negative", s), "delay")
	}
	ns := f * float64(unit)
	if ns >= math.MaxInt64 {
		return 0, perr.WithField(perr.Configf("delay %q is out of range", s), "delay")
	}
	return time.Duration(ns), nil
}

// ParseBatch reads "DELAY/N", e.g. "3s/50" pauses 3s before every 50th submission
// empty input disables batching
func ParseBatch(s string) (time.Duration, int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0, 0, perr.WithField(perr.Configf("invalid batch delay %q, use DELAY/N e.g. 3s/50", s), "batch_delay")
	}
	d, err := ParseDelay(parts[0])
	if err != nil {
		return 0, 0, perr.WithField(err, "batch_delay")
	}
	n, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || n <= 0 {
		return 0, 0, perr.WithField(perr.Configf("batch size in %q must be a positive integer", s), "batch_delay")
	}
	return d, n, nil
}

// FromStrings builds a Limiter from the raw delay and batch settings
func FromStrings(delay, batch string) (Limiter, error) {
	per, err := ParseDelay(delay)
	if err != nil {
		return Limiter{}, err
	}
	bd, bn, err := ParseBatch(batch)
	if err != nil {
		return Limiter{}, err
	}
	return Limiter{PerRequest: per, BatchDelay: bd, BatchSize: bn}, nil
}
