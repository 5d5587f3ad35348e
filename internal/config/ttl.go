package config

import (
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidTTL is returned for a coefficient TTL outside the accepted range.
var ErrInvalidTTL = fmt.Errorf("coefficient TTL must be between %s and %s", MinCoefficientTTL, MaxCoefficientTTL)

// ParseTTL parses a coefficient TTL in either form:
// - Integer seconds: "3600".
// - Duration string: "1h", "30m", "1h30m".
func ParseTTL(s string) (time.Duration, error) {
	d, err := parseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL format: %w", err)
	}
	if d < MinCoefficientTTL || d > MaxCoefficientTTL {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return d, nil
}

// parseDuration accepts integer seconds or a time.ParseDuration string.
func parseDuration(s string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(s); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(s)
}
