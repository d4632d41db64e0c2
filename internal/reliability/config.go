// Package reliability scores clients by how dependably they turn up for the
// appointments they book.
package reliability

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
)

// DefaultConfig returns the reliability policy used when nothing is configured.
func DefaultConfig() config.ReliabilityConfig {
	return config.Default().Reliability
}

// ValidateConfig checks that a ReliabilityConfig is internally consistent.
func ValidateConfig(c config.ReliabilityConfig) error {
	var errs []string

	penalties := map[string]float64{
		"no_show_penalty":      c.NoShowPenalty,
		"cancellation_penalty": c.CancellationPenalty,
		"streak_penalty":       c.StreakPenalty,
	}
	for name, p := range penalties {
		if p < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if !ascending(0, c.WatchMin, c.ReliableMin, 100) {
		errs = append(errs, "zone cut points must satisfy 0 < watch_min < reliable_min <= 100")
	}
	if !ascending(0, c.FairMin, c.GoodMin, c.ExcellentMin, 100) {
		errs = append(errs, "band cut points must satisfy 0 < fair_min < good_min < excellent_min <= 100")
	}

	if len(errs) > 0 {
		return eris.Errorf("reliability: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ascending reports whether lo < v[0] < v[1] < ... and the last value is <= hi.
func ascending(lo float64, v ...float64) bool {
	hi := v[len(v)-1]
	prev := lo
	for _, x := range v[:len(v)-1] {
		if x <= prev {
			return false
		}
		prev = x
	}
	return prev <= hi
}
