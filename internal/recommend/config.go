// Package recommend turns reliability and risk into payment and deposit
// recommendations for bookings and services.
package recommend

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/reliability"
)

// DefaultConfig returns the recommendation policy used when nothing is configured.
func DefaultConfig() config.RecommendConfig {
	return config.Default().Recommend
}

// ValidateConfig checks that a RecommendConfig is internally consistent.
func ValidateConfig(c config.RecommendConfig) error {
	var errs []string

	prev := 0.0
	for _, z := range reliability.Zones {
		pct, ok := c.ZoneDeposits[string(z)]
		if !ok {
			errs = append(errs, fmt.Sprintf("zone_deposits.%s is required", z))
			continue
		}
		if pct < 0 || pct > 100 {
			errs = append(errs, fmt.Sprintf("zone_deposits.%s must be between 0 and 100", z))
		}
		if pct < prev {
			errs = append(errs, fmt.Sprintf("zone_deposits.%s must be >= the deposit for a more reliable zone", z))
		}
		prev = pct
	}

	if c.RepeatNoShowThreshold < 1 {
		errs = append(errs, "repeat_no_show_threshold must be >= 1")
	}
	if c.MinHistory < 0 {
		errs = append(errs, "min_history must be >= 0")
	}

	pcts := map[string]float64{
		"base_confidence": c.BaseConfidence,
		"max_confidence":  c.MaxConfidence,
		"apply_threshold": c.ApplyThreshold,
	}
	for name, v := range pcts {
		if v < 0 || v > 100 {
			errs = append(errs, fmt.Sprintf("%s must be between 0 and 100", name))
		}
	}
	if c.PerBookingConfidence < 0 {
		errs = append(errs, "per_booking_confidence must be >= 0")
	}
	if c.MaxConfidence < c.BaseConfidence {
		errs = append(errs, "max_confidence must be >= base_confidence")
	}

	if c.ServiceReliableNoShowMax < 0 || c.ServiceWatchNoShowMax < c.ServiceReliableNoShowMax {
		errs = append(errs, "service no-show bounds must satisfy 0 <= service_reliable_no_show_max <= service_watch_no_show_max")
	}
	if c.LowDemandIndex >= c.HighDemandIndex {
		errs = append(errs, "low_demand_index must be < high_demand_index")
	}
	if c.PeakSurcharge < 0 {
		errs = append(errs, "peak_surcharge must be >= 0")
	}
	if c.OffPeakDiscount < 0 || c.OffPeakDiscount >= 1 {
		errs = append(errs, "off_peak_discount must be in [0, 1)")
	}

	if len(errs) > 0 {
		return eris.Errorf("recommend: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
