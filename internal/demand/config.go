// Package demand indexes booking density by weekday and hour, and measures
// service utilisation against bookable capacity.
package demand

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
)

// DefaultConfig returns the demand settings used when nothing is configured.
func DefaultConfig() config.DemandConfig {
	return config.Default().Demand
}

// ValidateConfig checks that a DemandConfig is internally consistent.
func ValidateConfig(c config.DemandConfig) error {
	var errs []string

	if c.WindowDays <= 0 {
		errs = append(errs, "window_days must be > 0")
	}
	if c.PeakStartHour < 0 || c.PeakEndHour > 24 || c.PeakStartHour >= c.PeakEndHour {
		errs = append(errs, "peak hours must satisfy 0 <= peak_start_hour < peak_end_hour <= 24")
	}
	if c.OpenHour < 0 || c.CloseHour > 24 || c.OpenHour >= c.CloseHour {
		errs = append(errs, "opening hours must satisfy 0 <= open_hour < close_hour <= 24")
	}
	if c.NoShowFlagRate < 0 || c.NoShowFlagRate > 100 {
		errs = append(errs, "no_show_flag_rate must be between 0 and 100")
	}
	if c.SlotsPerHour < 0 {
		errs = append(errs, "slots_per_hour must be >= 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("demand: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
