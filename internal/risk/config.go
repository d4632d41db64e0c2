// Package risk scores individual bookings for no-show and non-payment risk.
package risk

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
)

// DefaultConfig returns the risk policy used when nothing is configured.
func DefaultConfig() config.RiskConfig {
	return config.Default().Risk
}

// ValidateConfig checks that a RiskConfig is internally consistent.
func ValidateConfig(c config.RiskConfig) error {
	var errs []string

	points := map[string]float64{
		"reliability_weight": c.ReliabilityWeight,
		"short_lead_points":  c.ShortLeadPoints,
		"medium_lead_points": c.MediumLeadPoints,
		"streak_points":      c.StreakPoints,
		"max_streak_points":  c.MaxStreakPoints,
	}
	for status, p := range c.PaymentPoints {
		points["payment_points."+status] = p
	}
	for name, p := range points {
		if p < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if c.ShortLeadHours < 0 || c.MediumLeadHours < c.ShortLeadHours {
		errs = append(errs, "lead hours must satisfy 0 <= short_lead_hours <= medium_lead_hours")
	}
	if c.PaidDampening < 0 || c.PaidDampening > 1 {
		errs = append(errs, "paid_dampening must be between 0 and 1")
	}
	if c.CriticalReliabilityMax <= 0 || c.CriticalReliabilityMax > 100 {
		errs = append(errs, "critical_reliability_max must be > 0 and <= 100")
	}
	if c.MediumMin <= 0 || c.HighMin <= c.MediumMin || c.CriticalMin <= c.HighMin {
		errs = append(errs, "level cut points must satisfy 0 < medium_min < high_min < critical_min")
	}

	if len(errs) > 0 {
		return eris.Errorf("risk: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
