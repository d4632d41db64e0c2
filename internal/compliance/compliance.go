// Package compliance measures intake form and disclaimer coverage.
package compliance

import (
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

// Summary is the compliance block of the dashboard.
type Summary struct {
	IntakeValidRate    float64 `json:"intake_valid_rate"`
	DisclaimerCoverage float64 `json:"disclaimer_coverage"`
	MarketingOptInRate float64 `json:"marketing_opt_in_rate"`
	RenewalsDue        int     `json:"renewals_due"`
	Profiles           int     `json:"profiles"`
}

// IntakeValidRate returns the percentage of profiles valid for booking. A
// business with no profiles scores 100.
func IntakeValidRate(profiles []model.IntakeProfile) float64 {
	valid := 0
	for _, p := range profiles {
		if p.IsValidForBooking() {
			valid++
		}
	}
	return metrics.Round(metrics.PercentOr(valid, len(profiles), 100), 1)
}

// DisclaimerCoverage returns the percentage of profiles that accepted the
// given disclaimer version. When version is empty any accepted version counts.
func DisclaimerCoverage(profiles []model.IntakeProfile, version string) float64 {
	covered := 0
	for _, p := range profiles {
		if p.DisclaimerVersion == "" {
			continue
		}
		if version == "" || p.DisclaimerVersion == version {
			covered++
		}
	}
	return metrics.Round(metrics.Percent(covered, len(profiles)), 1)
}

// MarketingOptInRate returns the percentage of profiles opted in to marketing.
func MarketingOptInRate(profiles []model.IntakeProfile) float64 {
	opted := 0
	for _, p := range profiles {
		if p.MarketingOptIn {
			opted++
		}
	}
	return metrics.Round(metrics.Percent(opted, len(profiles)), 1)
}

// RenewalsDue counts completed profiles that have expired or been flagged
// for renewal.
func RenewalsDue(profiles []model.IntakeProfile) int {
	n := 0
	for _, p := range profiles {
		if p.Completed && (p.IsExpired || p.RenewalRequired) {
			n++
		}
	}
	return n
}

// Summarize builds the compliance summary for the current disclaimer version.
func Summarize(profiles []model.IntakeProfile, version string) Summary {
	return Summary{
		IntakeValidRate:    IntakeValidRate(profiles),
		DisclaimerCoverage: DisclaimerCoverage(profiles, version),
		MarketingOptInRate: MarketingOptInRate(profiles),
		RenewalsDue:        RenewalsDue(profiles),
		Profiles:           len(profiles),
	}
}
