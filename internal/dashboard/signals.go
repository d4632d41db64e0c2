package dashboard

import (
	"fmt"
	"time"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/monitoring"
	"github.com/sells-group/booking-insights/internal/revenue"
	"github.com/sells-group/booking-insights/internal/risk"
)

// signals gathers the figures the owner action rules evaluate.
func signals(r *Report, now time.Time, p Policy) monitoring.Signals {
	s := monitoring.Signals{
		RevenueWindowDays:  p.Revenue.WindowDays,
		RevenueTotal:       r.RevenueBreakdown.Total,
		RevenueAtRisk:      r.RevenueBreakdown.AtRisk,
		IntakeValidRate:    r.Compliance.IntakeValidRate,
		IntakeProfiles:     r.Compliance.Profiles,
		RenewalsDue:        r.Compliance.RenewalsDue,
		DisclaimerCoverage: r.Compliance.DisclaimerCoverage,
		OverdueFollowUps:   r.CRM.OverdueFollowUps,
		HealthScore:        r.Health.HealthScore,
		HealthLabel:        r.Health.HealthLabel,
		HealthyMin:         p.Health.HealthyMin,
		AttentionMin:       p.Health.AttentionMin,
		CollectedAt:        now,
	}

	until := now.AddDate(0, 0, p.Revenue.WindowDays)
	for _, b := range r.Bookings {
		if !upcoming(b.Booking, now) || !b.StartTime.Before(until) {
			continue
		}
		if b.RiskLevel == risk.LevelCritical {
			s.CriticalBookings++
		}
		if b.ManualReview {
			s.ManualReviews++
		}
		if revenue.Classify(revenue.ClassOf(b.Booking), b.RiskLevel) == revenue.BucketAtRisk {
			s.AtRiskBookings++
		}
	}

	for _, c := range r.DemandCalendar.Cells {
		if !c.Flagged {
			continue
		}
		s.FlaggedSlots++
		if c.NoShowRate > s.WorstSlotNoShowRate ||
			(c.NoShowRate == s.WorstSlotNoShowRate && s.WorstSlot == "") {
			s.WorstSlotNoShowRate = c.NoShowRate
			s.WorstSlot = slotName(time.Weekday(c.DayOfWeek), c.Hour)
		}
	}

	for _, svc := range r.Services {
		if svc.AutoApply && svc.RecommendedBasePrice != svc.Price {
			s.PricingChanges++
		}
	}
	return s
}

func slotName(day time.Weekday, hour int) string {
	return fmt.Sprintf("%s %02d:00", day.String()[:3], hour)
}

// upcoming reports whether b is still expected to happen at or after now.
func upcoming(b model.Booking, now time.Time) bool {
	return b.IsUpcoming() && !b.StartTime.Before(now)
}
