package risk

import (
	"time"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

// Level is the banded risk classification of a booking.
type Level string

const (
	LevelLow      Level = "LOW"
	LevelMedium   Level = "MEDIUM"
	LevelHigh     Level = "HIGH"
	LevelCritical Level = "CRITICAL"
)

// Levels lists every level in ascending order of risk.
var Levels = []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}

// Rank returns the position of l in Levels.
func (l Level) Rank() int {
	switch l {
	case LevelMedium:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	}
	return 0
}

// AtLeast reports whether l is as risky as o or riskier.
func (l Level) AtLeast(o Level) bool {
	return l.Rank() >= o.Rank()
}

// Input is everything a booking's risk score depends on.
type Input struct {
	Reliability        float64
	PaymentStatus      model.PaymentStatus
	LeadTime           time.Duration
	ConsecutiveNoShows int
}

// Score computes the continuous risk score for in. Unknown payment statuses
// add no points. A paid booking has its score dampened. Scores that do not
// meet the CRITICAL preconditions are held just below CriticalMin.
func Score(in Input, cfg config.RiskConfig) float64 {
	rel := metrics.Clamp(in.Reliability, 0, 100)

	s := cfg.ReliabilityWeight * (100 - rel)
	s += cfg.PaymentPoints[string(in.PaymentStatus)]
	s += leadPoints(in.LeadTime, cfg)

	streak := cfg.StreakPoints * float64(max(in.ConsecutiveNoShows, 0))
	if streak > cfg.MaxStreakPoints {
		streak = cfg.MaxStreakPoints
	}
	s += streak

	if in.PaymentStatus == model.PaymentPaid {
		s *= cfg.PaidDampening
	}
	if s < 0 {
		s = 0
	}
	s = metrics.Round(s, 1)
	if s >= cfg.CriticalMin && !criticalEligible(in, rel, cfg) {
		s = metrics.Round(cfg.CriticalMin-0.1, 1)
	}
	return s
}

// criticalEligible reports whether in combines low reliability, an unpaid
// booking, and either a short lead time or an active no-show streak.
func criticalEligible(in Input, rel float64, cfg config.RiskConfig) bool {
	if in.PaymentStatus == model.PaymentPaid || rel >= cfg.CriticalReliabilityMax {
		return false
	}
	return in.LeadTime.Hours() < cfg.ShortLeadHours || in.ConsecutiveNoShows > 0
}

func leadPoints(lead time.Duration, cfg config.RiskConfig) float64 {
	hours := lead.Hours()
	switch {
	case hours < cfg.ShortLeadHours:
		return cfg.ShortLeadPoints
	case hours < cfg.MediumLeadHours:
		return cfg.MediumLeadPoints
	default:
		return 0
	}
}

// LevelFor bands a score using the configured cut points. Every score maps to
// exactly one level.
func LevelFor(score float64, cfg config.RiskConfig) Level {
	switch {
	case score >= cfg.CriticalMin:
		return LevelCritical
	case score >= cfg.HighMin:
		return LevelHigh
	case score >= cfg.MediumMin:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Assessment is the derived risk data for one booking.
type Assessment struct {
	BookingID     string  `json:"booking_id"`
	RiskScore     float64 `json:"risk_score"`
	RiskLevel     Level   `json:"risk_level"`
	RevenueAtRisk int64   `json:"revenue_at_risk"`
}

// Assess scores booking b at time now. reliability and streak are the client
// figures to use, normally from reliability.ForBooking.
func Assess(b model.Booking, reliability float64, streak int, now time.Time, cfg config.RiskConfig) Assessment {
	score := Score(Input{
		Reliability:        reliability,
		PaymentStatus:      b.PaymentStatus,
		LeadTime:           b.StartTime.Sub(now),
		ConsecutiveNoShows: streak,
	}, cfg)
	level := LevelFor(score, cfg)

	return Assessment{
		BookingID:     b.ID,
		RiskScore:     score,
		RiskLevel:     level,
		RevenueAtRisk: RevenueAtRisk(b, level),
	}
}

// RevenueAtRisk returns the booking price when the booking is unpaid and either
// still pending or confirmed at HIGH risk or above. Otherwise it returns 0.
func RevenueAtRisk(b model.Booking, level Level) int64 {
	if b.IsPaid() {
		return 0
	}
	switch b.Status {
	case model.BookingPending:
		return b.Price
	case model.BookingConfirmed:
		if level.AtLeast(LevelHigh) {
			return b.Price
		}
	}
	return 0
}
