package recommend

import (
	"fmt"
	"math"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/reliability"
	"github.com/sells-group/booking-insights/internal/risk"
)

// Recommendation is the suggested payment terms for one booking.
type Recommendation struct {
	BookingID      string            `json:"booking_id,omitempty"`
	PaymentType    model.PaymentType `json:"recommended_payment_type"`
	DepositPercent float64           `json:"recommended_deposit_percent"`
	Reason         string            `json:"recommendation_reason"`
	Confidence     float64           `json:"recommendation_confidence"`
	Zone           reliability.Zone  `json:"zone"`
	ManualReview   bool              `json:"manual_review"`
	AutoApply      bool              `json:"auto_apply"`
}

// ClientInput is the client-side evidence a booking recommendation uses.
type ClientInput struct {
	Reliability        float64
	ConsecutiveNoShows int
	// Bookings is the number of resolved bookings behind Reliability.
	Bookings  int
	RiskLevel risk.Level
}

// ForBooking recommends payment terms for a booking of svc by a client
// described by in. It always returns a complete recommendation: a client
// without enough history gets the high-risk policy.
func ForBooking(in ClientInput, svc model.Service, cfg config.RecommendConfig, relCfg config.ReliabilityConfig) Recommendation {
	zone := reliability.Worse(reliability.ZoneFor(in.Reliability, relCfg), zoneForLevel(in.RiskLevel))
	reason := fmt.Sprintf("%s client (reliability %.0f, %s risk)", zoneLabel(zone), in.Reliability, in.RiskLevel)

	if in.Bookings < cfg.MinHistory {
		zone = reliability.ZoneHighRisk
		reason = "New client with no booking history"
	}

	rec := Recommendation{
		Zone:           zone,
		DepositPercent: cfg.ZoneDeposits[string(zone)],
		Confidence:     confidence(in.Bookings, cfg),
	}

	if in.ConsecutiveNoShows >= cfg.RepeatNoShowThreshold {
		rec.Zone = reliability.ZoneHighRisk
		rec.DepositPercent = 100
		rec.ManualReview = true
		reason = fmt.Sprintf("%d consecutive no-shows; take full prepayment and review manually", in.ConsecutiveNoShows)
	}

	if floor := serviceFloor(svc); rec.DepositPercent < floor {
		rec.DepositPercent = floor
		reason += fmt.Sprintf("; service minimum deposit of %.0f%% applies", floor)
	}

	rec.PaymentType, rec.DepositPercent = paymentTerms(svc.Price, rec.DepositPercent)
	if rec.PaymentType == model.PaymentTypeFree {
		reason = "Free service; no payment required"
	}
	rec.Reason = reason
	rec.AutoApply = !rec.ManualReview && rec.Confidence >= cfg.ApplyThreshold
	return rec
}

// zoneForLevel maps a booking risk level onto the reliability zone scale.
func zoneForLevel(l risk.Level) reliability.Zone {
	switch l {
	case risk.LevelCritical:
		return reliability.ZoneHighRisk
	case risk.LevelHigh:
		return reliability.ZoneWatch
	}
	return reliability.ZoneReliable
}

func zoneLabel(z reliability.Zone) string {
	switch z {
	case reliability.ZoneReliable:
		return "Reliable"
	case reliability.ZoneWatch:
		return "Watch"
	}
	return "High risk"
}

// serviceFloor is the deposit percentage the service's own strategy demands.
// Dynamic services defer entirely to the policy.
func serviceFloor(svc model.Service) float64 {
	if svc.DepositStrategy == model.DepositDynamic {
		return 0
	}
	return svc.DefaultDepositPercent()
}

// paymentTerms derives the payment type from a deposit percentage. Only a
// zero-priced service is free; 100% means full prepayment.
func paymentTerms(price int64, pct float64) (model.PaymentType, float64) {
	pct = metrics.Round(metrics.Clamp(pct, 0, 100), 1)
	switch {
	case price <= 0:
		return model.PaymentTypeFree, 0
	case pct >= 100:
		return model.PaymentTypeFull, 100
	default:
		return model.PaymentTypeDeposit, pct
	}
}

// confidence grows linearly with the amount of history and is capped.
func confidence(bookings int, cfg config.RecommendConfig) float64 {
	c := cfg.BaseConfidence + cfg.PerBookingConfidence*float64(max(bookings, 0))
	return math.Min(cfg.MaxConfidence, c)
}
