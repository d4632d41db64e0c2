package recommend

import (
	"fmt"
	"strings"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/reliability"
)

// ServiceInput is the observed demand for a service over the demand window.
type ServiceInput struct {
	Service     model.Service
	Bookings    int
	NoShowRate  float64
	DemandIndex float64
}

// ServiceRecommendation is the suggested pricing and payment terms for a service.
type ServiceRecommendation struct {
	ServiceID            string            `json:"service_id"`
	RecommendedBasePrice int64             `json:"recommended_base_price"`
	PaymentType          model.PaymentType `json:"recommended_payment_type"`
	DepositPercent       float64           `json:"recommended_deposit_percent"`
	Reason               string            `json:"recommendation_reason"`
	Confidence           float64           `json:"recommendation_confidence"`
	Zone                 reliability.Zone  `json:"zone"`
	AutoApply            bool              `json:"auto_apply"`
}

// ForService recommends base price and payment terms for a service. With no
// bookings in the window the service's current terms are returned unchanged.
func ForService(in ServiceInput, cfg config.RecommendConfig) ServiceRecommendation {
	svc := in.Service
	rec := ServiceRecommendation{
		ServiceID:            svc.ID,
		RecommendedBasePrice: svc.Price,
		Confidence:           confidence(in.Bookings, cfg),
	}

	if in.Bookings <= 0 {
		rec.Zone = reliability.ZoneReliable
		rec.PaymentType, rec.DepositPercent = currentTerms(svc)
		rec.Reason = "Not enough recent bookings to recommend a change"
		return rec
	}

	var reasons []string

	switch {
	case in.NoShowRate <= cfg.ServiceReliableNoShowMax:
		rec.Zone = reliability.ZoneReliable
	case in.NoShowRate <= cfg.ServiceWatchNoShowMax:
		rec.Zone = reliability.ZoneWatch
	default:
		rec.Zone = reliability.ZoneHighRisk
	}
	pct := cfg.ZoneDeposits[string(rec.Zone)]
	reasons = append(reasons, fmt.Sprintf("%.0f%% no-show rate", in.NoShowRate))

	if floor := serviceFloor(svc); pct < floor {
		pct = floor
		reasons = append(reasons, fmt.Sprintf("current %.0f%% deposit kept as minimum", floor))
	}
	rec.PaymentType, rec.DepositPercent = paymentTerms(svc.Price, pct)

	switch {
	case in.DemandIndex >= cfg.HighDemandIndex:
		rec.RecommendedBasePrice = metrics.ScalePence(svc.Price, 1+cfg.PeakSurcharge)
		reasons = append(reasons, fmt.Sprintf("high demand (index %.0f) supports a %.0f%% price rise", in.DemandIndex, cfg.PeakSurcharge*100))
	case in.DemandIndex <= cfg.LowDemandIndex:
		rec.RecommendedBasePrice = metrics.ScalePence(svc.Price, 1-cfg.OffPeakDiscount)
		reasons = append(reasons, fmt.Sprintf("low demand (index %.0f) suggests a %.0f%% discount", in.DemandIndex, cfg.OffPeakDiscount*100))
	}

	rec.Reason = strings.Join(reasons, "; ")
	rec.AutoApply = rec.Confidence >= cfg.ApplyThreshold
	return rec
}

func currentTerms(svc model.Service) (model.PaymentType, float64) {
	switch {
	case svc.Price <= 0 || svc.PaymentType == model.PaymentTypeFree:
		return model.PaymentTypeFree, 0
	case svc.PaymentType == model.PaymentTypeFull:
		return model.PaymentTypeFull, 100
	}
	if svc.DepositStrategy == model.DepositDynamic {
		return model.PaymentTypeDeposit, metrics.Clamp(svc.DepositPercent, 0, 100)
	}
	return paymentTerms(svc.Price, svc.DefaultDepositPercent())
}
