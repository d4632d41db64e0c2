package dashboard

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/compliance"
	"github.com/sells-group/booking-insights/internal/crm"
	"github.com/sells-group/booking-insights/internal/demand"
	"github.com/sells-group/booking-insights/internal/health"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/monitoring"
	"github.com/sells-group/booking-insights/internal/recommend"
	"github.com/sells-group/booking-insights/internal/reliability"
	"github.com/sells-group/booking-insights/internal/revenue"
	"github.com/sells-group/booking-insights/internal/risk"
)

// ScoredBooking is a booking with its derived risk and recommendation fields.
type ScoredBooking struct {
	model.Booking
	RiskScore                 float64           `json:"risk_score"`
	RiskLevel                 risk.Level        `json:"risk_level"`
	RevenueAtRisk             int64             `json:"revenue_at_risk"`
	RecommendedPaymentType    model.PaymentType `json:"recommended_payment_type"`
	RecommendedDepositPercent float64           `json:"recommended_deposit_percent"`
	RecommendationReason      string            `json:"recommendation_reason"`
	RecommendationConfidence  float64           `json:"recommendation_confidence"`
	ManualReview              bool              `json:"manual_review"`
	AutoApply                 bool              `json:"auto_apply"`
}

// ScoredService is a service with its demand and recommendation fields.
type ScoredService struct {
	model.Service
	Bookings                  int               `json:"bookings"`
	DemandIndex               float64           `json:"demand_index"`
	PeakUtilisationRate       float64           `json:"peak_utilisation_rate"`
	OffPeakUtilisationRate    float64           `json:"off_peak_utilisation_rate"`
	NoShowRate                float64           `json:"no_show_rate"`
	RecommendedBasePrice      int64             `json:"recommended_base_price"`
	RecommendedPaymentType    model.PaymentType `json:"recommended_payment_type"`
	RecommendedDepositPercent float64           `json:"recommended_deposit_percent"`
	RecommendationReason      string            `json:"recommendation_reason"`
	RecommendationConfidence  float64           `json:"recommendation_confidence"`
	AutoApply                 bool              `json:"auto_apply"`
	DemandCalendar            demand.Calendar   `json:"demand_calendar"`
}

// Report is the full dashboard aggregate.
type Report struct {
	GeneratedAt             time.Time                `json:"generated_at"`
	Bookings                []ScoredBooking          `json:"bookings"`
	Clients                 []reliability.Client     `json:"clients"`
	Services                []ScoredService          `json:"services"`
	RevenueBreakdown        revenue.Breakdown        `json:"revenue_breakdown"`
	ReliabilityDistribution reliability.Distribution `json:"reliability_distribution"`
	DemandCalendar          demand.Calendar          `json:"demand_calendar"`
	ClientQuadrant          []QuadrantPoint          `json:"client_quadrant"`
	OwnerActions            []monitoring.Alert       `json:"owner_actions"`
	Health                  health.Score             `json:"health"`
	HealthInputs            health.Inputs            `json:"health_inputs"`
	CRM                     crm.Summary              `json:"crm"`
	Compliance              compliance.Summary       `json:"compliance"`
	Signals                 monitoring.Signals       `json:"signals"`
}

// Build scores every record in snap as of now. The snapshot and policy are
// validated first; the snapshot is never modified. Identical inputs produce
// identical reports.
func Build(snap *model.Snapshot, now time.Time, p Policy) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, eris.Wrap(err, "dashboard: validate snapshot")
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: load timezone")
	}

	clients := reliability.Aggregate(snap.Bookings, p.Reliability)
	clientList := reliability.Sorted(clients)
	services := snap.ServiceIndex()

	r := &Report{
		GeneratedAt: now,
		Clients:     clientList,
		Bookings:    make([]ScoredBooking, 0, len(snap.Bookings)),
	}

	scored := make([]revenue.Scored, 0, len(snap.Bookings))
	for _, b := range snap.Bookings {
		sb := scoreBooking(b, clients, services, now, p)
		r.Bookings = append(r.Bookings, sb)
		scored = append(scored, revenue.Scored{Booking: b, Level: sb.RiskLevel})
	}

	r.RevenueBreakdown = revenue.Stratify(scored, now, p.Revenue)
	r.ReliabilityDistribution = reliability.Distribute(clientList, p.Reliability)
	r.DemandCalendar = demand.BuildCalendar(snap.Bookings, now, loc, p.Demand)
	r.Services = scoreServices(snap, now, loc, p)
	r.ClientQuadrant = Quadrant(clientList, snap.Bookings, now, p)
	r.CRM = crm.Summarize(snap.Leads, now)
	r.Compliance = compliance.Summarize(snap.IntakeProfiles, snap.CurrentDisclaimerVersion)

	r.HealthInputs = healthInputs(clientList, r.CRM, r.Compliance)
	r.Health = health.Compute(r.HealthInputs, p.Health)

	r.Signals = signals(r, now, p)
	r.OwnerActions = monitoring.NewAlerter(p.Monitoring).Evaluate(&r.Signals)
	if r.OwnerActions == nil {
		r.OwnerActions = []monitoring.Alert{}
	}
	return r, nil
}

func scoreBooking(b model.Booking, clients map[string]reliability.Client, services map[string]model.Service, now time.Time, p Policy) ScoredBooking {
	score, streak := reliability.ForBooking(b, clients)
	assessment := risk.Assess(b, score, streak, now, p.Risk)

	svc, ok := services[b.ServiceID]
	if !ok {
		svc = model.Service{ID: b.ServiceID, Price: b.Price, DepositStrategy: model.DepositDynamic}
	}
	rec := recommend.ForBooking(recommend.ClientInput{
		Reliability:        score,
		ConsecutiveNoShows: streak,
		Bookings:           clients[b.ClientID].History().Total,
		RiskLevel:          assessment.RiskLevel,
	}, svc, p.Recommend, p.Reliability)

	sb := ScoredBooking{
		Booking:                   b,
		RiskScore:                 assessment.RiskScore,
		RiskLevel:                 assessment.RiskLevel,
		RevenueAtRisk:             assessment.RevenueAtRisk,
		RecommendedPaymentType:    rec.PaymentType,
		RecommendedDepositPercent: rec.DepositPercent,
		RecommendationReason:      rec.Reason,
		RecommendationConfidence:  rec.Confidence,
		ManualReview:              rec.ManualReview,
		AutoApply:                 rec.AutoApply,
	}
	sb.ClientReliabilityScore = &score
	sb.ClientConsecutiveNoShows = &streak
	return sb
}

func scoreServices(snap *model.Snapshot, now time.Time, loc *time.Location, p Policy) []ScoredService {
	byID := snap.ServiceIndex()
	index := demand.ServiceIndex(snap.Bookings, snap.Services, now, loc, p.capacity(), p.Demand)

	out := make([]ScoredService, 0, len(index))
	for _, d := range index {
		svc := byID[d.ServiceID]
		rec := recommend.ForService(recommend.ServiceInput{
			Service:     svc,
			Bookings:    d.Bookings,
			NoShowRate:  d.NoShowRate,
			DemandIndex: d.DemandIndex,
		}, p.Recommend)

		out = append(out, ScoredService{
			Service:                   svc,
			Bookings:                  d.Bookings,
			DemandIndex:               d.DemandIndex,
			PeakUtilisationRate:       d.PeakUtilisationRate,
			OffPeakUtilisationRate:    d.OffPeakUtilisationRate,
			NoShowRate:                d.NoShowRate,
			RecommendedBasePrice:      rec.RecommendedBasePrice,
			RecommendedPaymentType:    rec.PaymentType,
			RecommendedDepositPercent: rec.DepositPercent,
			RecommendationReason:      rec.Reason,
			RecommendationConfidence:  rec.Confidence,
			AutoApply:                 rec.AutoApply,
			DemandCalendar:            d.Calendar,
		})
	}
	return out
}

// healthInputs derives the business-wide rates. Completion and no-show rates
// are over resolved bookings; average reliability defaults to 100.
func healthInputs(clients []reliability.Client, c crm.Summary, comp compliance.Summary) health.Inputs {
	var completed, noShows, resolved int
	scores := make([]float64, 0, len(clients))
	for _, cl := range clients {
		h := cl.History()
		completed += h.Completed
		noShows += h.NoShows
		resolved += h.Total
		scores = append(scores, cl.ReliabilityScore)
	}

	avg := 100.0
	if len(scores) > 0 {
		avg = metrics.Mean(scores)
	}

	return health.Inputs{
		CompletionRate:     metrics.Round(metrics.Percent(completed, resolved), 1),
		NoShowRate:         metrics.Round(metrics.Percent(noShows, resolved), 1),
		ConversionRate:     c.ConversionRate,
		IntakeValidRate:    comp.IntakeValidRate,
		DisclaimerCoverage: comp.DisclaimerCoverage,
		AvgReliability:     metrics.Round(avg, 1),
	}
}
