package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/monitoring"
	"github.com/sells-group/booking-insights/internal/reliability"
	"github.com/sells-group/booking-insights/internal/risk"
)

// testNow is a Monday morning outside British Summer Time.
var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func ptrFloat64(v float64) *float64 { return &v }

func booking(id, client string, start time.Time, status model.BookingStatus, payment model.PaymentStatus, price int64) model.Booking {
	return model.Booking{
		ID:            id,
		ClientID:      client,
		ServiceID:     "s1",
		StartTime:     start,
		EndTime:       start.Add(time.Hour),
		Status:        status,
		PaymentStatus: payment,
		Price:         price,
	}
}

// sampleSnapshot has a regular reliable client (c1), a client on a three
// no-show streak (c2) and a brand new client (c3).
func sampleSnapshot() *model.Snapshot {
	var bookings []model.Booking
	for i, day := range []int{2, 9, 16, 23} {
		start := time.Date(2026, 2, day, 10, 0, 0, 0, time.UTC)
		bookings = append(bookings, booking("c1-past-"+string(rune('a'+i)), "c1", start, model.BookingCompleted, model.PaymentPaid, 4500))
	}
	for i, day := range []int{24, 25, 26} {
		start := time.Date(2026, 2, day, 15, 0, 0, 0, time.UTC)
		bookings = append(bookings, booking("c2-past-"+string(rune('a'+i)), "c2", start, model.BookingNoShow, model.PaymentPending, 6000))
	}
	bookings = append(bookings,
		booking("c1-next", "c1", time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), model.BookingConfirmed, model.PaymentPaid, 4500),
		booking("c2-next", "c2", time.Date(2026, 3, 3, 15, 0, 0, 0, time.UTC), model.BookingConfirmed, model.PaymentPending, 6000),
		booking("c3-next", "c3", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), model.BookingPending, model.PaymentPending, 3000),
	)

	return &model.Snapshot{
		Bookings: bookings,
		Leads: []model.Lead{
			{ID: "l1", Status: model.LeadNew, ValuePence: 2000},
			{ID: "l2", Status: model.LeadQualified, ValuePence: 3000},
			{ID: "l3", Status: model.LeadConverted, ValuePence: 9000},
			{ID: "l4", Status: model.LeadLost, ValuePence: 1000},
		},
		Services: []model.Service{
			{ID: "s1", Name: "Cut & Finish", Price: 4500, DurationMinutes: 60, PaymentType: model.PaymentTypeDeposit, DepositStrategy: model.DepositDynamic},
		},
		IntakeProfiles: []model.IntakeProfile{
			{ClientID: "c1", Completed: true, DisclaimerVersion: "v2"},
			{ClientID: "c2", Completed: true, DisclaimerVersion: "v1"},
		},
		CurrentDisclaimerVersion: "v2",
	}
}

func scoredByID(t *testing.T, r *Report, id string) ScoredBooking {
	t.Helper()
	for _, b := range r.Bookings {
		if b.ID == id {
			return b
		}
	}
	t.Fatalf("booking %s not in report", id)
	return ScoredBooking{}
}

func TestBuild_ScoresBookings(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, r.Bookings, 10)
	assert.Equal(t, testNow, r.GeneratedAt)

	regular := scoredByID(t, r, "c1-next")
	assert.Equal(t, risk.LevelLow, regular.RiskLevel)
	assert.Equal(t, model.PaymentTypeDeposit, regular.RecommendedPaymentType)
	assert.InDelta(t, 25, regular.RecommendedDepositPercent, 0.001)
	assert.True(t, regular.AutoApply)
	assert.Zero(t, regular.RevenueAtRisk)
	require.NotNil(t, regular.ClientReliabilityScore)
	assert.InDelta(t, 100, *regular.ClientReliabilityScore, 0.001)

	streaky := scoredByID(t, r, "c2-next")
	assert.Equal(t, risk.LevelCritical, streaky.RiskLevel)
	assert.Equal(t, model.PaymentTypeFull, streaky.RecommendedPaymentType)
	assert.InDelta(t, 100, streaky.RecommendedDepositPercent, 0.001)
	assert.True(t, streaky.ManualReview)
	assert.False(t, streaky.AutoApply)
	assert.Equal(t, int64(6000), streaky.RevenueAtRisk)
	require.NotNil(t, streaky.ClientConsecutiveNoShows)
	assert.Equal(t, 3, *streaky.ClientConsecutiveNoShows)

	newcomer := scoredByID(t, r, "c3-next")
	assert.Equal(t, model.PaymentTypeFull, newcomer.RecommendedPaymentType)
	assert.Equal(t, "New client with no booking history", newcomer.RecommendationReason)
}

func TestBuild_ReliableClientGetsQuarterDeposit(t *testing.T) {
	past := time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)
	next := booking("c9-next", "c9", testNow.AddDate(0, 0, 5), model.BookingConfirmed, model.PaymentPending, 4500)
	next.ClientReliabilityScore = ptrFloat64(95)

	snap := &model.Snapshot{
		Bookings: []model.Booking{
			booking("c9-past", "c9", past, model.BookingCompleted, model.PaymentPaid, 4500),
			next,
		},
		Services: sampleSnapshot().Services,
	}

	r, err := Build(snap, testNow, DefaultPolicy())
	require.NoError(t, err)

	got := scoredByID(t, r, "c9-next")
	assert.Equal(t, model.PaymentTypeDeposit, got.RecommendedPaymentType)
	assert.InDelta(t, 25, got.RecommendedDepositPercent, 0.001)
	assert.False(t, got.ManualReview)
}

func TestBuild_UnknownServiceUsesBookingPrice(t *testing.T) {
	b := booking("x1", "c1", testNow.Add(96*time.Hour), model.BookingConfirmed, model.PaymentPending, 0)
	b.ServiceID = "gone"
	snap := &model.Snapshot{Bookings: []model.Booking{b}}

	r, err := Build(snap, testNow, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, model.PaymentTypeFree, r.Bookings[0].RecommendedPaymentType)
}

func TestBuild_RevenueBreakdown(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)

	rb := r.RevenueBreakdown
	assert.Equal(t, int64(4500), rb.Secured)
	assert.Equal(t, int64(3000), rb.Deposit)
	assert.Equal(t, int64(6000), rb.AtRisk)
	assert.Equal(t, int64(13500), rb.Total)
	assert.Equal(t, rb.Total, rb.Secured+rb.Deposit+rb.AtRisk)
	assert.Equal(t, 3, rb.Bookings)
}

func TestBuild_ClientsAndDistribution(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)

	require.Len(t, r.Clients, 3)
	assert.Equal(t, "c1", r.Clients[0].ClientID)
	assert.Equal(t, int64(18000), r.Clients[0].LifetimeValue)
	assert.Equal(t, reliability.ZoneHighRisk, r.Clients[1].ReliabilityZone)
	assert.Equal(t, reliability.Distribution{Excellent: 2, Poor: 1}, r.ReliabilityDistribution)
}

func TestBuild_DemandAndServices(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)

	var flagged []string
	for _, c := range r.DemandCalendar.Cells {
		if c.Flagged {
			flagged = append(flagged, slotName(time.Weekday(c.DayOfWeek), c.Hour))
		}
	}
	assert.Equal(t, []string{"Tue 15:00", "Wed 15:00", "Thu 15:00"}, flagged)

	require.Len(t, r.Services, 1)
	assert.Equal(t, "s1", r.Services[0].ID)
	assert.Equal(t, 7, r.Services[0].Bookings)
	// 7 bookings against 30 days of nine opening hours at two slots an hour.
	assert.InDelta(t, 1.3, r.Services[0].DemandIndex, 0.001)
	assert.Equal(t, int64(4275), r.Services[0].RecommendedBasePrice)

	maxIntensity := 0
	for _, c := range r.Services[0].DemandCalendar.Cells {
		maxIntensity = max(maxIntensity, c.DemandIntensity)
	}
	assert.Equal(t, 100, maxIntensity)
}

func TestBuild_HealthAndSummaries(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)

	assert.InDelta(t, 57.1, r.HealthInputs.CompletionRate, 0.001)
	assert.InDelta(t, 42.9, r.HealthInputs.NoShowRate, 0.001)
	assert.InDelta(t, 66.7, r.HealthInputs.AvgReliability, 0.001)
	assert.InDelta(t, 25, r.HealthInputs.ConversionRate, 0.001)
	assert.InDelta(t, 50, r.HealthInputs.DisclaimerCoverage, 0.001)
	assert.GreaterOrEqual(t, r.Health.HealthScore, 0)
	assert.LessOrEqual(t, r.Health.HealthScore, 100)
	assert.NotEmpty(t, r.Health.HealthLabel)

	assert.Equal(t, int64(5000), r.CRM.PipelineValue)
	assert.Equal(t, 2, r.Compliance.Profiles)
}

func TestBuild_OwnerActions(t *testing.T) {
	r, err := Build(sampleSnapshot(), testNow, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 1, r.Signals.CriticalBookings)
	assert.Equal(t, 1, r.Signals.ManualReviews)
	assert.Equal(t, 1, r.Signals.AtRiskBookings)
	assert.Equal(t, 3, r.Signals.FlaggedSlots)
	assert.Equal(t, "Tue 15:00", r.Signals.WorstSlot)

	types := make(map[monitoring.AlertType]string)
	for _, a := range r.OwnerActions {
		types[a.Type] = a.Severity
		assert.Equal(t, testNow, a.Timestamp)
	}
	assert.Equal(t, monitoring.SeverityHigh, types[monitoring.AlertRevenueAtRisk])
	assert.Equal(t, monitoring.SeverityHigh, types[monitoring.AlertCriticalBookings])
	assert.Equal(t, monitoring.SeverityHigh, types[monitoring.AlertManualReview])
	assert.Equal(t, monitoring.SeverityMedium, types[monitoring.AlertNoShowHotspot])
	assert.Equal(t, monitoring.SeverityLow, types[monitoring.AlertDisclaimerCover])
	assert.Equal(t, monitoring.SeverityHigh, r.OwnerActions[0].Severity)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	r, err := Build(&model.Snapshot{}, testNow, DefaultPolicy())
	require.NoError(t, err)

	assert.Empty(t, r.Bookings)
	assert.Empty(t, r.Clients)
	assert.Zero(t, r.RevenueBreakdown.Total)
	assert.InDelta(t, 100, r.HealthInputs.IntakeValidRate, 0.001)
	assert.InDelta(t, 100, r.HealthInputs.AvgReliability, 0.001)
	assert.NotNil(t, r.OwnerActions)
	for _, c := range r.DemandCalendar.Cells {
		assert.Zero(t, c.DemandIntensity)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	snap := sampleSnapshot()
	before := *snap
	before.Bookings = append([]model.Booking(nil), snap.Bookings...)

	first, err := Build(snap, testNow, DefaultPolicy())
	require.NoError(t, err)
	second, err := Build(snap, testNow, DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before.Bookings, snap.Bookings)
}

func TestBuild_InvalidSnapshot(t *testing.T) {
	snap := sampleSnapshot()
	snap.Bookings[0].Price = -1

	_, err := Build(snap, testNow, DefaultPolicy())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid snapshot")
}

func TestBuild_InvalidPolicy(t *testing.T) {
	p := DefaultPolicy()
	p.Timezone = "Mars/Olympus_Mons"
	p.Health.CompletionWeight = 0

	_, err := Build(sampleSnapshot(), testNow, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard: invalid policy")
	assert.Contains(t, err.Error(), "unknown timezone")
}

func TestQuadrant(t *testing.T) {
	p := DefaultPolicy()
	p.Quadrant.FrequencyThreshold = 2

	clients := []reliability.Client{
		{ClientID: "core", ReliabilityScore: 95, ReliabilityZone: reliability.ZoneReliable},
		{ClientID: "occasional", ReliabilityScore: 90, ReliabilityZone: reliability.ZoneReliable},
		{ClientID: "watch", ReliabilityScore: 65, ReliabilityZone: reliability.ZoneWatch},
		{ClientID: "at_risk", ReliabilityScore: 20, ReliabilityZone: reliability.ZoneHighRisk},
	}
	recent := testNow.AddDate(0, 0, -10)
	bookings := []model.Booking{
		booking("1", "core", recent, model.BookingCompleted, model.PaymentPaid, 100),
		booking("2", "core", recent.Add(time.Hour), model.BookingCompleted, model.PaymentPaid, 100),
		booking("3", "occasional", recent, model.BookingCompleted, model.PaymentPaid, 100),
		booking("4", "occasional", recent.Add(time.Hour), model.BookingCancelled, model.PaymentPending, 100),
		booking("5", "occasional", testNow.AddDate(0, 0, -200), model.BookingCompleted, model.PaymentPaid, 100),
		booking("6", "watch", recent, model.BookingNoShow, model.PaymentPending, 100),
		booking("7", "watch", recent.Add(time.Hour), model.BookingCompleted, model.PaymentPaid, 100),
		booking("8", "at_risk", testNow.Add(time.Hour), model.BookingConfirmed, model.PaymentPending, 100),
	}

	got := Quadrant(clients, bookings, testNow, p)
	want := []QuadrantPoint{
		{ClientID: "core", Reliability: 95, Frequency: 2, Zone: QuadrantCore},
		{ClientID: "occasional", Reliability: 90, Frequency: 1, Zone: QuadrantOccasional},
		{ClientID: "watch", Reliability: 65, Frequency: 2, Zone: QuadrantWatch},
		{ClientID: "at_risk", Reliability: 20, Frequency: 0, Zone: QuadrantAtRisk},
	}
	assert.Equal(t, want, got)
}

func TestSlotName(t *testing.T) {
	assert.Equal(t, "Sun 09:00", slotName(time.Sunday, 9))
	assert.Equal(t, "Fri 17:00", slotName(time.Friday, 17))
}
