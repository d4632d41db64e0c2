package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/booking-insights/internal/model"
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

func TestScore(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		h    History
		want float64
	}{
		{"no bookings", History{}, 100},
		{"all completed", History{Total: 10, Completed: 10}, 100},
		{"old no-shows", History{Total: 10, Completed: 8, NoShows: 2}, 88},
		{"one cancellation", History{Total: 10, Completed: 9, Cancelled: 1}, 98},
		{"single no-show", History{Total: 1, NoShows: 1, ConsecutiveNoShows: 1}, 15},
		{"recent no-show", History{Total: 5, Completed: 4, NoShows: 1, ConsecutiveNoShows: 1}, 63},
		{"floored at zero", History{Total: 5, NoShows: 5, ConsecutiveNoShows: 5}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.h, cfg)
			assert.InDelta(t, tt.want, got, 0.01)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestScoreMonotonic(t *testing.T) {
	cfg := DefaultConfig()

	prev := 101.0
	for n := 0; n <= 20; n++ {
		got := Score(History{Total: 20, Completed: 20 - n, NoShows: n}, cfg)
		assert.LessOrEqual(t, got, prev, "no-shows=%d", n)
		prev = got
	}

	prev = 101.0
	for streak := 0; streak <= 6; streak++ {
		got := Score(History{Total: 20, Completed: 14, NoShows: 6, ConsecutiveNoShows: streak}, cfg)
		assert.LessOrEqual(t, got, prev, "streak=%d", streak)
		prev = got
	}

	prev = -1.0
	for c := 0; c <= 10; c++ {
		got := Score(History{Total: 10, Completed: c, NoShows: 10 - c}, cfg)
		assert.GreaterOrEqual(t, got, prev, "completed=%d", c)
		prev = got
	}
}

func TestAnyStreakLeavesReliableZone(t *testing.T) {
	cfg := DefaultConfig()

	// Even a long spotless record cannot absorb a current no-show.
	h := History{Total: 100, Completed: 99, NoShows: 1, ConsecutiveNoShows: 1}
	assert.NotEqual(t, ZoneReliable, ZoneFor(Score(h, cfg), cfg))

	h = History{Total: 100, Completed: 98, NoShows: 2, ConsecutiveNoShows: 2}
	assert.Equal(t, ZoneHighRisk, ZoneFor(Score(h, cfg), cfg))
}

func TestZoneFor(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		score float64
		want  Zone
	}{
		{100, ZoneReliable},
		{80, ZoneReliable},
		{79.9, ZoneWatch},
		{60, ZoneWatch},
		{59.9, ZoneHighRisk},
		{0, ZoneHighRisk},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneFor(tt.score, cfg), "score=%v", tt.score)
	}
}

func TestBandFor(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, BandExcellent, BandFor(90, cfg))
	assert.Equal(t, BandGood, BandFor(89.9, cfg))
	assert.Equal(t, BandGood, BandFor(75, cfg))
	assert.Equal(t, BandFair, BandFor(50, cfg))
	assert.Equal(t, BandPoor, BandFor(49.9, cfg))
}

func TestWorse(t *testing.T) {
	assert.Equal(t, ZoneWatch, Worse(ZoneReliable, ZoneWatch))
	assert.Equal(t, ZoneHighRisk, Worse(ZoneHighRisk, ZoneWatch))
	assert.Equal(t, ZoneReliable, Worse(ZoneReliable, ZoneReliable))
}

func TestAggregate(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	bookings := []model.Booking{
		{ID: "b4", ClientID: "c1", StartTime: base.Add(3 * day), Status: model.BookingNoShow, Price: 4000},
		{ID: "b1", ClientID: "c1", StartTime: base, Status: model.BookingCompleted, Price: 4000},
		{ID: "b5", ClientID: "c1", StartTime: base.Add(10 * day), Status: model.BookingPending, Price: 4000},
		{ID: "b3", ClientID: "c1", StartTime: base.Add(2 * day), Status: model.BookingCancelled, Price: 4000},
		{ID: "b2", ClientID: "c1", StartTime: base.Add(day), Status: model.BookingNoShow, Price: 4000},
		{ID: "b6", ClientID: "c2", StartTime: base, Status: model.BookingNoShow, Price: 2500},
		{ID: "b7", ClientID: "c2", StartTime: base.Add(day), Status: model.BookingCompleted, Price: 2500},
	}

	clients := Aggregate(bookings, cfg)
	require.Len(t, clients, 2)

	c1 := clients["c1"]
	assert.Equal(t, 5, c1.TotalBookings)
	assert.Equal(t, 1, c1.CompletedBookings)
	assert.Equal(t, 2, c1.NoShowCount)
	assert.Equal(t, 1, c1.CancelledCount)
	assert.Equal(t, 2, c1.ConsecutiveNoShows)
	assert.Equal(t, int64(4000), c1.LifetimeValue)
	assert.Equal(t, base.Add(10*day), c1.LastBookingAt)
	assert.InDelta(t, 15, c1.ReliabilityScore, 0.01)
	assert.Equal(t, ZoneHighRisk, c1.ReliabilityZone)

	c2 := clients["c2"]
	assert.Equal(t, 0, c2.ConsecutiveNoShows)
	assert.InDelta(t, 70, c2.ReliabilityScore, 0.01)
	assert.Equal(t, ZoneWatch, c2.ReliabilityZone)

	// Input is not reordered.
	assert.Equal(t, "b4", bookings[0].ID)
}

func TestAggregateIdempotent(t *testing.T) {
	cfg := DefaultConfig()
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	bookings := []model.Booking{
		{ID: "b1", ClientID: "c1", StartTime: base, Status: model.BookingNoShow},
		{ID: "b2", ClientID: "c1", StartTime: base, Status: model.BookingCompleted, Price: 3000},
	}

	first := Sorted(Aggregate(bookings, cfg))
	second := Sorted(Aggregate(bookings, cfg))
	assert.Equal(t, first, second)
}

func TestSorted(t *testing.T) {
	got := Sorted(map[string]Client{"b": {ClientID: "b"}, "a": {ClientID: "a"}})
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ClientID)
}

func TestForBooking(t *testing.T) {
	clients := map[string]Client{"c1": {ClientID: "c1", ReliabilityScore: 63, ConsecutiveNoShows: 1}}

	tests := []struct {
		name       string
		booking    model.Booking
		wantScore  float64
		wantStreak int
	}{
		{"unknown client", model.Booking{ClientID: "zz"}, 100, 0},
		{"aggregated history", model.Booking{ClientID: "c1"}, 63, 1},
		{"booking fields win", model.Booking{ClientID: "c1", ClientReliabilityScore: ptrFloat64(95), ClientConsecutiveNoShows: ptrInt(0)}, 95, 0},
		{"partial override", model.Booking{ClientID: "c1", ClientConsecutiveNoShows: ptrInt(3)}, 63, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, streak := ForBooking(tt.booking, clients)
			assert.InDelta(t, tt.wantScore, score, 0.001)
			assert.Equal(t, tt.wantStreak, streak)
		})
	}
}

func TestDistribute(t *testing.T) {
	clients := []Client{
		{ReliabilityScore: 100}, {ReliabilityScore: 95},
		{ReliabilityScore: 80},
		{ReliabilityScore: 60},
		{ReliabilityScore: 10},
	}
	d := Distribute(clients, DefaultConfig())
	assert.Equal(t, Distribution{Excellent: 2, Good: 1, Fair: 1, Poor: 1}, d)
	assert.Equal(t, Distribution{}, Distribute(nil, DefaultConfig()))
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, ValidateConfig(DefaultConfig()))

	cfg := DefaultConfig()
	cfg.NoShowPenalty = -1
	cfg.WatchMin = 85
	cfg.GoodMin = 95

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_show_penalty must be >= 0")
	assert.Contains(t, err.Error(), "zone cut points")
	assert.Contains(t, err.Error(), "band cut points")
}
