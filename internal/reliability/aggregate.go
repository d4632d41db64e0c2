package reliability

import (
	"sort"
	"time"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/model"
)

// Client is the per-client rollup of booking history.
type Client struct {
	ClientID           string    `json:"client_id"`
	TotalBookings      int       `json:"total_bookings"`
	CompletedBookings  int       `json:"completed_bookings"`
	NoShowCount        int       `json:"no_show_count"`
	CancelledCount     int       `json:"cancelled_count"`
	ConsecutiveNoShows int       `json:"consecutive_no_shows"`
	LifetimeValue      int64     `json:"lifetime_value"`
	LastBookingAt      time.Time `json:"last_booking_at"`
	ReliabilityScore   float64   `json:"reliability_score"`
	ReliabilityZone    Zone      `json:"reliability_zone"`
}

// History returns the resolved-outcome history for the client.
func (c Client) History() History {
	return History{
		Total:              c.CompletedBookings + c.NoShowCount + c.CancelledCount,
		Completed:          c.CompletedBookings,
		NoShows:            c.NoShowCount,
		Cancelled:          c.CancelledCount,
		ConsecutiveNoShows: c.ConsecutiveNoShows,
	}
}

// Aggregate rolls bookings up into one Client per client ID. The no-show
// streak is the trailing run of no-shows among attended outcomes in start
// order: a completed booking resets it, other statuses leave it unchanged.
func Aggregate(bookings []model.Booking, cfg config.ReliabilityConfig) map[string]Client {
	ordered := make([]model.Booking, len(bookings))
	copy(ordered, bookings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.Before(ordered[j].StartTime)
		}
		return ordered[i].ID < ordered[j].ID
	})

	clients := make(map[string]Client)
	for _, b := range ordered {
		c := clients[b.ClientID]
		c.ClientID = b.ClientID
		c.TotalBookings++
		if b.StartTime.After(c.LastBookingAt) {
			c.LastBookingAt = b.StartTime
		}

		switch b.Status {
		case model.BookingCompleted:
			c.CompletedBookings++
			c.LifetimeValue += b.Price
			c.ConsecutiveNoShows = 0
		case model.BookingNoShow:
			c.NoShowCount++
			c.ConsecutiveNoShows++
		case model.BookingCancelled:
			c.CancelledCount++
		}
		clients[b.ClientID] = c
	}

	for id, c := range clients {
		c.ReliabilityScore = Score(c.History(), cfg)
		c.ReliabilityZone = ZoneFor(c.ReliabilityScore, cfg)
		clients[id] = c
	}
	return clients
}

// Sorted returns the clients ordered by client ID.
func Sorted(clients map[string]Client) []Client {
	out := make([]Client, 0, len(clients))
	for _, c := range clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out
}

// ForBooking returns the reliability score and no-show streak to use when
// scoring b. Values carried on the booking win; otherwise the aggregated
// client history is used, and an unknown client gets the optimistic default.
func ForBooking(b model.Booking, clients map[string]Client) (score float64, streak int) {
	score, streak = 100, 0
	if c, ok := clients[b.ClientID]; ok {
		score, streak = c.ReliabilityScore, c.ConsecutiveNoShows
	}
	if b.ClientReliabilityScore != nil {
		score = *b.ClientReliabilityScore
	}
	if b.ClientConsecutiveNoShows != nil {
		streak = *b.ClientConsecutiveNoShows
	}
	return score, streak
}

// Distribution counts clients per reliability band.
type Distribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// Distribute buckets clients by reliability band.
func Distribute(clients []Client, cfg config.ReliabilityConfig) Distribution {
	var d Distribution
	for _, c := range clients {
		switch BandFor(c.ReliabilityScore, cfg) {
		case BandExcellent:
			d.Excellent++
		case BandGood:
			d.Good++
		case BandFair:
			d.Fair++
		default:
			d.Poor++
		}
	}
	return d
}
