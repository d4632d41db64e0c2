package dashboard

import (
	"time"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/reliability"
)

// QuadrantZone places a client on the reliability by frequency grid.
type QuadrantZone string

const (
	QuadrantCore       QuadrantZone = "core"       // reliable, frequent
	QuadrantOccasional QuadrantZone = "occasional" // reliable, infrequent
	QuadrantWatch      QuadrantZone = "watch"      // unreliable, frequent
	QuadrantAtRisk     QuadrantZone = "at_risk"    // unreliable, infrequent
)

// QuadrantPoint is one client on the quadrant chart.
type QuadrantPoint struct {
	ClientID    string       `json:"client_id"`
	Reliability float64      `json:"reliability"`
	Frequency   int          `json:"frequency"`
	Zone        QuadrantZone `json:"zone"`
}

// Quadrant plots each client by reliability score and by how many
// non-cancelled bookings they started in the lookback window.
func Quadrant(clients []reliability.Client, bookings []model.Booking, now time.Time, p Policy) []QuadrantPoint {
	from := now.AddDate(0, 0, -p.Quadrant.LookbackDays)
	freq := make(map[string]int)
	for _, b := range bookings {
		if b.Status == model.BookingCancelled {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(now) {
			continue
		}
		freq[b.ClientID]++
	}

	out := make([]QuadrantPoint, 0, len(clients))
	for _, c := range clients {
		n := freq[c.ClientID]
		frequent := n >= p.Quadrant.FrequencyThreshold
		reliable := c.ReliabilityZone == reliability.ZoneReliable

		var zone QuadrantZone
		switch {
		case reliable && frequent:
			zone = QuadrantCore
		case reliable:
			zone = QuadrantOccasional
		case frequent:
			zone = QuadrantWatch
		default:
			zone = QuadrantAtRisk
		}

		out = append(out, QuadrantPoint{
			ClientID:    c.ClientID,
			Reliability: c.ReliabilityScore,
			Frequency:   n,
			Zone:        zone,
		})
	}
	return out
}
