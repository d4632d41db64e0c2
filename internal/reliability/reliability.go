package reliability

import (
	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
)

// Zone is the traffic-light classification of a reliability score.
type Zone string

const (
	ZoneReliable Zone = "reliable"
	ZoneWatch    Zone = "watch"
	ZoneHighRisk Zone = "high_risk"
)

// Zones lists every zone from best to worst.
var Zones = []Zone{ZoneReliable, ZoneWatch, ZoneHighRisk}

func (z Zone) rank() int {
	switch z {
	case ZoneReliable:
		return 0
	case ZoneWatch:
		return 1
	}
	return 2
}

// Worse returns whichever of a and b is the less reliable zone.
func Worse(a, b Zone) Zone {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// Band is the coarse bucket used for the reliability distribution chart.
type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

// History is the outcome record a reliability score is computed from.
// Total counts resolved bookings only (completed, no-show, cancelled).
type History struct {
	Total              int
	Completed          int
	NoShows            int
	Cancelled          int
	ConsecutiveNoShows int
}

// Score returns a reliability score in [0, 100]. A client with no resolved
// bookings scores 100.
func Score(h History, cfg config.ReliabilityConfig) float64 {
	if h.Total <= 0 {
		return 100
	}
	noShowRate := metrics.Percent(h.NoShows, h.Total) / 100
	cancelRate := metrics.Percent(h.Cancelled, h.Total) / 100

	s := 100 -
		cfg.NoShowPenalty*noShowRate -
		cfg.CancellationPenalty*cancelRate -
		cfg.StreakPenalty*float64(max(h.ConsecutiveNoShows, 0))

	return metrics.Round(metrics.Clamp(s, 0, 100), 1)
}

// ZoneFor classifies a score.
func ZoneFor(score float64, cfg config.ReliabilityConfig) Zone {
	switch {
	case score >= cfg.ReliableMin:
		return ZoneReliable
	case score >= cfg.WatchMin:
		return ZoneWatch
	default:
		return ZoneHighRisk
	}
}

// BandFor places a score in a distribution band.
func BandFor(score float64, cfg config.ReliabilityConfig) Band {
	switch {
	case score >= cfg.ExcellentMin:
		return BandExcellent
	case score >= cfg.GoodMin:
		return BandGood
	case score >= cfg.FairMin:
		return BandFair
	default:
		return BandPoor
	}
}
