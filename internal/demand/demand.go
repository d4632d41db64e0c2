package demand

import (
	"math"
	"time"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

// Cell is one (weekday, hour) bucket of the demand calendar.
type Cell struct {
	Hour            int     `json:"hour"`
	DayOfWeek       int     `json:"day_of_week"`
	TotalBookings   int     `json:"total_bookings"`
	NoShows         int     `json:"no_shows"`
	NoShowRate      float64 `json:"no_show_rate"`
	DemandIntensity int     `json:"demand_intensity"`
	Flagged         bool    `json:"flagged"`
}

// Calendar is the weekly demand heatmap.
type Calendar struct {
	Cells []Cell `json:"cells"`
}

type bucket struct {
	day  time.Weekday
	hour int
}

type tally struct {
	total   int
	noShows int
}

// Window returns the non-cancelled bookings that started in the trailing
// window ending at now.
func Window(bookings []model.Booking, now time.Time, cfg config.DemandConfig) []model.Booking {
	from := now.AddDate(0, 0, -cfg.WindowDays)
	var out []model.Booking
	for _, b := range bookings {
		if b.Status == model.BookingCancelled {
			continue
		}
		if b.StartTime.Before(from) || !b.StartTime.Before(now) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BuildCalendar buckets the bookings in the trailing window by weekday and
// hour in loc. Every day gets a cell for each opening hour, widened to cover
// any hour that has bookings. Intensity is relative to the busiest cell.
func BuildCalendar(bookings []model.Booking, now time.Time, loc *time.Location, cfg config.DemandConfig) Calendar {
	counts := make(map[bucket]tally)
	first, last := cfg.OpenHour, cfg.CloseHour-1
	busiest := 0

	for _, b := range Window(bookings, now, cfg) {
		local := b.StartTime.In(loc)
		k := bucket{day: local.Weekday(), hour: local.Hour()}
		t := counts[k]
		t.total++
		if b.Status == model.BookingNoShow {
			t.noShows++
		}
		counts[k] = t

		busiest = max(busiest, t.total)
		first = min(first, k.hour)
		last = max(last, k.hour)
	}

	cal := Calendar{Cells: make([]Cell, 0, 7*(last-first+1))}
	for day := time.Sunday; day <= time.Saturday; day++ {
		for hour := first; hour <= last; hour++ {
			t := counts[bucket{day: day, hour: hour}]
			rate := metrics.Round(metrics.Percent(t.noShows, t.total), 1)
			cal.Cells = append(cal.Cells, Cell{
				Hour:            hour,
				DayOfWeek:       int(day),
				TotalBookings:   t.total,
				NoShows:         t.noShows,
				NoShowRate:      rate,
				DemandIntensity: Intensity(t.total, busiest),
				Flagged:         rate > cfg.NoShowFlagRate,
			})
		}
	}
	return cal
}

// Intensity normalises count against the busiest count on a 0-100 scale.
func Intensity(count, busiest int) int {
	return int(math.Round(float64(count) / float64(max(1, busiest)) * 100))
}

// IsPeak reports whether hour falls in the configured peak period.
func IsPeak(hour int, cfg config.DemandConfig) bool {
	return hour >= cfg.PeakStartHour && hour < cfg.PeakEndHour
}
