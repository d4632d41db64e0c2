package demand

import (
	"sort"
	"time"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

// Capacity reports how many bookings a service can take in one weekday hour.
type Capacity func(day time.Weekday, hour int) int

// OpeningHours returns a Capacity of cfg.SlotsPerHour for every hour the
// business is open, every day of the week.
func OpeningHours(cfg config.DemandConfig) Capacity {
	return func(_ time.Weekday, hour int) int {
		if hour >= cfg.OpenHour && hour < cfg.CloseHour {
			return cfg.SlotsPerHour
		}
		return 0
	}
}

// ServiceDemand is the demand and utilisation summary for one service.
type ServiceDemand struct {
	ServiceID              string   `json:"service_id"`
	Bookings               int      `json:"bookings"`
	NoShows                int      `json:"no_shows"`
	NoShowRate             float64  `json:"no_show_rate"`
	DemandIndex            float64  `json:"demand_index"`
	PeakUtilisationRate    float64  `json:"peak_utilisation_rate"`
	OffPeakUtilisationRate float64  `json:"off_peak_utilisation_rate"`
	Calendar               Calendar `json:"calendar"`
}

// ServiceIndex summarises demand for every service over the trailing window.
// Each service gets its own calendar, with intensity relative to its busiest
// bucket. Demand index is the service's overall utilisation of the capacity
// available in the window; peak and off-peak utilisation split it by hour.
func ServiceIndex(bookings []model.Booking, services []model.Service, now time.Time, loc *time.Location, capacity Capacity, cfg config.DemandConfig) []ServiceDemand {
	type usage struct {
		total, noShows, peak, offPeak int
		window                        []model.Booking
	}
	byService := make(map[string]*usage, len(services))
	for _, svc := range services {
		byService[svc.ID] = &usage{}
	}

	for _, b := range Window(bookings, now, cfg) {
		u, ok := byService[b.ServiceID]
		if !ok {
			continue
		}
		u.total++
		u.window = append(u.window, b)
		if b.Status == model.BookingNoShow {
			u.noShows++
		}
		if IsPeak(b.StartTime.In(loc).Hour(), cfg) {
			u.peak++
		} else {
			u.offPeak++
		}
	}

	peakCap, offPeakCap := windowCapacity(now, loc, capacity, cfg)

	out := make([]ServiceDemand, 0, len(services))
	for _, svc := range services {
		u := byService[svc.ID]
		out = append(out, ServiceDemand{
			ServiceID:              svc.ID,
			Bookings:               u.total,
			NoShows:                u.noShows,
			NoShowRate:             metrics.Round(metrics.Percent(u.noShows, u.total), 1),
			DemandIndex:            utilisation(u.total, peakCap+offPeakCap),
			PeakUtilisationRate:    utilisation(u.peak, peakCap),
			OffPeakUtilisationRate: utilisation(u.offPeak, offPeakCap),
			Calendar:               BuildCalendar(u.window, now, loc, cfg),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ServiceID < out[j].ServiceID })
	return out
}

// windowCapacity sums capacity over every local hour slot that overlaps the
// window [now - WindowDays, now), the same span Window counts bookings in.
func windowCapacity(now time.Time, loc *time.Location, capacity Capacity, cfg config.DemandConfig) (peak, offPeak int) {
	if capacity == nil {
		return 0, 0
	}
	from := now.AddDate(0, 0, -cfg.WindowDays).In(loc)
	slot := from.Add(-time.Duration(from.Minute())*time.Minute -
		time.Duration(from.Second())*time.Second -
		time.Duration(from.Nanosecond()))

	for ; slot.Before(now); slot = slot.Add(time.Hour) {
		local := slot.In(loc)
		n := max(capacity(local.Weekday(), local.Hour()), 0)
		if IsPeak(local.Hour(), cfg) {
			peak += n
		} else {
			offPeak += n
		}
	}
	return peak, offPeak
}

func utilisation(bookings, capacity int) float64 {
	if capacity <= 0 {
		return 0
	}
	return metrics.Round(metrics.Clamp(float64(bookings)/float64(capacity)*100, 0, 100), 1)
}
