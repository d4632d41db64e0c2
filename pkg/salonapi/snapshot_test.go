package salonapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/reliability"
)

func TestFetchSnapshot(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/bookings/":
			if r.URL.Query().Get("status") != "" {
				fmt.Fprint(w, `{"count": 2, "next": null, "results": [{"id": 7, "client": 2, "service": 3,
					"start_time": "2025-11-03T10:00:00Z", "end_time": "2025-11-03T11:00:00Z",
					"status": "completed", "payment_status": "paid", "price": "45.00", "payment_amount": "45.00"},
					{"id": 1, "client": 2, "service": 3,
					"start_time": "2026-03-03T10:00:00Z", "end_time": "2026-03-03T11:00:00Z",
					"status": "confirmed", "payment_status": "pending", "price": "45.00", "payment_amount": "0"}]}`)
				return
			}
			fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": 1, "client": 2, "service": 3,
				"start_time": "2026-03-03T10:00:00Z", "end_time": "2026-03-03T11:00:00Z",
				"status": "confirmed", "payment_status": "pending", "price": "45.00", "payment_amount": "0"}]}`)
		case "/api/leads/":
			fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": 1, "status": "NEW", "value": "50.00"}]}`)
		case "/api/services/":
			fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": 3, "name": "Cut", "price": "45.00",
				"payment_type": "deposit", "deposit_strategy": "dynamic"}]}`)
		case "/api/intake-profiles/":
			fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"client": 2, "completed": true, "disclaimer_version": "v3"}]}`)
		case "/api/disclaimers/current/":
			fmt.Fprint(w, `{"version": "v3"}`)
		default:
			http.NotFound(w, r)
		}
	})

	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	snap, err := NewFetcher(c).FetchSnapshot(context.Background(), from, from.AddDate(0, 0, 35))
	require.NoError(t, err)
	require.NoError(t, snap.Validate())

	require.Len(t, snap.Bookings, 2)
	assert.Equal(t, model.BookingConfirmed, snap.Bookings[0].Status)
	assert.Equal(t, int64(4500), snap.Bookings[0].Price)
	assert.Equal(t, "7", snap.Bookings[1].ID)
	assert.Equal(t, model.BookingCompleted, snap.Bookings[1].Status)
	assert.Len(t, snap.Leads, 1)
	assert.Len(t, snap.Services, 1)
	assert.Len(t, snap.IntakeProfiles, 1)
	assert.Equal(t, "v3", snap.CurrentDisclaimerVersion)
}

type failingClient struct {
	Client
	err error
}

func (f failingClient) ListLeads(context.Context) ([]Lead, error) { return nil, f.err }

type stubClient struct{}

func (stubClient) ListBookings(context.Context, time.Time, time.Time) ([]Booking, error) {
	return nil, nil
}
func (stubClient) ListHistory(context.Context, time.Time) ([]Booking, error) {
	return nil, nil
}
func (stubClient) ListLeads(context.Context) ([]Lead, error)       { return nil, nil }
func (stubClient) ListServices(context.Context) ([]Service, error) { return nil, nil }
func (stubClient) ListIntakeProfiles(context.Context) ([]IntakeProfile, error) {
	return nil, nil
}
func (stubClient) CurrentDisclaimer(context.Context) (*Disclaimer, error) {
	return &Disclaimer{}, nil
}

// bookingBackend serves /api/bookings/ from a fixed list, honouring the
// start_after, start_before and status filters.
func bookingBackend(t *testing.T, all []model.Booking) Client {
	t.Helper()
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/bookings/" {
			fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
			return
		}
		q := r.URL.Query()
		var after, before time.Time
		var err error
		if v := q.Get("start_after"); v != "" {
			after, err = time.Parse(time.RFC3339, v)
			require.NoError(t, err)
		}
		before, err = time.Parse(time.RFC3339, q.Get("start_before"))
		require.NoError(t, err)
		statuses := strings.Split(q.Get("status"), ",")

		var results []map[string]any
		for _, b := range all {
			if b.StartTime.Before(after) || !b.StartTime.Before(before) {
				continue
			}
			if q.Get("status") != "" && !slices.Contains(statuses, string(b.Status)) {
				continue
			}
			results = append(results, map[string]any{
				"id": b.ID, "client": b.ClientID, "service": b.ServiceID,
				"start_time": b.StartTime, "end_time": b.EndTime,
				"status": b.Status, "payment_status": b.PaymentStatus,
				"price": fmt.Sprintf("%d.%02d", b.Price/100, b.Price%100),
			})
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"count": len(results), "next": nil, "results": results,
		}))
	})
}

func TestFetchSnapshot_KeepsClientHistory(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var all []model.Booking
	for i := range 10 {
		start := now.AddDate(0, 0, -100-10*i)
		all = append(all, model.Booking{
			ID: fmt.Sprintf("old-%d", i), ClientID: "c1", ServiceID: "s1",
			StartTime: start, EndTime: start.Add(time.Hour),
			Status: model.BookingCompleted, PaymentStatus: model.PaymentPaid, Price: 4000,
		})
	}
	recent := now.AddDate(0, 0, -10)
	all = append(all, model.Booking{
		ID: "recent", ClientID: "c1", ServiceID: "s1",
		StartTime: recent, EndTime: recent.Add(time.Hour),
		Status: model.BookingNoShow, PaymentStatus: model.PaymentPending, Price: 4000,
	})

	from, to := now.AddDate(0, 0, -90), now.AddDate(0, 0, 7)
	snap, err := NewFetcher(bookingBackend(t, all)).FetchSnapshot(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, snap.Bookings, 11)

	cfg := reliability.DefaultConfig()
	want := reliability.Aggregate(all, cfg)["c1"]
	got := reliability.Aggregate(snap.Bookings, cfg)["c1"]
	assert.Equal(t, 11, got.TotalBookings)
	assert.Equal(t, int64(40000), got.LifetimeValue)
	assert.InDelta(t, want.ReliabilityScore, got.ReliabilityScore, 0.001)
	assert.Equal(t, want.ConsecutiveNoShows, got.ConsecutiveNoShows)
}

func TestFetchSnapshot_Error(t *testing.T) {
	f := NewFetcher(failingClient{Client: stubClient{}, err: errors.New("leads unavailable")})

	_, err := f.FetchSnapshot(context.Background(), time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "salonapi: fetch snapshot")
	assert.Contains(t, err.Error(), "leads unavailable")
}

func TestFetchSnapshot_Empty(t *testing.T) {
	snap, err := NewFetcher(stubClient{}).FetchSnapshot(context.Background(), time.Now(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, snap.Bookings)
	assert.NotNil(t, snap.Bookings)
	assert.Empty(t, snap.CurrentDisclaimerVersion)
}
