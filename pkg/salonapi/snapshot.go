package salonapi

import (
	"context"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/booking-insights/internal/model"
)

// Fetcher assembles scoring snapshots from the API.
type Fetcher struct {
	client Client
}

// NewFetcher wraps client.
func NewFetcher(client Client) *Fetcher {
	return &Fetcher{client: client}
}

// FetchSnapshot loads bookings starting in [from, to), every resolved booking
// before from, and every lead, service and intake profile. The history keeps
// client reliability, streaks and lifetime value whole. The calls run
// concurrently; the first failure cancels the rest.
func (f *Fetcher) FetchSnapshot(ctx context.Context, from, to time.Time) (*model.Snapshot, error) {
	var (
		bookings   []Booking
		history    []Booking
		leads      []Lead
		services   []Service
		profiles   []IntakeProfile
		disclaimer *Disclaimer
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bookings, err = f.client.ListBookings(gctx, from, to)
		return err
	})
	g.Go(func() (err error) {
		history, err = f.client.ListHistory(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		leads, err = f.client.ListLeads(gctx)
		return err
	})
	g.Go(func() (err error) {
		services, err = f.client.ListServices(gctx)
		return err
	})
	g.Go(func() (err error) {
		profiles, err = f.client.ListIntakeProfiles(gctx)
		return err
	})
	g.Go(func() (err error) {
		disclaimer, err = f.client.CurrentDisclaimer(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "salonapi: fetch snapshot")
	}

	snap := &model.Snapshot{
		Bookings:       make([]model.Booking, 0, len(bookings)+len(history)),
		Leads:          make([]model.Lead, 0, len(leads)),
		Services:       make([]model.Service, 0, len(services)),
		IntakeProfiles: make([]model.IntakeProfile, 0, len(profiles)),
	}
	seen := make(map[ID]struct{}, len(bookings)+len(history))
	for _, b := range slices.Concat(bookings, history) {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		snap.Bookings = append(snap.Bookings, b.Model())
	}
	for _, l := range leads {
		snap.Leads = append(snap.Leads, l.Model())
	}
	for _, s := range services {
		snap.Services = append(snap.Services, s.Model())
	}
	for _, p := range profiles {
		snap.IntakeProfiles = append(snap.IntakeProfiles, p.Model())
	}
	if disclaimer != nil {
		snap.CurrentDisclaimerVersion = disclaimer.Version
	}

	zap.L().Info("salonapi: snapshot fetched",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("bookings", len(snap.Bookings)),
		zap.Int("history", len(history)),
		zap.Int("leads", len(snap.Leads)),
		zap.Int("services", len(snap.Services)),
		zap.Int("intake_profiles", len(snap.IntakeProfiles)),
	)
	return snap, nil
}
