package dashboard

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/monitoring"
)

// SnapshotFetcher loads the records needed to score bookings starting in
// [from, to). Resolved bookings before from must be included so client
// reliability is computed over the whole history.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, from, to time.Time) (*model.Snapshot, error)
}

// Collector fetches a fresh snapshot and reduces it to owner action signals.
type Collector struct {
	fetcher SnapshotFetcher
	policy  Policy
	now     func() time.Time
}

var _ monitoring.Source = (*Collector)(nil)

// NewCollector creates a Collector scoring with policy p.
func NewCollector(fetcher SnapshotFetcher, p Policy) *Collector {
	return &Collector{fetcher: fetcher, policy: p, now: time.Now}
}

// Range returns the booking window a report at now needs: far enough back to
// cover the demand and quadrant lookbacks, forward to the revenue window.
// Client history before the window is fetched separately.
func (p Policy) Range(now time.Time) (from, to time.Time) {
	back := max(p.Demand.WindowDays, p.Quadrant.LookbackDays)
	return now.AddDate(0, 0, -back), now.AddDate(0, 0, p.Revenue.WindowDays)
}

// Report fetches and scores a snapshot as of the collector's clock.
func (c *Collector) Report(ctx context.Context) (*Report, error) {
	now := c.now()
	from, to := c.policy.Range(now)

	snap, err := c.fetcher.FetchSnapshot(ctx, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: fetch snapshot")
	}

	report, err := Build(snap, now, c.policy)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("dashboard: report built",
		zap.Int("bookings", len(report.Bookings)),
		zap.Int("clients", len(report.Clients)),
		zap.Int("owner_actions", len(report.OwnerActions)),
	)
	return report, nil
}

// Collect implements monitoring.Source.
func (c *Collector) Collect(ctx context.Context) (*monitoring.Signals, error) {
	report, err := c.Report(ctx)
	if err != nil {
		return nil, err
	}
	return &report.Signals, nil
}
