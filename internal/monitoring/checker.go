package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/config"
)

// Source produces fresh signals, typically by fetching a snapshot from the
// booking backend and building a report from it.
type Source interface {
	Collect(ctx context.Context) (*Signals, error)
}

// Checker runs periodic owner action checks in the background.
type Checker struct {
	source  Source
	alerter *Alerter
	cfg     config.MonitoringConfig
}

// NewChecker creates a background checker.
func NewChecker(source Source, alerter *Alerter, cfg config.MonitoringConfig) *Checker {
	return &Checker{
		source:  source,
		alerter: alerter,
		cfg:     cfg,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting owner action checker", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("owner action checker stopped")
			return
		case <-ticker.C:
			c.check(ctx, log)
		}
	}
}

// check runs one collect, evaluate, send cycle and returns the number of
// alerts delivered.
func (c *Checker) check(ctx context.Context, log *zap.Logger) int {
	snap, err := c.source.Collect(ctx)
	if err != nil {
		log.Error("monitoring: failed to collect signals", zap.Error(err))
		return 0
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no owner actions raised")
		return 0
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: owner action check complete",
		zap.Int("actions_raised", len(alerts)),
		zap.Int("actions_sent", sent),
	)
	return sent
}
