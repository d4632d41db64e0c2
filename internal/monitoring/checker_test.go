package monitoring

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/config"
)

type stubSource struct {
	snap  *Signals
	err   error
	calls atomic.Int32
}

func (s *stubSource) Collect(context.Context) (*Signals, error) {
	s.calls.Add(1)
	return s.snap, s.err
}

func TestChecker_RunStopsOnCancel(t *testing.T) {
	src := &stubSource{snap: quietSignals()}
	cfg := config.MonitoringConfig{CheckIntervalSecs: 1}
	checker := NewChecker(src, NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(&stubSource{}, NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{})
	assert.NotNil(t, checker)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_CheckSendsActions(t *testing.T) {
	var received atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	snap := quietSignals()
	snap.CriticalBookings = 2
	snap.OverdueFollowUps = 1

	cfg := testConfig()
	cfg.WebhookURL = ts.URL
	src := &stubSource{snap: snap}
	checker := NewChecker(src, NewAlerter(cfg), cfg)

	sent := checker.check(context.Background(), zap.NewNop())
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestChecker_CheckCollectError(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookURL = "http://127.0.0.1:1"
	checker := NewChecker(&stubSource{err: errors.New("backend down")}, NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.check(context.Background(), zap.NewNop()))
}

func TestChecker_CheckNothingRaised(t *testing.T) {
	cfg := testConfig()
	checker := NewChecker(&stubSource{snap: quietSignals()}, NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.check(context.Background(), zap.NewNop()))
}
