// Package monitoring turns dashboard signals into owner actions and delivers
// them to a webhook.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/metrics"
)

// AlertType identifies the rule that raised an owner action.
type AlertType string

const (
	AlertRevenueAtRisk     AlertType = "revenue_at_risk"
	AlertCriticalBookings  AlertType = "critical_bookings"
	AlertManualReview      AlertType = "manual_review"
	AlertNoShowHotspot     AlertType = "no_show_hotspot"
	AlertIntakeCompliance  AlertType = "intake_compliance"
	AlertDisclaimerCover   AlertType = "disclaimer_coverage"
	AlertOverdueFollowUps  AlertType = "overdue_follow_ups"
	AlertBusinessHealth    AlertType = "business_health"
	AlertPricingSuggestion AlertType = "pricing_suggestion"
)

// Severities, most urgent first.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Alert is a single owner action.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Signals is the set of figures the owner action rules look at.
type Signals struct {
	RevenueWindowDays int   `json:"revenue_window_days"`
	RevenueTotal      int64 `json:"revenue_total"`
	RevenueAtRisk     int64 `json:"revenue_at_risk"`
	AtRiskBookings    int   `json:"at_risk_bookings"`
	CriticalBookings  int   `json:"critical_bookings"`
	ManualReviews     int   `json:"manual_reviews"`

	FlaggedSlots        int     `json:"flagged_slots"`
	WorstSlot           string  `json:"worst_slot,omitempty"`
	WorstSlotNoShowRate float64 `json:"worst_slot_no_show_rate"`

	IntakeValidRate    float64 `json:"intake_valid_rate"`
	IntakeProfiles     int     `json:"intake_profiles"`
	RenewalsDue        int     `json:"renewals_due"`
	DisclaimerCoverage float64 `json:"disclaimer_coverage"`
	OverdueFollowUps   int     `json:"overdue_follow_ups"`

	HealthScore    int    `json:"health_score"`
	HealthLabel    string `json:"health_label"`
	HealthyMin     int    `json:"healthy_min"`
	AttentionMin   int    `json:"attention_min"`
	PricingChanges int    `json:"pricing_changes"`

	CollectedAt time.Time `json:"collected_at"`
}

// Alerter evaluates Signals against configured thresholds and can post the
// resulting alerts to a webhook.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the signals against thresholds and returns the owner
// actions, most severe first. It is deterministic for a given snap.
func (a *Alerter) Evaluate(snap *Signals) []Alert {
	var alerts []Alert
	add := func(t AlertType, severity, msg string, details map[string]any) {
		alerts = append(alerts, Alert{
			Type:      t,
			Severity:  severity,
			Message:   msg,
			Details:   details,
			Timestamp: snap.CollectedAt,
		})
	}

	if snap.RevenueAtRisk > 0 {
		share := metrics.Round(float64(snap.RevenueAtRisk)/float64(max(snap.RevenueTotal, 1))*100, 1)
		severity := SeverityMedium
		if share >= a.cfg.AtRiskShareHigh {
			severity = SeverityHigh
		}
		add(AlertRevenueAtRisk, severity, fmt.Sprintf(
			"%s of the next %d days' revenue (%.1f%%) is at risk across %d booking(s); request deposits or confirm by phone",
			metrics.FormatPence(snap.RevenueAtRisk), snap.RevenueWindowDays, share, snap.AtRiskBookings,
		), map[string]any{
			"at_risk":  snap.RevenueAtRisk,
			"total":    snap.RevenueTotal,
			"share":    share,
			"bookings": snap.AtRiskBookings,
		})
	}

	if snap.CriticalBookings > 0 {
		add(AlertCriticalBookings, SeverityHigh, fmt.Sprintf(
			"%d upcoming booking(s) are CRITICAL risk; take full prepayment before the appointment",
			snap.CriticalBookings,
		), map[string]any{"bookings": snap.CriticalBookings})
	}

	if snap.ManualReviews > 0 {
		add(AlertManualReview, SeverityHigh, fmt.Sprintf(
			"%d upcoming booking(s) are from clients with repeat no-shows and need manual review",
			snap.ManualReviews,
		), map[string]any{"bookings": snap.ManualReviews})
	}

	if snap.FlaggedSlots > 0 {
		add(AlertNoShowHotspot, SeverityMedium, fmt.Sprintf(
			"%d time slot(s) have high no-show rates; worst is %s at %.1f%%",
			snap.FlaggedSlots, snap.WorstSlot, snap.WorstSlotNoShowRate,
		), map[string]any{
			"slots":        snap.FlaggedSlots,
			"worst_slot":   snap.WorstSlot,
			"no_show_rate": snap.WorstSlotNoShowRate,
		})
	}

	if snap.IntakeProfiles > 0 && snap.IntakeValidRate < a.cfg.IntakeValidMin {
		add(AlertIntakeCompliance, SeverityMedium, fmt.Sprintf(
			"Only %.1f%% of intake forms are valid (threshold %.0f%%); %d need renewal",
			snap.IntakeValidRate, a.cfg.IntakeValidMin, snap.RenewalsDue,
		), map[string]any{
			"intake_valid_rate": snap.IntakeValidRate,
			"threshold":         a.cfg.IntakeValidMin,
			"renewals_due":      snap.RenewalsDue,
		})
	}

	if snap.IntakeProfiles > 0 && snap.DisclaimerCoverage < a.cfg.DisclaimerCoverageMin {
		add(AlertDisclaimerCover, SeverityLow, fmt.Sprintf(
			"%.1f%% of clients have signed the current disclaimer (threshold %.0f%%)",
			snap.DisclaimerCoverage, a.cfg.DisclaimerCoverageMin,
		), map[string]any{
			"disclaimer_coverage": snap.DisclaimerCoverage,
			"threshold":           a.cfg.DisclaimerCoverageMin,
		})
	}

	if snap.OverdueFollowUps > 0 {
		add(AlertOverdueFollowUps, SeverityLow, fmt.Sprintf(
			"%d lead follow-up(s) are overdue", snap.OverdueFollowUps,
		), map[string]any{"leads": snap.OverdueFollowUps})
	}

	switch {
	case snap.HealthScore < snap.AttentionMin:
		add(AlertBusinessHealth, SeverityHigh, fmt.Sprintf(
			"Business health is %d (%s)", snap.HealthScore, snap.HealthLabel,
		), map[string]any{"health_score": snap.HealthScore})
	case snap.HealthScore < snap.HealthyMin:
		add(AlertBusinessHealth, SeverityMedium, fmt.Sprintf(
			"Business health is %d (%s)", snap.HealthScore, snap.HealthLabel,
		), map[string]any{"health_score": snap.HealthScore})
	}

	if snap.PricingChanges > 0 {
		add(AlertPricingSuggestion, SeverityLow, fmt.Sprintf(
			"%d service(s) have a confident pricing recommendation ready to apply", snap.PricingChanges,
		), map[string]any{"services": snap.PricingChanges})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})
	return alerts
}

func severityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	}
	return 2
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send owner action",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: owner action sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
