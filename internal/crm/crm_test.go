package crm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/booking-insights/internal/model"
)

var now = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }

func TestPipelineValue(t *testing.T) {
	leads := []model.Lead{
		{Status: model.LeadNew, ValuePence: 5000},
		{Status: model.LeadConverted, ValuePence: 8000},
		{Status: model.LeadLost, ValuePence: 3000},
	}
	assert.Equal(t, int64(5000), PipelineValue(leads))
	assert.Equal(t, int64(0), PipelineValue(nil))
}

func TestConversionRate(t *testing.T) {
	tests := []struct {
		name  string
		leads []model.Lead
		want  float64
	}{
		{"empty", nil, 0},
		{"none converted", []model.Lead{{Status: model.LeadNew}}, 0},
		{"one of three", []model.Lead{{Status: model.LeadNew}, {Status: model.LeadConverted}, {Status: model.LeadLost}}, 33.3},
		{"all converted", []model.Lead{{Status: model.LeadConverted}}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConversionRate(tt.leads), 0.001)
		})
	}
}

func TestFunnel(t *testing.T) {
	got := Funnel([]model.Lead{
		{Status: model.LeadNew}, {Status: model.LeadNew}, {Status: model.LeadQualified},
	})
	assert.Len(t, got, len(model.LeadStatuses))
	assert.Equal(t, 2, got[model.LeadNew])
	assert.Equal(t, 1, got[model.LeadQualified])
	assert.Equal(t, 0, got[model.LeadLost])
}

func TestOverdueFollowUps(t *testing.T) {
	leads := []model.Lead{
		{ID: "overdue", Status: model.LeadContacted, FollowUpDate: ptrTime(now.Add(-time.Hour))},
		{ID: "future", Status: model.LeadContacted, FollowUpDate: ptrTime(now.Add(time.Hour))},
		{ID: "closed", Status: model.LeadLost, FollowUpDate: ptrTime(now.Add(-time.Hour))},
		{ID: "unscheduled", Status: model.LeadNew},
	}

	got := OverdueFollowUps(leads, now)
	require.Len(t, got, 1)
	assert.Equal(t, "overdue", got[0].ID)
}

func TestValueBySource(t *testing.T) {
	leads := []model.Lead{
		{Status: model.LeadNew, Source: "instagram", ValuePence: 2000},
		{Status: model.LeadQualified, Source: "referral", ValuePence: 6000},
		{Status: model.LeadContacted, Source: "instagram", ValuePence: 3000},
		{Status: model.LeadNew, ValuePence: 500},
		{Status: model.LeadConverted, Source: "walk-in", ValuePence: 9000},
	}

	got := ValueBySource(leads)
	assert.Equal(t, []SourceValue{
		{Source: "referral", Leads: 1, ValuePence: 6000},
		{Source: "instagram", Leads: 2, ValuePence: 5000},
		{Source: "unknown", Leads: 1, ValuePence: 500},
	}, got)
}

func TestSummarize(t *testing.T) {
	leads := []model.Lead{
		{Status: model.LeadNew, ValuePence: 5000, FollowUpDate: ptrTime(now.Add(-24 * time.Hour))},
		{Status: model.LeadConverted, ValuePence: 8000},
	}

	got := Summarize(leads, now)
	assert.Equal(t, int64(5000), got.PipelineValue)
	assert.InDelta(t, 50, got.ConversionRate, 0.001)
	assert.Equal(t, 1, got.OverdueFollowUps)
	assert.Equal(t, got, Summarize(leads, now))
}
