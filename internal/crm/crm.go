// Package crm computes lead pipeline metrics.
package crm

import (
	"sort"
	"time"

	"github.com/sells-group/booking-insights/internal/metrics"
	"github.com/sells-group/booking-insights/internal/model"
)

// Summary is the CRM block of the dashboard.
type Summary struct {
	PipelineValue    int64                    `json:"pipeline_value"`
	ConversionRate   float64                  `json:"conversion_rate"`
	Funnel           map[model.LeadStatus]int `json:"funnel"`
	OverdueFollowUps int                      `json:"overdue_follow_ups"`
	ValueBySource    []SourceValue            `json:"value_by_source"`
}

// SourceValue is the open pipeline value attributed to one lead source.
type SourceValue struct {
	Source     string `json:"source"`
	Leads      int    `json:"leads"`
	ValuePence int64  `json:"value_pence"`
}

// PipelineValue sums value_pence over leads that are still in the pipeline.
func PipelineValue(leads []model.Lead) int64 {
	var total int64
	for _, l := range leads {
		if !l.Status.Terminal() {
			total += l.ValuePence
		}
	}
	return total
}

// ConversionRate returns converted leads as a percentage of all leads, or 0
// when there are none.
func ConversionRate(leads []model.Lead) float64 {
	converted := 0
	for _, l := range leads {
		if l.Status == model.LeadConverted {
			converted++
		}
	}
	return metrics.Round(metrics.Percent(converted, len(leads)), 1)
}

// Funnel counts leads per status. Every status is present in the result.
func Funnel(leads []model.Lead) map[model.LeadStatus]int {
	out := make(map[model.LeadStatus]int, len(model.LeadStatuses))
	for _, s := range model.LeadStatuses {
		out[s] = 0
	}
	for _, l := range leads {
		out[l.Status]++
	}
	return out
}

// OverdueFollowUps returns the open leads whose follow-up date is before now.
func OverdueFollowUps(leads []model.Lead, now time.Time) []model.Lead {
	var out []model.Lead
	for _, l := range leads {
		if l.Status.Terminal() || l.FollowUpDate == nil {
			continue
		}
		if l.FollowUpDate.Before(now) {
			out = append(out, l)
		}
	}
	return out
}

// ValueBySource groups open pipeline value by source, highest value first.
// Leads without a source are grouped under "unknown".
func ValueBySource(leads []model.Lead) []SourceValue {
	idx := make(map[string]int)
	var out []SourceValue
	for _, l := range leads {
		if l.Status.Terminal() {
			continue
		}
		src := l.Source
		if src == "" {
			src = "unknown"
		}
		i, ok := idx[src]
		if !ok {
			i = len(out)
			idx[src] = i
			out = append(out, SourceValue{Source: src})
		}
		out[i].Leads++
		out[i].ValuePence += l.ValuePence
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ValuePence != out[j].ValuePence {
			return out[i].ValuePence > out[j].ValuePence
		}
		return out[i].Source < out[j].Source
	})
	return out
}

// Summarize builds the CRM summary at time now.
func Summarize(leads []model.Lead, now time.Time) Summary {
	return Summary{
		PipelineValue:    PipelineValue(leads),
		ConversionRate:   ConversionRate(leads),
		Funnel:           Funnel(leads),
		OverdueFollowUps: len(OverdueFollowUps(leads, now)),
		ValueBySource:    ValueBySource(leads),
	}
}
