package model

import "time"

// LeadStatus is a CRM pipeline stage.
type LeadStatus string

const (
	LeadNew       LeadStatus = "NEW"
	LeadContacted LeadStatus = "CONTACTED"
	LeadQualified LeadStatus = "QUALIFIED"
	LeadConverted LeadStatus = "CONVERTED"
	LeadLost      LeadStatus = "LOST"
)

// LeadStatuses lists every pipeline stage in funnel order.
var LeadStatuses = []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost}

// Valid reports whether s is a known lead status.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the lead has left the pipeline.
func (s LeadStatus) Terminal() bool {
	return s == LeadConverted || s == LeadLost
}

// Lead is a CRM prospect.
type Lead struct {
	ID           string     `json:"id"`
	Name         string     `json:"name,omitempty"`
	Status       LeadStatus `json:"status"`
	ValuePence   int64      `json:"value_pence"`
	Source       string     `json:"source,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	FollowUpDate *time.Time `json:"follow_up_date,omitempty"`
}
