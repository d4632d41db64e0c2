package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Snapshot is the full set of tenant records a report is computed from.
type Snapshot struct {
	Bookings                 []Booking       `json:"bookings"`
	Leads                    []Lead          `json:"leads"`
	Services                 []Service       `json:"services"`
	IntakeProfiles           []IntakeProfile `json:"intake_profiles"`
	CurrentDisclaimerVersion string          `json:"current_disclaimer_version,omitempty"`
}

// Validate checks every record in the snapshot and returns a single error
// listing all problems found. Scorers assume a validated snapshot.
func (s *Snapshot) Validate() error {
	var errs []string

	seen := make(map[string]bool, len(s.Bookings))
	for i, b := range s.Bookings {
		ref := fmt.Sprintf("bookings[%d]", i)
		if b.ID == "" {
			errs = append(errs, ref+": id is required")
		} else if seen[b.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate id %q", ref, b.ID))
		}
		seen[b.ID] = true
		if b.ClientID == "" {
			errs = append(errs, ref+": client_id is required")
		}
		if !b.Status.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown status %q", ref, b.Status))
		}
		if !b.PaymentStatus.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown payment_status %q", ref, b.PaymentStatus))
		}
		if b.Price < 0 {
			errs = append(errs, ref+": price must be >= 0")
		}
		if b.PaymentAmount < 0 {
			errs = append(errs, ref+": payment_amount must be >= 0")
		}
		if b.StartTime.IsZero() {
			errs = append(errs, ref+": start_time is required")
		}
		if !b.EndTime.IsZero() && b.EndTime.Before(b.StartTime) {
			errs = append(errs, ref+": end_time is before start_time")
		}
		if r := b.ClientReliabilityScore; r != nil && (*r < 0 || *r > 100) {
			errs = append(errs, ref+": client_reliability_score must be between 0 and 100")
		}
		if n := b.ClientConsecutiveNoShows; n != nil && *n < 0 {
			errs = append(errs, ref+": client_consecutive_no_shows must be >= 0")
		}
	}

	for i, l := range s.Leads {
		ref := fmt.Sprintf("leads[%d]", i)
		if !l.Status.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown status %q", ref, l.Status))
		}
		if l.ValuePence < 0 {
			errs = append(errs, ref+": value_pence must be >= 0")
		}
	}

	for i, svc := range s.Services {
		ref := fmt.Sprintf("services[%d]", i)
		if svc.ID == "" {
			errs = append(errs, ref+": id is required")
		}
		if svc.Price < 0 {
			errs = append(errs, ref+": price must be >= 0")
		}
		if !svc.PaymentType.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown payment_type %q", ref, svc.PaymentType))
		}
		if !svc.DepositStrategy.Valid() {
			errs = append(errs, fmt.Sprintf("%s: unknown deposit_strategy %q", ref, svc.DepositStrategy))
		}
		if svc.DepositPercent < 0 || svc.DepositPercent > 100 {
			errs = append(errs, ref+": deposit_percent must be between 0 and 100")
		}
		if svc.DepositAmount < 0 {
			errs = append(errs, ref+": deposit_amount must be >= 0")
		}
	}

	for i, p := range s.IntakeProfiles {
		if p.ClientID == "" {
			errs = append(errs, fmt.Sprintf("intake_profiles[%d]: client_id is required", i))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("model: invalid snapshot: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ServiceIndex returns the snapshot's services keyed by ID.
func (s *Snapshot) ServiceIndex() map[string]Service {
	out := make(map[string]Service, len(s.Services))
	for _, svc := range s.Services {
		out[svc.ID] = svc
	}
	return out
}
