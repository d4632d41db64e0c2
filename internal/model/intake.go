package model

// IntakeProfile is a client's consultation form and consent record.
type IntakeProfile struct {
	ClientID          string `json:"client_id"`
	Completed         bool   `json:"completed"`
	IsExpired         bool   `json:"is_expired"`
	RenewalRequired   bool   `json:"renewal_required"`
	DisclaimerVersion string `json:"disclaimer_version,omitempty"`
	MarketingOptIn    bool   `json:"marketing_opt_in"`
}

// IsValidForBooking reports whether the profile allows the client to book.
func (p IntakeProfile) IsValidForBooking() bool {
	return p.Completed && !p.IsExpired && !p.RenewalRequired
}
