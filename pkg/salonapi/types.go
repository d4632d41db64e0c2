package salonapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/model"
)

// page is the paginated list envelope returned by every list endpoint.
type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

// ID accepts either a JSON number or a JSON string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return eris.Wrapf(err, "salonapi: id %s", data)
	}
	*id = ID(n.String())
	return nil
}

// Money is a decimal amount in pounds, sent either as a string ("45.00") or
// a number, held in pence.
type Money int64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	p, err := ParsePence(s)
	if err != nil {
		return err
	}
	*m = Money(p)
	return nil
}

// ParsePence converts a decimal pounds amount to pence, rounding half away
// from zero beyond two decimal places.
func ParsePence(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimLeft(s, "+-")

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	pounds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "salonapi: invalid amount %q", s)
	}

	frac += "000"
	if _, err := strconv.ParseUint(frac, 10, 64); err != nil {
		return 0, eris.Wrapf(err, "salonapi: invalid amount %q", s)
	}
	pence := pounds*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	if frac[2] >= '5' {
		pence++
	}
	if neg {
		pence = -pence
	}
	return pence, nil
}

// Date accepts an RFC 3339 timestamp or a bare YYYY-MM-DD date.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return eris.Errorf("salonapi: invalid date %q", s)
}

// Booking is a booking as the backend serialises it.
type Booking struct {
	ID                       ID        `json:"id"`
	Client                   ID        `json:"client"`
	Service                  ID        `json:"service"`
	Staff                    ID        `json:"staff"`
	StartTime                time.Time `json:"start_time"`
	EndTime                  time.Time `json:"end_time"`
	Status                   string    `json:"status"`
	PaymentStatus            string    `json:"payment_status"`
	PaymentAmount            Money     `json:"payment_amount"`
	Price                    Money     `json:"price"`
	ClientReliabilityScore   *float64  `json:"client_reliability_score"`
	ClientConsecutiveNoShows *int      `json:"client_consecutive_no_shows"`
}

// Model converts b to the scoring model.
func (b Booking) Model() model.Booking {
	return model.Booking{
		ID:                       string(b.ID),
		ClientID:                 string(b.Client),
		ServiceID:                string(b.Service),
		StaffID:                  string(b.Staff),
		StartTime:                b.StartTime,
		EndTime:                  b.EndTime,
		Status:                   model.BookingStatus(strings.ToLower(b.Status)),
		PaymentStatus:            model.PaymentStatus(strings.ToLower(b.PaymentStatus)),
		PaymentAmount:            int64(b.PaymentAmount),
		Price:                    int64(b.Price),
		ClientReliabilityScore:   b.ClientReliabilityScore,
		ClientConsecutiveNoShows: b.ClientConsecutiveNoShows,
	}
}

// Lead is a CRM lead as the backend serialises it.
type Lead struct {
	ID           ID       `json:"id"`
	Name         string   `json:"name"`
	Status       string   `json:"status"`
	Value        Money    `json:"value"`
	Source       string   `json:"source"`
	Tags         []string `json:"tags"`
	FollowUpDate *Date    `json:"follow_up_date"`
}

// Model converts l to the scoring model.
func (l Lead) Model() model.Lead {
	out := model.Lead{
		ID:         string(l.ID),
		Name:       l.Name,
		Status:     model.LeadStatus(strings.ToUpper(l.Status)),
		ValuePence: int64(l.Value),
		Source:     l.Source,
		Tags:       l.Tags,
	}
	if l.FollowUpDate != nil && !l.FollowUpDate.IsZero() {
		t := l.FollowUpDate.Time
		out.FollowUpDate = &t
	}
	return out
}

// Service is a bookable service as the backend serialises it.
type Service struct {
	ID              ID      `json:"id"`
	Name            string  `json:"name"`
	Price           Money   `json:"price"`
	DurationMinutes int     `json:"duration_minutes"`
	PaymentType     string  `json:"payment_type"`
	DepositStrategy string  `json:"deposit_strategy"`
	DepositPercent  float64 `json:"deposit_percentage"`
	DepositAmount   Money   `json:"deposit_amount"`
}

// Model converts s to the scoring model.
func (s Service) Model() model.Service {
	return model.Service{
		ID:              string(s.ID),
		Name:            s.Name,
		Price:           int64(s.Price),
		DurationMinutes: s.DurationMinutes,
		PaymentType:     model.PaymentType(strings.ToLower(s.PaymentType)),
		DepositStrategy: model.DepositStrategy(strings.ToLower(s.DepositStrategy)),
		DepositPercent:  s.DepositPercent,
		DepositAmount:   int64(s.DepositAmount),
	}
}

// IntakeProfile is a client intake form record.
type IntakeProfile struct {
	Client            ID     `json:"client"`
	Completed         bool   `json:"completed"`
	IsExpired         bool   `json:"is_expired"`
	RenewalRequired   bool   `json:"renewal_required"`
	DisclaimerVersion string `json:"disclaimer_version"`
	MarketingOptIn    bool   `json:"marketing_opt_in"`
}

// Model converts p to the scoring model.
func (p IntakeProfile) Model() model.IntakeProfile {
	return model.IntakeProfile{
		ClientID:          string(p.Client),
		Completed:         p.Completed,
		IsExpired:         p.IsExpired,
		RenewalRequired:   p.RenewalRequired,
		DisclaimerVersion: p.DisclaimerVersion,
		MarketingOptIn:    p.MarketingOptIn,
	}
}

// Disclaimer is the active disclaimer document.
type Disclaimer struct {
	Version string `json:"version"`
}
