package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// Valid reports whether s is a known booking status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled, BookingNoShow:
		return true
	}
	return false
}

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status. The empty status is
// accepted and treated as unknown by the scorers.
func (s PaymentStatus) Valid() bool {
	switch s {
	case "", PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Booking is a single appointment as returned by the booking backend.
// Money fields are in pence.
type Booking struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	ServiceID     string        `json:"service_id"`
	StaffID       string        `json:"staff_id,omitempty"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentAmount int64         `json:"payment_amount"`
	Price         int64         `json:"price"`

	// Denormalised client history. Nil means the backend did not send it.
	ClientReliabilityScore   *float64 `json:"client_reliability_score,omitempty"`
	ClientConsecutiveNoShows *int     `json:"client_consecutive_no_shows,omitempty"`
}

// IsPaid reports whether the booking has been paid in full.
func (b Booking) IsPaid() bool {
	return b.PaymentStatus == PaymentPaid
}

// IsUpcoming reports whether the booking is still expected to happen.
func (b Booking) IsUpcoming() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// HasDeposit reports whether a partial payment is held against the booking.
func (b Booking) HasDeposit() bool {
	return !b.IsPaid() && b.PaymentStatus != PaymentRefunded && b.PaymentAmount > 0
}
