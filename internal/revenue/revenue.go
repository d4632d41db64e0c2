// Package revenue splits projected revenue for an upcoming window into
// secured, deposit-covered and at-risk buckets.
package revenue

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/booking-insights/internal/config"
	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/risk"
)

// DefaultConfig returns the revenue settings used when nothing is configured.
func DefaultConfig() config.RevenueConfig {
	return config.Default().Revenue
}

// ValidateConfig checks that a RevenueConfig is usable.
func ValidateConfig(c config.RevenueConfig) error {
	if c.WindowDays <= 0 {
		return eris.New("revenue: config validation failed: window_days must be > 0")
	}
	return nil
}

// Bucket is a revenue partition.
type Bucket string

const (
	BucketSecured Bucket = "secured"
	BucketDeposit Bucket = "deposit"
	BucketAtRisk  Bucket = "at_risk"
)

// PaymentClass is the payment state that matters for stratification.
type PaymentClass string

const (
	ClassPaid    PaymentClass = "paid"
	ClassDeposit PaymentClass = "deposit"
	ClassUnpaid  PaymentClass = "unpaid"
)

// ClassOf returns the payment class of b.
func ClassOf(b model.Booking) PaymentClass {
	switch {
	case b.IsPaid():
		return ClassPaid
	case b.HasDeposit():
		return ClassDeposit
	default:
		return ClassUnpaid
	}
}

// decisions maps every (payment class, risk level) pair to a bucket. Payment
// outranks risk: paid is always secured and a held deposit is always deposit.
// Unpaid bookings are provisionally counted as deposit until risk is HIGH.
var decisions = map[PaymentClass]map[risk.Level]Bucket{
	ClassPaid: {
		risk.LevelLow:      BucketSecured,
		risk.LevelMedium:   BucketSecured,
		risk.LevelHigh:     BucketSecured,
		risk.LevelCritical: BucketSecured,
	},
	ClassDeposit: {
		risk.LevelLow:      BucketDeposit,
		risk.LevelMedium:   BucketDeposit,
		risk.LevelHigh:     BucketDeposit,
		risk.LevelCritical: BucketDeposit,
	},
	ClassUnpaid: {
		risk.LevelLow:      BucketDeposit,
		risk.LevelMedium:   BucketDeposit,
		risk.LevelHigh:     BucketAtRisk,
		risk.LevelCritical: BucketAtRisk,
	},
}

// Classify returns the bucket for a payment class and risk level. An
// unrecognised level is treated as LOW.
func Classify(class PaymentClass, level risk.Level) Bucket {
	return decisions[class][risk.Levels[level.Rank()]]
}

// Scored is a booking together with its risk level.
type Scored struct {
	Booking model.Booking
	Level   risk.Level
}

// Breakdown is the revenue split for the window, in pence.
// Secured + Deposit + AtRisk == Total.
type Breakdown struct {
	Secured  int64 `json:"secured"`
	Deposit  int64 `json:"deposit"`
	AtRisk   int64 `json:"at_risk"`
	Total    int64 `json:"total"`
	Bookings int   `json:"bookings"`
}

// Stratify splits the revenue of bookings that start within the forward
// window from now and are pending, confirmed or completed.
func Stratify(bookings []Scored, now time.Time, cfg config.RevenueConfig) Breakdown {
	until := now.AddDate(0, 0, cfg.WindowDays)

	var out Breakdown
	for _, s := range bookings {
		b := s.Booking
		if b.StartTime.Before(now) || !b.StartTime.Before(until) {
			continue
		}
		if !b.IsUpcoming() && b.Status != model.BookingCompleted {
			continue
		}

		switch Classify(ClassOf(b), s.Level) {
		case BucketSecured:
			out.Secured += b.Price
		case BucketDeposit:
			out.Deposit += b.Price
		case BucketAtRisk:
			out.AtRisk += b.Price
		}
		out.Total += b.Price
		out.Bookings++
	}
	return out
}
