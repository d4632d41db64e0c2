package model

// PaymentType is how a service is paid for at booking time.
type PaymentType string

const (
	PaymentTypeFull    PaymentType = "full"
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeFree    PaymentType = "free"
)

// Valid reports whether t is a known payment type (empty is allowed).
func (t PaymentType) Valid() bool {
	switch t {
	case "", PaymentTypeFull, PaymentTypeDeposit, PaymentTypeFree:
		return true
	}
	return false
}

// DepositStrategy governs how a service's deposit is derived.
type DepositStrategy string

const (
	DepositFixed      DepositStrategy = "fixed"
	DepositPercentage DepositStrategy = "percentage"
	DepositDynamic    DepositStrategy = "dynamic"
)

// Valid reports whether d is a known deposit strategy (empty is allowed).
func (d DepositStrategy) Valid() bool {
	switch d {
	case "", DepositFixed, DepositPercentage, DepositDynamic:
		return true
	}
	return false
}

// Service is a bookable treatment. Price and DepositAmount are in pence.
type Service struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           int64           `json:"price"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	PaymentType     PaymentType     `json:"payment_type"`
	DepositStrategy DepositStrategy `json:"deposit_strategy"`
	DepositPercent  float64         `json:"deposit_percent"`
	DepositAmount   int64           `json:"deposit_amount"`
}

// DefaultDepositPercent returns the deposit the service asks for on its own,
// as a percentage of price. Fixed amounts are converted against the price.
func (s Service) DefaultDepositPercent() float64 {
	switch s.DepositStrategy {
	case DepositFixed:
		if s.Price <= 0 {
			return 0
		}
		pct := float64(s.DepositAmount) / float64(s.Price) * 100
		if pct > 100 {
			return 100
		}
		return pct
	case DepositPercentage:
		return s.DepositPercent
	}
	return 0
}
