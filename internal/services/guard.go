package services

// Decision is the outcome of a balance check.
type Decision int

const (
	Allowed Decision = iota
	DeniedZeroBalance
	DeniedInsufficientBalance
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case DeniedZeroBalance:
		return "zero_balance"
	case DeniedInsufficientBalance:
		return "insufficient_balance"
	}
	return "unknown"
}

// CanDebit decides whether an account holding balance can pay price.
func CanDebit(balance, price int64) Decision {
	switch {
	case balance <= 0:
		return DeniedZeroBalance
	case balance < price:
		return DeniedInsufficientBalance
	default:
		return Allowed
	}
}
