package payment

import (
	"strings"
	"time"
)

// Notification is one verified delivery from the payment processor. It is
// consumed into a Record and never stored on its own.
type Notification struct {
	Reference  string
	Status     Status
	Amount     Money
	Currency   Currency
	Signature  string
	ReceivedAt time.Time
}

// Validate checks the fields every notification must carry.
func (n Notification) Validate() error {
	if strings.TrimSpace(n.Reference) == "" {
		return Malformed("transaction reference is required")
	}
	if n.Status.Rank() == 0 {
		return Malformed("unrecognized status " + string(n.Status))
	}
	if n.Amount < 0 {
		return Malformed("amount cannot be negative")
	}
	return nil
}
