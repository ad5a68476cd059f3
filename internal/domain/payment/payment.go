package payment

import (
	"fmt"
	"strings"
	"time"
)

// Record is the durable state of one payment, keyed by the sender-assigned
// transaction reference.
type Record struct {
	Reference  string    `json:"reference"`
	Status     Status    `json:"status"`
	Amount     Money     `json:"amount"`
	Currency   Currency  `json:"currency"`
	Deliveries int64     `json:"deliveries"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Money represents a monetary amount in smallest currency unit (cents)
type Money int64

// Currency represents a currency code
type Currency string

const (
	ETB Currency = "ETB"
	USD Currency = "USD"
)

// Status represents payment status
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusSuccess   Status = "success"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// ParseStatus normalizes a status string. It reports false for anything
// outside the four known statuses.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Rank() > 0
}

// Rank orders statuses so that regressions can be detected. success and
// failed share a rank; neither can follow the other.
func (s Status) Rank() int {
	switch s {
	case StatusInitiated:
		return 1
	case StatusSuccess, StatusFailed:
		return 2
	case StatusRefunded:
		return 3
	}
	return 0
}

// IsTerminal reports whether no further forward edge leaves s except refund.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusRefunded
}

// CanInitialize reports whether a previously unseen reference may start in s.
// A refund presupposes an earlier success.
func (s Status) CanInitialize() bool {
	return s == StatusInitiated || s == StatusSuccess || s == StatusFailed
}

// CanTransition reports whether from -> to is an allowed forward edge.
// Identical statuses are not an edge; callers treat them as a no-op.
func CanTransition(from, to Status) bool {
	if to.Rank() < from.Rank() {
		return false
	}
	switch from {
	case StatusInitiated:
		return to == StatusSuccess || to == StatusFailed
	case StatusSuccess:
		return to == StatusRefunded
	}
	return false
}

// Rank returns the rank of the record's current status.
func (r Record) Rank() int {
	return r.Status.Rank()
}

// NewRecord creates the first record for a reference from a notification.
func NewRecord(n Notification) (Record, error) {
	if err := n.Validate(); err != nil {
		return Record{}, err
	}
	if !n.Status.CanInitialize() {
		return Record{}, InvalidTransition("", n.Status, n.Reference)
	}
	now := n.ReceivedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Record{
		Reference:  n.Reference,
		Status:     n.Status,
		Amount:     n.Amount,
		Currency:   n.Currency,
		Deliveries: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Decision is the result of evaluating a notification against a record.
type Decision int

const (
	DecisionApply Decision = iota + 1
	DecisionNoop
	DecisionReject
)

// Evaluate applies the transition rule for an existing record and returns the
// record that should be persisted. For DecisionReject the returned record is
// the unchanged input.
func (r Record) Evaluate(n Notification) (Record, Decision) {
	next := r
	at := n.ReceivedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	if n.Status == r.Status {
		next.Deliveries++
		return next, DecisionNoop
	}
	if !CanTransition(r.Status, n.Status) {
		return r, DecisionReject
	}

	next.Status = n.Status
	next.Deliveries++
	next.UpdatedAt = at
	return next, DecisionApply
}

// String is used in log lines.
func (r Record) String() string {
	return fmt.Sprintf("%s[%s v%d]", r.Reference, r.Status, r.Version)
}
