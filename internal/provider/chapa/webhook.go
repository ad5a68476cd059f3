package chapa

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"payhook/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// Header names Chapa uses for the payload signature.
const (
	SignatureHeader       = "x-chapa-signature"
	LegacySignatureHeader = "Chapa-Signature"
)

// webhookPayload is the subset of the Chapa charge event we rely on.
type webhookPayload struct {
	Event    string           `json:"event"`
	TxRef    string           `json:"tx_ref"`
	Status   string           `json:"status"`
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency"`
}

// currencies with no minor unit
var zeroDecimalCurrencies = map[string]bool{
	"JPY": true, "KRW": true, "UGX": true, "RWF": true, "XOF": true, "XAF": true,
}

// ParseWebhook converts a verified Chapa callback into a payment.Notification.
// It must only be called after the signature check.
func ParseWebhook(body []byte, signature string, receivedAt time.Time) (payment.Notification, error) {
	var p webhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return payment.Notification{}, payment.Malformed("invalid json: " + err.Error())
	}

	ref := strings.TrimSpace(p.TxRef)
	if ref == "" {
		return payment.Notification{}, payment.Malformed("tx_ref is required")
	}

	status, ok := mapStatus(p.Event, p.Status)
	if !ok {
		return payment.Notification{}, payment.Malformed("unrecognized status " + p.Status)
	}

	currency := strings.ToUpper(strings.TrimSpace(p.Currency))
	if currency == "" {
		currency = string(payment.ETB)
	}

	if p.Amount == nil {
		return payment.Notification{}, payment.Malformed("amount is required")
	}
	amount, err := ToMinorUnits(*p.Amount, currency)
	if err != nil {
		return payment.Notification{}, err
	}

	n := payment.Notification{
		Reference:  ref,
		Status:     status,
		Amount:     amount,
		Currency:   payment.Currency(currency),
		Signature:  signature,
		ReceivedAt: receivedAt.UTC(),
	}
	return n, n.Validate()
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// ToMinorUnits converts a major-unit decimal amount into minor units for the
// currency. Amounts with more precision than the currency allows are rejected.
func ToMinorUnits(amount decimal.Decimal, currency string) (payment.Money, error) {
	if amount.IsNegative() {
		return 0, payment.Malformed("amount cannot be negative")
	}
	exp := int32(2)
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		exp = 0
	}
	minor := amount.Shift(exp)
	if !minor.IsInteger() {
		return 0, payment.Malformed("amount " + amount.String() + " has sub-minor-unit precision")
	}
	if minor.GreaterThan(maxMinorUnits) {
		return 0, payment.Malformed("amount " + amount.String() + " is out of range")
	}
	return payment.Money(minor.IntPart()), nil
}

// mapStatus folds Chapa's event and status vocabulary onto the four payment
// statuses.
func mapStatus(event, status string) (payment.Status, bool) {
	switch strings.ToLower(strings.TrimSpace(event)) {
	case "charge.refunded", "charge.reversed":
		return payment.StatusRefunded, true
	}
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "pending", "initiated", "created":
		return payment.StatusInitiated, true
	case "success", "successful", "completed":
		return payment.StatusSuccess, true
	case "failed", "failure", "cancelled":
		return payment.StatusFailed, true
	case "refunded", "reversed":
		return payment.StatusRefunded, true
	}
	return "", false
}
