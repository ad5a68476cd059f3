package chapa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"payhook/internal/domain/payment"
	"payhook/internal/provider/base"

	"github.com/shopspring/decimal"
)

const DefaultAPIBaseURL = "https://api.chapa.co"

// Client talks to the Chapa REST API. Only transaction verification is
// needed here: it backs reconciliation of payments whose webhook never came.
type Client struct {
	api       *base.JSONClient
	secretKey string
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &Client{api: base.NewJSONClient("chapa", baseURL, timeout), secretKey: secretKey}
}

type verifyResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Data    *struct {
		TxRef    string           `json:"tx_ref"`
		Status   string           `json:"status"`
		Amount   *decimal.Decimal `json:"amount"`
		Currency string           `json:"currency"`
	} `json:"data"`
}

// ErrTransactionNotFound is returned when Chapa does not know the reference.
var ErrTransactionNotFound = errors.New("chapa: transaction not found")

// VerifyTransaction asks Chapa for the current state of txRef and returns it
// as a notification ready for the processor.
func (c *Client) VerifyTransaction(ctx context.Context, txRef string) (payment.Notification, error) {
	resp, err := c.api.Get(ctx, "/v1/transaction/verify/"+url.PathEscape(txRef), c.secretKey)
	if err != nil {
		return payment.Notification{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return payment.Notification{}, ErrTransactionNotFound
	}
	if !resp.OK() {
		return payment.Notification{}, fmt.Errorf("chapa verify %s: status %d", txRef, resp.StatusCode)
	}

	var out verifyResponse
	if err := resp.Decode(&out); err != nil {
		return payment.Notification{}, fmt.Errorf("chapa verify %s: %w", txRef, err)
	}
	if out.Data == nil {
		return payment.Notification{}, fmt.Errorf("chapa verify %s: empty data (%s)", txRef, out.Message)
	}

	status, ok := mapStatus("", out.Data.Status)
	if !ok {
		return payment.Notification{}, fmt.Errorf("chapa verify %s: unknown status %q", txRef, out.Data.Status)
	}
	currency := strings.ToUpper(out.Data.Currency)
	var amount payment.Money
	if out.Data.Amount != nil {
		if amount, err = ToMinorUnits(*out.Data.Amount, currency); err != nil {
			return payment.Notification{}, err
		}
	}
	return payment.Notification{
		Reference:  txRef,
		Status:     status,
		Amount:     amount,
		Currency:   payment.Currency(currency),
		ReceivedAt: time.Now().UTC(),
	}, nil
}
