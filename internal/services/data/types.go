package data

import (
	"time"

	"payhook/internal/domain/payment"
)

// ListRequest selects records in one status, oldest update first. A non-zero
// Before keeps only records last updated strictly before it.
type ListRequest struct {
	Status payment.Status `json:"status"`
	Before time.Time      `json:"before,omitempty"`
	Limit  int            `json:"limit,omitempty"`
}

// Validate validates and normalizes list request parameters
func (req *ListRequest) Validate() error {
	st, ok := payment.ParseStatus(string(req.Status))
	if !ok {
		return &ValidationError{Field: "status", Message: "must be one of initiated, success, failed, refunded"}
	}
	req.Status = st

	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Limit > 200 {
		req.Limit = 200
	}
	return nil
}

// PaymentListResponse represents one page of payment records
type PaymentListResponse struct {
	Payments []payment.Record `json:"payments"`
	Status   payment.Status   `json:"status"`
	Limit    int              `json:"limit"`
}

// ValidationError reports a bad request parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ServiceError represents a data service error
type ServiceError struct {
	Op  string
	Err error
}

func (e *ServiceError) Error() string {
	return "data service " + e.Op + ": " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
