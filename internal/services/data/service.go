package data

import (
	"context"

	"payhook/internal/domain/payment"
	"payhook/internal/store/repositories"
)

// Service handles read-only access to payment records for collaborators.
type Service struct {
	store repositories.RecordStore
}

// NewService creates a new data service
func NewService(store repositories.RecordStore) *Service {
	return &Service{store: store}
}

// GetPayment returns the record for reference. The error unwraps to
// repositories.ErrNotFound when the reference is unknown.
func (s *Service) GetPayment(ctx context.Context, reference string) (payment.Record, error) {
	rec, err := s.store.Get(ctx, reference)
	if err != nil {
		return payment.Record{}, &ServiceError{Op: "get_payment", Err: err}
	}
	return rec, nil
}

// ListPayments retrieves one page of records in the requested status
func (s *Service) ListPayments(ctx context.Context, req ListRequest) (*PaymentListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	records, err := s.store.ListByStatus(ctx, req.Status, req.Before, req.Limit)
	if err != nil {
		return nil, &ServiceError{Op: "list_payments", Err: err}
	}
	if records == nil {
		records = []payment.Record{}
	}

	return &PaymentListResponse{
		Payments: records,
		Status:   req.Status,
		Limit:    req.Limit,
	}, nil
}
