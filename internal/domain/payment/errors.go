package payment

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Message string
	Code    string
}

func (e *DomainError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("domain error [%s]", e.Code)
	}
	return fmt.Sprintf("domain error [%s]: %s", e.Code, e.Message)
}

// Is matches on the error code so that errors.Is(err, ErrInvalidTransition)
// holds for any invalid transition regardless of its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Domain error codes
const (
	CodeMalformedPayload  = "MALFORMED_PAYLOAD"
	CodeAuthentication    = "AUTHENTICATION_FAILURE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeTransientStorage  = "TRANSIENT_STORAGE_FAILURE"
)

var (
	ErrMalformedPayload  = &DomainError{Code: CodeMalformedPayload}
	ErrAuthentication    = &DomainError{Code: CodeAuthentication}
	ErrInvalidTransition = &DomainError{Code: CodeInvalidTransition}
	ErrTransientStorage  = &DomainError{Code: CodeTransientStorage}
)

func Malformed(msg string) error {
	return &DomainError{Code: CodeMalformedPayload, Message: msg}
}

func InvalidTransition(from, to Status, reference string) error {
	if from == "" {
		return &DomainError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("%s cannot start a new payment %q", to, reference),
		}
	}
	return &DomainError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("%s -> %s not allowed for %q", from, to, reference),
	}
}

func TransientStorage(err error) error {
	return fmt.Errorf("%w: %w", &DomainError{Code: CodeTransientStorage, Message: "payment store unavailable"}, err)
}
