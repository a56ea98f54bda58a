package risk

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/customer-risk/internal/domain/shared"
	"github.com/google/uuid"
)

// Risk report error codes
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeProviderFailure = "PROVIDER_FAILURE"
	CodeExportFailure   = "EXPORT_FAILURE"
	CodeReportNotFound  = "REPORT_NOT_FOUND"
)

var (
	ErrInvalidRequest  = shared.NewDomainError(CodeInvalidRequest, "Invalid report request")
	ErrProviderFailure = shared.NewDomainError(CodeProviderFailure, "Data provider failed")
	ErrExportFailure   = shared.NewDomainError(CodeExportFailure, "Report export failed")
	ErrReportNotFound  = shared.NewDomainError(CodeReportNotFound, "Report not found")
	ErrMissingDate     = shared.NewDomainError(CodeInvalidRequest, "Reference date is required")
)

// Provider sources
const (
	SourceOrders    = "orders"
	SourceLedger    = "ledger"
	SourcePayments  = "payments"
	SourceCustomers = "customers"
)

// ProviderError records which provider failed for which customer
type ProviderError struct {
	Source     string
	CustomerID uuid.UUID
	Err        error
}

func (e *ProviderError) Error() string {
	if e.CustomerID == uuid.Nil {
		return fmt.Sprintf("%s provider failed: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("%s provider failed for customer %s: %v", e.Source, e.CustomerID, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes every ProviderError match ErrProviderFailure
func (e *ProviderError) Is(target error) bool {
	return target == ErrProviderFailure
}

// NewProviderError wraps a provider error. Context cancellation is passed through unchanged.
func NewProviderError(source string, customerID uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Source: source, CustomerID: customerID, Err: err}
}

// NewExportError wraps a serialization or I/O error raised while exporting
func NewExportError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrExportFailure, err)
}

// ErrorCode returns the domain code carried by err, or empty when there is none
func ErrorCode(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return CodeProviderFailure
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
