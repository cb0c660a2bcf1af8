package errors

import (
	"fmt"
	"net/http"
)

// StandardError is the JSON error body returned by every endpoint
type StandardError struct {
	Code      string `json:"error"`               // Error code/type (e.g., "InsufficientStock")
	Message   string `json:"message"`             // Human-readable error message
	Details   string `json:"details"`             // Offending product, quantities, field name...
	Retryable bool   `json:"retryable,omitempty"` // Resubmitting the same request may succeed
}

func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError", "InvalidSale", "TotalMismatch":
		return http.StatusBadRequest
	case "ProductNotFound", "InsufficientStock":
		// A rejected sale is a client error, not a missing resource
		return http.StatusBadRequest
	case "ResourceNotFound", "SaleNotFound":
		return http.StatusNotFound
	case "CommitConflict", "Conflict":
		return http.StatusConflict
	case "PaymentFailed":
		return http.StatusBadGateway
	case "BrokerConnectionError", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "DatabaseError", "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewResourceNotFound(resource string, id int64) *StandardError {
	return NewStandardError("ResourceNotFound", resource+" not found", fmt.Sprintf("ID: %d", id))
}

func NewProductNotFound(productID int64) *StandardError {
	return NewStandardError("ProductNotFound", fmt.Sprintf("product %d not found", productID),
		fmt.Sprintf("Product ID: %d", productID))
}

func NewInsufficientStock(productID int64, productName string, available, requested int) *StandardError {
	return NewStandardError("InsufficientStock", fmt.Sprintf("insufficient stock for %s", productName),
		fmt.Sprintf("Product ID: %d, Available: %d, Requested: %d", productID, available, requested))
}

func NewCommitConflict(details string) *StandardError {
	err := NewStandardError("CommitConflict", "stock changed while the sale was being committed", details)
	err.Retryable = true
	return err
}

func NewPaymentFailed(err error) *StandardError {
	return NewStandardError("PaymentFailed", "payment provider request failed", err.Error())
}

func NewDatabaseError(operation string, err error) *StandardError {
	return NewStandardError("DatabaseError", fmt.Sprintf("database operation failed: %s", operation), err.Error())
}

func NewInternalError(message string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return NewStandardError("InternalError", message, details)
}
