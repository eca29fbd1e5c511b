package errors

import (
	"fmt"
	"net/http"
)

// StandardError represents a standardized error response
type StandardError struct {
	Code    string `json:"error"`   // Error code/type (e.g., "EmptyOrder", "InsufficientStock")
	Message string `json:"message"` // Human-readable error message
	Details string `json:"details"` // Additional details (product id, current status, etc.)
}

// Error implements the error interface
func (e *StandardError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case "InvalidRequest", "ValidationError", "EmptyOrder":
		return http.StatusBadRequest
	case "OrderNotFound", "ProductNotFound", "ResourceNotFound":
		return http.StatusNotFound
	case "InsufficientStock", "AlreadyPaid", "OrderExpired", "OrderCancelled", "DuplicateName", "Conflict":
		return http.StatusConflict
	case "Unauthorized":
		return http.StatusUnauthorized
	case "Forbidden":
		return http.StatusForbidden
	case "BrokerConnectionError", "ServiceUnavailable":
		return http.StatusServiceUnavailable
	case "SerializationError", "DatabaseError", "InternalError":
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewStandardError creates a new StandardError
func NewStandardError(errorCode, message, details string) *StandardError {
	return &StandardError{
		Code:    errorCode,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func NewInvalidRequest(message, details string) *StandardError {
	return NewStandardError("InvalidRequest", message, details)
}

func NewValidationError(message, field string) *StandardError {
	return NewStandardError("ValidationError", message, fmt.Sprintf("Field: %s", field))
}

func NewEmptyOrder() *StandardError {
	return NewStandardError("EmptyOrder", "order must contain at least one line with a positive quantity", "")
}

func NewInsufficientStock(productID string, available, requested int) *StandardError {
	return NewStandardError("InsufficientStock", "insufficient stock available",
		fmt.Sprintf("Product: %s, Available: %d, Requested: %d", productID, available, requested))
}

func NewOrderNotFound(orderID string) *StandardError {
	return NewStandardError("OrderNotFound", "order not found", fmt.Sprintf("Order ID: %s", orderID))
}

func NewProductNotFound(productID string) *StandardError {
	return NewStandardError("ProductNotFound", "product not found", fmt.Sprintf("Product ID: %s", productID))
}

func NewAlreadyPaid(orderID string) *StandardError {
	return NewStandardError("AlreadyPaid", "order was already paid", fmt.Sprintf("Order ID: %s", orderID))
}

func NewOrderExpired(orderID string) *StandardError {
	return NewStandardError("OrderExpired", "order has expired", fmt.Sprintf("Order ID: %s", orderID))
}

func NewOrderCancelled(orderID string) *StandardError {
	return NewStandardError("OrderCancelled", "order was cancelled", fmt.Sprintf("Order ID: %s", orderID))
}

func NewDuplicateName(name string) *StandardError {
	return NewStandardError("DuplicateName", "product name already exists", fmt.Sprintf("Name: %s", name))
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
