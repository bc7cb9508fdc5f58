package services

import "net/http"

// PaymentError is a structured service error carrying the HTTP status it
// maps to and, for gateway failures, the raw provider payload.
type PaymentError struct {
	Code    int
	Message string
	Details interface{}
}

func (e *PaymentError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *PaymentError {
	return &PaymentError{Code: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *PaymentError {
	return &PaymentError{Code: http.StatusConflict, Message: message}
}

func NewBadRequestError(message string) *PaymentError {
	return &PaymentError{Code: http.StatusBadRequest, Message: message}
}

// NewUpstreamError wraps a failed gateway call. The raw provider payload
// rides along so callers can decide whether to retry.
func NewUpstreamError(message string, details interface{}) *PaymentError {
	return &PaymentError{Code: http.StatusBadGateway, Message: message, Details: details}
}

func NewUnauthenticatedError(message string) *PaymentError {
	return &PaymentError{Code: http.StatusForbidden, Message: message}
}
