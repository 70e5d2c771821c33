package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of application error.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeDuplicate           Code = "DUPLICATE"
	CodeSlotConflict        Code = "SLOT_CONFLICT"
	CodeVerificationFailed  Code = "VERIFICATION_FAILED"
	CodePaymentNotCompleted Code = "PAYMENT_NOT_COMPLETED"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeConfiguration       Code = "CONFIGURATION_ERROR"
	CodeGatewayUnavailable  Code = "GATEWAY_UNAVAILABLE"
	CodeInternal            Code = "INTERNAL_ERROR"
)

// AppError is an error with an application code and an HTTP status.
type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err, if there is one in its chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func Validation(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

func NotFound(resource string) *AppError {
	return &AppError{Code: CodeNotFound, Message: resource + " not found", HTTPStatus: http.StatusNotFound}
}

func Duplicate(message string) *AppError {
	return &AppError{Code: CodeDuplicate, Message: message, HTTPStatus: http.StatusConflict}
}

// SlotConflict reports an already booked slot range.
func SlotConflict(startTime, endTime string) *AppError {
	return &AppError{
		Code:       CodeSlotConflict,
		Message:    fmt.Sprintf("Slot %s - %s is already booked.", startTime, endTime),
		HTTPStatus: http.StatusConflict,
	}
}

func Verification(message string) *AppError {
	return &AppError{Code: CodeVerificationFailed, Message: message, HTTPStatus: http.StatusBadRequest}
}

// PaymentNotCompleted reports a payment the gateway settled in a
// non-captured state.
func PaymentNotCompleted(status string) *AppError {
	return &AppError{
		Code:       CodePaymentNotCompleted,
		Message:    "Payment not successful. Current status: " + status,
		HTTPStatus: http.StatusBadRequest,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

func Configuration(message string) *AppError {
	return &AppError{Code: CodeConfiguration, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// GatewayUnavailable marks a transient gateway failure; callers may retry
// without any booking state having changed.
func GatewayUnavailable(service string, err error) *AppError {
	return &AppError{
		Code:       CodeGatewayUnavailable,
		Message:    service + " is currently unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}
