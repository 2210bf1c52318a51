package models

import (
	"errors"
	"fmt"
)

// ErrorCode representa el código de error
type ErrorCode string

const (
	// Errores de entrada: se rechazan de forma síncrona y nunca se reintentan
	ErrorCodeAuthRequired            ErrorCode = "AUTH_REQUIRED"
	ErrorCodeMalformedRequest        ErrorCode = "MALFORMED_REQUEST"
	ErrorCodeRecordNotFound          ErrorCode = "RECORD_NOT_FOUND"
	ErrorCodeInvalidSelection        ErrorCode = "INVALID_SELECTION"
	ErrorCodeInvalidInstallmentCount ErrorCode = "INVALID_INSTALLMENT_COUNT"

	// Errores de persistencia local previos al envío
	ErrorCodeUpdateFailed ErrorCode = "UPDATE_FAILED"

	// Errores de transporte hacia el motor externo
	ErrorCodeWebhookTimeout   ErrorCode = "WEBHOOK_TIMEOUT"
	ErrorCodeWorkflowRejected ErrorCode = "WORKFLOW_REJECTED"

	// Errores asíncronos escritos por el motor externo
	ErrorCodeGenerationFailed ErrorCode = "GENERATION_FAILED"

	// Errores de observación local
	ErrorCodePollTimeout ErrorCode = "POLL_TIMEOUT"

	ErrorCodeGenerationInProgress ErrorCode = "GENERATION_IN_PROGRESS"
	ErrorCodeConfig               ErrorCode = "CONFIG_ERROR"
	ErrorCodeInternal             ErrorCode = "INTERNAL"
)

// FactureError es el error de dominio del subsistema de facturación
type FactureError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Details   []ErrorDetail
	Err       error
}

// Error implementa la interfaz error
func (e *FactureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap expone la causa original
func (e *FactureError) Unwrap() error {
	return e.Err
}

// Is compara por código, de modo que errors.Is funciona con los errores centinela
func (e *FactureError) Is(target error) bool {
	var other *FactureError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewFactureError crea un nuevo error de dominio
func NewFactureError(code ErrorCode, message string, retryable bool, cause error) *FactureError {
	return &FactureError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Err:       cause,
	}
}

// Errores centinela, usar con errors.Is
var (
	ErrAuthRequired            = NewFactureError(ErrorCodeAuthRequired, "authentication required", false, nil)
	ErrMalformedRequest        = NewFactureError(ErrorCodeMalformedRequest, "malformed request", false, nil)
	ErrRecordNotFound          = NewFactureError(ErrorCodeRecordNotFound, "record not found", false, nil)
	ErrInvalidSelection        = NewFactureError(ErrorCodeInvalidSelection, "invalid pricing selection", false, nil)
	ErrInvalidInstallmentCount = NewFactureError(ErrorCodeInvalidInstallmentCount, "invalid installment count", false, nil)
	ErrUpdateFailed            = NewFactureError(ErrorCodeUpdateFailed, "could not persist payment information", true, nil)
	ErrWebhookTimeout          = NewFactureError(ErrorCodeWebhookTimeout, "workflow engine unreachable or timed out", true, nil)
	ErrWorkflowRejected        = NewFactureError(ErrorCodeWorkflowRejected, "workflow engine rejected the request", true, nil)
	ErrGenerationFailed        = NewFactureError(ErrorCodeGenerationFailed, "document generation failed", true, nil)
	ErrPollTimeout             = NewFactureError(ErrorCodePollTimeout, "stopped waiting for the document", true, nil)
	ErrGenerationInProgress    = NewFactureError(ErrorCodeGenerationInProgress, "a generation is already in progress for this record", true, nil)
	ErrConfig                  = NewFactureError(ErrorCodeConfig, "invalid configuration", false, nil)
)

// Wrap crea una copia del error centinela con un mensaje y causa propios
func (e *FactureError) Wrap(message string, cause error) *FactureError {
	if message == "" {
		message = e.Message
	}
	return &FactureError{
		Code:      e.Code,
		Message:   message,
		Retryable: e.Retryable,
		Err:       cause,
	}
}

// WithDetails agrega detalles de validación al error
func (e *FactureError) WithDetails(details ...ErrorDetail) *FactureError {
	clone := *e
	clone.Details = append(append([]ErrorDetail{}, e.Details...), details...)
	return &clone
}

// AsFactureError extrae un FactureError de la cadena de errores
func AsFactureError(err error) (*FactureError, bool) {
	var fe *FactureError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsRetryable indica si el llamador puede ofrecer un reintento
func IsRetryable(err error) bool {
	if fe, ok := AsFactureError(err); ok {
		return fe.Retryable
	}
	return false
}

// ErrorDetail representa un detalle específico del error
type ErrorDetail struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// ErrorResponse representa la respuesta de error estandarizada
type ErrorResponse struct {
	Error ErrorInfo `json:"error"`
}

// ErrorInfo representa la información del error
type ErrorInfo struct {
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Retryable bool          `json:"retryable"`
	Details   []ErrorDetail `json:"details,omitempty"`
}

// NewErrorResponse crea una nueva respuesta de error
func NewErrorResponse(code ErrorCode, message string, retryable bool) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:      string(code),
			Message:   message,
			Retryable: retryable,
		},
	}
}

// NewErrorResponseFrom construye la respuesta a partir de un error de dominio
func NewErrorResponseFrom(err *FactureError) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:      string(err.Code),
			Message:   err.Message,
			Retryable: err.Retryable,
			Details:   err.Details,
		},
	}
}

// NewValidationError crea un error de validación con detalles
func NewValidationError(message string, details []ErrorDetail) ErrorResponse {
	return ErrorResponse{
		Error: ErrorInfo{
			Code:    string(ErrorCodeMalformedRequest),
			Message: message,
			Details: details,
		},
	}
}

// NewUnauthorizedError crea un error de autenticación
func NewUnauthorizedError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeAuthRequired, message, false)
}

// NewInternalError crea un error interno del servidor
func NewInternalError(message string) ErrorResponse {
	return NewErrorResponse(ErrorCodeInternal, message, true)
}
