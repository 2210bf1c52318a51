package models

import (
	"strings"
	"time"
)

// Formato de las fechas de pago y de vencimiento
const DateLayout = "2006-01-02"

// GenerateRequest representa el request para generar una factura
type GenerateRequest struct {
	Mode             GenerationMode `json:"mode" binding:"required"`
	SendEmail        bool           `json:"sendEmail"`
	PaymentDate      *string        `json:"paymentDate,omitempty"`
	PaymentReference *string        `json:"paymentReference,omitempty"`
}

// Validate verifica la forma del request
func (r *GenerateRequest) Validate() error {
	var details []ErrorDetail

	if !r.Mode.Valid() {
		details = append(details, ErrorDetail{Field: "mode", Issue: "must be one of: issued, settled"})
	}

	if r.PaymentDate != nil {
		if _, err := time.Parse(DateLayout, strings.TrimSpace(*r.PaymentDate)); err != nil {
			details = append(details, ErrorDetail{Field: "paymentDate", Issue: "must be a date formatted YYYY-MM-DD"})
		}
	} else if r.Mode == GenerationModeSettled {
		details = append(details, ErrorDetail{Field: "paymentDate", Issue: "is required for settled documents"})
	}

	if r.Mode == GenerationModeIssued && (r.PaymentDate != nil || r.PaymentReference != nil) {
		details = append(details, ErrorDetail{Field: "mode", Issue: "payment fields are only accepted for settled documents"})
	}

	if len(details) > 0 {
		return ErrMalformedRequest.Wrap("invalid generation request", nil).WithDetails(details...)
	}
	return nil
}

// GenerateResponse representa el acuse de recibo de una generación
type GenerateResponse struct {
	RecordID       string  `json:"recordId"`
	JobID          string  `json:"jobId"`
	CorrelationID  string  `json:"correlationId"`
	DocumentNumber *string `json:"documentNumber"`
	Message        string  `json:"message"`
}

// JobStatusResponse representa el estado expuesto de una generación
type JobStatusResponse struct {
	RecordID         string     `json:"recordId"`
	Status           JobStatus  `json:"status"`
	DocumentNumber   *string    `json:"documentNumber"`
	ArtifactURL      *string    `json:"artifactUrl"`
	GeneratedAt      *time.Time `json:"generatedAt"`
	Error            *JobError  `json:"error"`
	PaymentDate      *string    `json:"paymentDate"`
	PaymentReference *string    `json:"paymentReference"`
}

// SendRequest representa el request para enviar una factura ya generada
type SendRequest struct {
	DocumentNumber string `json:"documentNumber" binding:"required"`
	ArtifactURL    string `json:"artifactUrl" binding:"required"`
}

// SendResponse representa la respuesta del envío
type SendResponse struct {
	Success bool `json:"success"`
}

// CallbackRequest representa la escritura de estado del motor externo
type CallbackRequest struct {
	Status            JobStatus  `json:"status" binding:"required"`
	DocumentNumber    *string    `json:"documentNumber,omitempty"`
	ArtifactReference *string    `json:"artifactReference,omitempty"`
	GeneratedAt       *time.Time `json:"generatedAt,omitempty"`
	ErrorCode         *string    `json:"errorCode,omitempty"`
	ErrorMessage      *string    `json:"errorMessage,omitempty"`
	// CorrelationID es el correlation_id del despacho que reporta
	CorrelationID *string `json:"correlationId,omitempty"`
}

// QuoteRequest representa una consulta de precio y calendario de pagos
type QuoteRequest struct {
	Format             string  `json:"format" binding:"required"`
	MonthCount         int     `json:"monthCount"`
	DiscountPercentage float64 `json:"discountPercentage"`
	FlatOverride       bool    `json:"flatOverride"`
	Installments       int     `json:"installments,omitempty"`
	StartDate          string  `json:"startDate,omitempty"`
}

// ScheduleEntry representa una cuota del calendario
type ScheduleEntry struct {
	Date   string `json:"date"`
	Amount int64  `json:"amount"`
}

// QuoteResponse representa el precio calculado
type QuoteResponse struct {
	Format   string          `json:"format"`
	Total    int64           `json:"total"`
	Schedule []ScheduleEntry `json:"schedule,omitempty"`
}

// FormatResponse representa un formato del catálogo
type FormatResponse struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	UnitPrice   int64  `json:"unitPrice"`
	Bundle      bool   `json:"bundle"`
	Description string `json:"description,omitempty"`
	Dimensions  string `json:"dimensions,omitempty"`
}
