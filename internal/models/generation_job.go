package models

import (
	"fmt"
	"time"
)

// JobStatus representa el estado de la generación de una factura
type JobStatus string

const (
	JobStatusIdle           JobStatus = "idle"
	JobStatusDispatchFailed JobStatus = "dispatch-failed"
	JobStatusGenerating     JobStatus = "generating"
	JobStatusReady          JobStatus = "ready"
	JobStatusError          JobStatus = "error"
)

// ParseJobStatus convierte el valor almacenado; una columna vacía o NULL equivale a idle
func ParseJobStatus(raw string) (JobStatus, error) {
	switch JobStatus(raw) {
	case "", JobStatusIdle:
		return JobStatusIdle, nil
	case JobStatusDispatchFailed, JobStatusGenerating, JobStatusReady, JobStatusError:
		return JobStatus(raw), nil
	default:
		return "", fmt.Errorf("unknown job status %q", raw)
	}
}

// IsTerminal indica si no habrá más transiciones automáticas
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusReady, JobStatusError:
		return true
	case JobStatusIdle, JobStatusDispatchFailed, JobStatusGenerating:
		return false
	default:
		return false
	}
}

// IsEngineOwned indica si el estado solo puede escribirlo el motor externo
func (s JobStatus) IsEngineOwned() bool {
	switch s {
	case JobStatusGenerating, JobStatusReady, JobStatusError:
		return true
	case JobStatusIdle, JobStatusDispatchFailed:
		return false
	default:
		return false
	}
}

// GenerationMode representa el tipo de factura solicitada
type GenerationMode string

const (
	// GenerationModeIssued factura emitida, pendiente de pago
	GenerationModeIssued GenerationMode = "issued"
	// GenerationModeSettled factura acquittée, ya pagada
	GenerationModeSettled GenerationMode = "settled"
)

// Valid indica si el modo es conocido
func (m GenerationMode) Valid() bool {
	return m == GenerationModeIssued || m == GenerationModeSettled
}

// EmailTemplate retorna la plantilla que el motor usa para este modo
func (m GenerationMode) EmailTemplate() string {
	if m == GenerationModeSettled {
		return "facture_acquittee"
	}
	return "facture_emise"
}

// JobError representa el último error reportado por el motor
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// GenerationJob representa un intento de generación para un registro.
// La clave del job es el ID del registro.
type GenerationJob struct {
	RecordID          string     `json:"record_id" db:"id"`
	Status            JobStatus  `json:"status" db:"facture_status"`
	ArtifactReference *string    `json:"artifact_reference,omitempty" db:"facture_url"`
	DocumentNumber    *string    `json:"document_number,omitempty" db:"facture_numero"`
	GeneratedAt       *time.Time `json:"generated_at,omitempty" db:"facture_generated_at"`
	LastError         *JobError  `json:"last_error,omitempty"`
	PaymentDate       *string    `json:"payment_date,omitempty" db:"date_paiement"`
	PaymentReference  *string    `json:"payment_reference,omitempty" db:"reference_paiement"`
}

// EngineUpdate representa los campos que el motor externo escribe de vuelta
type EngineUpdate struct {
	Status            JobStatus
	DocumentNumber    *string
	ArtifactReference *string
	GeneratedAt       *time.Time
	Error             *JobError
}
