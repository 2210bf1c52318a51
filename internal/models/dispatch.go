package models

import "time"

// Eventos enviados al motor externo
const (
	EventFactureGenerate = "facture.generate"
	EventFactureSend     = "facture.send"
)

// DispatchPayload representa la solicitud de generación enviada al motor externo
type DispatchPayload struct {
	Event          string         `json:"event"`
	Timestamp      time.Time      `json:"timestamp"`
	CorrelationID  string         `json:"correlation_id"`
	IdempotencyKey string         `json:"idempotency_key"`
	RecordID       string         `json:"qualification_id"`
	Mode           GenerationMode `json:"mode"`
	SendEmail      bool           `json:"send_email"`
	IsPaid         bool           `json:"is_paid"`
	PaymentDate    *string        `json:"date_paiement"`
	PaymentRef     *string        `json:"reference_paiement"`
	Qualification  *Qualification `json:"qualification"`
	Company        *Company       `json:"entreprise"`
	Facture        FactureInfo    `json:"facture"`
	Storage        StorageTarget  `json:"storage"`
	Callback       CallbackInfo   `json:"callback"`
}

// FactureInfo representa los metadatos de la factura a generar
type FactureInfo struct {
	IssueDate       string `json:"date_emission"`
	DueDate         string `json:"date_echeance"`
	GeneratedByUser string `json:"generated_by_user"`
	EmailTemplate   string `json:"email_template"`
}

// StorageTarget indica dónde debe escribir el motor el artefacto
type StorageTarget struct {
	Bucket     string `json:"bucket"`
	Path       string `json:"path"`
	Visibility string `json:"visibility"`
}

// CallbackInfo describe cómo el motor debe reportar el estado
type CallbackInfo struct {
	StatusURL string `json:"status_url"`
	RecordKey string `json:"record_key"`
}

// DispatchAck representa la respuesta del motor a un envío aceptado
type DispatchAck struct {
	DocumentNumber *string `json:"facture_numero,omitempty"`
	ExecutionID    string  `json:"execution_id,omitempty"`
}

// SendPayload representa la solicitud de envío de una factura existente
type SendPayload struct {
	Event          string    `json:"event"`
	Timestamp      time.Time `json:"timestamp"`
	RecordID       string    `json:"qualification_id"`
	DocumentNumber string    `json:"facture_numero"`
	ArtifactURL    string    `json:"facture_url"`
}
