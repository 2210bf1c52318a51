package models

import (
	"time"

	"github.com/google/uuid"
)

// Tipo de documento almacenado para las facturas
const DocumentTypeFacture = "facture"

// Document representa el artefacto generado para un registro
type Document struct {
	ID              uuid.UUID `json:"id" db:"id"`
	QualificationID string    `json:"qualification_id" db:"qualification_id"`
	Type            string    `json:"type" db:"type"`
	Number          string    `json:"numero" db:"numero"`
	URL             string    `json:"url" db:"url"`
	StoragePath     string    `json:"storage_path" db:"storage_path"`
	Status          JobStatus `json:"status" db:"status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
