package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/facture-service/internal/models"
)

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// upsertDocument crea o sobrescribe la fila document de una factura.
// Hay una sola fila por (qualification_id, type): una regeneración nunca agrega filas.
func upsertDocument(ctx context.Context, q rowQuerier, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Type == "" {
		doc.Type = models.DocumentTypeFacture
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	query := `
		INSERT INTO document (
			id, qualification_id, type, numero, url, storage_path, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (qualification_id, type) DO UPDATE
		SET numero = EXCLUDED.numero, url = EXCLUDED.url, storage_path = EXCLUDED.storage_path,
		    status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		doc.ID, doc.QualificationID, doc.Type, doc.Number, doc.URL,
		doc.StoragePath, doc.Status, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("error upserting document: %w", err)
	}

	return nil
}
