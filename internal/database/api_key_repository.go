package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// APIKeyRepository maneja las operaciones de base de datos para API Keys
type APIKeyRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewAPIKeyRepository crea una nueva instancia del repositorio
func NewAPIKeyRepository(db *DB, logger *logrus.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByHash obtiene una API key activa por su hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, hash string) (*models.APIKey, error) {
	query := `
		SELECT id, user_id, name, key_hash, is_active, created_at, last_used_at
		FROM api_keys
		WHERE key_hash = $1 AND is_active = true
	`

	var apiKey models.APIKey
	err := r.db.ScanRowWithTimeout(ctx, []interface{}{
		&apiKey.ID, &apiKey.UserID, &apiKey.Name, &apiKey.KeyHash,
		&apiKey.IsActive, &apiKey.CreatedAt, &apiKey.LastUsedAt,
	}, query, hash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrAuthRequired.Wrap("API key not found or inactive", nil)
		}
		return nil, fmt.Errorf("error querying API key: %w", err)
	}

	return &apiKey, nil
}

// UpdateLastUsed actualiza la última vez que se usó la API key
func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE api_keys
		SET last_used_at = $1
		WHERE id = $2
	`

	_, err := r.db.ExecWithTimeout(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("error updating API key last used: %w", err)
	}

	return nil
}

// HashAPIKey genera el hash SHA-256 de la API key
func HashAPIKey(apiKey string) string {
	hash := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%x", hash)
}
