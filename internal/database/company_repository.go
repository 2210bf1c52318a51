package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// CompanyRepository maneja las lecturas de la tabla entreprise
type CompanyRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewCompanyRepository crea una nueva instancia del repositorio
func NewCompanyRepository(db *DB, logger *logrus.Logger) *CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID obtiene una empresa por ID
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := `
		SELECT id, nom, email, telephone, adresse, ville, cp
		FROM entreprise
		WHERE id = $1
	`

	var company models.Company
	err := r.db.ScanRowWithTimeout(ctx, []interface{}{
		&company.ID, &company.Name, &company.Email, &company.Phone,
		&company.Address, &company.City, &company.PostalCode,
	}, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRecordNotFound.Wrap(fmt.Sprintf("company not found: %s", id), err)
		}
		return nil, fmt.Errorf("error querying company: %w", err)
	}

	return &company, nil
}
