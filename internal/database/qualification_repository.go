package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/sirupsen/logrus"
)

// QualificationRepository maneja las operaciones de base de datos para los registros comerciales
// y los campos de generación de factura que viven en la misma fila.
type QualificationRepository struct {
	db        *DB
	companies *CompanyRepository
	logger    *logrus.Logger
}

// NewQualificationRepository crea una nueva instancia del repositorio
func NewQualificationRepository(db *DB, companies *CompanyRepository, logger *logrus.Logger) *QualificationRepository {
	return &QualificationRepository{
		db:        db,
		companies: companies,
		logger:    logger,
	}
}

// GetByID obtiene el registro con su empresa
func (r *QualificationRepository) GetByID(ctx context.Context, id string) (*models.Qualification, error) {
	query := `
		SELECT id, entreprise_id, statut, format_encart, prix_total, mois_parution,
			   paiement_echelonne, mode_paiement, date_contact::text, commentaires,
			   date_paiement::text, reference_paiement, created_at
		FROM qualification
		WHERE id = $1
	`

	var q models.Qualification
	err := r.db.ScanRowWithTimeout(ctx, []interface{}{
		&q.ID, &q.CompanyID, &q.Status, &q.Format, &q.TotalPrice, &q.PublicationMonths,
		&q.Installments, &q.PaymentMethod, &q.ContactDate, &q.Comments,
		&q.PaymentDate, &q.PaymentReference, &q.CreatedAt,
	}, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRecordNotFound.Wrap(fmt.Sprintf("qualification not found: %s", id), err)
		}
		return nil, fmt.Errorf("error querying qualification: %w", err)
	}

	company, err := r.companies.GetByID(ctx, q.CompanyID)
	if err != nil {
		// Un registro sin empresa sigue siendo facturable; el motor decide qué hacer
		if !errors.Is(err, models.ErrRecordNotFound) {
			return nil, err
		}
		r.logger.WithFields(logrus.Fields{
			"qualification_id": id,
			"entreprise_id":    q.CompanyID,
		}).Warn("Qualification references a missing company")
	}
	q.Company = company

	return &q, nil
}

// UpdatePayment persiste la fecha y referencia de pago y marca el registro como pagado
func (r *QualificationRepository) UpdatePayment(ctx context.Context, id string, paymentDate string, reference *string) error {
	query := `
		UPDATE qualification
		SET date_paiement = $2,
		    reference_paiement = COALESCE($3, reference_paiement),
		    statut = $4
		WHERE id = $1
	`

	result, err := r.db.ExecWithTimeout(ctx, query, id, paymentDate, reference, models.QualificationStatusPaid)
	if err != nil {
		return fmt.Errorf("error updating payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrRecordNotFound.Wrap(fmt.Sprintf("qualification not found: %s", id), nil)
	}

	return nil
}

// GetJob obtiene el estado de generación de la factura de un registro
func (r *QualificationRepository) GetJob(ctx context.Context, id string) (*models.GenerationJob, error) {
	query := `
		SELECT id, facture_status, facture_numero, facture_url, facture_generated_at,
			   facture_error_code, facture_error, date_paiement::text, reference_paiement
		FROM qualification
		WHERE id = $1
	`

	var (
		job         models.GenerationJob
		status      sql.NullString
		number      sql.NullString
		artifact    sql.NullString
		generatedAt sql.NullTime
		errCode     sql.NullString
		errMessage  sql.NullString
		paymentDate sql.NullString
		paymentRef  sql.NullString
	)

	err := r.db.ScanRowWithTimeout(ctx, []interface{}{
		&job.RecordID, &status, &number, &artifact, &generatedAt,
		&errCode, &errMessage, &paymentDate, &paymentRef,
	}, query, id)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrRecordNotFound.Wrap(fmt.Sprintf("qualification not found: %s", id), err)
		}
		return nil, fmt.Errorf("error querying generation job: %w", err)
	}

	job.Status, err = models.ParseJobStatus(status.String)
	if err != nil {
		return nil, fmt.Errorf("error reading generation job %s: %w", id, err)
	}

	job.DocumentNumber = nullStringPtr(number)
	job.ArtifactReference = nullStringPtr(artifact)
	job.PaymentDate = nullStringPtr(paymentDate)
	job.PaymentReference = nullStringPtr(paymentRef)
	if generatedAt.Valid {
		t := generatedAt.Time
		job.GeneratedAt = &t
	}
	if job.Status == models.JobStatusError {
		job.LastError = &models.JobError{
			Code:    errCode.String,
			Message: errMessage.String,
		}
		if job.LastError.Code == "" {
			job.LastError.Code = string(models.ErrorCodeGenerationFailed)
		}
	}

	return &job, nil
}

// UpdateJobStatus escribe los campos de estado que pertenecen al motor externo.
// Si doc no es nil, la fila document se crea o sobrescribe en la misma transacción.
func (r *QualificationRepository) UpdateJobStatus(ctx context.Context, id string, update models.EngineUpdate, doc *models.Document) error {
	query := `
		UPDATE qualification
		SET facture_status = $2,
		    facture_numero = COALESCE($3, facture_numero),
		    facture_url = COALESCE($4, facture_url),
		    facture_generated_at = COALESCE($5, facture_generated_at),
		    facture_error_code = $6,
		    facture_error = $7
		WHERE id = $1
	`

	var errCode, errMessage *string
	if update.Error != nil {
		errCode = &update.Error.Code
		errMessage = &update.Error.Message
	}

	var generatedAt *time.Time
	if update.GeneratedAt != nil {
		t := update.GeneratedAt.UTC()
		generatedAt = &t
	}

	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			id, update.Status, update.DocumentNumber, update.ArtifactReference,
			generatedAt, errCode, errMessage,
		)
		if err != nil {
			return fmt.Errorf("error updating generation status: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("error getting rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return models.ErrRecordNotFound.Wrap(fmt.Sprintf("qualification not found: %s", id), nil)
		}

		if doc != nil {
			if err := upsertDocument(ctx, tx, doc); err != nil {
				return err
			}
		}

		r.logger.WithFields(logrus.Fields{
			"qualification_id": id,
			"status":           update.Status,
		}).Info("Generation status updated")

		return nil
	})
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
