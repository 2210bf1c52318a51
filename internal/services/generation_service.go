package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/hypernova-labs/facture-service/internal/workflows"
	"github.com/sirupsen/logrus"
)

// Días entre la emisión y el vencimiento de una factura
const paymentTermDays = 30

// RecordStore es el almacén compartido de registros y estados de generación
type RecordStore interface {
	GetByID(ctx context.Context, id string) (*models.Qualification, error)
	UpdatePayment(ctx context.Context, id string, paymentDate string, reference *string) error
	GetJob(ctx context.Context, id string) (*models.GenerationJob, error)
	UpdateJobStatus(ctx context.Context, id string, update models.EngineUpdate, doc *models.Document) error
}

// LeaseStore guarda el lease de generación por registro
type LeaseStore interface {
	AcquireLease(ctx context.Context, recordID, owner string, ttl time.Duration) (bool, error)
	ReleaseLease(ctx context.Context, recordID, owner string) error
}

// SignedURLIssuer resuelve la referencia de un artefacto en una URL temporal
type SignedURLIssuer interface {
	SignedURL(ctx context.Context, reference string) (string, error)
}

// GenerationConfig agrupa los parámetros fijos del orquestador
type GenerationConfig struct {
	Bucket     string
	PathPrefix string
	Visibility string
	BaseURL    string
	LeaseTTL   time.Duration
}

// GenerationService orquesta la generación de facturas contra el motor externo.
// Solo escribe los campos de pago; los campos de estado pertenecen al motor.
type GenerationService struct {
	store      RecordStore
	dispatcher workflows.Dispatcher
	links      SignedURLIssuer
	leases     LeaseStore
	cfg        GenerationConfig
	logger     *logrus.Logger
	now        func() time.Time
}

// NewGenerationService crea una nueva instancia del servicio.
// links y leases pueden ser nil.
func NewGenerationService(
	store RecordStore,
	dispatcher workflows.Dispatcher,
	links SignedURLIssuer,
	leases LeaseStore,
	cfg GenerationConfig,
	logger *logrus.Logger,
) *GenerationService {
	return &GenerationService{
		store:      store,
		dispatcher: dispatcher,
		links:      links,
		leases:     leases,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestGeneration valida la solicitud, persiste el pago si corresponde y despacha al motor.
// No cambia el estado del job: el motor escribe generating y el estado terminal.
func (s *GenerationService) RequestGeneration(ctx context.Context, recordID, userID string, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	if userID == "" {
		return nil, models.ErrAuthRequired
	}
	if req == nil {
		return nil, models.ErrMalformedRequest.Wrap("missing request body", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := checkRecordID(recordID); err != nil {
		return nil, err
	}

	record, err := s.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}

	correlationID := uuid.New().String()
	log := s.logger.WithFields(logrus.Fields{
		"qualification_id": recordID,
		"correlation_id":   correlationID,
		"mode":             req.Mode,
	})

	leased, err := s.acquireLease(ctx, recordID, correlationID)
	if err != nil {
		return nil, err
	}

	if req.Mode == models.GenerationModeSettled {
		paymentDate := strings.TrimSpace(*req.PaymentDate)
		if err := s.store.UpdatePayment(ctx, recordID, paymentDate, req.PaymentReference); err != nil {
			s.releaseLease(ctx, recordID, correlationID, leased)
			if errors.Is(err, models.ErrRecordNotFound) {
				return nil, err
			}
			log.WithError(err).Error("Error persisting payment before dispatch")
			return nil, models.ErrUpdateFailed.Wrap("could not persist payment information", err)
		}
		record.PaymentDate = &paymentDate
		if req.PaymentReference != nil {
			record.PaymentReference = req.PaymentReference
		}
		record.Status = models.QualificationStatusPaid
	}

	payload := s.buildPayload(record, userID, correlationID, req)

	ack, err := s.dispatcher.DispatchGeneration(ctx, payload)
	if err != nil {
		s.releaseLease(ctx, recordID, correlationID, leased)
		if _, ok := models.AsFactureError(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("error dispatching generation: %w", err)
	}

	log.WithField("execution_id", ack.ExecutionID).Info("Facture generation dispatched")

	return &models.GenerateResponse{
		RecordID:       recordID,
		JobID:          recordID,
		CorrelationID:  correlationID,
		DocumentNumber: ack.DocumentNumber,
		Message:        "generation in progress",
	}, nil
}

// ReadStatus retorna el estado actual del job.
// La URL firmada solo se emite cuando el job está listo.
func (s *GenerationService) ReadStatus(ctx context.Context, recordID string) (*models.JobStatusResponse, error) {
	if err := checkRecordID(recordID); err != nil {
		return nil, err
	}

	job, err := s.store.GetJob(ctx, recordID)
	if err != nil {
		return nil, err
	}

	resp := &models.JobStatusResponse{
		RecordID:         job.RecordID,
		Status:           job.Status,
		PaymentDate:      job.PaymentDate,
		PaymentReference: job.PaymentReference,
	}

	switch job.Status {
	case models.JobStatusReady:
		resp.DocumentNumber = job.DocumentNumber
		resp.GeneratedAt = job.GeneratedAt
		resp.ArtifactURL = s.signedURL(ctx, recordID, job.ArtifactReference)
	case models.JobStatusError:
		resp.Error = job.LastError
	case models.JobStatusIdle, models.JobStatusDispatchFailed, models.JobStatusGenerating:
	}

	return resp, nil
}

// SendArtifact pide al motor que entregue una factura ya generada.
// No tiene efectos sobre el estado del job.
func (s *GenerationService) SendArtifact(ctx context.Context, recordID, userID string, req *models.SendRequest) error {
	if userID == "" {
		return models.ErrAuthRequired
	}
	if _, err := uuid.Parse(recordID); err != nil {
		return models.ErrMalformedRequest.Wrap("invalid record id", err)
	}
	if req == nil || strings.TrimSpace(req.DocumentNumber) == "" || strings.TrimSpace(req.ArtifactURL) == "" {
		return models.ErrMalformedRequest.Wrap("documentNumber and artifactUrl are required", nil)
	}

	err := s.dispatcher.DispatchSend(ctx, &models.SendPayload{
		Event:          models.EventFactureSend,
		Timestamp:      s.now().UTC(),
		RecordID:       recordID,
		DocumentNumber: req.DocumentNumber,
		ArtifactURL:    req.ArtifactURL,
	})
	if err != nil {
		if _, ok := models.AsFactureError(err); ok {
			return err
		}
		return fmt.Errorf("error dispatching send: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"qualification_id": recordID,
		"facture_numero":   req.DocumentNumber,
	}).Info("Facture delivery dispatched")

	return nil
}

// ApplyEngineUpdate escribe el estado que reporta el motor externo.
// Los estados terminales liberan el lease del despacho que los reporta.
func (s *GenerationService) ApplyEngineUpdate(ctx context.Context, recordID string, req *models.CallbackRequest) error {
	if err := checkRecordID(recordID); err != nil {
		return err
	}
	if req == nil || !req.Status.IsEngineOwned() {
		return models.ErrMalformedRequest.Wrap("status must be one of: generating, ready, error", nil).
			WithDetails(models.ErrorDetail{Field: "status", Issue: "not writable by the workflow engine"})
	}

	update := models.EngineUpdate{Status: req.Status}
	var doc *models.Document

	switch req.Status {
	case models.JobStatusReady:
		if isBlank(req.DocumentNumber) || isBlank(req.ArtifactReference) {
			return models.ErrMalformedRequest.Wrap("ready status requires documentNumber and artifactReference", nil)
		}
		generatedAt := s.now().UTC()
		if req.GeneratedAt != nil {
			generatedAt = req.GeneratedAt.UTC()
		}
		update.DocumentNumber = req.DocumentNumber
		update.ArtifactReference = req.ArtifactReference
		update.GeneratedAt = &generatedAt
		doc = &models.Document{
			QualificationID: recordID,
			Type:            models.DocumentTypeFacture,
			Number:          *req.DocumentNumber,
			URL:             *req.ArtifactReference,
			StoragePath:     s.objectKey(*req.ArtifactReference),
			Status:          models.JobStatusReady,
		}
	case models.JobStatusError:
		jobErr := &models.JobError{
			Code:    string(models.ErrorCodeGenerationFailed),
			Message: models.ErrGenerationFailed.Message,
		}
		if !isBlank(req.ErrorCode) {
			jobErr.Code = *req.ErrorCode
		}
		if !isBlank(req.ErrorMessage) {
			jobErr.Message = *req.ErrorMessage
		}
		update.Error = jobErr
	case models.JobStatusGenerating:
		update.DocumentNumber = req.DocumentNumber
	case models.JobStatusIdle, models.JobStatusDispatchFailed:
	}

	if err := s.store.UpdateJobStatus(ctx, recordID, update, doc); err != nil {
		return err
	}

	// Solo el despacho que tomó el lease puede liberarlo; sin correlation_id expira por TTL
	if req.Status.IsTerminal() {
		if isBlank(req.CorrelationID) {
			s.logger.WithField("qualification_id", recordID).Debug("Terminal callback without correlation id, lease left to expire")
		} else {
			s.releaseLease(ctx, recordID, strings.TrimSpace(*req.CorrelationID), true)
		}
	}

	return nil
}

func (s *GenerationService) buildPayload(record *models.Qualification, userID, correlationID string, req *models.GenerateRequest) *models.DispatchPayload {
	now := s.now().UTC()
	return &models.DispatchPayload{
		Event:          models.EventFactureGenerate,
		Timestamp:      now,
		CorrelationID:  correlationID,
		IdempotencyKey: record.ID,
		RecordID:       record.ID,
		Mode:           req.Mode,
		SendEmail:      req.SendEmail,
		IsPaid:         req.Mode == models.GenerationModeSettled,
		PaymentDate:    record.PaymentDate,
		PaymentRef:     record.PaymentReference,
		Qualification:  record,
		Company:        record.Company,
		Facture: models.FactureInfo{
			IssueDate:       now.Format(models.DateLayout),
			DueDate:         now.AddDate(0, 0, paymentTermDays).Format(models.DateLayout),
			GeneratedByUser: userID,
			EmailTemplate:   req.Mode.EmailTemplate(),
		},
		Storage: models.StorageTarget{
			Bucket:     s.cfg.Bucket,
			Path:       StoragePath(s.cfg.PathPrefix, record.ID),
			Visibility: s.cfg.Visibility,
		},
		Callback: models.CallbackInfo{
			StatusURL: strings.TrimRight(s.cfg.BaseURL, "/") + "/v1/documents/" + record.ID + "/callback",
			RecordKey: record.ID,
		},
	}
}

// acquireLease retorna true si el lease quedó tomado por este despacho
func (s *GenerationService) acquireLease(ctx context.Context, recordID, owner string) (bool, error) {
	if s.leases == nil || s.cfg.LeaseTTL <= 0 {
		return false, nil
	}

	ok, err := s.leases.AcquireLease(ctx, recordID, owner, s.cfg.LeaseTTL)
	if err != nil {
		// Sin Redis no hay exclusión, pero la generación sigue disponible
		s.logger.WithFields(logrus.Fields{
			"qualification_id": recordID,
			"error":            err.Error(),
		}).Warn("Generation lease unavailable, dispatching without it")
		return false, nil
	}
	if !ok {
		return false, models.ErrGenerationInProgress
	}
	return true, nil
}

func (s *GenerationService) releaseLease(ctx context.Context, recordID, owner string, held bool) {
	if !held || s.leases == nil || s.cfg.LeaseTTL <= 0 {
		return
	}
	if err := s.leases.ReleaseLease(ctx, recordID, owner); err != nil {
		s.logger.WithFields(logrus.Fields{
			"qualification_id": recordID,
			"error":            err.Error(),
		}).Warn("Error releasing generation lease")
	}
}

func (s *GenerationService) signedURL(ctx context.Context, recordID string, reference *string) *string {
	if isBlank(reference) || s.links == nil {
		return nil
	}
	url, err := s.links.SignedURL(ctx, *reference)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"qualification_id": recordID,
			"error":            err.Error(),
		}).Warn("Could not sign artifact URL")
		return nil
	}
	return &url
}

func (s *GenerationService) objectKey(reference string) string {
	if links, ok := s.links.(*ArtifactLinks); ok {
		return links.ObjectKey(reference)
	}
	return strings.TrimLeft(reference, "/")
}

// checkRecordID rechaza IDs que no pueden existir en el almacén
func checkRecordID(recordID string) error {
	if _, err := uuid.Parse(recordID); err != nil {
		return models.ErrRecordNotFound.Wrap(fmt.Sprintf("record not found: %s", recordID), nil)
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
