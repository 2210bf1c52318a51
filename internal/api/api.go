package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hypernova-labs/facture-service/internal/database"
	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/hypernova-labs/facture-service/internal/pricing"
	"github.com/hypernova-labs/facture-service/internal/workflows"
	"github.com/sirupsen/logrus"
)

// Clave del contexto de gin con el usuario autenticado
const userIDKey = "user_id"

// Generator es el orquestador de facturas que exponen los endpoints
type Generator interface {
	RequestGeneration(ctx context.Context, recordID, userID string, req *models.GenerateRequest) (*models.GenerateResponse, error)
	ReadStatus(ctx context.Context, recordID string) (*models.JobStatusResponse, error)
	SendArtifact(ctx context.Context, recordID, userID string, req *models.SendRequest) error
	ApplyEngineUpdate(ctx context.Context, recordID string, req *models.CallbackRequest) error
}

// KeyStore resuelve las API keys del back-office
type KeyStore interface {
	GetByHash(ctx context.Context, hash string) (*models.APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID) error
}

// API maneja todos los endpoints de la API
type API struct {
	generator     Generator
	keys          KeyStore
	catalog       pricing.Catalog
	webhookSecret string
	logger        *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(generator Generator, keys KeyStore, catalog pricing.Catalog, webhookSecret string, logger *logrus.Logger) *API {
	return &API{
		generator:     generator,
		keys:          keys,
		catalog:       catalog,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

// RegisterRoutes monta los endpoints bajo el grupo /v1
func (api *API) RegisterRoutes(v1 *gin.RouterGroup) {
	// Endpoints del back-office (API key)
	authed := v1.Group("")
	authed.Use(api.AuthMiddleware())
	{
		authed.POST("/documents/:id/generate", api.GenerateDocument)
		authed.GET("/documents/:id/status", api.GetDocumentStatus)
		authed.POST("/documents/:id/send", api.SendDocument)

		authed.GET("/pricing/formats", api.ListFormats)
		authed.POST("/pricing/quote", api.QuotePrice)
	}

	// Escritura de estado del motor externo (secreto compartido)
	engine := v1.Group("")
	engine.Use(api.WebhookSecretMiddleware())
	{
		engine.POST("/documents/:id/callback", api.EngineCallback)
	}
}

// GenerateDocument solicita la generación de la factura de un registro
func (api *API) GenerateDocument(c *gin.Context) {
	var req models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.bindError(c, err)
		return
	}

	resp, err := api.generator.RequestGeneration(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), &req)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resp)
}

// GetDocumentStatus retorna el estado de generación de un registro
func (api *API) GetDocumentStatus(c *gin.Context) {
	resp, err := api.generator.ReadStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendDocument pide el envío de una factura ya generada
func (api *API) SendDocument(c *gin.Context) {
	var req models.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.bindError(c, err)
		return
	}

	if err := api.generator.SendArtifact(c.Request.Context(), c.Param("id"), c.GetString(userIDKey), &req); err != nil {
		api.respondErrorWith(c, err, sendStatusForCode)
		return
	}

	c.JSON(http.StatusOK, models.SendResponse{Success: true})
}

// EngineCallback recibe el estado que reporta el motor externo
func (api *API) EngineCallback(c *gin.Context) {
	var req models.CallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.bindError(c, err)
		return
	}

	if err := api.generator.ApplyEngineUpdate(c.Request.Context(), c.Param("id"), &req); err != nil {
		api.respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFormats lista los formatos del catálogo
func (api *API) ListFormats(c *gin.Context) {
	formats := make([]models.FormatResponse, 0, len(api.catalog))
	for _, key := range api.catalog.Keys() {
		cfg := api.catalog[key]
		formats = append(formats, models.FormatResponse{
			Key:         string(key),
			Label:       cfg.Label,
			UnitPrice:   cfg.UnitPrice,
			Bundle:      cfg.Bundle,
			Description: cfg.Description,
			Dimensions:  cfg.Dimensions,
		})
	}

	c.JSON(http.StatusOK, gin.H{"formats": formats})
}

// QuotePrice calcula el precio y el calendario de pagos de una selección
func (api *API) QuotePrice(c *gin.Context) {
	var req models.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.bindError(c, err)
		return
	}

	start := time.Now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse(models.DateLayout, req.StartDate)
		if err != nil {
			api.respondError(c, models.ErrMalformedRequest.Wrap("invalid startDate", err).
				WithDetails(models.ErrorDetail{Field: "startDate", Issue: "must be a date formatted YYYY-MM-DD"}))
			return
		}
		start = parsed
	}

	quote, err := pricing.BuildQuote(pricing.Selection{
		Format:             pricing.Format(strings.ToUpper(strings.TrimSpace(req.Format))),
		MonthCount:         req.MonthCount,
		DiscountPercentage: req.DiscountPercentage,
		FlatOverride:       req.FlatOverride,
	}, req.Installments, start, api.catalog)
	if err != nil {
		api.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote.ToResponse())
}

// AuthMiddleware valida la API key y guarda el usuario en el contexto
func (api *API) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("API key required"))
			return
		}

		key, err := api.keys.GetByHash(c.Request.Context(), database.HashAPIKey(apiKey))
		if err != nil {
			if !errors.Is(err, models.ErrAuthRequired) {
				api.logger.WithError(err).Error("Error validating API key")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("Invalid API key"))
			return
		}

		if err := api.keys.UpdateLastUsed(c.Request.Context(), key.ID); err != nil {
			api.logger.Warnf("Error updating API key last used: %v", err)
		}

		c.Set(userIDKey, key.UserID)
		c.Next()
	}
}

// WebhookSecretMiddleware valida el secreto compartido con el motor externo.
// Sin secreto configurado el endpoint queda cerrado.
func (api *API) WebhookSecretMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(workflows.WebhookSecretHeader)
		if api.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(api.webhookSecret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.NewUnauthorizedError("invalid webhook secret"))
			return
		}
		c.Next()
	}
}

func (api *API) bindError(c *gin.Context, err error) {
	api.logger.WithFields(logrus.Fields{
		"path":  c.FullPath(),
		"error": err.Error(),
	}).Debug("Rejected malformed request")
	c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
		{Field: "body", Issue: err.Error()},
	}))
}

// respondError traduce un error de dominio a su respuesta HTTP
func (api *API) respondError(c *gin.Context, err error) {
	api.respondErrorWith(c, err, statusForCode)
}

func (api *API) respondErrorWith(c *gin.Context, err error, statusFor func(models.ErrorCode) int) {
	fe, ok := models.AsFactureError(err)
	if !ok {
		api.logger.WithFields(logrus.Fields{
			"path":  c.FullPath(),
			"error": err.Error(),
		}).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("internal error"))
		return
	}

	status := statusFor(fe.Code)
	entry := api.logger.WithFields(logrus.Fields{
		"path":      c.FullPath(),
		"record_id": c.Param("id"),
		"code":      fe.Code,
	})
	if status >= http.StatusInternalServerError {
		entry.WithField("error", err.Error()).Error("Request failed")
	} else {
		entry.Info(fe.Message)
	}

	c.JSON(status, models.NewErrorResponseFrom(fe))
}

func statusForCode(code models.ErrorCode) int {
	switch code {
	case models.ErrorCodeAuthRequired:
		return http.StatusUnauthorized
	case models.ErrorCodeMalformedRequest:
		return http.StatusBadRequest
	case models.ErrorCodeRecordNotFound:
		return http.StatusNotFound
	case models.ErrorCodeInvalidSelection, models.ErrorCodeInvalidInstallmentCount:
		return http.StatusUnprocessableEntity
	case models.ErrorCodeGenerationInProgress:
		return http.StatusConflict
	case models.ErrorCodeWebhookTimeout:
		return http.StatusServiceUnavailable
	case models.ErrorCodeUpdateFailed, models.ErrorCodeWorkflowRejected,
		models.ErrorCodeGenerationFailed, models.ErrorCodePollTimeout,
		models.ErrorCodeConfig, models.ErrorCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// sendStatusForCode es statusForCode para el envío: cualquier fallo del motor es un 500
func sendStatusForCode(code models.ErrorCode) int {
	if code == models.ErrorCodeWebhookTimeout {
		return http.StatusInternalServerError
	}
	return statusForCode(code)
}
