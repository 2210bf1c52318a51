// Package client habla con la API HTTP del servicio de facturas.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
)

// Cabecera de autenticación de la API
const APIKeyHeader = "X-API-Key"

// Client es el cliente HTTP de la API /v1
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// New crea un nuevo cliente
func New(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}, nil
}

// Generate solicita la generación de la factura de un registro
func (c *Client) Generate(ctx context.Context, recordID string, req *models.GenerateRequest) (*models.GenerateResponse, error) {
	var resp models.GenerateResponse
	if err := c.do(ctx, http.MethodPost, documentPath(recordID, "generate"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReadStatus lee el estado de generación de un registro
func (c *Client) ReadStatus(ctx context.Context, recordID string) (*models.JobStatusResponse, error) {
	var resp models.JobStatusResponse
	if err := c.do(ctx, http.MethodGet, documentPath(recordID, "status"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send pide el envío de una factura ya generada
func (c *Client) Send(ctx context.Context, recordID string, req *models.SendRequest) error {
	var resp models.SendResponse
	return c.do(ctx, http.MethodPost, documentPath(recordID, "send"), req, &resp)
}

// Quote calcula un precio y su calendario en el servidor
func (c *Client) Quote(ctx context.Context, req *models.QuoteRequest) (*models.QuoteResponse, error) {
	var resp models.QuoteResponse
	if err := c.do(ctx, http.MethodPost, "/v1/pricing/quote", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func documentPath(recordID, action string) string {
	return "/v1/documents/" + url.PathEscape(recordID) + "/" + action
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("error decoding response: %w", err)
		}
	}
	return nil
}

// decodeError reconstruye el error de dominio a partir del envelope de la API
func decodeError(status int, data []byte) error {
	var envelope models.ErrorResponse
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error.Code == "" {
		switch status {
		case http.StatusUnauthorized:
			return models.ErrAuthRequired
		case http.StatusNotFound:
			return models.ErrRecordNotFound
		}
		return fmt.Errorf("unexpected status %d", status)
	}

	return &models.FactureError{
		Code:      models.ErrorCode(envelope.Error.Code),
		Message:   envelope.Error.Message,
		Retryable: envelope.Error.Retryable,
		Details:   envelope.Error.Details,
	}
}
