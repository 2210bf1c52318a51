package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Presigner genera URLs temporales para objetos del bucket
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ArtifactLinks convierte la referencia guardada por el motor en una URL de descarga temporal
type ArtifactLinks struct {
	presigner Presigner
	bucket    string
	ttl       time.Duration
	logger    *logrus.Logger
}

// NewArtifactLinks crea una nueva instancia del emisor de URLs firmadas
func NewArtifactLinks(presigner Presigner, bucket string, ttl time.Duration, logger *logrus.Logger) *ArtifactLinks {
	return &ArtifactLinks{
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
		logger:    logger,
	}
}

// SignedURL retorna una URL válida durante el TTL configurado.
// Las referencias que ya son URLs absolutas se devuelven tal cual.
func (l *ArtifactLinks) SignedURL(ctx context.Context, reference string) (string, error) {
	if strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://") {
		return reference, nil
	}

	key := l.ObjectKey(reference)
	if key == "" {
		return "", fmt.Errorf("empty artifact reference")
	}

	url, err := l.presigner.PresignGet(ctx, key, l.ttl)
	if err != nil {
		return "", err
	}
	return url, nil
}

// ObjectKey normaliza una referencia a la clave del objeto dentro del bucket
func (l *ArtifactLinks) ObjectKey(reference string) string {
	key := strings.TrimLeft(strings.TrimSpace(reference), "/")
	if l.bucket != "" {
		key = strings.TrimPrefix(key, l.bucket+"/")
	}
	return key
}

// StoragePath retorna la ruta donde el motor debe escribir la factura de un registro
func StoragePath(prefix, recordID string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return recordID + ".pdf"
	}
	return prefix + "/" + recordID + ".pdf"
}
