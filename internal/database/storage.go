package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/sirupsen/logrus"
)

// StorageClient representa el almacenamiento S3 donde el motor deja las facturas
type StorageClient struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	logger    *logrus.Logger
	bucket    string
}

// NewStorageClient crea una nueva instancia del cliente de almacenamiento
func NewStorageClient(cfg *config.StorageConfig, logger *logrus.Logger) (*StorageClient, error) {
	// Endpoint S3 compatible propio
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               cfg.Endpoint,
			SigningRegion:     cfg.Region,
			HostnameImmutable: true,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
		awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKeyID,
				SecretAccessKey: cfg.SecretAccessKey,
			},
		}),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	return &StorageClient{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		logger:    logger,
		bucket:    cfg.Bucket,
	}, nil
}

// Bucket retorna el bucket configurado
func (s *StorageClient) Bucket() string {
	return s.bucket
}

// HealthCheck verifica que el bucket existe
func (s *StorageClient) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("error checking storage connection: %w", err)
	}

	return nil
}

// PresignGet genera una URL de descarga temporal para el objeto
func (s *StorageClient) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("error presigning object %s: %w", key, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket":  s.bucket,
		"key":     key,
		"expires": ttl.String(),
	}).Debug("Presigned download URL issued")

	return req.URL, nil
}
