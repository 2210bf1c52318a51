package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hypernova-labs/facture-service/internal/models"
	"github.com/joho/godotenv"
)

// Transportes soportados para el motor de workflows
const (
	TransportWebhook = "webhook"
	TransportInngest = "inngest"
)

// Config representa la configuración del servidor
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Workflow WorkflowConfig
	Inngest  InngestConfig
	Poller   PollerConfig
	Storage  StorageConfig
	Pricing  PricingConfig
	Logging  LoggingConfig
}

// ServerConfig representa la configuración del servidor HTTP
type ServerConfig struct {
	Port    string
	Host    string
	Env     string
	BaseURL string
}

// DatabaseConfig representa la configuración de la base de datos
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig representa la configuración de Redis
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// WorkflowConfig representa la configuración del motor externo de generación
type WorkflowConfig struct {
	Transport   string
	GenerateURL string
	SendURL     string
	Secret      string
	Timeout     time.Duration
	LeaseTTL    time.Duration
}

// InngestConfig representa la configuración de Inngest
type InngestConfig struct {
	EventKey   string
	SigningKey string
	AppID      string
	// EventURL apunta a una instancia propia de Inngest; vacío usa la API pública
	EventURL string
}

// PollerConfig representa la configuración del polling de estado
type PollerConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// StorageConfig representa la configuración del almacenamiento S3 de facturas
type StorageConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PathPrefix      string
	Visibility      string
	SignedURLTTL    time.Duration
}

// PricingConfig representa la configuración del catálogo de tarifas
type PricingConfig struct {
	CatalogFile string
}

// LoggingConfig representa la configuración de logging
type LoggingConfig struct {
	Level  string
	Format string
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// El archivo .env es opcional
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:    getEnv("SERVER_PORT", "8081"),
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Env:     getEnv("SERVER_ENV", "development"),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8081"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("PGHOST", "localhost"),
			Port:     getEnv("PGPORT", "5432"),
			User:     getEnv("PGUSER", "postgres"),
			Password: getEnv("PGPASSWORD", "postgres"),
			Name:     getEnv("PGDATABASE", "facturation"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Workflow: WorkflowConfig{
			Transport:   strings.ToLower(getEnv("FACTURE_TRANSPORT", TransportWebhook)),
			GenerateURL: getEnv("FACTURE_WEBHOOK_URL", ""),
			SendURL:     getEnv("FACTURE_SEND_WEBHOOK_URL", ""),
			Secret:      getEnv("FACTURE_WEBHOOK_SECRET", ""),
			Timeout:     getEnvAsDuration("FACTURE_WEBHOOK_TIMEOUT", 35*time.Second),
			LeaseTTL:    getEnvAsDuration("FACTURE_LEASE_TTL", 0),
		},
		Inngest: InngestConfig{
			EventKey:   getEnv("INNGEST_EVENT_KEY", ""),
			SigningKey: getEnv("INNGEST_SIGNING_KEY", ""),
			AppID:      getEnv("INNGEST_APP_ID", "facture-service"),
			EventURL:   getEnv("INNGEST_EVENT_URL", ""),
		},
		Poller: LoadPoller(),
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", ""),
			Region:          getEnv("STORAGE_REGION", "us-east-1"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("STORAGE_BUCKET", "documents"),
			PathPrefix:      getEnv("STORAGE_PATH_PREFIX", "factures"),
			Visibility:      getEnv("STORAGE_VISIBILITY", "private"),
			SignedURLTTL:    getEnvAsDuration("STORAGE_SIGNED_URL_TTL", 10*time.Minute),
		},
		Pricing: PricingConfig{
			CatalogFile: getEnv("PRICING_CATALOG_FILE", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadPoller lee solo la configuración del polling de estado.
// facturectl la usa sin exigir el resto de la configuración del servidor.
func LoadPoller() PollerConfig {
	return PollerConfig{
		Interval: getEnvAsDuration("FACTURE_POLL_INTERVAL", 2*time.Second),
		Timeout:  getEnvAsDuration("FACTURE_POLL_TIMEOUT", 60*time.Second),
	}
}

// Validate verifica los campos obligatorios; un error aquí es fatal al arrancar
func (c *Config) Validate() error {
	var problems []string

	switch c.Workflow.Transport {
	case TransportWebhook:
		if c.Workflow.GenerateURL == "" {
			problems = append(problems, "FACTURE_WEBHOOK_URL is required")
		}
		if c.Workflow.SendURL == "" {
			problems = append(problems, "FACTURE_SEND_WEBHOOK_URL is required")
		}
	case TransportInngest:
		if c.Inngest.EventKey == "" {
			problems = append(problems, "INNGEST_EVENT_KEY is required when FACTURE_TRANSPORT=inngest")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown FACTURE_TRANSPORT %q", c.Workflow.Transport))
	}

	if c.Workflow.Timeout <= 0 {
		problems = append(problems, "FACTURE_WEBHOOK_TIMEOUT must be positive")
	}
	if c.Workflow.LeaseTTL < 0 {
		problems = append(problems, "FACTURE_LEASE_TTL must not be negative")
	}
	if c.Poller.Interval <= 0 || c.Poller.Timeout <= 0 {
		problems = append(problems, "FACTURE_POLL_INTERVAL and FACTURE_POLL_TIMEOUT must be positive")
	} else if c.Poller.Interval > c.Poller.Timeout {
		problems = append(problems, "FACTURE_POLL_INTERVAL must not exceed FACTURE_POLL_TIMEOUT")
	}
	if c.Storage.Bucket == "" {
		problems = append(problems, "STORAGE_BUCKET is required")
	}

	if len(problems) > 0 {
		return models.NewFactureError(models.ErrorCodeConfig, strings.Join(problems, "; "), false, nil)
	}
	return nil
}

// getEnv obtiene una variable de entorno o retorna un valor por defecto
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt obtiene una variable de entorno como entero
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration obtiene una variable de entorno como duración
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// IsDevelopment retorna true si el entorno es de desarrollo
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// HasStorage indica si hay credenciales para el almacenamiento de artefactos
func (c *Config) HasStorage() bool {
	return c.Storage.Endpoint != "" && c.Storage.AccessKeyID != "" && c.Storage.SecretAccessKey != ""
}

// GetDSN retorna la cadena de conexión a la base de datos
func (c *Config) GetDSN() string {
	return "host=" + c.Database.Host +
		" port=" + c.Database.Port +
		" user=" + c.Database.User +
		" password=" + c.Database.Password +
		" dbname=" + c.Database.Name +
		" sslmode=" + c.Database.SSLMode
}

// GetRedisAddr retorna la dirección de Redis
func (c *Config) GetRedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}
