package main

import (
	"fmt"
	"os"
	"time"

	"github.com/hypernova-labs/facture-service/internal/client"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var Version = "dev"

// Opciones globales de conexión a la API
var (
	apiURL  string
	apiKey  string
	timeout time.Duration
	verbose bool
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "facturectl",
		Short:   "facturectl - herramienta de operación del servicio de facturas",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("FACTURE_API_URL", "http://localhost:8081"), "Base URL of the facture service")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("FACTURE_API_KEY"), "Back-office API key")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 40*time.Second, "HTTP timeout per request")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every status read")

	rootCmd.AddCommand(quoteCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(sendCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	return client.New(apiURL, apiKey, timeout)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
