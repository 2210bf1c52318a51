package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hypernova-labs/facture-service/internal/api"
	"github.com/hypernova-labs/facture-service/internal/config"
	"github.com/hypernova-labs/facture-service/internal/database"
	"github.com/hypernova-labs/facture-service/internal/pricing"
	"github.com/hypernova-labs/facture-service/internal/services"
	"github.com/hypernova-labs/facture-service/internal/workflows"
	"github.com/sirupsen/logrus"
)

func main() {
	// Cargar configuración; una configuración inválida detiene el arranque
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := setupLogger(cfg)
	logger.Info("Starting facture service...")

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conectar a la base de datos
	db, err := database.Connect(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()
	db.LogStats(logger)

	// Redis solo se usa para el lease de generación
	var leases services.LeaseStore
	if cfg.Workflow.LeaseTTL > 0 {
		redis, err := database.ConnectRedis(cfg)
		if err != nil {
			logger.Warnf("Error connecting to Redis, generation lease disabled: %v", err)
		} else {
			defer redis.Close()
			redis.LogStats(logger)
			leases = redis
		}
	}

	// Almacenamiento de facturas
	var storage *database.StorageClient
	var links services.SignedURLIssuer
	if cfg.HasStorage() {
		storage, err = database.NewStorageClient(&cfg.Storage, logger)
		if err != nil {
			logger.Warnf("Error initializing storage client: %v", err)
		} else {
			if err := storage.HealthCheck(context.Background()); err != nil {
				logger.Warnf("Storage health check failed: %v", err)
			} else {
				logger.Info("Storage connection healthy")
			}
			links = services.NewArtifactLinks(storage, storage.Bucket(), cfg.Storage.SignedURLTTL, logger)
		}
	} else {
		logger.Warn("Storage credentials not provided, artifact URLs will not be available")
	}

	dispatcher, err := workflows.NewDispatcher(cfg, logger)
	if err != nil {
		logger.Fatalf("Error initializing workflow dispatcher: %v", err)
	}

	catalog := pricing.DefaultCatalog()
	if cfg.Pricing.CatalogFile != "" {
		catalog, err = pricing.LoadCatalog(cfg.Pricing.CatalogFile)
		if err != nil {
			logger.Fatalf("Error loading pricing catalog: %v", err)
		}
	}

	// Inicializar servicios
	qualificationRepo := database.NewQualificationRepository(db, database.NewCompanyRepository(db, logger), logger)
	generationService := services.NewGenerationService(
		qualificationRepo,
		dispatcher,
		links,
		leases,
		services.GenerationConfig{
			Bucket:     cfg.Storage.Bucket,
			PathPrefix: cfg.Storage.PathPrefix,
			Visibility: cfg.Storage.Visibility,
			BaseURL:    cfg.Server.BaseURL,
			LeaseTTL:   cfg.Workflow.LeaseTTL,
		},
		logger,
	)

	apiHandler := api.NewAPI(
		generationService,
		database.NewAPIKeyRepository(db, logger),
		catalog,
		cfg.Workflow.Secret,
		logger,
	)

	router := setupRouter(apiHandler, cfg, db)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Workflow.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Canal para señales de terminación
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Infof("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Error starting server: %v", err)
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupLogger configura el logger según la configuración
func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// setupRouter configura el router principal
func setupRouter(apiHandler *api.API, cfg *config.Config, db *database.DB) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Middleware de CORS para desarrollo
	if cfg.IsDevelopment() {
		router.Use(func(c *gin.Context) {
			c.Header("Access-Control-Allow-Origin", "*")
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-API-Key")

			if c.Request.Method == "OPTIONS" {
				c.AbortWithStatus(204)
				return
			}

			c.Next()
		})
	}

	router.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":    dbStatus,
			"timestamp": time.Now().UTC(),
			"service":   "facture-service",
			"version":   "1.0.0",
		})
	})

	apiHandler.RegisterRoutes(router.Group("/v1"))

	return router
}
