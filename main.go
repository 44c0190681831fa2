package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-visibility-service/config"
	"ai-visibility-service/database"
	"ai-visibility-service/email"
	"ai-visibility-service/guard"
	"ai-visibility-service/handlers"
	"ai-visibility-service/metrics"
	"ai-visibility-service/openai"
	"ai-visibility-service/search"
	"ai-visibility-service/service"
	"ai-visibility-service/stubsearch"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Validate required configuration
	if cfg.SearchProvider == "openai" && cfg.OpenAIAPIKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}
	if cfg.SendGridAPIKey == "" {
		log.Warn("SENDGRID_API_KEY is not set, report delivery will fail")
	}

	metrics.Register()

	// Initialize database. The service still runs without it: submission
	// throttling and email logging degrade, report processing does not.
	var submissionStore guard.Store
	var emailStore service.EmailStore
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Errorf("Failed to initialize database, running without throttling: %v", err)
	} else {
		defer db.Close()
		if err := db.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		submissionStore = db
		emailStore = db
	}

	searchClient := newSearchClient(cfg)
	sender := email.NewSendGridSender(cfg)
	uploadGuard := guard.New(submissionStore, cfg.MaxUploadMB, cfg.SubmissionCooldown, cfg.AllowRetrySameFile)

	// Initialize service
	pipeline := service.NewService(cfg, emailStore, searchClient, sender)

	// Initialize handlers
	h := handlers.NewHandlers(uploadGuard, pipeline)

	// Setup HTTP server
	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// API routes
	api := router.Group("/api")
	{
		api.POST("/submit", h.Submit)
		api.GET("/download-template", h.DownloadTemplate)
	}
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start the report pipeline workers
	pipeline.Start()

	// Start HTTP server in a goroutine
	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Stop accepting new submissions, then drain in-flight jobs
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	pipeline.Stop()

	log.Info("Server exited")
}

// newSearchClient picks the web search backend. The stub provider exists for
// local runs and CI where no API key is available.
func newSearchClient(cfg *config.Config) search.Client {
	switch cfg.SearchProvider {
	case "stub":
		log.Warn("Using deterministic stub search provider, no real searches will run")
		return stubsearch.NewClient()
	default:
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.SearchTimeout)
	}
}
