package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/handler"
	"github.com/mfiops/collection-ledger/internal/repository"
	"github.com/mfiops/collection-ledger/internal/service"
	"github.com/mfiops/collection-ledger/pkg/response"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	cycleRepo := repository.NewLoanCycleRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	rateRepo := repository.NewRateRepository(db)

	// Initialize services
	cache := service.NewRedisCache(redisClient)
	ledgerService := service.NewLedgerService(cycleRepo, collectionRepo, rateRepo, cache, cfg)
	importService := service.NewImportService(ledgerService, cycleRepo, collectionRepo, cfg)
	statusService := service.NewStatusService(ledgerService, cycleRepo, cfg)

	ledgerHandler := handler.NewLedgerHandler(ledgerService)
	importHandler := handler.NewImportHandler(importService)
	statusHandler := handler.NewStatusHandler(statusService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Setup routes
	router := setupRoutes(ledgerHandler, importHandler, statusHandler, healthHandler)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.GetConnMaxLifetime())

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	ledgerHandler *handler.LedgerHandler,
	importHandler *handler.ImportHandler,
	statusHandler *handler.StatusHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/loan-cycles", ledgerHandler.CreateLoanCycle).Methods("POST")
	api.HandleFunc("/loan-cycles/{cycleNo}", ledgerHandler.GetLoanCycle).Methods("GET")
	api.HandleFunc("/loan-cycles/{cycleNo}/ledger", ledgerHandler.GetLedger).Methods("GET")
	api.HandleFunc("/loan-cycles/{cycleNo}/status", statusHandler.GetStatus).Methods("GET")
	api.HandleFunc("/loan-cycles/{cycleNo}/collections", ledgerHandler.PostCollection).Methods("POST")
	api.HandleFunc("/loan-cycles/{cycleNo}/import/preview", importHandler.Preview).Methods("POST")
	api.HandleFunc("/loan-cycles/{cycleNo}/import/commit", importHandler.Commit).Methods("POST")
	api.HandleFunc("/collections/{id}", ledgerHandler.UpdateCollection).Methods("PATCH")
	api.HandleFunc("/collections/{id}", ledgerHandler.DeleteCollection).Methods("DELETE")
	api.HandleFunc("/amortization", ledgerHandler.ComputeAmortization).Methods("POST")
	api.HandleFunc("/advance-payment", ledgerHandler.ComputeAdvance).Methods("POST")
	api.HandleFunc("/status/run-batch", statusHandler.RunBatch).Methods("POST")

	return router
}
