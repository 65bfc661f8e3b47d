package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/mfiops/collection-ledger/internal/config"
	"github.com/mfiops/collection-ledger/internal/repository"
	"github.com/mfiops/collection-ledger/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	cycleRepo := repository.NewLoanCycleRepository(db)
	collectionRepo := repository.NewCollectionRepository(db)
	rateRepo := repository.NewRateRepository(db)

	cache := service.NewRedisCache(redisClient)
	ledgerService := service.NewLedgerService(cycleRepo, collectionRepo, rateRepo, cache, cfg)
	statusService := service.NewStatusService(ledgerService, cycleRepo, cfg)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %s: %v", cfg.Scheduler.Timezone, err)
	}

	scheduler := cron.New(cron.WithSeconds(), cron.WithLocation(location))

	_, err = scheduler.AddFunc(cfg.Scheduler.StatusCron, func() {
		log.Println("Running status batch...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		updated, err := statusService.RunBatch(ctx)
		if err != nil {
			log.Printf("Status batch failed: %v", err)
			return
		}

		log.Printf("Status batch finished, %d cycle(s) updated", updated)
	})
	if err != nil {
		log.Fatalf("Failed to schedule status batch: %v", err)
	}

	scheduler.Start()
	log.Printf("Scheduler started, status batch at %q (%s)", cfg.Scheduler.StatusCron, cfg.Scheduler.Timezone)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down scheduler...")

	ctx := scheduler.Stop()
	<-ctx.Done()

	log.Println("Scheduler exited")
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
