package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LhacenMed/admin-dashboard/config"
	"github.com/LhacenMed/admin-dashboard/internal/auth"
	"github.com/LhacenMed/admin-dashboard/internal/blob"
	"github.com/LhacenMed/admin-dashboard/internal/bootstrap"
	"github.com/LhacenMed/admin-dashboard/internal/cache"
	"github.com/LhacenMed/admin-dashboard/internal/docstore"
	"github.com/LhacenMed/admin-dashboard/internal/kafka"
	"github.com/LhacenMed/admin-dashboard/internal/query"
	"github.com/LhacenMed/admin-dashboard/internal/repository"
	"github.com/LhacenMed/admin-dashboard/internal/seatmap"
	"github.com/LhacenMed/admin-dashboard/internal/service/account"
	"github.com/LhacenMed/admin-dashboard/internal/service/seats"
	"github.com/LhacenMed/admin-dashboard/internal/service/trips"
	"github.com/LhacenMed/admin-dashboard/internal/tripid"
	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/LhacenMed/admin-dashboard/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Log.Level)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("transit", reg)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open document store", "driver", cfg.Storage.Driver, "error", err)
	}
	defer closeStore()

	tripRepo := repository.NewTripRepository(store)
	accountRepo := repository.NewAccountRepository(store)
	credentialRepo := repository.NewCredentialRepository(store)
	if err := credentialRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create indexes", "error", err)
	}

	redisClient := cache.NewRedisClient(cfg.Redis)
	defer redisClient.Close()
	redisCache := cache.NewRedisCache(redisClient)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
	defer producer.Close()

	queryCache := query.New(
		query.WithStaleTime(cfg.Query.StaleTime()),
		query.WithGCTime(cfg.Query.GCTime()),
		query.WithMetrics(m),
	)
	go queryCache.Run(ctx, cfg.Query.SweepInterval())

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	engine := seatmap.NewEngine(tripRepo, log, seatmap.WithMetrics(m))
	ids := tripid.NewGenerator(redisCache)

	accountService := account.NewAccountService(accountRepo, credentialRepo, tokens, queryCache, log,
		account.WithProducer(producer, cfg.Kafka.EventsTopic, cfg.Kafka.NotificationsTopic),
		account.WithRecentStore(redisCache),
		account.WithMetrics(m),
	)
	tripService := trips.NewTripService(tripRepo, ids, queryCache, log,
		trips.WithProducer(producer, cfg.Kafka.EventsTopic),
		trips.WithCompanies(accountService),
		trips.WithMetrics(m),
	)
	seatService := seats.NewSeatService(tripRepo, engine, queryCache, log,
		seats.WithProducer(producer, cfg.Kafka.EventsTopic),
	)

	admin := cfg.Auth.BootstrapAdmin
	if err := accountService.EnsureAdmin(ctx, account.AdminInput{Name: admin.Name, Email: admin.Email, Password: admin.Password}); err != nil {
		log.Fatal("failed to create bootstrap admin", "email", admin.Email, "error", err)
	}

	services := bootstrap.Services{
		Accounts: accountService,
		Trips:    tripService,
		Seats:    seatService,
		Tokens:   tokens,
		Uploader: blob.NewUploader(cfg.Upload),
		Checks: map[string]bootstrap.HealthCheck{
			"redis": redisCache.Ping,
			"kafka": producer.CheckConnection,
		},
	}
	obs := bootstrap.Observability{Log: log, Metrics: m, Registry: reg}

	if err := bootstrap.Run(ctx, cfg, services, obs); err != nil {
		log.Fatal("server error", "error", err)
	}
}

// openStore connects the configured document store driver.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (docstore.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := docstore.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("document store ready", "driver", config.DriverPostgres, "database", cfg.Database.Name)
		return store, pool.Close, nil
	default:
		client, err := docstore.NewMongoClient(ctx, cfg.Mongo.URI, cfg.Mongo.User, cfg.Mongo.Password)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warn("mongo disconnect failed", "error", err)
			}
		}
		log.Info("document store ready", "driver", config.DriverMongo, "database", cfg.Mongo.Database)
		return docstore.NewMongoStore(client.Database(cfg.Mongo.Database)), closeClient, nil
	}
}
