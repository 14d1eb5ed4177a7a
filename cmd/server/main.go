package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"sahakosh/internal/accounts"
	"sahakosh/internal/docstore"
	jwttoken "sahakosh/internal/jwt_token"
	"sahakosh/internal/ledger"
	"sahakosh/internal/platform/config"
	"sahakosh/internal/platform/httpserver"
	"sahakosh/internal/platform/logger"
	"sahakosh/internal/platform/metrics"
	"sahakosh/internal/platform/redis"
	"sahakosh/internal/scheme"
	httptransport "sahakosh/internal/transport/http"
	"sahakosh/internal/txlog"
)

// main wires storage, services, and the HTTP router. Redis, Postgres, and
// Kafka are each optional: an unset URL falls back to the in-memory store,
// the nop archive, or the nop publisher so local development needs no
// infrastructure.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		docs   docstore.Store
		health func(ctx context.Context) error
	)
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		docs = docstore.NewRedis(redisClient.Client)
		health = redisClient.Health
		log.Info("document store: redis")
	} else {
		docs = docstore.NewMemory()
		log.Warn("REDIS_URL unset, using in-memory document store")
	}

	var archive ledger.Archive = ledger.NopArchive{}
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		archive, err = ledger.NewPostgresArchive(ctx, pool)
		if err != nil {
			log.Error("transaction archive init failed", "error", err)
			os.Exit(1)
		}
		log.Info("transaction archive: postgres")
	}

	var publisher txlog.Publisher = txlog.Nop{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := txlog.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, log, m)
		if err != nil {
			log.Error("kafka publisher init failed", "error", err)
			os.Exit(1)
		}
		defer kafka.Close()
		publisher = kafka
		log.Info("transaction log: kafka", "topic", cfg.Kafka.Topic)
	}

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, "sahakosh")

	accountSvc := accounts.NewService(
		accounts.NewCitizenStore(docs),
		accounts.NewVendorStore(docs),
		accounts.NewGovernmentStore(docs),
		tokens,
		cfg.TokenTTL,
		log,
		m,
	)
	ledgerSvc := ledger.NewService(
		docs,
		ledger.NewTransactionStore(docs),
		archive,
		publisher,
		log,
		m,
		cfg.DisburseWorkers,
	)
	schemeSvc := scheme.NewService(
		scheme.NewSchemeStore(docs),
		accounts.NewCitizenStore(docs),
		docs,
		ledgerSvc,
		log,
	)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Metrics:   m,
		Validator: tokens,
		Accounts:  accountSvc,
		Ledger:    ledgerSvc,
		Schemes:   schemeSvc,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting sahakosh", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
