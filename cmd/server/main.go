package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/content-approval-service/internal/api"
	"github.com/UkralStul/content-approval-service/internal/config"
	"github.com/UkralStul/content-approval-service/internal/events"
	"github.com/UkralStul/content-approval-service/internal/feed"
	"github.com/UkralStul/content-approval-service/internal/identity"
	"github.com/UkralStul/content-approval-service/internal/logger"
	"github.com/UkralStul/content-approval-service/internal/review"
	"github.com/UkralStul/content-approval-service/internal/storage"
	"github.com/UkralStul/content-approval-service/internal/storage/inmemory"
	"github.com/UkralStul/content-approval-service/internal/storage/postgres"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file")
	storageType := flag.String("storage", "", "Storage type (in-memory or postgres), overrides STORAGE")
	seed := flag.Bool("seed", false, "Fill in-memory storage with mock posts")
	flag.Parse()

	if *storageType != "" {
		_ = os.Setenv("STORAGE", *storageType)
	}
	cfg, err := config.Load(*envFile)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.New(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := initTracing(ctx, cfg)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	defer func() {
		c, cc := context.WithTimeout(context.Background(), 5*time.Second)
		defer cc()
		_ = shutdownTracing(c)
	}()

	var store storage.Storage
	log.Printf("Starting server with %s storage", cfg.Storage)
	if cfg.Storage == "postgres" {
		pg, err := postgres.New(cfg.DatabaseURL, logger.GormLevel(log.GetLevel()))
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pg.Close()
		store = pg
	} else {
		store = inmemory.New()
	}

	issuer, err := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		log.Fatalf("identity: %v", err)
	}

	broker := feed.NewBroker(review.LoadSnapshot(store), log.WithField("component", "feed"))
	var notifier review.ChangeNotifier = broker
	if cfg.RedisAddr != "" {
		rdb, err := feed.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		rn := feed.NewRedisNotifier(rdb, cfg.RedisChannel, broker, log.WithField("component", "redis-feed"))
		notifier = rn
		go func() {
			if err := rn.Listen(ctx, broker); err != nil {
				log.WithError(err).Error("redis listener stopped")
			}
		}()
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.KafkaBrokers != "" {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = kp
		log.Printf("publishing lifecycle events to topic=%s brokers=%s", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	defer publisher.Close()

	svc := review.New(store, notifier, broker, log.WithField("component", "review"), review.WithPublisher(publisher))

	if (*seed || cfg.SeedMockData) && cfg.Storage != "postgres" {
		// Заполним данными для разработки
		fillWithMockData(ctx, svc, log)
	}

	handler := api.NewHandler(svc, issuer, cfg.WSPingInterval, log.WithField("component", "http"))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(api.NewRouter(handler), "http.server"),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		log.Printf("listening on http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("shutting down...")

	shCtx, shCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shCancel()
	_ = srv.Shutdown(shCtx)
}
