// cmd/order-agent/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/api"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/audit"
	awsclient "github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/aws"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/config"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/database"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/genai"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/logger"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/observability"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/common/reporting"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/events"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/order"
	"github.com/SeanAminov/AutoShopper-AI-Sean/internal/providers"
	extractconstraints "github.com/SeanAminov/AutoShopper-AI-Sean/internal/steps/extract-constraints"
	selectcandidate "github.com/SeanAminov/AutoShopper-AI-Sean/internal/steps/select-candidate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting order agent...",
		zap.String("environment", cfg.App.Environment),
		zap.String("provider", cfg.Provider.Name),
	)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []api.ReadinessCheck
	deps := providers.Deps{}

	// --- Elasticsearch (index provider) ---
	if cfg.Provider.Name == config.ProviderIndex {
		var es *elasticsearch.Client
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return database.PingElasticsearch(ctx, es)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		deps.Elasticsearch = es
		checks = append(checks, api.ReadinessCheck{Name: "elasticsearch", Check: func(ctx context.Context) error {
			return database.PingElasticsearch(ctx, es)
		}})
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Redis (search cache) ---
	if cfg.Cache.Enabled {
		var rdb *redis.Client
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(ctx, cfg.Database.Redis)
			return err
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		deps.Redis = rdb
		checks = append(checks, api.ReadinessCheck{Name: "redis", Check: func(ctx context.Context) error {
			return database.PingRedis(ctx, rdb)
		}})
		zapLog.Info("Redis connected successfully")
	}

	// --- Plan recorders ---
	var recorders []order.PlanRecorder

	if cfg.Audit.Enabled {
		var pg *sql.DB
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(ctx, cfg.Database.Postgres)
			return err
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		store := audit.NewStore(pg, cfg.Audit.Table, log)
		if err := store.EnsureSchema(ctx); err != nil {
			zapLog.Fatal("audit schema failed", zap.Error(err))
		}
		recorders = append(recorders, store)
		checks = append(checks, api.ReadinessCheck{Name: "postgres", Check: pg.PingContext})
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.Events.Enabled {
		client, err := awsclient.NewSNSClient(ctx, cfg.Events.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		recorders = append(recorders, events.NewPublisher(client, cfg.Events.TopicARN, log))
		zapLog.Info("Order events enabled", zap.String("topic", cfg.Events.TopicARN))
	}

	// --- Pipeline ---
	provider, err := providers.New(cfg, deps, log)
	if err != nil {
		zapLog.Fatal("provider init failed", zap.Error(err))
	}

	llm := genai.NewClient(genai.Config{
		BaseURL: cfg.GenAI.BaseURL,
		APIKey:  cfg.GenAI.APIKey,
		Model:   cfg.GenAI.Model,
		Timeout: config.GetDuration(cfg.GenAI.Timeout),
	})
	if cfg.GenAI.APIKey == "" {
		zapLog.Warn("OPENAI_API_KEY not set, order requests will fail until it is configured")
	}

	plannerOpts := []order.Option{
		order.WithRecorders(recorders...),
		order.WithObservability(obs),
	}
	if cfg.Sentry.DSN != "" {
		reporter, err := reporting.NewSentry(cfg.Sentry, cfg.App.Version)
		if err != nil {
			zapLog.Fatal("sentry init failed", zap.Error(err))
		}
		defer reporter.Flush(2 * time.Second)
		plannerOpts = append(plannerOpts, order.WithErrorReporter(reporter))
		zapLog.Info("Error reporting enabled", zap.String("environment", cfg.Sentry.Environment))
	}

	planner := order.NewPlanner(
		&order.Config{
			CandidateLimit: cfg.Planner.CandidateLimit,
			ETAMinutes:     cfg.Planner.ETAMinutes,
			RecordTimeout:  config.GetDuration(cfg.Planner.RecordTimeout),
		},
		extractconstraints.NewExtractor(llm, log),
		provider,
		selectcandidate.NewSelector(llm, log),
		log,
		plannerOpts...,
	)

	router, err := api.NewRouter(cfg.Server, planner, log, checks...)
	if err != nil {
		zapLog.Fatal("router init failed", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("Order agent stopped")
}
