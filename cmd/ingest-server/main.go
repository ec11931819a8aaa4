// cmd/ingest-server/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cobuilder/internal/common/aws"
	"cobuilder/internal/common/camunda"
	"cobuilder/internal/common/config"
	"cobuilder/internal/common/database"
	httpclient "cobuilder/internal/common/http"
	"cobuilder/internal/common/llm"
	"cobuilder/internal/common/logger"
	"cobuilder/internal/common/observability"
	"cobuilder/internal/common/slack"
	"cobuilder/internal/dispatch"
	"cobuilder/internal/framework"
	"cobuilder/internal/interaction"
	"cobuilder/internal/models"

	cm "cobuilder/internal/workers/ingestion/classify-message"
	ctr "cobuilder/internal/workers/ingestion/create-task-record"
	im "cobuilder/internal/workers/ingestion/ingest-message"
	nc "cobuilder/internal/workers/ingestion/notify-channel"
	pte "cobuilder/internal/workers/ingestion/publish-task-event"
	rv "cobuilder/internal/workers/ingestion/resolve-venture"
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
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting ingest server",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.String("dispatchBackend", cfg.Dispatch.Backend),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")
	checks := map[string]healthCheck{"postgres": pg.Ping, "redis": rdb.Ping}

	// --- Init Elasticsearch (optional) ---
	var indexer pte.Indexer
	if cfg.Search.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		indexer = es
		checks["elasticsearch"] = es.Ping
		zapLog.Info("Elasticsearch connected successfully", zap.String("index", cfg.Search.Index))
	}

	// --- Init AWS fan-out (optional) ---
	var publisher pte.EventPublisher
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		publisher = snsClient
	}
	var mailer nc.Mailer
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		mailer = sesClient
	}

	// --- Init External Service Clients ---
	outbound := httpclient.NewClient(config.GetDuration(cfg.LLM.Timeout) + 5*time.Second)

	completer, err := llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     config.GetDuration(cfg.LLM.Timeout),
		MaxRetries:  cfg.LLM.MaxRetries,
		HTTPClient:  outbound,
	})
	if err != nil {
		zapLog.Fatal("llm client init failed", zap.Error(err))
	}

	slackClient := slack.NewClient(cfg.Slack.BotToken,
		slack.WithAPIURL(cfg.Slack.APIURL),
		slack.WithHTTPClient(outbound),
	)

	// --- Framework reference, built once ---
	fw, err := framework.Load()
	if err != nil {
		zapLog.Fatal("framework load failed", zap.Error(err))
	}
	ref := framework.BuildReference(fw)

	// --- Ingestion workers ---
	resolver := rv.NewHandler(rv.LoadConfig(cfg), pg.DB, rdb.Client, log)
	pipeline := im.NewHandler(im.LoadConfig(cfg), im.Dependencies{
		Classifier:    cm.NewHandler(cm.LoadConfig(cfg), completer, fw, ref, log),
		Tasks:         ctr.NewHandler(ctr.LoadConfig(), pg.DB, log),
		Notifier:      nc.NewHandler(nc.LoadConfig(cfg), slackClient, mailer, fw, log),
		Events:        pte.NewHandler(pte.LoadConfig(cfg), publisher, indexer, fw, log),
		Users:         slackClient,
		Redis:         rdb.Client,
		Observability: obs,
	}, log)

	// --- Dispatcher ---
	var (
		dispatcher    dispatch.Dispatcher
		shutdownQueue func(context.Context) error
	)
	switch cfg.Dispatch.Backend {
	case config.DispatchBackendCamunda:
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		jobWorker := camunda.NewWorker(zeebe.GetClient(), cfg.Camunda.JobType, cfg.Camunda.MaxJobsActive, pipeline, log)
		dispatcher = dispatch.NewCamundaDispatcher(zeebe, cfg.Camunda.ProcessID, log)
		shutdownQueue = func(context.Context) error {
			jobWorker.Stop()
			return zeebe.Close()
		}
		checks["zeebe"] = zeebe.HealthCheck
		zapLog.Info("Zeebe client connected successfully", zap.String("jobType", cfg.Camunda.JobType))
	default:
		pool := dispatch.NewPool(dispatch.LoadPoolConfig(cfg), func(ctx context.Context, job models.IngestJob) error {
			_, err := pipeline.Execute(ctx, job)
			return err
		}, log)
		dispatcher = pool
		shutdownQueue = pool.Shutdown
	}

	// --- HTTP server ---
	webhook := interaction.NewHandler(&interaction.Config{
		CallbackID:     cfg.Slack.CallbackID,
		ResolveTimeout: config.GetDuration(cfg.Server.AckDeadline) * 2 / 3,
	}, cfg.Slack.SigningSecret, resolver, dispatcher, log)
	if cfg.Slack.SigningSecret == "" {
		zapLog.Error("SLACK_SIGNING_SECRET is not set; interaction requests will be answered with 500")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/slack/interactions", webhook)
	mux.HandleFunc("/healthz", healthHandler(checks))
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if err := shutdownQueue(shutdownCtx); err != nil {
		zapLog.Error("Error draining background jobs", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down observability", zap.Error(err))
	}

	zapLog.Info("Ingest server stopped gracefully")
}

type healthCheck func(ctx context.Context) error

func healthHandler(deps map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, check := range deps {
			checks[name] = "ok"
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks[name] = err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": http.StatusText(status),
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
