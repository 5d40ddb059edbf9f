package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/taskflow/internal/api"
	"github.com/shaiso/taskflow/internal/backend"
	"github.com/shaiso/taskflow/internal/commit"
	"github.com/shaiso/taskflow/internal/config"
	"github.com/shaiso/taskflow/internal/draft"
	"github.com/shaiso/taskflow/internal/editor"
	"github.com/shaiso/taskflow/internal/mq"
	"github.com/shaiso/taskflow/internal/session"
	"github.com/shaiso/taskflow/internal/telemetry"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.Log.Format, cfg.Log.Level)
	logger.Info("starting taskflow-api")

	ctx := context.Background()

	// Хранилище черновиков
	drafts, closeDrafts, err := draft.Open(ctx, cfg.Draft)
	if err != nil {
		logger.Error("failed to open draft store", "driver", cfg.Draft.Driver, "error", err)
		os.Exit(1)
	}
	defer closeDrafts()
	logger.Info("draft store ready", "driver", cfg.Draft.Driver)

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)

	client := backend.New(backend.Config{
		BaseURL:      cfg.Backend.URL,
		SessionToken: cfg.Backend.SessionToken,
		Timeout:      cfg.Backend.Timeout,
		FetchRetries: cfg.Backend.FetchRetries,
		Logger:       logger,
	})

	commitCfg := commit.Config{
		Client:  client,
		Metrics: metrics,
		Logger:  logger,
	}

	// RabbitMQ необязателен: без него коммиты не публикуются
	if cfg.AMQP.URL != "" {
		conn, err := mq.NewConnection(cfg.AMQP.URL, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup rabbitmq topology", "error", err)
			os.Exit(1)
		}
		commitCfg.Publisher = mq.NewPublisher(conn, logger)
		logger.Info("connected to rabbitmq")
	}

	editors := editor.NewManager(editor.Deps{
		Workflows: client,
		Drafts:    draft.NewPersistence(drafts, logger),
		Committer: commit.New(commitCfg),
		Metrics:   metrics,
		Logger:    logger,
	})

	handler := api.NewHandler(api.Config{
		Editors: editors,
		Backend: client,
		Session: session.New(),
		Metrics: metrics,
		Logger:  logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + strconv.Itoa(cfg.API.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", addr, "backend", cfg.Backend.URL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	<-sigCtx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped", "open_editors", editors.OpenCount())
}
