package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/orbitalhq/wagateway/internal/gateway_service/app"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	repoPostgres "github.com/orbitalhq/wagateway/internal/gateway_service/repository/postgres"
	"github.com/orbitalhq/wagateway/internal/platform/config"
	"github.com/orbitalhq/wagateway/internal/platform/database"
	"github.com/orbitalhq/wagateway/internal/platform/logger"
	"github.com/orbitalhq/wagateway/internal/platform/messagebroker"
)

const (
	serviceName        = "webhook_processor_service"
	defaultMetricsPort = 9092
	eventBufferSize    = 100
)

func main() {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Starting service...")

	metricsPort := cfg.WebhookProcessorMetricsPort
	if metricsPort == 0 {
		metricsPort = defaultMetricsPort
		appLogger.Info("Metrics port not configured, using default", "port", metricsPort)
	}

	appLogger.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"nats_url", cfg.NATSUrl,
		"postgres_dsn_present", cfg.PostgresDSN != "",
		"metrics_port", metricsPort,
	)

	dbPool, err := database.NewDBPool(mainCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize database connection pool", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Database connection pool initialized")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("NATS connection initialized")

	inboxRepo := repoPostgres.NewPgInboxRepository(dbPool)
	contactRepo := repoPostgres.NewPgContactRepository(dbPool)
	conversationRepo := repoPostgres.NewPgConversationRepository(dbPool)
	messageRepo := repoPostgres.NewPgMessageRepository(dbPool)

	// An empty provider URL selects the in-memory mock for local development.
	var providerClient provider.Client
	if cfg.ProviderAPIURL == "" {
		appLogger.Warn("Provider API URL not configured, using in-memory mock provider")
		providerClient = provider.NewMockClient(appLogger)
	} else {
		providerClient = provider.NewEvolutionClient(
			cfg.ProviderAPIURL,
			cfg.ProviderAPIKey,
			&http.Client{Timeout: 30 * time.Second},
			appLogger,
		)
	}

	resolver := app.NewResolver(contactRepo, conversationRepo, appLogger)
	reconciler := app.NewReconciler(messageRepo, conversationRepo, appLogger)
	connection := app.NewConnectionManager(inboxRepo, providerClient, appLogger)
	processor := app.NewEventProcessor(inboxRepo, messageRepo, resolver, reconciler, connection, appLogger)

	rawEventsChan := make(chan app.RawWebhookEvent, eventBufferSize)
	consumer := app.NewWebhookConsumer(natsClient, appLogger, rawEventsChan)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		subject := app.WebhookSubjectPrefix + ".*"
		appLogger.Info("Starting NATS consumer for webhook deliveries",
			"subject", subject, "queue_group", "webhook_processor_group")
		return consumer.StartConsuming(groupCtx, subject, "webhook_processor_group")
	})

	g.Go(func() error {
		appLogger.Info("Starting webhook event processor worker...")
		return app.ProcessLoop(groupCtx, rawEventsChan, processor, appLogger)
	})

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", metricsPort),
		Handler: promhttp.Handler(),
	}
	g.Go(func() error {
		appLogger.Info("Metrics server listening", "port", metricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	appLogger.Info("Service components initialized and workers started. Service is ready.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var groupErr error
	select {
	case sig := <-sigCh:
		appLogger.Info("Received termination signal", "signal", sig.String())
	case groupErr = <-watchGroup(g):
		appLogger.Error("A critical component failed, initiating shutdown", "error", groupErr)
	}

	appLogger.Info("Attempting graceful shutdown...")
	mainCancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Metrics server shutdown failed", "error", err)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		appLogger.Error("Error during graceful shutdown of components", "error", err)
	}

	appLogger.Info("Service shutdown complete.")
}

// watchGroup monitors an errgroup for early exit.
func watchGroup(g *errgroup.Group) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
	}()
	return errCh
}
