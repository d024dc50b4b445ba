package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/orbitalhq/wagateway/internal/gateway_service/app"
	"github.com/orbitalhq/wagateway/internal/gateway_service/middleware"
	"github.com/orbitalhq/wagateway/internal/gateway_service/provider"
	repoPostgres "github.com/orbitalhq/wagateway/internal/gateway_service/repository/postgres"
	httptransport "github.com/orbitalhq/wagateway/internal/gateway_service/transport/http"
	"github.com/orbitalhq/wagateway/internal/platform/config"
	"github.com/orbitalhq/wagateway/internal/platform/database"
	"github.com/orbitalhq/wagateway/internal/platform/logger"
	"github.com/orbitalhq/wagateway/internal/platform/messagebroker"
)

const serviceName = "gateway_service"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel).With("service", serviceName)
	appLogger.Info("Gateway service starting...", "port", cfg.GatewayServicePort)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNATSClient(cfg.NATSUrl, appLogger, serviceName)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS", "url", cfg.NATSUrl)

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
	channelService := app.NewChannelService(inboxRepo, providerClient, cfg.WebhookPublicURL, cfg.WebhookToken, appLogger)
	syncOrchestrator := app.NewSyncOrchestrator(inboxRepo, contactRepo, conversationRepo, providerClient, resolver, reconciler, appLogger)
	dispatcher := app.NewDispatcher(conversationRepo, contactRepo, inboxRepo, messageRepo, providerClient, appLogger)

	validate := validator.New()
	channelHandler := httptransport.NewChannelHandler(channelService, syncOrchestrator, inboxRepo, validate, appLogger)
	messageHandler := httptransport.NewMessageHandler(dispatcher, messageRepo, validate, appLogger)
	webhookHandler := httptransport.NewWebhookHandler(natsClient, cfg.WebhookToken, appLogger)

	authMW := middleware.AuthMiddleware(cfg.JWTAccessSecret, appLogger)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(httptransport.PrometheusMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "Gateway service is healthy"})
	})

	// Webhook intake is authenticated by the shared delivery token, not by
	// user JWTs. The handler acks immediately after queueing to NATS.
	r.Post("/webhooks/whatsapp/{instance_name}", webhookHandler.HandleDelivery)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authMW)
		v1.Route("/channels", func(cr chi.Router) {
			cr.Post("/", channelHandler.Create)
			cr.Get("/", channelHandler.List)
			cr.Get("/{id}", channelHandler.Get)
			cr.Post("/{id}/connect", channelHandler.Connect)
			cr.Get("/{id}/state", channelHandler.State)
			cr.Post("/{id}/sync", channelHandler.Sync)
			cr.Post("/{id}/logout", channelHandler.Logout)
			cr.Delete("/{id}", channelHandler.Delete)
		})
		v1.Route("/conversations", func(cr chi.Router) {
			cr.Post("/{id}/messages", messageHandler.Send)
			cr.Get("/{id}/messages", messageHandler.List)
		})
	})

	httpServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.GatewayServicePort), Handler: r}
	go func() {
		appLogger.Info(fmt.Sprintf("Gateway API server listening on port %d", cfg.GatewayServicePort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("HTTP server failed to serve", "error", err)
		}
	}()

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: fmt.Sprintf(":%d", cfg.GatewayMetricsPort), Handler: metricsMux}
	go func() {
		appLogger.Info(fmt.Sprintf("Metrics server listening on port %d", cfg.GatewayMetricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Metrics server failed to serve", "error", err)
		}
	}()

	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, syscall.SIGINT, syscall.SIGTERM)
	<-quitChan
	appLogger.Info("Shutdown signal received, shutting down HTTP servers...")
	cancelRoot()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("Metrics server shutdown failed", "error", err)
	}
	appLogger.Info("Gateway service shut down.")
}
