package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/Hassan5123/roast-direct/internal/catalog"
	"github.com/Hassan5123/roast-direct/internal/checkout"
	"github.com/Hassan5123/roast-direct/internal/config"
	"github.com/Hassan5123/roast-direct/internal/events"
	h "github.com/Hassan5123/roast-direct/internal/http"
	"github.com/Hassan5123/roast-direct/internal/inventory"
	"github.com/Hassan5123/roast-direct/internal/orders"
	"github.com/Hassan5123/roast-direct/internal/storage"
	"github.com/Hassan5123/roast-direct/internal/storefront"
	"github.com/Hassan5123/roast-direct/pkg/circuitbreaker"
	"github.com/Hassan5123/roast-direct/pkg/logger"
)

const sweepInterval = time.Minute

func main() {
	cfg := config.Load()
	log := logger.New("storefront-gateway", cfg.LogLevel)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	log.Info("storage ready", "driver", store.Driver)

	// events stay in-process unless brokers are configured
	local := events.NewLocal()
	var bus events.Bus = local
	var relay *events.KafkaRelay
	if len(cfg.KafkaBrokers) > 0 {
		relay = events.NewKafkaRelay(local, log, cfg.KafkaTopic, cfg.KafkaBrokers...)
		bus = relay
		go relay.Run(ctx)
		log.Info("relaying events through kafka", "topic", cfg.KafkaTopic, "instance", relay.Instance())
	}

	breaker := circuitbreaker.DefaultConfig("backend-api")
	breaker.ConsecutiveFailures = cfg.BreakerFailures
	breaker.Timeout = cfg.BreakerOpenDuration

	var sessions *storefront.Registry
	client := catalog.New(cfg.APIBaseURL, cfg.RequestTimeout, log,
		catalog.WithBreaker(breaker),
		catalog.WithUnauthorizedHook(func(ctx context.Context) { sessions.Expire(ctx) }),
	)
	sessions = storefront.NewRegistry(storefront.Deps{
		Store:         store.Store,
		Bus:           bus,
		Backend:       client,
		RedirectDelay: cfg.PlaceRedirectDelay,
		Log:           log,
	})
	go sessions.Run(ctx, sweepInterval)

	router := h.NewRouter(h.RouterConfig{
		Sessions:           sessions,
		Catalog:            client,
		Inventory:          inventory.NewReconciler(client, log),
		Estimator:          checkout.NewEstimator(client, log),
		Orders:             orders.NewService(client, log),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Log:                log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront gateway starting", "port", cfg.HTTPPort, "backend", cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	stop()
	if relay != nil {
		if err := relay.Close(); err != nil {
			log.Error("failed to close kafka relay", "error", err)
		}
	}
	if err := store.Close(shutdownCtx); err != nil {
		log.Error("failed to close storage", "error", err)
	}

	log.Info("server exited")
}
