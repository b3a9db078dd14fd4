package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/waving/storefront/internal/auth"
	"github.com/waving/storefront/internal/cart"
	"github.com/waving/storefront/internal/cart/cache"
	cartHTTP "github.com/waving/storefront/internal/cart/delivery/http"
	"github.com/waving/storefront/internal/cart/events"
	"github.com/waving/storefront/internal/cart/localstore"
	"github.com/waving/storefront/internal/config"
	"github.com/waving/storefront/internal/orders"
	"github.com/waving/storefront/kafka"
	"github.com/waving/storefront/pkg/logger"
	"github.com/waving/storefront/pkg/tracing"
)

func main() {
	cfg := config.Load()

	logger.Init("storefront", cfg.LogLevel, cfg.Development)

	tp, err := tracing.InitTracer("storefront", cfg.JaegerEndpoint)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("Tracing disabled")
	}

	storage, redisClient := newStorage(cfg)

	var totals cache.TotalCache
	if redisClient != nil {
		totals = cache.NewRedisCache(redisClient, cfg.CacheTTL)
	} else {
		totals = cache.NewMemoryCache(cfg.CacheTTL)
	}

	bus := events.NewBus()

	cartHandler, err := cart.InitializeCartHandler(cfg, storage, totals, bus)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to assemble cart handler")
	}
	reconciler, err := cart.InitializeReconciler(cfg, storage, bus)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to assemble reconciler")
	}

	authClient := auth.NewClient(cfg.BackendURL, cfg.RequestTimeout)
	orderClient := orders.NewClient(cfg.BackendURL, cfg.RequestTimeout)

	// Cart activity events out to Kafka when brokers are configured
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("Kafka publisher disabled")
		} else {
			defer publisher.Close()
			bus.Subscribe(func(ev events.CartChanged) {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()

				eventType := kafka.EventTypeCartChanged
				if ev.Reason == events.ReasonReconciled {
					eventType = kafka.EventTypeCartReconciled
				}
				_ = publisher.PublishCartActivity(ctx, kafka.CartActivityEvent{
					EventType: eventType,
					GuestID:   ev.GuestID,
					UserID:    ev.UserID,
					Reason:    string(ev.Reason),
					ItemCount: ev.ItemCount,
					Timestamp: ev.At,
				})
			})
		}
	}

	router := mux.NewRouter()

	api := router.NewRoute().Subrouter()
	api.Use(cartHTTP.SessionMiddleware)
	cartHandler.RegisterRoutes(api)
	auth.NewHandler(authClient, reconciler).RegisterRoutes(api)
	orders.NewHandler(orderClient, bus).RegisterRoutes(api)

	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: otelhttp.NewHandler(c.Handler(router), "storefront"),
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.Port).
			Str("backend", cfg.BackendURL).
			Str("cart_storage", cfg.CartStorage).
			Msg("Storefront listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown failed")
	}
	if tp != nil {
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Error().Err(err).Msg("Tracer shutdown failed")
		}
	}
	if redisClient != nil {
		redisClient.Close()
	}
}

// newStorage builds the anonymous-cart storage configured by CART_STORAGE.
// The Redis client is returned too so the totals cache can share it.
func newStorage(cfg *config.Config) (localstore.Storage, *redis.Client) {
	switch cfg.CartStorage {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		// Guest carts idle out after 30 days, matching the cookie lifetime
		return localstore.NewRedisStorage(client, 30*24*time.Hour), client
	case "file":
		storage, err := localstore.NewFileStorage(cfg.DataDir)
		if err != nil {
			logger.Logger.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to open cart data dir")
		}
		return storage, nil
	default:
		return localstore.NewMemoryStorage(), nil
	}
}
