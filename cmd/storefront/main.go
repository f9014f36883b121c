package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	cartredis "github.com/dmehra2102/storefront/internal/cart/infrastructure/redis"
	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	cataloggrpc "github.com/dmehra2102/storefront/internal/catalog/infrastructure/grpc"
	catalogpg "github.com/dmehra2102/storefront/internal/catalog/infrastructure/postgres"
	checkoutapp "github.com/dmehra2102/storefront/internal/checkout/application"
	checkouthttp "github.com/dmehra2102/storefront/internal/checkout/infrastructure/http"
	couponapp "github.com/dmehra2102/storefront/internal/coupon/application"
	couponpg "github.com/dmehra2102/storefront/internal/coupon/infrastructure/postgres"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/payment/infrastructure/mercadopago"
	paymentpg "github.com/dmehra2102/storefront/internal/payment/infrastructure/postgres"
	platformpg "github.com/dmehra2102/storefront/internal/platform/postgres"
	reviewapp "github.com/dmehra2102/storefront/internal/review/application"
	reviewpg "github.com/dmehra2102/storefront/internal/review/infrastructure/postgres"
	shippingapp "github.com/dmehra2102/storefront/internal/shipping/application"
	shippingpg "github.com/dmehra2102/storefront/internal/shipping/infrastructure/postgres"
	userpg "github.com/dmehra2102/storefront/internal/user/infrastructure/postgres"
	"github.com/dmehra2102/storefront/pkg/config"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/metrics"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	tp, err := tracing.Init(ctx, "storefront", cfg.OTelEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := platformpg.EnsureSchema(ctx, pool); err != nil {
		log.Error("schema bootstrap failed", "err", err)
		os.Exit(1)
	}

	// Redis: cart sessions and webhook dedupe keys
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("redis ping failed", "err", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()

	// Catalog and the stock-check service
	products := catalogpg.NewRepository(log, pool)
	gs, err := cataloggrpc.Run(cfg.GRPCAddr, cataloggrpc.NewServer(log, catalogapp.NewService(products)))
	if err != nil {
		log.Error("grpc server failed", "err", err)
		os.Exit(1)
	}
	stock, err := cataloggrpc.NewStockClient(log, cfg.CatalogAddr)
	if err != nil {
		log.Error("stock client failed", "err", err)
		os.Exit(1)
	}
	defer stock.Close()

	// Order ledger and outbox relay
	writer := orderkafka.NewWriter(log, cfg.KafkaBrokers)
	orders := orderapp.NewService(log, orderpg.NewRepository(log, pool))
	dispatch := outbox.NewDispatcher(log, writer, cfg.OrderTopic)
	dispatch.OnResult(func(ok bool) {
		result := "ok"
		if !ok {
			result = "error"
		}
		reg.OutboxDispatched.WithLabelValues(result).Inc()
	})
	relay := outbox.NewRelay(log, orderpg.NewOutboxStore(log, pool), dispatch, "storefront-relay")
	events := orderkafka.NewConsumer(log, cfg.KafkaBrokers, cfg.OrderTopic, cfg.EventsGroup,
		idempotency.NewStore(rdb, "order-events", 24*time.Hour),
		func(_ context.Context, eventType, _ string, _ []byte) error {
			reg.OrderEvents.WithLabelValues(eventType).Inc()
			return nil
		})

	users := userpg.NewRepository(log, pool)
	shipping := shippingapp.NewService(shippingpg.NewRepository(log, pool), cfg.Shipping)
	gateway := mercadopago.NewClient(log, cfg.Payment)

	coupons := couponapp.NewService(couponpg.NewRepository(log, pool), orders)
	checkout := checkoutapp.NewService(log, checkoutapp.Deps{
		Products: products,
		Carts:    cartredis.NewStore(rdb, cfg.SessionTTL),
		Coupons:  coupons,
		Stock:    stock,
		Orders:   orders,
		Users:    users,
		Shipping: shipping,
		Payments: gateway,
		Metrics:  reg,
	}, cfg.BaseURL)

	reconciler := paymentapp.NewReconciler(log, cfg.Payment.WebhookSecret, gateway, orders,
		idempotency.NewStore(rdb, "webhook", cfg.Payment.IdempotentTTL),
		paymentpg.NewRepository(log, pool))

	handler := checkouthttp.NewHandler(log, checkouthttp.Services{
		Catalog:    catalogapp.NewService(products),
		Coupons:    coupons,
		Checkout:   checkout,
		Reconciler: reconciler,
		Orders:     orders,
		Shipping:   shipping,
		Reviews:    reviewapp.NewService(log, reviewpg.NewRepository(log, pool), orders, users),
		Users:      users,
	}, reg, cfg.SessionTTL)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		if err := events.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("order events consumer stopped", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "grpc_addr", cfg.GRPCAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	err = shutdown.Run(log, 10*time.Second,
		shutdown.Step{Name: "http", Stop: srv.Shutdown},
		shutdown.Step{Name: "grpc", Stop: func(context.Context) error { gs.GracefulStop(); return nil }},
		shutdown.Step{Name: "kafka writer", Stop: func(context.Context) error { return writer.Close() }},
		shutdown.Step{Name: "tracing", Stop: tp.Shutdown},
	)
	if err != nil {
		log.Error("storefront shutdown incomplete", "err", err)
		return
	}
	log.Info("storefront shutdown complete")
}
