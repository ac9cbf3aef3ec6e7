package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/oaklinehq/checkout-backend/api/routes"
	"github.com/oaklinehq/checkout-backend/internal/catalog"
	"github.com/oaklinehq/checkout-backend/internal/checkout"
	"github.com/oaklinehq/checkout-backend/internal/coupons"
	"github.com/oaklinehq/checkout-backend/internal/orders"
	"github.com/oaklinehq/checkout-backend/internal/pricing"
	"github.com/oaklinehq/checkout-backend/pkg/config"
	"github.com/oaklinehq/checkout-backend/pkg/db"
	"github.com/oaklinehq/checkout-backend/pkg/enums"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/metrics"
	"github.com/oaklinehq/checkout-backend/pkg/migrate"
	"github.com/oaklinehq/checkout-backend/pkg/outbox"
	"github.com/oaklinehq/checkout-backend/pkg/outbox/payloads"
	"github.com/oaklinehq/checkout-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pricingMetrics := metrics.NewPricingMetrics(registry)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	skuLoader, err := catalog.NewService(dbClient.DB(), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	storeProvider, err := coupons.NewStoreProvider(dbClient.DB(), redisClient, cfg.Coupon.LockTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon store provider", err)
		os.Exit(1)
	}
	couponChain, err := coupons.NewChain(logg, storeProvider)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon chain", err)
		os.Exit(1)
	}
	couponChain.OnUnresolved(unresolvedCouponRecorder(dbClient, outboxService, logg))

	basePrice, err := pricing.NewBasePriceCalculator(skuLoader, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create base price calculator", err)
		os.Exit(1)
	}
	couponCalc, err := pricing.NewCouponCalculator(couponChain, coupons.NewEvaluator(), skuLoader, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon calculator", err)
		os.Exit(1)
	}
	chain, err := pricing.NewChain(logg, pricingMetrics, basePrice, pricing.NewPromotionCalculator(), couponCalc)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing chain", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	checkoutService, err := checkout.NewService(checkout.Params{
		Chain:   chain,
		Coupons: couponChain,
		Orders:  ordersRepo,
		Tx:      dbClient,
		Outbox:  outboxService,
		Logger:  logg,
		Metrics: pricingMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, checkoutService, ordersRepo, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

// unresolvedCouponRecorder writes a deduplicated coupon.unresolved event so
// merchandising can spot typo campaigns and missing imports.
func unresolvedCouponRecorder(dbClient *db.Client, outboxService *outbox.Service, logg *logger.Logger) coupons.UnresolvedHandler {
	return func(ctx context.Context, code string, userID uuid.UUID) {
		// One event per code; the UUID is derived from the code itself.
		aggregateID := uuid.NewSHA1(uuid.NameSpaceOID, []byte(code))
		err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			return outboxService.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
				EventType:     enums.OutboxEventCouponUnresolved,
				AggregateType: enums.OutboxAggregateCoupon,
				AggregateID:   aggregateID,
				Actor:         &outbox.ActorRef{UserID: userID},
				Version:       1,
				Data: payloads.CouponUnresolvedEvent{
					Code:   code,
					UserID: userID,
					SeenAt: time.Now().UTC(),
				},
			})
		})
		if err != nil {
			logg.Error(logg.WithCouponCode(ctx, code), "recording unresolved coupon failed", err)
		}
	}
}
