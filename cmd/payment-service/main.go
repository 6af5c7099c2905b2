package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sablecart/payment-service/internal/config"
	httpdelivery "github.com/sablecart/payment-service/internal/delivery/http"
	"github.com/sablecart/payment-service/internal/delivery/http/handlers"
	"github.com/sablecart/payment-service/internal/domain"
	"github.com/sablecart/payment-service/internal/infrastructure/kafka"
	"github.com/sablecart/payment-service/internal/infrastructure/metrics"
	"github.com/sablecart/payment-service/internal/infrastructure/migrate"
	"github.com/sablecart/payment-service/internal/infrastructure/paystack"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres"
	"github.com/sablecart/payment-service/internal/infrastructure/postgres/repository"
	"github.com/sablecart/payment-service/internal/infrastructure/rediscache"
	orderusecase "github.com/sablecart/payment-service/internal/usecase/order"
	"github.com/sablecart/payment-service/internal/usecase/reconcile"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	// Init database
	db := postgres.MustInitDB(cfg)
	if err := migrate.RunMigrations(db, cfg.PaymentDB.MigrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Init redis order cache
	redisClient, err := rediscache.InitRedis(fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port), cfg.Redis.Password)
	if err != nil {
		log.Fatalf("failed to init redis: %v", err)
	}
	orderCache := rediscache.NewOrderCache(redisClient, time.Duration(cfg.Redis.TTLSec)*time.Second)

	// Init kafka notification publisher
	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	publisher := kafka.NewNotificationPublisher(brokers, cfg.KafkaService.Topic)
	defer publisher.Close()

	paymentMetrics := metrics.NewPaymentMetrics(prometheus.DefaultRegisterer)

	// Init repositories
	orderRepo := repository.NewDefaultOrderRepository(db)
	txRepo := repository.NewDefaultTransactionRepository(db)
	inventoryRepo := repository.NewDefaultInventoryRepository(db)
	savedCardRepo := repository.NewDefaultSavedCardRepository(db)

	// Init paystack gateway client
	gateway := paystack.NewClient(
		cfg.Paystack.BaseURL,
		cfg.Paystack.SecretKey,
		cfg.Paystack.WebhookSecret,
		time.Duration(cfg.Paystack.TimeoutSec)*time.Second,
	)

	// Init usecases
	reconcileUsecase := reconcile.NewDefaultReconcileUsecase(
		txRepo,
		orderRepo,
		savedCardRepo,
		inventoryRepo,
		gateway,
		publisher,
		orderCache,
		cfg.Notifications.AdminEmail,
		paymentMetrics,
	)
	orderUsecase := orderusecase.NewDefaultOrderUsecase(
		orderRepo,
		txRepo,
		inventoryRepo,
		savedCardRepo,
		gateway,
		reconcileUsecase,
		orderCache,
		paymentMetrics,
	)

	// Background re-verification of payments stuck in flight
	go startReverifyWorker(context.Background(), cfg, txRepo, reconcileUsecase)

	// HTTP server
	webhookHandler := handlers.NewWebhookHandler(gateway, reconcileUsecase)
	paymentHandler := handlers.NewPaymentHandler(reconcileUsecase, orderUsecase)
	orderHandler := handlers.NewOrderHandler(orderUsecase)

	router := httpdelivery.NewRouter(webhookHandler, paymentHandler, orderHandler)

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	slog.Info("payment service listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("http server stopped: %v", err)
	}
}

// startReverifyWorker sweeps ledger rows stuck in pending/processing and
// re-drives them through the poll path. This is the safety net for webhooks
// that were ACKed but hit an error downstream.
func startReverifyWorker(ctx context.Context, cfg *config.PaymentConfig, txRepo domain.TransactionRepository, uc reconcile.ReconcileUsecase) {
	ticker := time.NewTicker(time.Duration(cfg.Reverify.IntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Duration(cfg.Reverify.StaleAfter) * time.Second)
			stale, err := txRepo.FindStalePending(cutoff, cfg.Reverify.BatchSize)
			if err != nil {
				slog.Error("stale payment sweep failed", "error", err.Error())
				continue
			}
			for _, tx := range stale {
				if _, err := uc.VerifyPayment(ctx, tx.Reference); err != nil &&
					!errors.Is(err, domain.ErrAlreadyFinalized) {
					slog.Warn("stale payment re-verify failed", "reference", tx.Reference, "error", err.Error())
				}
			}
		}
	}
}
