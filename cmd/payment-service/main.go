package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"assessment-gateway/internal/analytics"
	"assessment-gateway/internal/config"
	"assessment-gateway/internal/database/migrations"
	"assessment-gateway/internal/invoice"
	gwkafka "assessment-gateway/internal/kafka"
	"assessment-gateway/internal/logger"
	"assessment-gateway/internal/order"
	orderapi "assessment-gateway/internal/order/api"
	orderdb "assessment-gateway/internal/order/db"
	"assessment-gateway/internal/outbox"
	outboxdb "assessment-gateway/internal/outbox/db"
	"assessment-gateway/internal/payment"
	paymentapi "assessment-gateway/internal/payment/api"
	paymentredis "assessment-gateway/internal/payment/redis"
	"assessment-gateway/internal/tokens"
	tokenapi "assessment-gateway/internal/tokens/api"
	tokendb "assessment-gateway/internal/tokens/db"
	"assessment-gateway/internal/tokens/qr"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()
	defer log.Close()

	ctx := context.Background()

	// --- PostgreSQL ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqldb := sql.OpenDB(connector)
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	defer redisClient.Close()

	// --- Kafka ---
	var publisher analytics.Publisher
	var producer *gwkafka.Producer
	if cfg.Kafka.Enabled {
		if err := gwkafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.PaymentEvents}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic bootstrap failed: %v", err))
		}
		producer = gwkafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.PaymentEvents)
		defer producer.Close()
		publisher = producer
	} else {
		log.Warn("KAFKA", "Kafka disabled, analytics events are stored only")
	}

	// --- Stores and services ---
	orderStore := &orderdb.DB{Bun: bunDB}
	tokenStore := &tokendb.DB{Bun: bunDB}
	taskStore := &outboxdb.DB{Bun: bunDB}

	qrGen := qr.NewGenerator(cfg.Tokens.QRSecret, cfg.Tokens.AccessBaseURL)
	tokenService := tokens.NewTokenService(tokenStore, qrGen, cfg.Tokens.TTL, log)
	analyticsService := analytics.NewService(bunDB, publisher, log)
	invoiceClient := invoice.NewClient(cfg.Invoice.BaseURL, &http.Client{Timeout: cfg.Invoice.Timeout})

	dispatcher := outbox.NewDispatcher(taskStore, tokenService, analyticsService, invoiceClient, cfg.Outbox.MaxAttempts, log)
	worker := outbox.NewWorker(dispatcher, cfg.Outbox.PollInterval, cfg.Outbox.BatchSize, log)

	guard := paymentredis.NewGuard(redisClient, cfg.Redis.IdempotencyTTL)
	paymentService := payment.NewService(orderStore, dispatcher, guard, log)
	orderService := order.NewOrderService(orderStore, tokenService, log)

	paymentHandler := paymentapi.NewHandler(paymentService, log)
	orderHandler := orderapi.NewHandler(orderService, log)
	tokenHandler := tokenapi.NewHandler(tokenService, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	worker.Start(workerCtx)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
	}))

	r.Post("/api/v1/payments/status", paymentHandler.UpdatePaymentStatus)
	r.Post("/api/v1/orders", orderHandler.CreateOrder)
	r.Get("/api/v1/orders", orderHandler.GetGuestOrders)
	r.Get("/api/v1/orders/{orderId}", orderHandler.GetOrder)
	r.Get("/api/v1/access/{token}", tokenHandler.CheckAccess)
	r.Get("/api/v1/access/{token}/qr", tokenHandler.AccessQR)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Payment service running on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received. Cleaning up...")

	cancelWorker()
	worker.Stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}
