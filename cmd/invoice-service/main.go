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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"assessment-gateway/internal/config"
	"assessment-gateway/internal/invoice"
	invoiceapi "assessment-gateway/internal/invoice/api"
	"assessment-gateway/internal/logger"
	orderdb "assessment-gateway/internal/order/db"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New()
	defer log.Close()

	// --- PostgreSQL ---
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	defer sqldb.Close()

	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to Postgres: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	orderStore := &orderdb.DB{Bun: bunDB}
	mailer := invoice.NewSMTPMailer(cfg.Email, log)
	service := invoice.NewService(bunDB, orderStore, mailer, log)
	handler := invoiceapi.NewHandler(service, log)

	// --- Router ---
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/api/v1/invoices", handler.GenerateInvoice)
	r.GET("/health", handler.Health)

	server := &http.Server{
		Addr:    cfg.Invoice.Port,
		Handler: r,
	}

	go func() {
		log.Info("SERVER", "Invoice service running on "+cfg.Invoice.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutdown signal received. Cleaning up...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	log.Info("SERVER", "Server exited gracefully")
}
