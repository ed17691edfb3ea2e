package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tienda-escolar/shop-service/internal/clients"
	"github.com/tienda-escolar/shop-service/internal/config"
	"github.com/tienda-escolar/shop-service/internal/events"
	"github.com/tienda-escolar/shop-service/internal/handlers"
	"github.com/tienda-escolar/shop-service/internal/logging"
	"github.com/tienda-escolar/shop-service/internal/metrics"
	"github.com/tienda-escolar/shop-service/internal/repository"
	"github.com/tienda-escolar/shop-service/internal/server"
	"github.com/tienda-escolar/shop-service/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	cfg := config.Load()
	logger := logging.New("shop-service")

	db, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}
	defer db.Close()

	productRepo := repository.NewPostgresProductRepository(db, logger)
	cartRepo := repository.NewPostgresCartRepository(db, logger)
	orderRepo := repository.NewPostgresOrderRepository(db, logger)
	orderCache := repository.NewRedisOrderCache(cfg.Redis)

	paymentClient := clients.NewHTTPPaymentClient(cfg.PaymentProvider, logger)
	notificationClient := clients.NewHTTPNotificationClient(cfg.Notifications, logger)

	eventPublisher := events.NewKafkaPublisher(cfg.Kafka, logger)
	defer eventPublisher.Close()

	m := metrics.New()

	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo, m)
	orderService := service.NewOrderService(
		orderRepo,
		cartRepo,
		productRepo,
		orderCache,
		notificationClient,
		eventPublisher,
		m,
		cfg,
	)
	paymentService := service.NewPaymentService(orderService, paymentClient, m, cfg)
	statsService := service.NewStatsService(orderRepo, productRepo, cfg)

	h := handlers.NewHandlers(productService, cartService, orderService, paymentService, statsService, cfg)
	srv := server.NewServer(cfg, h, m, db)

	go func() {
		logger.Info("Server starting", logging.Fields{"port": cfg.Server.Port})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var consumer *events.KafkaConsumer
	if cfg.Features.EnablePaymentConsumer {
		consumer = events.NewKafkaConsumer(cfg.Kafka, paymentService, logger)
		go func() {
			if err := consumer.Start(context.Background()); err != nil {
				logger.Error("Payment consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if consumer != nil {
		consumer.Stop()
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited", nil)
}

func initDatabase(cfg *config.Config, logger *logging.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})
	return db, nil
}
