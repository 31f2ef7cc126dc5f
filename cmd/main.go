package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unahshop/orders-service-go/internal/cartclient"
	"github.com/unahshop/orders-service-go/internal/config"
	"github.com/unahshop/orders-service-go/internal/db"
	"github.com/unahshop/orders-service-go/internal/events"
	httpserver "github.com/unahshop/orders-service-go/internal/http"
	"github.com/unahshop/orders-service-go/internal/order"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[orders-service] ", log.LstdFlags|log.Lshortfile)

	// DB
	dsn := db.GetDSN()
	if err := db.RunMigrations(dsn, logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	database := db.MustOpen()
	orderRepo := order.NewRepository(database)

	// Cart service
	carts := cartclient.New(cfg.CartServiceURL, cfg.CartTimeout)

	// RabbitMQ (optional)
	var publisher order.EventPublisher
	if cfg.RabbitURL != "" {
		rabbitConn := events.MustDialRabbit()
		defer rabbitConn.Close()

		pub, err := events.NewPublisher(rabbitConn)
		if err != nil {
			logger.Fatalf("create publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	svc := order.NewService(orderRepo, carts, publisher, logger)

	// HTTP
	mux := httpserver.NewRouter(svc)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		logger.Printf("orders-service listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
