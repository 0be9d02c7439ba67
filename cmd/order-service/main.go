package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/client"
	"github.com/mwaf/smartstock/internal/config"
	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/discovery"
	"github.com/mwaf/smartstock/internal/handlers"
	"github.com/mwaf/smartstock/internal/messaging"
	"github.com/mwaf/smartstock/internal/publisher"
)

const (
	serviceName = "order-service"
	serviceID   = "order-service-1"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadOrderService()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.NewPostgresDB(cfg.Postgres.DSN(), log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URL(), log)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	productServiceURL := cfg.ProductServiceURL
	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, log)
		if err != nil {
			log.Fatalf("Failed to connect to Consul: %v", err)
		}

		if url, err := consul.GetServiceURL("product-service"); err == nil {
			productServiceURL = url
		} else {
			log.WithError(err).Warn("product service not found in Consul, using configured URL")
		}

		err = consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: cfg.HTTPPort,
			Tags: []string{"api", "orders"},
		})
		if err != nil {
			log.Fatalf("Failed to register service: %v", err)
		}

		go func() {
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan
			log.Info("shutting down")
			consul.Deregister(serviceID)
			os.Exit(0)
		}()
	}

	productClient := client.NewProductClient(productServiceURL)
	orderRepo := db.NewOrderRepository(database)
	orderHandler := handlers.NewOrderHandler(orderRepo, productClient, orderPublisher, log)

	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)
	router.GET("/orders", orderHandler.ListOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.GET("/orders/byCustomer/:customerId", orderHandler.GetOrdersByCustomer)
	router.POST("/orders", orderHandler.PlaceOrder)
	router.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)

	log.Infof("%s starting on :%d", serviceName, cfg.HTTPPort)
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
