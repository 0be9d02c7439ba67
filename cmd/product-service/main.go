package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/alerts"
	"github.com/mwaf/smartstock/internal/cache"
	"github.com/mwaf/smartstock/internal/config"
	"github.com/mwaf/smartstock/internal/consumer"
	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/discovery"
	"github.com/mwaf/smartstock/internal/handlers"
	"github.com/mwaf/smartstock/internal/messaging"
)

const (
	serviceName = "product-service"
	serviceID   = "product-service-1"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadProductService()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.NewPostgresDB(cfg.Postgres.DSN(), log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	redisCache, err := cache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.TTL, log)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ.URL(), log)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	if err := rabbitMQ.DeclareQueue(messaging.InventoryOrderPlaced); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}

	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, log)
		if err != nil {
			log.Fatalf("Failed to connect to Consul: %v", err)
		}

		err = consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: cfg.HTTPPort,
			Tags: []string{"api", "products"},
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

	productRepo := db.NewProductRepository(database)
	cachedRepo := db.NewCachedProductRepository(productRepo, redisCache, log)
	adminRepo := db.NewAdminNotificationRepository(database)
	lowStock := alerts.NewLowStockNotifier(adminRepo, productRepo, cfg.LowStockThreshold, log)

	go startInventoryConsumer(rabbitMQ, cachedRepo, lowStock, log)

	productHandler := handlers.NewProductHandler(cachedRepo, lowStock, log)
	adminHandler := handlers.NewAdminNotificationHandler(adminRepo, lowStock, log)

	router := gin.Default()

	router.GET("/health", productHandler.HealthCheck)
	router.GET("/products", productHandler.ListProducts)
	router.GET("/products/:id", productHandler.GetProduct)
	router.POST("/products", productHandler.CreateProduct)
	router.DELETE("/products/:id", productHandler.DeleteProduct)
	router.PATCH("/products/:id/restock", productHandler.RestockProduct)
	router.PUT("/products/:id/reduceStock", productHandler.ReduceStock)

	router.GET("/admin/notifications", adminHandler.List)
	router.PATCH("/admin/notifications/:id/read", adminHandler.MarkRead)
	router.GET("/admin/notifications/unread-count", adminHandler.UnreadCount)
	router.POST("/admin/notifications/recheck", adminHandler.Recheck)

	log.Infof("%s starting on :%d", serviceName, cfg.HTTPPort)
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func startInventoryConsumer(mq *messaging.RabbitMQ, store consumer.StockStore, lowStock consumer.LowStockPolicy, log *logrus.Logger) {
	messages, err := mq.Consume(messaging.InventoryOrderPlaced.Queue)
	if err != nil {
		log.Fatalf("Failed to consume messages: %v", err)
	}

	inventoryConsumer := consumer.NewInventoryConsumer(store, lowStock, log)
	consumer.Run(context.Background(), messages, messaging.InventoryOrderPlaced.Queue, inventoryConsumer.HandleOrderPlaced, log)
}
