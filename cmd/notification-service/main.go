package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/broadcast"
	"github.com/mwaf/smartstock/internal/client"
	"github.com/mwaf/smartstock/internal/config"
	"github.com/mwaf/smartstock/internal/consumer"
	"github.com/mwaf/smartstock/internal/db"
	"github.com/mwaf/smartstock/internal/discovery"
	"github.com/mwaf/smartstock/internal/handlers"
	"github.com/mwaf/smartstock/internal/mailer"
	"github.com/mwaf/smartstock/internal/messaging"
	"github.com/mwaf/smartstock/internal/notifier"
)

const (
	serviceName = "notification-service"
	serviceID   = "notification-service-1"
)

func main() {
	log := logrus.New()

	cfg, err := config.LoadNotificationService()
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

	queues := []messaging.QueueSpec{
		messaging.NotificationOrderPlaced,
		messaging.NotificationOrderStatus,
		messaging.NotificationUserRegistered,
	}
	for _, q := range queues {
		if err := rabbitMQ.DeclareQueue(q); err != nil {
			log.Fatalf("Failed to declare queue %s: %v", q.Queue, err)
		}
	}

	customerServiceURL := cfg.CustomerServiceURL
	if cfg.Consul.Enabled {
		consul, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port, log)
		if err != nil {
			log.Fatalf("Failed to connect to Consul: %v", err)
		}

		if url, err := consul.GetServiceURL("customer-service"); err == nil {
			customerServiceURL = url
		} else {
			log.WithError(err).Warn("customer service not found in Consul, using configured URL")
		}

		err = consul.Register(discovery.ServiceConfig{
			Name: serviceName,
			ID:   serviceID,
			Port: cfg.HTTPPort,
			Tags: []string{"api", "notifications"},
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

	notificationRepo := db.NewNotificationRepository(database)
	customerClient := client.NewCustomerClient(customerServiceURL)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	hub := broadcast.NewHub()

	service := notifier.NewService(notificationRepo, customerClient, smtpMailer, hub, cfg.FallbackEmail, log)
	notificationConsumer := consumer.NewNotificationConsumer(service, log)

	ctx := context.Background()
	startConsumer(ctx, rabbitMQ, messaging.NotificationOrderPlaced, notificationConsumer.HandleOrderPlaced, log)
	startConsumer(ctx, rabbitMQ, messaging.NotificationOrderStatus, notificationConsumer.HandleOrderStatusChanged, log)
	startConsumer(ctx, rabbitMQ, messaging.NotificationUserRegistered, notificationConsumer.HandleUserRegistered, log)

	notificationHandler := handlers.NewNotificationHandler(notificationRepo, hub, log)

	router := gin.Default()

	router.GET("/health", notificationHandler.HealthCheck)
	router.GET("/notifications", notificationHandler.ListByUser)
	router.GET("/notifications/unread-count", notificationHandler.UnreadCount)
	router.GET("/notifications/stream", notificationHandler.Stream)
	router.GET("/notifications/:id", notificationHandler.GetNotification)
	router.PATCH("/notifications/:id/read", notificationHandler.MarkRead)

	log.Infof("%s starting on :%d", serviceName, cfg.HTTPPort)
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func startConsumer(ctx context.Context, mq *messaging.RabbitMQ, spec messaging.QueueSpec, handler consumer.HandlerFunc, log *logrus.Logger) {
	messages, err := mq.Consume(spec.Queue)
	if err != nil {
		log.Fatalf("Failed to consume from %s: %v", spec.Queue, err)
	}

	go consumer.Run(ctx, messages, spec.Queue, handler, log)
}
