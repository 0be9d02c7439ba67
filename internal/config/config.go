package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// All services read their settings from SMARTSTOCK_-prefixed environment
// variables; defaults match the local docker-compose setup.

type Postgres struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	User     string `default:"smartstock"`
	Password string `default:"smartstock123"`
	Database string `default:"smartstock"`
}

func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database,
	)
}

type RabbitMQ struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5672"`
	User     string `default:"guest"`
	Password string `default:"guest"`
}

func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.User, r.Password, r.Host, r.Port)
}

type Redis struct {
	Host string        `default:"localhost"`
	Port int           `default:"6379"`
	TTL  time.Duration `default:"5m"`
}

type Consul struct {
	Host    string `default:"localhost"`
	Port    int    `default:"8500"`
	Enabled bool   `default:"true"`
}

type SMTP struct {
	Host     string `default:"localhost"`
	Port     int    `default:"1025"`
	From     string `default:"no-reply@smartstock.com"`
	Username string
	Password string
}

type ProductService struct {
	HTTPPort          int `envconfig:"HTTP_PORT" default:"8081"`
	LowStockThreshold int `split_words:"true" default:"5"`
	Postgres          Postgres
	RabbitMQ          RabbitMQ
	Redis             Redis
	Consul            Consul
}

type OrderService struct {
	HTTPPort          int    `envconfig:"HTTP_PORT" default:"8082"`
	ProductServiceURL string `split_words:"true" default:"http://localhost:8081"`
	Postgres          Postgres
	RabbitMQ          RabbitMQ
	Consul            Consul
}

type NotificationService struct {
	HTTPPort           int    `envconfig:"HTTP_PORT" default:"8083"`
	CustomerServiceURL string `split_words:"true" default:"http://localhost:8084"`
	FallbackEmail      string `split_words:"true" default:"customer@example.com"`
	Postgres           Postgres
	RabbitMQ           RabbitMQ
	Consul             Consul
	SMTP               SMTP
}

func LoadProductService() (*ProductService, error) {
	var cfg ProductService
	if err := envconfig.Process("smartstock", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load product service config: %w", err)
	}
	return &cfg, nil
}

func LoadOrderService() (*OrderService, error) {
	var cfg OrderService
	if err := envconfig.Process("smartstock", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load order service config: %w", err)
	}
	return &cfg, nil
}

func LoadNotificationService() (*NotificationService, error) {
	var cfg NotificationService
	if err := envconfig.Process("smartstock", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load notification service config: %w", err)
	}
	return &cfg, nil
}
