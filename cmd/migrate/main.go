package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"

	"github.com/mwaf/smartstock/internal/config"
)

func main() {
	log := logrus.New()

	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		log.Fatal("usage: migrate <up|down|version>")
	}

	cfg, err := config.LoadProductService()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	pg := cfg.Postgres

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "file://migrations"
	}

	databaseURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pg.User, pg.Password, pg.Host, pg.Port, pg.Database)

	m, err := migrate.New(migrationsPath, databaseURL)
	if err != nil {
		log.Fatalf("Failed to create migrate instance: %v", err)
	}
	defer m.Close()

	switch args[0] {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no pending migrations")
			return
		}
		if err != nil {
			log.Fatalf("Migration up failed: %v", err)
		}
		log.Info("migrations applied")

	case "down":
		err = m.Steps(-1)
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to roll back")
			return
		}
		if err != nil {
			log.Fatalf("Migration down failed: %v", err)
		}
		log.Info("migration rolled back")

	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info("no migrations applied yet")
			return
		}
		if err != nil {
			log.Fatalf("Failed to get version: %v", err)
		}
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("current migration version")

	default:
		log.Fatalf("unknown command: %s", args[0])
	}
}
