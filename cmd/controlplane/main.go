package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"goprove/adapters/api"
	"goprove/adapters/postgres/migrations"
	"goprove/internal/config"
	"goprove/internal/container"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create container: %v", err)
	}

	if cfg.Database.URL != "" {
		db, err := initDatabase(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		if err := c.InitWithDatabase(db); err != nil {
			log.Fatalf("Failed to wire repositories: %v", err)
		}
		c.Logger.Info("using postgres-backed store")
	} else {
		c.InitInMemory()
		c.Logger.Warn("DATABASE_URL not set, using in-memory store")
	}

	server := api.NewServer(c.ControlPlane, c.Ledger, c.Logger)
	addr := ":" + cfg.Server.Port
	c.Logger.Info("query API listening on %s", addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func initDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	migrator := migrations.NewMigrator(db.DB)
	if err := migrator.Up(context.Background()); err != nil {
		return nil, err
	}
	return db, nil
}
