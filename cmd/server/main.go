package main

import (
	"log"

	"github.com/cerjey13/rifa/internal/auth"
	"github.com/cerjey13/rifa/internal/config"
	"github.com/cerjey13/rifa/internal/models"
	"github.com/cerjey13/rifa/internal/notify"
	"github.com/cerjey13/rifa/internal/server"
	"github.com/cerjey13/rifa/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.Verbose {
		log.Printf("[MAIN] Raffle server starting...")
		log.Printf("[MAIN] Configuration loaded from: config.yaml")
		log.Printf("[MAIN] Server port: %d", cfg.Server.Port)
		log.Printf(
			"[MAIN] Purchase bounds: %d-%d tickets",
			cfg.Raffle.MinQuantity, cfg.Raffle.MaxQuantity,
		)
		log.Printf("[MAIN] Notify webhook: %q", cfg.Notify.WebhookURL)
	}

	// Initialize storage with the fallback prices
	store := storage.NewMemoryStorage(models.Prices{
		MontoBs:  cfg.Raffle.FallbackPriceBs,
		MontoUsd: cfg.Raffle.FallbackPriceUsd,
	}, cfg.Server.Verbose)

	// Seed the configured admin account
	if cfg.Admin.Email != "" {
		hashed, err := auth.HashPassword(cfg.Admin.Password)
		if err != nil {
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		admin := &models.User{
			Name:     "Administrator",
			Email:    cfg.Admin.Email,
			Phone:    "",
			Role:     models.RoleAdmin,
			Password: hashed,
		}
		if err := store.CreateUser(admin); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	// Initialize sessions
	sessions, err := auth.NewSessions(
		cfg.Server.SessionSecret, cfg.Server.SecureCookies,
	)
	if err != nil {
		log.Fatalf("Failed to initialize sessions: %v", err)
	}

	// Initialize the notification client
	notifier := notify.NewClient(
		cfg.Notify.WebhookURL,
		cfg.NotifyTimeout,
		cfg.Notify.MaxRetries,
		cfg.Server.Verbose,
	)

	// Initialize and start server
	srv := server.NewServer(store, sessions, notifier, server.Options{
		MinQuantity: cfg.Raffle.MinQuantity,
		MaxQuantity: cfg.Raffle.MaxQuantity,
		Verbose:     cfg.Server.Verbose,
	})

	log.Printf(
		"[MAIN] Raffle server ready - listening on port %d", cfg.Server.Port,
	)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
