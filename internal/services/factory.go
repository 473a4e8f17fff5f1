package services

import (
	"github.com/cerjey13/rifa/internal/config"
	"github.com/cerjey13/rifa/internal/interfaces"
	"github.com/cerjey13/rifa/internal/services/mock"
	"github.com/cerjey13/rifa/internal/services/real"
)

// CreateService creates the raffle service implementation matching the
// configuration: an in-process mock in standalone mode, an HTTP client
// against the configured server URL otherwise.
func CreateService(cfg *config.ParsedConfig) (interfaces.RaffleService, error) {
	if cfg.Kiosk.Standalone {
		return mock.NewMockRaffle(cfg.Server.Verbose), nil
	}
	return real.NewRealRaffle(cfg.Kiosk.ServerURL, cfg.Server.Verbose)
}
