package main

import (
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli"

	"github.com/cerjey13/rifa/internal/config"
	"github.com/cerjey13/rifa/internal/kiosk"
	"github.com/cerjey13/rifa/internal/services"
)

func main() {
	app := cli.NewApp()
	app.Name = "kiosk"
	app.Usage = "terminal storefront for the raffle"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "config.yaml",
			Usage: "path to the configuration file",
		},
		cli.BoolFlag{
			Name:  "standalone",
			Usage: "run against an in-process raffle instead of a server",
		},
		cli.StringFlag{
			Name:  "server",
			Usage: "raffle server URL (overrides the config file)",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("kiosk: %v", err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("standalone") {
		cfg.Kiosk.Standalone = true
	}
	if url := c.String("server"); url != "" {
		cfg.Kiosk.ServerURL = url
	}

	if cfg.Server.Verbose {
		if cfg.Kiosk.Standalone {
			log.Printf("[MAIN] Kiosk starting in standalone mode")
		} else {
			log.Printf(
				"[MAIN] Kiosk starting against %s", cfg.Kiosk.ServerURL,
			)
		}
	}

	service, err := services.CreateService(cfg)
	if err != nil {
		return fmt.Errorf("failed to create raffle service: %v", err)
	}

	model := kiosk.New(
		service, cfg.Raffle.MinQuantity, cfg.Raffle.MaxQuantity,
	)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("kiosk terminated: %v", err)
	}
	return nil
}
