package main

import (
	"context"
	"os"

	"github.com/Odenfis/sedimApp/cmd/equipment"
	"github.com/Odenfis/sedimApp/cmd/product"
	"github.com/Odenfis/sedimApp/cmd/server"
	"github.com/Odenfis/sedimApp/cmd/user"
	"github.com/Odenfis/sedimApp/internal/log"
	"github.com/paularlott/cli"
	"github.com/paularlott/cli/env"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env file if it exists
	env.Load()

	log.Configure("info", "console")
	defer log.Sync()

	rootCmd := &cli.Command{
		Name:        "sedim",
		Version:     version,
		Usage:       "Equipment inventory and price management",
		Description: "Web application to track computers by area and location and to maintain product price tiers (build " + commit + ", " + date + ")",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:         "log-level",
				Usage:        "Log level (trace, debug, info, warn, error)",
				DefaultValue: "info",
				EnvVars:      []string{"SEDIM_LOG_LEVEL"},
				Global:       true,
			},
			&cli.StringFlag{
				Name:         "log-format",
				Usage:        "Log format (console, json)",
				DefaultValue: "console",
				EnvVars:      []string{"SEDIM_LOG_FORMAT"},
				Global:       true,
			},
		},
		PreRun: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			log.Configure(cmd.GetString("log-level"), cmd.GetString("log-format"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			server.Command(),
			{
				Name:        "user",
				Usage:       "Login account commands",
				Description: "Manage web login accounts",
				Commands:    user.Commands(),
			},
			{
				Name:        "equipment",
				Usage:       "Equipment document commands",
				Description: "Inspect and back up the equipment document",
				Commands:    equipment.Commands(),
			},
			{
				Name:        "product",
				Usage:       "Product catalogue commands",
				Description: "Maintain the products whose prices are edited in the web UI",
				Commands:    product.Commands(),
			},
		},
	}

	if err := rootCmd.Execute(context.Background()); err != nil {
		log.Error("Command execution failed", "error", err)
		log.Sync()
		os.Exit(1)
	}
}
