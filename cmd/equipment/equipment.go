package equipment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/paularlott/cli"
	"gopkg.in/yaml.v3"

	"github.com/Odenfis/sedimApp/internal/config"
	"github.com/Odenfis/sedimApp/internal/equipment"
	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/worker"
)

// Commands returns the equipment document commands
func Commands() []*cli.Command {
	return []*cli.Command{
		showCommand(),
		backupCommand(),
	}
}

func openStore(cmd *cli.Command) (*equipment.DocumentStore, *config.Config, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := equipment.Open(cfg.StorageBackend, cfg.EquipmentPath())
	return store, cfg, err
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:        "show",
		Usage:       "Print the equipment document",
		Description: "Print every area, location and computer in the stored document",
		Flags: append(config.StorageFlags(),
			&cli.StringFlag{
				Name:         "format",
				Usage:        "Output format (json, yaml)",
				DefaultValue: "json",
			},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, _, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			doc, err := store.Load(ctx)
			if err != nil {
				return err
			}
			return Print(os.Stdout, doc, cmd.GetString("format"))
		},
	}
}

func backupCommand() *cli.Command {
	return &cli.Command{
		Name:        "backup",
		Usage:       "Write a backup of the equipment document now",
		Description: "Copy the equipment document into <data-dir>/backups and prune old copies",
		Flags: append(config.StorageFlags(),
			&cli.IntFlag{
				Name:         "keep",
				Usage:        "Number of backups to keep (0 keeps all)",
				DefaultValue: 7,
			},
		),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, cfg, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			b := worker.NewBackupScheduler(store, cfg.BackupDir(), "", cmd.GetInt("keep"))
			path, err := b.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}
}

// Print writes doc to w as indented JSON or as YAML
func Print(w io.Writer, doc *model.Document, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
