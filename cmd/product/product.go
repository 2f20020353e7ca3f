package product

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/paularlott/cli"
	"gopkg.in/yaml.v3"

	"github.com/Odenfis/sedimApp/internal/config"
	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

var validate = validator.New()

// Commands returns the product catalogue commands
func Commands() []*cli.Command {
	return []*cli.Command{
		addCommand(),
		getCommand(),
		importCommand(),
	}
}

func openStorage(ctx context.Context, cmd *cli.Command) (*storage.SQLiteStorage, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStorage(ctx, cfg.Database)
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:        "add",
		Usage:       "Add or update a product",
		Description: "Insert a catalogue entry, or update it when the code already exists",
		Flags: append(config.StorageFlags(),
			&cli.StringFlag{Name: "name", Usage: "Product name", Required: true},
			&cli.IntFlag{Name: "type", Usage: "Product type (3 has editable prices)", DefaultValue: model.ProductTypeSale},
			&cli.BoolFlag{Name: "deleted", Usage: "Mark the product as deleted"},
		),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "codpro", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			p := model.Product{
				CodPro:    strings.TrimSpace(cmd.GetStringArg("codpro")),
				Nombre:    cmd.GetString("name"),
				Tipo:      cmd.GetInt("type"),
				Eliminado: cmd.GetBool("deleted"),
			}
			if err := SaveProducts(ctx, store, []model.Product{p}); err != nil {
				return err
			}
			fmt.Printf("Product %s saved\n", p.CodPro)
			return nil
		},
	}
}

func getCommand() *cli.Command {
	return &cli.Command{
		Name:        "get",
		Usage:       "Show a product",
		Description: "Print one catalogue entry",
		Flags:       config.StorageFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "codpro", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			p, err := store.GetProduct(ctx, cmd.GetStringArg("codpro"))
			if err != nil {
				return err
			}
			fmt.Printf("%s\t%s\ttipo=%d\teliminado=%v\n", p.CodPro, p.Nombre, p.Tipo, p.Eliminado)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:        "import",
		Usage:       "Load products from a YAML file",
		Description: "Upsert every product listed in a YAML file (a list of CodPro/Nombre/Tipo/Eliminado entries)",
		Flags:       config.StorageFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			data, err := os.ReadFile(cmd.GetStringArg("file"))
			if err != nil {
				return err
			}
			products, err := ParseProducts(data)
			if err != nil {
				return err
			}

			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := SaveProducts(ctx, store, products); err != nil {
				return err
			}
			fmt.Printf("%d products imported\n", len(products))
			return nil
		},
	}
}

// ParseProducts reads a YAML list of products. Tipo defaults to the sale type.
func ParseProducts(data []byte) ([]model.Product, error) {
	var raw []struct {
		CodPro    string `yaml:"CodPro"`
		Nombre    string `yaml:"Nombre"`
		Tipo      *int   `yaml:"Tipo"`
		Eliminado bool   `yaml:"Eliminado"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing products: %w", err)
	}

	products := make([]model.Product, 0, len(raw))
	for _, r := range raw {
		p := model.Product{
			CodPro:    strings.TrimSpace(r.CodPro),
			Nombre:    r.Nombre,
			Tipo:      model.ProductTypeSale,
			Eliminado: r.Eliminado,
		}
		if r.Tipo != nil {
			p.Tipo = *r.Tipo
		}
		products = append(products, p)
	}
	return products, nil
}

// SaveProducts validates every product before writing any of them
func SaveProducts(ctx context.Context, store storage.ProductStorage, products []model.Product) error {
	for i := range products {
		if err := validate.Struct(products[i]); err != nil {
			return fmt.Errorf("product %d (%q): %w", i+1, products[i].CodPro, err)
		}
	}
	for i := range products {
		if err := store.UpsertProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	return nil
}
