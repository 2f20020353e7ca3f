package user

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/go-playground/validator/v10"
	"github.com/paularlott/cli"
	"golang.org/x/term"

	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/config"
	"github.com/Odenfis/sedimApp/internal/model"
	"github.com/Odenfis/sedimApp/internal/storage"
)

var validate = validator.New()

// Commands returns the user management commands
func Commands() []*cli.Command {
	return []*cli.Command{
		createCommand(),
		listCommand(),
		deleteCommand(),
		resetPasswordCommand(),
	}
}

func openStorage(ctx context.Context, cmd *cli.Command) (*storage.SQLiteStorage, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return nil, err
	}
	return storage.NewSQLiteStorage(ctx, cfg.Database)
}

func createCommand() *cli.Command {
	return &cli.Command{
		Name:        "create",
		Usage:       "Create a login account",
		Description: "Create a web login account in the database",
		Flags: append(config.StorageFlags(),
			&cli.StringFlag{Name: "name", Usage: "Display name"},
			&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)"},
		),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			password, err := passwordFrom(cmd, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			u, err := CreateUser(ctx, store, model.NewUserRequest{
				Username: cmd.GetStringArg("username"),
				Password: password,
				Name:     cmd.GetString("name"),
			})
			if err != nil {
				return err
			}

			fmt.Printf("User %s created (id %d)\n", u.Username, u.ID)
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:        "list",
		Usage:       "List login accounts",
		Description: "List every web login account",
		Flags:       config.StorageFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			users, err := store.ListUsers(ctx)
			if err != nil {
				return err
			}
			return printUsers(os.Stdout, users)
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Usage:       "Delete a login account",
		Description: "Delete a web login account by username",
		Flags:       config.StorageFlags(),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			username := cmd.GetStringArg("username")
			u, err := store.GetUserByUsername(ctx, username)
			if err != nil {
				return fmt.Errorf("user %s: %w", username, err)
			}
			if err := store.DeleteUser(ctx, u.ID); err != nil {
				return err
			}

			fmt.Printf("User %s deleted\n", username)
			return nil
		},
	}
}

func resetPasswordCommand() *cli.Command {
	return &cli.Command{
		Name:        "reset-password",
		Usage:       "Set a new password for an account",
		Description: "Replace the password of an existing web login account",
		Flags: append(config.StorageFlags(),
			&cli.StringFlag{Name: "password", Usage: "New password (prompted when omitted)"},
		),
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "username", Required: true},
		},
		Run: func(ctx context.Context, cmd *cli.Command) error {
			store, err := openStorage(ctx, cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			password, err := passwordFrom(cmd, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			username := cmd.GetStringArg("username")
			if err := ResetPassword(ctx, store, username, password); err != nil {
				return err
			}

			fmt.Printf("Password for %s updated\n", username)
			return nil
		},
	}
}

// CreateUser validates req, hashes the password and stores the account
func CreateUser(ctx context.Context, users storage.UserStorage, req model.NewUserRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: req.Username, Name: req.Name, PasswordHash: hash}
	if err := users.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return nil, fmt.Errorf("user %s already exists", req.Username)
		}
		return nil, err
	}
	return u, nil
}

// ResetPassword replaces the password hash of an existing account
func ResetPassword(ctx context.Context, users storage.UserStorage, username, password string) error {
	if err := validate.Var(password, "required,min=4,max=72"); err != nil {
		return fmt.Errorf("invalid password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	if err := users.UpdatePassword(ctx, username, hash); err != nil {
		return fmt.Errorf("user %s: %w", username, err)
	}
	return nil
}

// passwordFrom returns --password, or reads one from in. A terminal gets a
// hidden prompt; anything else is read as a single line.
func passwordFrom(cmd *cli.Command, in *os.File, out io.Writer) (string, error) {
	if p := cmd.GetString("password"); p != "" {
		return p, nil
	}

	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return readLine(in)
	}

	fmt.Fprint(out, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printUsers(w io.Writer, users []model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSUARIO\tNOMBRE")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", u.ID, u.Username, u.Name)
	}
	return tw.Flush()
}
