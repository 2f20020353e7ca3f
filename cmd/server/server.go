package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Odenfis/sedimApp/internal/api"
	"github.com/Odenfis/sedimApp/internal/auth"
	"github.com/Odenfis/sedimApp/internal/config"
	"github.com/Odenfis/sedimApp/internal/equipment"
	"github.com/Odenfis/sedimApp/internal/log"
	"github.com/Odenfis/sedimApp/internal/storage"
	"github.com/Odenfis/sedimApp/internal/ui"
	"github.com/Odenfis/sedimApp/internal/worker"
	"github.com/paularlott/cli"
)

const (
	shutdownTimeout    = 10 * time.Second
	sessionPrunePeriod = time.Hour
)

// ServerConfig holds everything needed to run the server
type ServerConfig struct {
	Config     *config.Config
	Equipment  *equipment.DocumentStore
	Store      storage.Storage
	APIHandler *api.Handler
	Sessions   *auth.SessionManager
	Backups    *worker.BackupScheduler
}

// NewMux wires the API routes and the embedded UI into one handler
func NewMux(h *api.Handler) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.Handle("/", ui.AssetHandler())
	return api.Chain(mux)
}

// RunServer serves until ctx is cancelled or SIGINT/SIGTERM arrives
func RunServer(ctx context.Context, cfg *ServerConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backups != nil {
		if err := cfg.Backups.Start(); err != nil {
			return err
		}
		defer cfg.Backups.Stop()
	}

	if cfg.Sessions != nil {
		go pruneSessions(ctx, cfg.Sessions)
	}

	server := &http.Server{
		Addr:              cfg.Config.ListenAddr,
		Handler:           NewMux(cfg.APIHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting Sedim server", "addr", cfg.Config.ListenAddr)
		log.Info("Web UI available", "url", "http://localhost"+cfg.Config.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			log.Error("Server error", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		return err
	}

	log.Info("Server stopped")
	return nil
}

// pruneSessions drops expired session records at startup and then hourly
func pruneSessions(ctx context.Context, sessions *auth.SessionManager) {
	ticker := time.NewTicker(sessionPrunePeriod)
	defer ticker.Stop()

	for {
		if _, err := sessions.Prune(); err != nil {
			log.Warn("Session pruning failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func Command() *cli.Command {
	return &cli.Command{
		Name:        "server",
		Usage:       "Start the Sedim server",
		Description: "Start the HTTP server with the web UI and the JSON API",
		Flags:       config.GetFlags(),
		Run: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadServer(cmd)
			if err != nil {
				log.Error("Invalid configuration", "error", err)
				return err
			}
			log.Info("Configuration loaded", "data_dir", cfg.DataDir, "listen_addr", cfg.ListenAddr, "storage", cfg.String())

			eq, err := equipment.Open(cfg.StorageBackend, cfg.EquipmentPath())
			if err != nil {
				log.Error("Failed to open equipment store", "error", err)
				return err
			}
			defer eq.Close()
			log.Info("Equipment store initialized", "backend", eq.Backend(), "path", cfg.EquipmentPath())

			store, err := storage.NewSQLiteStorage(ctx, cfg.Database)
			if err != nil {
				log.Error("Failed to initialize storage", "error", err)
				return err
			}
			defer store.Close()

			if version, err := store.SchemaVersion(); err == nil {
				log.Info("Storage initialized", "backend", "SQLite", "path", cfg.Database, "schema", version)
			}

			if users, err := store.ListUsers(ctx); err == nil && len(users) == 0 {
				log.Warn("No users exist yet; create one with 'sedim user create'")
			}

			sessions, err := auth.NewSessionManager(auth.SessionConfig{
				Secret: cfg.SessionSecret,
				Secure: cfg.CookieSecure,
				Dir:    cfg.SessionDir(),
			})
			if err != nil {
				log.Error("Failed to initialize sessions", "error", err)
				return err
			}

			var backups *worker.BackupScheduler
			if cfg.BackupSchedule != "" {
				backups = worker.NewBackupScheduler(eq, cfg.BackupDir(), cfg.BackupSchedule, cfg.BackupKeep)
			} else {
				log.Info("Equipment backups disabled")
			}

			return RunServer(ctx, &ServerConfig{
				Config:     cfg,
				Equipment:  eq,
				Store:      store,
				APIHandler: api.NewHandler(eq, store, sessions, api.WithTrustProxy(cfg.TrustProxy)),
				Sessions:   sessions,
				Backups:    backups,
			})
		},
	}
}
