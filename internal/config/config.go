package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paularlott/cli"
)

const (
	BackendFile = "file"
	BackendBolt = "bolt"

	defaultDataDir    = "./data"
	defaultListenAddr = ":3000"
	defaultBackupKeep = 7
)

// Config holds the application configuration
type Config struct {
	DataDir        string
	DataFile       string // JSON document, file backend only
	StorageBackend string // "file" or "bolt" (default: "file")
	Database       string // SQLite path for users and prices
	ListenAddr     string
	SessionSecret  string
	CookieSecure   bool
	TrustProxy     bool   // take the client IP from X-Forwarded-For / X-Real-IP
	BackupSchedule string // cron spec, empty disables backups
	BackupKeep     int    // newest backups kept, 0 keeps all
}

// StorageFlags returns the flags every command that opens a store needs
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:         "data-dir",
			Usage:        "Data directory",
			DefaultValue: defaultDataDir,
			EnvVars:      []string{"SEDIM_DATA_DIR"},
		},
		&cli.StringFlag{
			Name:    "data-file",
			Usage:   "Equipment JSON file (default <data-dir>/data.json)",
			EnvVars: []string{"SEDIM_DATA_FILE"},
		},
		&cli.StringFlag{
			Name:         "storage-backend",
			Usage:        "Equipment storage backend (file, bolt)",
			DefaultValue: BackendFile,
			EnvVars:      []string{"SEDIM_STORAGE_BACKEND"},
		},
		&cli.StringFlag{
			Name:    "database",
			Usage:   "SQLite database for users and prices (default <data-dir>/sedim.db)",
			EnvVars: []string{"SEDIM_DATABASE"},
		},
	}
}

// GetFlags returns the server flags
func GetFlags() []cli.Flag {
	return append(StorageFlags(),
		&cli.StringFlag{
			Name:    "listen",
			Usage:   "Server listen address (default :3000, or :$PORT)",
			EnvVars: []string{"SEDIM_LISTEN"},
		},
		&cli.StringFlag{
			Name:    "session-secret",
			Usage:   "Secret used to sign session cookies",
			EnvVars: []string{"SEDIM_SESSION_SECRET", "SESSION_SECRET"},
		},
		&cli.BoolFlag{
			Name:    "cookie-secure",
			Usage:   "Mark the session cookie Secure (HTTPS only)",
			EnvVars: []string{"SEDIM_COOKIE_SECURE"},
		},
		&cli.BoolFlag{
			Name:    "trust-proxy",
			Usage:   "Take the client IP from X-Forwarded-For/X-Real-IP (only behind a reverse proxy)",
			EnvVars: []string{"SEDIM_TRUST_PROXY"},
		},
		&cli.StringFlag{
			Name:    "backup-schedule",
			Usage:   "Cron schedule for equipment backups, empty disables",
			EnvVars: []string{"SEDIM_BACKUP_SCHEDULE"},
		},
		&cli.IntFlag{
			Name:         "backup-keep",
			Usage:        "Number of equipment backups to keep",
			DefaultValue: defaultBackupKeep,
			EnvVars:      []string{"SEDIM_BACKUP_KEEP"},
		},
	)
}

// Load reads the storage settings from the command's flags. Flag values
// already reflect the environment and any .env file loaded at startup.
func Load(cmd *cli.Command) (*Config, error) {
	cfg := &Config{
		DataDir:        cmd.GetString("data-dir"),
		DataFile:       cmd.GetString("data-file"),
		StorageBackend: cmd.GetString("storage-backend"),
		Database:       cmd.GetString("database"),
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadServer reads the storage settings plus the flags from GetFlags
func LoadServer(cmd *cli.Command) (*Config, error) {
	cfg := &Config{
		DataDir:        cmd.GetString("data-dir"),
		DataFile:       cmd.GetString("data-file"),
		StorageBackend: cmd.GetString("storage-backend"),
		Database:       cmd.GetString("database"),
		ListenAddr:     cmd.GetString("listen"),
		SessionSecret:  cmd.GetString("session-secret"),
		CookieSecure:   cmd.GetBool("cookie-secure"),
		TrustProxy:     cmd.GetBool("trust-proxy"),
		BackupSchedule: cmd.GetString("backup-schedule"),
		BackupKeep:     cmd.GetInt("backup-keep"),
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() error {
	c.DataDir = coalesce(strings.TrimSpace(c.DataDir), defaultDataDir)

	c.StorageBackend = coalesce(strings.ToLower(strings.TrimSpace(c.StorageBackend)), BackendFile)
	if c.StorageBackend != BackendFile && c.StorageBackend != BackendBolt {
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.StorageBackend, BackendFile, BackendBolt)
	}

	c.DataFile = coalesce(c.DataFile, filepath.Join(c.DataDir, "data.json"))
	c.Database = coalesce(c.Database, filepath.Join(c.DataDir, "sedim.db"))

	if c.ListenAddr == "" {
		if port := os.Getenv("PORT"); port != "" {
			c.ListenAddr = ":" + port
		} else {
			c.ListenAddr = defaultListenAddr
		}
	}

	c.BackupSchedule = strings.TrimSpace(c.BackupSchedule)
	return nil
}

// EquipmentPath returns the file or bbolt database holding the equipment document
func (c *Config) EquipmentPath() string {
	if c.StorageBackend == BackendBolt {
		return filepath.Join(c.DataDir, "equipment.db")
	}
	return c.DataFile
}

// BackupDir is where scheduled equipment backups are written
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// SessionDir holds the server-side session records
func (c *Config) SessionDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// String returns a short description of the storage layout
func (c *Config) String() string {
	return fmt.Sprintf("%s backend at %s, database %s", c.StorageBackend, c.EquipmentPath(), c.Database)
}

// coalesce returns the first non-empty string value
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
