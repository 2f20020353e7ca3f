package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"

	"github.com/Odenfis/sedimApp/internal/log"
)

const (
	backupPrefix     = "equipment-"
	backupSuffix     = ".json"
	backupTimeLayout = "20060102-150405.000"
)

// Snapshotter writes a consistent copy of the equipment document
type Snapshotter interface {
	Snapshot(ctx context.Context, w io.Writer) error
}

// BackupScheduler copies the equipment document into a backup directory on
// a cron schedule and keeps the newest copies.
type BackupScheduler struct {
	mu      sync.Mutex
	source  Snapshotter
	dir     string
	spec    string
	keep    int
	cron    *cron.Cron
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

// NewBackupScheduler creates a scheduler writing into dir. keep < 1 keeps
// every backup.
func NewBackupScheduler(source Snapshotter, dir, spec string, keep int) *BackupScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &BackupScheduler{
		source: source,
		dir:    dir,
		spec:   strings.TrimSpace(spec),
		keep:   keep,
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}
}

// Start registers the cron job. An invalid spec is returned as an error.
func (s *BackupScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return nil
	}

	c := cron.New()
	id, err := c.AddFunc(s.spec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.spec, err)
	}
	s.cron = c
	c.Start()

	log.Info("Backup scheduler started", "schedule", s.spec, "dir", s.dir, "next", c.Entry(id).Next)
	return nil
}

// Stop cancels pending work and waits for a running backup to finish
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	s.cancel()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Info("Backup scheduler stopped")
}

func (s *BackupScheduler) runScheduled() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn("Previous backup still running, skipping")
		return
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if _, err := s.RunOnce(s.ctx); err != nil {
		log.Error("Scheduled backup failed", "error", err)
	}
}

// RunOnce writes one backup and prunes old ones. It returns the backup path.
func (s *BackupScheduler) RunOnce(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	start := time.Now()
	name := backupPrefix + s.now().UTC().Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "."+name+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating backup file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := s.source.Snapshot(ctx, tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing backup: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming backup: %w", err)
	}

	var size uint64
	if info, err := os.Stat(path); err == nil {
		size = uint64(info.Size())
	}
	log.Info("Backup written", "path", path, "size", humanize.Bytes(size), "duration", time.Since(start).String())

	if err := s.prune(); err != nil {
		log.Warn("Failed to prune old backups", "error", err)
	}
	return path, nil
}

// Backups lists backup files, oldest first
func (s *BackupScheduler) Backups() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) || !strings.HasSuffix(e.Name(), backupSuffix) {
			continue
		}
		names = append(names, e.Name())
	}
	// the timestamp layout sorts lexically
	sort.Strings(names)
	return names, nil
}

func (s *BackupScheduler) prune() error {
	if s.keep < 1 {
		return nil
	}
	names, err := s.Backups()
	if err != nil {
		return err
	}
	for len(names) > s.keep {
		if err := os.Remove(filepath.Join(s.dir, names[0])); err != nil {
			return err
		}
		log.Debug("Backup pruned", "name", names[0])
		names = names[1:]
	}
	return nil
}
