package storage

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper deletes stored files older than the retention window. Conversion
// records are never touched, only the underlying files. Deletion failures are
// logged and skipped; a sweep never fails as a whole.
type Sweeper struct {
	files    *FileStore
	window   time.Duration
	interval time.Duration
	logger   zerolog.Logger
}

// NewSweeper creates a retention sweeper over the file store's areas.
func NewSweeper(files *FileStore, window, interval time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{files: files, window: window, interval: interval, logger: logger}
}

// Run sweeps on a fixed interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		}
	}
}

// Sweep removes files in both storage areas whose modification time is older
// than the retention window relative to now.
func (s *Sweeper) Sweep(now time.Time) {
	removed := 0
	for _, dir := range []string{s.files.UploadArea(), s.files.ConvertedArea()} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.logger.Error().Err(err).Str("dir", dir).Msg("sweep: read dir failed")
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("sweep: stat failed")
				continue
			}
			if now.Sub(info.ModTime()) <= s.window {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				s.logger.Warn().Err(err).Str("file", path).Msg("sweep: remove failed")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("sweep: stale files deleted")
	}
}
