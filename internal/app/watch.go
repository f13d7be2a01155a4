package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

// WatchConfig holds configuration options for Watch.
type WatchConfig struct {
	// DebounceDelay is the delay to wait after a change before rerunning.
	// Default: 500 milliseconds
	DebounceDelay time.Duration

	// RetryInitial and RetryMax bound the backoff used while the control
	// file's directory cannot be watched.
	RetryInitial time.Duration
	RetryMax     time.Duration
}

// DefaultWatchConfig returns a WatchConfig with sensible defaults.
func DefaultWatchConfig() WatchConfig {
	return WatchConfig{
		DebounceDelay: 500 * time.Millisecond,
		RetryInitial:  DefaultBackoffInitial,
		RetryMax:      DefaultBackoffMax,
	}
}

// Watch runs the control file once and then again every time it is
// written, until ctx is canceled. Runs never overlap: a change seen while
// a run is in progress schedules one more run after it. Aborted runs are
// logged and watching continues.
func (r *Runner) Watch(ctx context.Context, cfg WatchConfig) error {
	if r.config.ControlFile == "" {
		return domain.ErrWatchWithoutFile
	}
	def := DefaultWatchConfig()
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = def.DebounceDelay
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = def.RetryInitial
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = def.RetryMax
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", domain.ErrResource, err)
	}
	defer watcher.Close()

	path := filepath.Clean(r.config.ControlFile)
	dir := filepath.Dir(path)
	retry := newBackoff(cfg.RetryInitial, cfg.RetryMax)
	for {
		err := watcher.Add(dir)
		if err == nil {
			break
		}
		r.deps.Logger.Warn("cannot watch control file directory",
			ports.String("dir", dir), ports.Err(err), ports.Duration("retry", retry.Current()))
		if retry.Wait(ctx) != nil {
			return nil
		}
	}
	r.deps.Logger.Info("watching control file", ports.String("path", path))

	r.Run(ctx)

	debounce := time.NewTimer(cfg.DebounceDelay)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			r.deps.Logger.Debug("control file changed",
				ports.String("path", path), ports.String("op", event.Op.String()))
			debounce.Reset(cfg.DebounceDelay)

		case <-debounce.C:
			r.Run(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.deps.Logger.Error("control file watcher error", ports.Err(err))
		}
	}
}
