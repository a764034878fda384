package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
)

const reloadDelay = 200 * time.Millisecond

// ChartSetter receives a new chart set.
type ChartSetter interface {
	SetCharts(charts []core.ChartDefinition)
}

// Reloader applies edits of the chart definitions file while the watcher
// runs. A file that fails to load or validate leaves the current set in
// place.
type Reloader struct {
	path   string
	load   func() ([]core.ChartDefinition, error)
	target ChartSetter
	logger *applog.Logger
}

func NewReloader(path string, load func() ([]core.ChartDefinition, error), target ChartSetter, logger *applog.Logger) *Reloader {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Reloader{
		path:   filepath.Clean(path),
		load:   load,
		target: target,
		logger: logger.WithComponent(applog.ComponentWorker),
	}
}

// Run watches the file's directory, so editors that replace the file by
// rename are still seen, until ctx is done.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("watch %s: %w", r.path, err)
	}
	r.logger.InfoContext(ctx, "Watching charts file", "path", r.path)

	// Editors often emit several events per save.
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(reloadDelay)
			timerCh = timer.C
		} else {
			timer.Reset(reloadDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case <-timerCh:
			r.Reload(ctx)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.ErrorContext(ctx, "Charts file watcher error", applog.FieldError, watchErr)
		}
	}
}

// Reload loads the file once and applies it when valid.
func (r *Reloader) Reload(ctx context.Context) bool {
	charts, err := r.load()
	if err != nil {
		r.logger.ErrorContext(ctx, "Charts file rejected, keeping current charts",
			"path", r.path,
			applog.FieldError, err)
		return false
	}
	r.target.SetCharts(charts)
	r.logger.InfoContext(ctx, "Charts reloaded", "path", r.path, "charts", len(charts))
	return true
}
