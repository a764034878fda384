// Package worker keeps charts fresh: on a fixed interval and whenever a
// refresh request arrives over the message queue.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"chartsync/internal/amqp"
	"chartsync/internal/cache"
	applog "chartsync/internal/log"
	"chartsync/internal/services"
)

// allCharts is the debounce and flight key of a full refresh.
const allCharts = "*"

// Refresher runs chart updates.
type Refresher interface {
	RunAll(ctx context.Context) ([]services.Result, error)
	Run(ctx context.Context, title string) (services.Result, error)
}

// Consumer delivers refresh requests until its context ends.
type Consumer interface {
	ConsumeRefreshRequests(ctx context.Context, handler func(context.Context, *amqp.RefreshMessage) error) error
}

// Config controls the watch loop.
type Config struct {
	Interval time.Duration
	Debounce time.Duration
	// MaxTracked bounds the number of chart titles remembered for debounce.
	MaxTracked int
	// Reloader, when set, runs alongside the watcher.
	Reloader *Reloader
}

type Watcher struct {
	runner   Refresher
	consumer Consumer
	interval time.Duration
	recent   *cache.LRUCache[time.Time]
	caches   *cache.Manager
	flights  singleflight.Group
	reloader *Reloader
	logger   *applog.Logger
}

// NewWatcher builds a watcher. consumer may be nil, in which case only the
// interval triggers refreshes.
func NewWatcher(runner Refresher, consumer Consumer, cfg Config, logger *applog.Logger) *Watcher {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = 128
	}
	recent := cache.NewLRUCache[time.Time](cfg.MaxTracked, cfg.Debounce)
	manager := cache.NewManager(logger)
	manager.Register(recent)

	return &Watcher{
		runner:   runner,
		consumer: consumer,
		interval: cfg.Interval,
		recent:   recent,
		caches:   manager,
		reloader: cfg.Reloader,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Run refreshes every chart once, then keeps refreshing until ctx is done.
// Failed periodic runs are logged and retried at the next tick. A consumer
// failure other than cancellation stops the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if w.interval > 0 {
		w.caches.StartCleanup(gCtx, w.interval)
		defer w.caches.Stop()
	}

	g.Go(func() error {
		w.tick(gCtx, "startup")
		if w.interval <= 0 {
			<-gCtx.Done()
			return nil
		}
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-gCtx.Done():
				return nil
			case <-ticker.C:
				w.tick(gCtx, "interval")
			}
		}
	})

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeRefreshRequests(gCtx, w.HandleRefresh)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	}

	if w.reloader != nil {
		g.Go(func() error {
			return w.reloader.Run(gCtx)
		})
	}

	err := g.Wait()
	w.logger.InfoContext(ctx, "Watcher stopped", applog.FieldOperation, applog.OpShutdown)
	return err
}

func (w *Watcher) tick(ctx context.Context, trigger string) {
	if err := w.refresh(ctx, ""); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Scheduled chart refresh failed",
			applog.FieldTrigger, trigger,
			applog.FieldError, err)
	}
}

// HandleRefresh serves one refresh request. Requests for a chart attempted
// within the debounce window are acknowledged without work, whether that
// attempt succeeded or hit a transient error, so redeliveries cannot hammer
// an unavailable API. Errors that a retry cannot fix are marked permanent
// so the message is dropped, and the chart may be requested again at once.
func (w *Watcher) HandleRefresh(ctx context.Context, msg *amqp.RefreshMessage) error {
	key := msg.Chart
	if key == "" {
		key = allCharts
	}
	if !w.recent.SetIfAbsent(key, time.Now()) {
		w.logger.DebugContext(ctx, "Refresh request debounced",
			applog.FieldChart, key,
			applog.FieldTrigger, "message")
		return nil
	}

	err := w.refresh(ctx, msg.Chart)
	if err == nil {
		return nil
	}
	if services.IsChartError(err) || errors.Is(err, services.ErrUnknownChart) {
		w.recent.Delete(key)
		return amqp.Permanent(err)
	}
	w.logger.WarnContext(ctx, "Refresh failed, further requests wait for the debounce window",
		applog.FieldChart, key,
		applog.FieldError, err)
	return err
}

// refresh runs one chart, or all charts when title is empty. Concurrent
// calls for the same key share a single run.
func (w *Watcher) refresh(ctx context.Context, title string) error {
	key := title
	if key == "" {
		key = allCharts
	}
	_, err, shared := w.flights.Do(key, func() (any, error) {
		start := time.Now()
		var (
			written int
			err     error
		)
		if title == "" {
			var results []services.Result
			results, err = w.runner.RunAll(ctx)
			written = len(results)
		} else {
			_, err = w.runner.Run(ctx, title)
			if err == nil {
				written = 1
			}
		}
		w.logger.InfoContext(ctx, "Chart refresh finished",
			applog.FieldChart, key,
			"written", written,
			applog.FieldSuccess, err == nil,
			applog.FieldDuration, time.Since(start).Milliseconds())
		return nil, err
	})
	if shared {
		w.logger.DebugContext(ctx, "Joined in-flight chart refresh", applog.FieldChart, key)
	}
	return err
}
