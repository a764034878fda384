package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/middleware/trace"
)

// ErrUnknownChart is returned by Run for a title no definition carries.
var ErrUnknownChart = errors.New("unknown chart")

// Runner refreshes a set of charts in order. Charts are independent: a
// failure stops the run but earlier writes stay committed.
type Runner struct {
	updater *ChartUpdater
	now     func() time.Time

	mu     sync.RWMutex
	charts []core.ChartDefinition
}

func NewRunner(updater *ChartUpdater, charts []core.ChartDefinition) *Runner {
	return &Runner{
		updater: updater,
		charts:  charts,
		now:     time.Now,
	}
}

// Charts returns the chart titles in run order.
func (r *Runner) Charts() []string {
	charts := r.definitions()
	titles := make([]string, len(charts))
	for i, c := range charts {
		titles[i] = c.Title
	}
	return titles
}

// SetCharts replaces the chart set. Runs already in progress keep the set
// they started with.
func (r *Runner) SetCharts(charts []core.ChartDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charts = append([]core.ChartDefinition(nil), charts...)
}

func (r *Runner) definitions() []core.ChartDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.charts
}

// RunAll refreshes every chart sequentially and returns the results of the
// charts written before the first failure, if any.
func (r *Runner) RunAll(ctx context.Context) ([]Result, error) {
	ctx, runID := trace.WithRunID(ctx)
	now := r.now()
	charts := r.definitions()
	results := make([]Result, 0, len(charts))
	for _, def := range charts {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := r.update(ctx, def, now)
		if err != nil {
			applog.FromContext(ctx).WithComponent(applog.ComponentRunner).ErrorContext(ctx, "Chart run aborted",
				"run_id", runID,
				"chart", def.Title,
				"completed", len(results),
				"remaining", len(charts)-len(results)-1,
				"error", err)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Run refreshes the single chart with the given title.
func (r *Runner) Run(ctx context.Context, title string) (Result, error) {
	ctx, _ = trace.WithRunID(ctx)
	for _, def := range r.definitions() {
		if def.Title == title {
			return r.update(ctx, def, r.now())
		}
	}
	return Result{}, fmt.Errorf("%w: no chart definition titled %q", ErrUnknownChart, title)
}

func (r *Runner) update(ctx context.Context, def core.ChartDefinition, now time.Time) (Result, error) {
	filter := def.FilterAt(now)
	switch def.Kind {
	case core.ChartPie:
		return r.updater.UpdatePie(ctx, PieRequest{
			Title:            def.Title,
			ContainerID:      def.ContainerID,
			DataSourceID:     def.DataSourceID,
			CategoryProperty: def.CategoryProperty,
			ValueProperty:    def.ValueProperty,
			Ignore:           def.Ignore,
			Filter:           filter,
		})
	case core.ChartLine:
		return r.updater.UpdateLine(ctx, LineRequest{
			Title:         def.Title,
			ContainerID:   def.ContainerID,
			DataSourceID:  def.DataSourceID,
			DateProperty:  def.DateProperty,
			ValueProperty: def.ValueProperty,
			MaxPoints:     def.MaxPoints,
			Filter:        filter,
		})
	default:
		return Result{}, fmt.Errorf("chart %s: unsupported kind %q", def.Title, def.Kind)
	}
}
