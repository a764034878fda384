package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chartsync/internal/aggregate"
	"chartsync/internal/blocks"
	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/render"
	"chartsync/internal/store"
)

type (
	// PieRequest describes one category chart refresh.
	PieRequest struct {
		Title            string
		ContainerID      string
		DataSourceID     string
		CategoryProperty string
		ValueProperty    string
		Ignore           []string
		Filter           *core.Filter
	}

	// LineRequest describes one cumulative chart refresh.
	LineRequest struct {
		Title         string
		ContainerID   string
		DataSourceID  string
		DateProperty  string
		ValueProperty string
		MaxPoints     int
		Filter        *core.Filter
	}

	// Result describes a committed chart write.
	Result struct {
		BlockID string
		Text    string
		Records int
		Points  int
	}
)

// ChartUpdater refreshes one chart at a time: aggregate, render, locate the
// placeholder, overwrite it. Nothing is written unless every step before the
// write succeeded.
type ChartUpdater struct {
	blocks  store.BlockStore
	records store.RecordSource
	logger  *applog.ChartLogger
}

func NewChartUpdater(blocks store.BlockStore, records store.RecordSource, logger *applog.Logger) *ChartUpdater {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ChartUpdater{
		blocks:  blocks,
		records: records,
		logger:  applog.NewChartLogger(logger),
	}
}

// UpdatePie recomputes a category pie chart and overwrites its placeholder.
func (u *ChartUpdater) UpdatePie(ctx context.Context, req PieRequest) (Result, error) {
	start := time.Now()
	fields := applog.NewFields().WithChart(req.Title, string(core.ChartPie), req.DataSourceID)

	domain, err := u.records.CategoryDomain(ctx, req.DataSourceID, req.CategoryProperty)
	if err != nil {
		u.logger.LogError(ctx, "Failed to read category domain", err, applog.OpSchema, fields)
		return Result{}, fmt.Errorf("read categories of %s: %w", req.DataSourceID, err)
	}

	records, err := u.records.QueryRecords(ctx, req.DataSourceID, req.Filter)
	if err != nil {
		u.logger.LogError(ctx, "Failed to query records", err, applog.OpQuery, fields)
		return Result{}, fmt.Errorf("query %s: %w", req.DataSourceID, err)
	}

	agg, err := aggregate.Pie(domain, records, aggregate.PieOptions{
		CategoryProperty: req.CategoryProperty,
		ValueProperty:    req.ValueProperty,
		Ignore:           req.Ignore,
	})
	if err != nil {
		u.logger.LogError(ctx, "Failed to aggregate records", err, applog.OpAggregate, fields)
		return Result{}, fmt.Errorf("chart %s: %w", req.Title, err)
	}

	text := render.Pie(req.Title, agg)
	res, err := u.overwrite(ctx, req.ContainerID, req.Title, text, fields)
	if err != nil {
		return Result{}, err
	}
	res.Records = len(records)
	res.Points = len(agg)

	u.logger.LogChartUpdated(ctx, req.Title, string(core.ChartPie), req.DataSourceID, res.BlockID,
		res.Records, res.Points, time.Since(start).Milliseconds())
	return res, nil
}

// UpdateLine recomputes a cumulative line chart and overwrites its placeholder.
func (u *ChartUpdater) UpdateLine(ctx context.Context, req LineRequest) (Result, error) {
	start := time.Now()
	fields := applog.NewFields().WithChart(req.Title, string(core.ChartLine), req.DataSourceID)

	records, err := u.records.QueryRecords(ctx, req.DataSourceID, req.Filter)
	if err != nil {
		u.logger.LogError(ctx, "Failed to query records", err, applog.OpQuery, fields)
		return Result{}, fmt.Errorf("query %s: %w", req.DataSourceID, err)
	}

	series, err := aggregate.Series(records, aggregate.SeriesOptions{
		DateProperty:  req.DateProperty,
		ValueProperty: req.ValueProperty,
		MaxPoints:     req.MaxPoints,
	})
	if err != nil {
		u.logger.LogError(ctx, "Failed to aggregate records", err, applog.OpAggregate, fields)
		return Result{}, fmt.Errorf("chart %s: %w", req.Title, err)
	}

	text := render.Line(req.Title, series)
	res, err := u.overwrite(ctx, req.ContainerID, req.Title, text, fields)
	if err != nil {
		return Result{}, err
	}
	res.Records = len(records)
	res.Points = len(series)

	u.logger.LogChartUpdated(ctx, req.Title, string(core.ChartLine), req.DataSourceID, res.BlockID,
		res.Records, res.Points, time.Since(start).Milliseconds())
	return res, nil
}

func (u *ChartUpdater) overwrite(ctx context.Context, containerID, title, text string, fields applog.LogFields) (Result, error) {
	block, found, err := blocks.FindCodeBlock(ctx, u.blocks, containerID, title)
	if err != nil {
		u.logger.LogError(ctx, "Failed to search chart block", err, applog.OpLocate, fields)
		return Result{}, fmt.Errorf("locate chart %s: %w", title, err)
	}
	if !found {
		err := &core.ChartBlockNotFoundError{Title: title}
		u.logger.LogError(ctx, "Chart block not found", err, applog.OpLocate, fields)
		return Result{}, err
	}

	if err := u.blocks.ReplaceContent(ctx, block.ID, text); err != nil {
		u.logger.LogError(ctx, "Failed to write chart block", err, applog.OpWrite, fields)
		return Result{}, fmt.Errorf("write chart %s to block %s: %w", title, block.ID, err)
	}
	return Result{BlockID: block.ID, Text: text}, nil
}

// IsChartError reports whether err comes from the chart taxonomy rather than
// from a store transport.
func IsChartError(err error) bool {
	return errors.Is(err, core.ErrSchemaMismatch) ||
		errors.Is(err, core.ErrUnknownCategory) ||
		errors.Is(err, core.ErrChartBlockNotFound)
}
