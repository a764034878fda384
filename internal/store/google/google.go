// Package google reads chart records and category domains from a Google
// Sheets spreadsheet. Each tab is a data source whose first row names the
// properties.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"chartsync/internal/core"
	applog "chartsync/internal/log"
	"chartsync/internal/store"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc             *gsheet.Service
	spreadsheetID   string
	categoriesSheet string
	logger          *applog.Logger
}

// Ensure interface conformance
var _ store.RecordSource = (*Client)(nil)

// Config holds the spreadsheet location and service account credentials.
// CredentialsJSON takes precedence over CredentialsFile.
type Config struct {
	SpreadsheetID   string
	CategoriesSheet string
	CredentialsJSON string
	CredentialsFile string
	Logger          *applog.Logger
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	cats := strings.TrimSpace(cfg.CategoriesSheet)
	if cats == "" {
		cats = "Categories"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentSheets)

	svc, err := newSheetsService(ctx, logger, cfg.CredentialsJSON, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, categoriesSheet: cats, logger: logger}, nil
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_CATEGORIES_SHEET_NAME (default "Categories").
func NewFromEnv(ctx context.Context) (*Client, error) {
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return New(ctx, Config{
		SpreadsheetID:   os.Getenv("GOOGLE_SPREADSHEET_ID"),
		CategoriesSheet: os.Getenv("GOOGLE_CATEGORIES_SHEET_NAME"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: file,
	})
}

// newSheetsService initializes a read-only Sheets Service using Service
// Account credentials.
func newSheetsService(ctx context.Context, logger *applog.Logger, serviceAccountJSON, serviceAccountFile string) (*gsheet.Service, error) {
	serviceAccountJSON = strings.TrimSpace(serviceAccountJSON)
	serviceAccountFile = strings.TrimSpace(serviceAccountFile)

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// CategoryDomain returns the distinct values listed under the property's
// column of the categories sheet, in sheet order.
func (c *Client) CategoryDomain(ctx context.Context, dataSourceID, property string) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readSheet(ctx, c.categoriesSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories: %w", err)
	}
	domain, ok := columnValues(values, property)
	if !ok {
		return nil, &core.SchemaMismatchError{Property: property, Expected: "select", Actual: "missing"}
	}
	return domain, nil
}

// QueryRecords reads every row of the tab named dataSourceID and keeps those
// matching filter.
func (c *Client) QueryRecords(ctx context.Context, dataSourceID string, filter *core.Filter) ([]core.Record, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	values, err := c.readSheet(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}
	all := parseRecords(dataSourceID, values, c.categoryColumns(ctx))
	out := all[:0]
	for _, r := range all {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// categoryColumns returns the header row of the categories sheet. Without
// it every column falls back to per-cell inference.
func (c *Client) categoryColumns(ctx context.Context) columnSet {
	rng := fmt.Sprintf("'%s'!1:1", strings.ReplaceAll(c.categoriesSheet, "'", "''"))
	values, err := c.readSheet(ctx, rng)
	if err != nil {
		c.log().WarnContext(ctx, "Category headers unavailable, inferring column types per cell",
			"sheet", c.categoriesSheet,
			applog.FieldError, err)
		return nil
	}
	if len(values) == 0 {
		return nil
	}
	return newColumnSet(toStrings(values[0]))
}

func (c *Client) log() *applog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentSheets)
}

func (c *Client) readSheet(ctx context.Context, sheetName string) ([][]any, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheetName).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetName, err)
	}
	return resp.Values, nil
}
