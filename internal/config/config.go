// Package config loads runtime settings from the environment and the chart
// set either from a YAML file or from the expense chart variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"chartsync/internal/aggregate"
	"chartsync/internal/core"
	applog "chartsync/internal/log"
)

// Data backends
const (
	BackendNotion = "notion"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Default chart titles
const (
	ThisMonthTitle = "This Month Expenses"
	LastMonthTitle = "Last Month Expenses"
)

type Config struct {
	LogLevel string

	// Notion
	NotionToken   string
	NotionAPIURL  string
	NotionVersion string

	// Expense charts
	ExpensePageID           string
	ExpenseDataSourceID     string
	ExpenseCategoryProperty string
	ExpenseValueProperty    string
	ExpenseDateProperty     string
	ExpenseIgnore           []string

	// Balance chart
	BalanceTitle         string
	BalanceDataSourceID  string
	BalanceValueProperty string
	BalanceDateProperty  string
	MaxPoints            int

	// Chart definitions file, overrides the expense and balance variables
	ChartsFile string
	Charts     []core.ChartDefinition

	// Backend selection
	DataBackend string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleCategoriesSheet    string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Memory
	MemorySeedFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Watcher
	SyncInterval    time.Duration
	RefreshDebounce time.Duration
}

// Load reads the environment. The chart set comes from CHARTS_FILE when
// set, otherwise from the expense and balance variables.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NotionToken:   getEnv("NOTION_TOKEN", ""),
		NotionAPIURL:  getEnv("NOTION_API_URL", "https://api.notion.com"),
		NotionVersion: getEnv("NOTION_VERSION", "2025-09-03"),

		ExpensePageID:           getEnv("NOTION_EXPENSE_CHART_PAGE_ID", ""),
		ExpenseDataSourceID:     getEnv("NOTION_EXPENSE_CHART_DATA_DB_ID", ""),
		ExpenseCategoryProperty: getEnv("NOTION_EXPENSE_CHART_DB_PROPERTY_CATEGORY", ""),
		ExpenseValueProperty:    getEnv("NOTION_EXPENSE_CHART_DB_PROPERTY_VALUE", ""),
		ExpenseDateProperty:     getEnv("NOTION_EXPENSE_CHART_DB_PROPERTY_DATE", ""),
		ExpenseIgnore:           getEnvList("NOTION_EXPENSE_CHART_IGNORE_CATEGORIES"),

		BalanceTitle:        getEnv("NOTION_BALANCE_CHART_TITLE", "Balance"),
		BalanceDataSourceID: getEnv("NOTION_BALANCE_CHART_DATA_DB_ID", ""),
		MaxPoints:           getEnvInt("MAX_POINTS", aggregate.DefaultMaxPoints),

		ChartsFile: getEnv("CHARTS_FILE", ""),

		DataBackend:  getEnv("DATA_BACKEND", BackendNotion),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/chartsync.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCategoriesSheet:    getEnv("GOOGLE_CATEGORIES_SHEET_NAME", "Categories"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "chartsync"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "refresh_charts"),

		SyncInterval:    getEnvDuration("SYNC_INTERVAL", time.Hour),
		RefreshDebounce: getEnvDuration("REFRESH_DEBOUNCE", 30*time.Second),
	}
	cfg.BalanceValueProperty = getEnv("NOTION_BALANCE_CHART_DB_PROPERTY_VALUE", cfg.ExpenseValueProperty)
	cfg.BalanceDateProperty = getEnv("NOTION_BALANCE_CHART_DB_PROPERTY_DATE", cfg.ExpenseDateProperty)

	if err := cfg.LoadCharts(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadCharts fills Charts from ChartsFile, or from the chart variables when
// no file is configured.
func (c *Config) LoadCharts() error {
	if c.ChartsFile == "" {
		c.Charts = c.DefaultCharts()
		return nil
	}
	charts, err := LoadChartsFile(c.ChartsFile)
	if err != nil {
		return err
	}
	for i := range charts {
		if charts[i].Kind == core.ChartLine && charts[i].MaxPoints == 0 {
			charts[i].MaxPoints = c.MaxPoints
		}
	}
	c.Charts = charts
	return nil
}

// DefaultCharts returns the this-month and last-month expense pies, plus
// the balance line when a balance data source is configured.
func (c *Config) DefaultCharts() []core.ChartDefinition {
	pie := func(title string, period core.Period) core.ChartDefinition {
		return core.ChartDefinition{
			Title:            title,
			Kind:             core.ChartPie,
			ContainerID:      c.ExpensePageID,
			DataSourceID:     c.ExpenseDataSourceID,
			CategoryProperty: c.ExpenseCategoryProperty,
			ValueProperty:    c.ExpenseValueProperty,
			DateProperty:     c.ExpenseDateProperty,
			Ignore:           c.ExpenseIgnore,
			Period:           period,
		}
	}
	charts := []core.ChartDefinition{
		pie(ThisMonthTitle, core.PeriodThisMonth),
		pie(LastMonthTitle, core.PeriodLastMonth),
	}
	if c.BalanceDataSourceID != "" {
		charts = append(charts, core.ChartDefinition{
			Title:         c.BalanceTitle,
			Kind:          core.ChartLine,
			ContainerID:   c.ExpensePageID,
			DataSourceID:  c.BalanceDataSourceID,
			ValueProperty: c.BalanceValueProperty,
			DateProperty:  c.BalanceDateProperty,
			Period:        core.PeriodAll,
			MaxPoints:     c.MaxPoints,
		})
	}
	return charts
}

type chartsFile struct {
	Charts []core.ChartDefinition `yaml:"charts"`
}

// LoadChartsFile parses a YAML chart list after expanding ${VAR} references.
func LoadChartsFile(path string) ([]core.ChartDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read charts file %s: %w", path, err)
	}
	var file chartsFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("failed to parse charts file %s: %w", path, err)
	}
	return file.Charts, nil
}

// Select narrows Charts to the given titles, keeping their configured
// order. An empty list keeps every chart.
func (c *Config) Select(titles []string) error {
	if len(titles) == 0 {
		return nil
	}
	want := make(map[string]bool, len(titles))
	for _, t := range titles {
		want[t] = true
	}
	selected := make([]core.ChartDefinition, 0, len(titles))
	for _, def := range c.Charts {
		if want[def.Title] {
			selected = append(selected, def)
			delete(want, def.Title)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for t := range want {
			missing = append(missing, t)
		}
		sort.Strings(missing)
		return fmt.Errorf("unknown charts: %s", strings.Join(missing, ", "))
	}
	c.Charts = selected
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var problems []string

	err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "warning", "error")),
		validation.Field(&c.DataBackend, validation.Required, validation.In(BackendNotion, BackendSheets, BackendSQLite, BackendMemory)),
		validation.Field(&c.NotionToken, validation.When(c.DataBackend != BackendMemory, validation.Required)),
		validation.Field(&c.SQLiteDBPath, validation.When(c.DataBackend == BackendSQLite, validation.Required)),
		validation.Field(&c.GoogleSpreadsheetID, validation.When(c.DataBackend == BackendSheets, validation.Required)),
		validation.Field(&c.MemorySeedFile, validation.When(c.DataBackend == BackendMemory, validation.Required)),
		validation.Field(&c.MaxPoints, validation.Min(1)),
		validation.Field(&c.Charts, validation.Required),
	)
	problems = append(problems, flatten("", err)...)

	if c.DataBackend == BackendSheets && c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		problems = append(problems, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SyncInterval < time.Second {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	}
	if c.RefreshDebounce < 0 {
		problems = append(problems, fmt.Sprintf("invalid refresh debounce %v: must not be negative", c.RefreshDebounce))
	}

	problems = append(problems, chartProblems(c.Charts)...)

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// ReloadCharts reads ChartsFile again and validates the result without
// touching Charts.
func (c *Config) ReloadCharts() ([]core.ChartDefinition, error) {
	if c.ChartsFile == "" {
		return nil, errors.New("no charts file configured")
	}
	charts, err := LoadChartsFile(c.ChartsFile)
	if err != nil {
		return nil, err
	}
	for i := range charts {
		if charts[i].Kind == core.ChartLine && charts[i].MaxPoints == 0 {
			charts[i].MaxPoints = c.MaxPoints
		}
	}

	problems := chartProblems(charts)
	if len(charts) == 0 {
		problems = append(problems, "charts file defines no charts")
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("charts file validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return charts, nil
}

func chartProblems(charts []core.ChartDefinition) []string {
	var problems []string
	seen := map[string]bool{}
	for i, def := range charts {
		name := def.Title
		if name == "" {
			name = "#" + strconv.Itoa(i+1)
		}
		problems = append(problems, flatten("chart "+name, ValidateChart(def))...)
		if def.Title != "" && seen[def.Title] {
			problems = append(problems, fmt.Sprintf("chart %s: duplicate title", def.Title))
		}
		seen[def.Title] = true
	}
	return problems
}

// ValidateChart checks that a definition carries every property its kind
// and period read.
func ValidateChart(def core.ChartDefinition) error {
	needsDate := def.Kind == core.ChartLine || (def.Period != "" && def.Period != core.PeriodAll)
	return validation.ValidateStruct(&def,
		validation.Field(&def.Title, validation.Required),
		validation.Field(&def.Kind, validation.Required, validation.In(core.ChartPie, core.ChartLine)),
		validation.Field(&def.ContainerID, validation.Required),
		validation.Field(&def.DataSourceID, validation.Required),
		validation.Field(&def.ValueProperty, validation.Required),
		validation.Field(&def.CategoryProperty, validation.When(def.Kind == core.ChartPie, validation.Required)),
		validation.Field(&def.DateProperty, validation.When(needsDate, validation.Required)),
		validation.Field(&def.Period, validation.In(core.PeriodAll, core.PeriodThisMonth, core.PeriodLastMonth)),
		validation.Field(&def.MaxPoints, validation.Min(0)),
	)
}

// flatten turns ozzo field errors into sorted "field: message" lines.
func flatten(prefix string, err error) []string {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		if prefix != "" {
			return []string{prefix + ": " + err.Error()}
		}
		return []string{err.Error()}
	}
	keys := make([]string, 0, len(fieldErrs))
	for k := range fieldErrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		line := k + ": " + fieldErrs[k].Error()
		if prefix != "" {
			line = prefix + ": " + line
		}
		out = append(out, line)
	}
	return out
}

// ParsedLogLevel returns the slog level of LogLevel.
func (c *Config) ParsedLogLevel() slog.Level {
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
