package backend

import (
	"fmt"

	"chartsync/internal/config"
	"chartsync/internal/notion"
	gsheet "chartsync/internal/store/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type: backendType,

		Notion: notion.Config{
			BaseURL: appConfig.NotionAPIURL,
			Token:   appConfig.NotionToken,
			Version: appConfig.NotionVersion,
		},

		SQLiteDBPath: appConfig.SQLiteDBPath,

		Google: gsheet.Config{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			CategoriesSheet: appConfig.GoogleCategoriesSheet,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
		},

		MemorySeedFile: appConfig.MemorySeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	if c.Type != MemoryBackend && c.Notion.Token == "" {
		return fmt.Errorf("Notion token is required for %s backend", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.Google.SpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
	case MemoryBackend:
		if c.MemorySeedFile == "" {
			return fmt.Errorf("seed file is required for memory backend")
		}
	}

	return nil
}
