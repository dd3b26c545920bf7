package backend

import (
	"errors"
	"fmt"

	"finboard/internal/config"
	"finboard/internal/sources/google"
)

// Config is the backend slice of the application configuration.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	SeedDir      string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID string
	GoogleCredentials   google.Credentials
	GoogleSheets        google.SheetNames
}

// FromAppConfig extracts the backend configuration.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (want one of %v)", appConfig.DataBackend, GetBackendTypes())
	}
	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		SeedDir:      appConfig.SeedDir,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleCredentials: google.Credentials{
			JSON:            appConfig.GoogleServiceAccountJSON,
			File:            appConfig.GoogleServiceAccountFile,
			OAuthClientJSON: appConfig.GoogleOAuthClientJSON,
			OAuthClientFile: appConfig.GoogleOAuthClientFile,
			OAuthTokenFile:  appConfig.GoogleOAuthTokenFile,
		},
		GoogleSheets: google.SheetNames{
			Transactions: appConfig.GoogleTransactionsSheet,
			KPIs:         appConfig.GoogleKPISheet,
			Projections:  appConfig.GoogleProjectionsSheet,
			Payroll:      appConfig.GooglePayrollSheet,
			Channels:     appConfig.GoogleChannelsSheet,
		},
	}, nil
}

// Validate checks the fields the selected backend needs.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type.PersistentLedger() && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for %s backend", c.Type)
	}
	if c.Type == SheetsBackend {
		if c.GoogleSpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.GoogleSheets.KPIs == "" {
			return errors.New("Google KPI sheet name is required for sheets backend")
		}
		if !c.GoogleCredentials.HasServiceAccount() && !c.GoogleCredentials.HasOAuth() {
			return errors.New("Google credentials are required for sheets backend")
		}
	}
	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return errors.New("AMQP exchange is required when an AMQP URL is set")
	}
	return nil
}
