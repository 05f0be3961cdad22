package backend

import (
	"errors"
	"fmt"
	"time"

	"ajo/internal/config"
)

// StorageType selects where groups are persisted.
type StorageType string

const (
	MemoryStorage StorageType = "memory"
	SQLiteStorage StorageType = "sqlite"
)

func (t StorageType) String() string { return string(t) }

func (t StorageType) IsValid() bool {
	switch t {
	case MemoryStorage, SQLiteStorage:
		return true
	default:
		return false
	}
}

// ExportType selects where report exports are written.
type ExportType string

const (
	MemoryExport ExportType = "memory"
	SheetsExport ExportType = "sheets"
	NoExport     ExportType = "none"
)

func (t ExportType) IsValid() bool {
	switch t {
	case MemoryExport, SheetsExport, NoExport:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Storage      StorageType
	SQLiteDBPath string

	// Empty AMQPURL selects the logging dispatcher.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Empty RedisAddr keeps the report cache in process.
	RedisAddr string
	CacheTTL  time.Duration
	CacheSize int

	Export                   ExportType
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Storage:      StorageType(appConfig.DataBackend),
		SQLiteDBPath: appConfig.SQLiteDBPath,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		RedisAddr: appConfig.RedisAddr,
		CacheTTL:  appConfig.CacheTTL,
		CacheSize: appConfig.CacheSize,

		Export:                   ExportType(appConfig.ExportBackend),
		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Storage.IsValid() {
		return fmt.Errorf("invalid storage backend: %s", c.Storage)
	}
	if c.Storage == SQLiteStorage && c.SQLiteDBPath == "" {
		return errors.New("SQLite database path is required for sqlite backend")
	}
	if c.AMQPURL != "" && (c.AMQPExchange == "" || c.AMQPQueue == "") {
		return errors.New("AMQP exchange and queue are required when AMQP URL is set")
	}

	export := c.Export
	if export == "" {
		export = NoExport
	}
	if !export.IsValid() {
		return fmt.Errorf("invalid export backend: %s", c.Export)
	}
	if export == SheetsExport && c.GoogleSpreadsheetID == "" {
		return errors.New("Google Spreadsheet ID is required for sheets export")
	}
	return nil
}
