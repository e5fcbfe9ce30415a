package backend

import (
	"context"

	"fintrack/internal/amqp"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the record store and the optional integrations built from
// configuration. Optional members are nil interfaces when disabled.
type Result struct {
	Store storage.Store

	// AMQP is the broker client, nil without AMQP_URL or when the broker
	// is unreachable at startup.
	AMQP      *amqp.Client
	Publisher services.EventPublisher

	Exporter  sheets.RowExporter
	Generator services.Generator

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend opens the store and connects the configured integrations.
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// PostgreSQL specific
	DatabaseURL string

	// Expense events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// AI insights
	GeminiAPIKey string
	GeminiModel  string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Persistent reports whether data outlives the process and can be shared
// between the API and the worker.
func (bt BackendType) Persistent() bool {
	return bt == SQLiteBackend || bt == PostgresBackend
}
