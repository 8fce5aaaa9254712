// Package sharedstore provides the storage backends for team- and
// organization-scope symbols. Shared scopes normally live on a server the
// whole team reaches (Postgres, MySQL, or MongoDB); standalone installs fall
// back to a local SQLite file.
package sharedstore

import (
	"context"
	"fmt"

	"studio/internal/domain"
)

// Driver identifies a shared-store backend implementation.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverMongo    Driver = "mongodb"
)

// Config describes one shared-store connection. The password is provided
// separately (from the secret store), never persisted alongside the config.
type Config struct {
	Driver   Driver `json:"driver" yaml:"driver"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	SSLMode  string `json:"sslMode" yaml:"ssl_mode"`
	FilePath string `json:"filePath" yaml:"file_path"` // sqlite only
}

// Backend abstracts symbol storage for one shared scope.
type Backend interface {
	// TestConnection verifies connectivity.
	TestConnection(ctx context.Context) error

	// ListSymbols returns the owner's symbols in creation order.
	ListSymbols(ctx context.Context, ownerID string, scope domain.SymbolScope) ([]domain.Symbol, error)

	// CreateSymbol stores a new symbol record.
	CreateSymbol(ctx context.Context, sym *domain.Symbol) error

	// UpdateSymbol rewrites name and fragment for an existing record.
	UpdateSymbol(ctx context.Context, sym *domain.Symbol) error

	// DeleteSymbol removes a record. Deleting is per scope: local copies
	// merged into documents earlier are untouched.
	DeleteSymbol(ctx context.Context, id string) error

	// Close releases the connection.
	Close() error
}

// NewBackend creates a Backend for the given configuration.
func NewBackend(cfg *Config, password string) (Backend, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return newSQLiteBackend(cfg)
	case DriverPostgres:
		return newSQLBackend("postgres", buildPostgresDSN(cfg, password))
	case DriverMySQL:
		return newSQLBackend("mysql", buildMySQLDSN(cfg, password))
	case DriverMongo:
		return newMongoBackend(cfg, password)
	default:
		return nil, fmt.Errorf("unsupported shared-store driver: %s", cfg.Driver)
	}
}
