// Package backend assembles the ledger and feed collaborators for the
// configured data backend.
package backend

import (
	"context"
	"errors"
	"slices"

	"finboard/internal/amqp"
	"finboard/internal/sources"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Result carries every collaborator the report and ledger services need.
type Result struct {
	Ledger    sources.Ledger
	Aggregate sources.AggregateReader
	Channels  sources.ChannelMetricsReader
	Roster    sources.RosterReader
	// Events is nil when no broker is configured.
	Events  *amqp.Client
	Checks  map[string]Check
	cleanup []CleanupFunc
}

// Close runs every cleanup, newest first, and joins their errors.
func (r *Result) Close() error {
	var errs []error
	for i := len(r.cleanup) - 1; i >= 0; i-- {
		if err := r.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory creates backends from configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// BackendType names where the local ledger lives and where the synced feed
// is read from.
type BackendType string

const (
	// MemoryBackend keeps the ledger and the feeds in memory, optionally seeded
	// from CSV files.
	MemoryBackend BackendType = "memory"
	// SQLiteBackend persists the ledger in SQLite.
	SQLiteBackend BackendType = "sqlite"
	// SheetsBackend reads the synced feed from Google Sheets and persists the
	// ledger in SQLite.
	SheetsBackend BackendType = "sheets"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	return slices.Contains(GetBackendTypes(), bt)
}

func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, SheetsBackend}
}

// PersistentLedger reports whether the ledger is stored in SQLite.
func (bt BackendType) PersistentLedger() bool {
	return bt == SQLiteBackend || bt == SheetsBackend
}
