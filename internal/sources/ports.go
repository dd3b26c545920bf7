// Package sources defines the collaborator ports the report engine reads
// from and the ledger mutations it issues.
package sources

import (
	"context"
	"errors"

	"finboard/internal/core"
)

var (
	ErrNotFound = errors.New("transaction not found")
	// ErrNotConnected is returned by optional feeds that are not configured.
	ErrNotConnected = errors.New("source not connected")
)

// Ports for outbound adapters.
type (
	LedgerReader interface {
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// LedgerFinder looks a single record up. Returns ErrNotFound when absent.
	LedgerFinder interface {
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	}

	LedgerWriter interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	LedgerDeleter interface {
		DeleteTransaction(ctx context.Context, id string) error
	}

	// LedgerImporter stores a batch atomically and returns the stored count.
	LedgerImporter interface {
		ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error)
	}

	// Ledger is the full local ledger surface.
	Ledger interface {
		LedgerReader
		LedgerFinder
		LedgerWriter
		LedgerDeleter
		LedgerImporter
	}

	AggregateReader interface {
		FetchAggregateReport(ctx context.Context) (core.Aggregate, error)
	}

	ChannelMetricsReader interface {
		FetchChannelMetrics(ctx context.Context, ch core.Channel) (core.ChannelMetrics, error)
	}

	RosterReader interface {
		ListPayroll(ctx context.Context) ([]core.PayrollEntry, error)
	}
)
