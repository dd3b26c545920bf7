// Package services coordinates ledger mutations across storage, the synced
// feed and the event bus.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/sources"

	"github.com/google/uuid"
)

var (
	// ErrInvalidInput wraps every validation failure; the cause is wrapped too.
	ErrInvalidInput = errors.New("invalid transaction input")
	// ErrSyncedImmutable is returned for mutations of synced records.
	ErrSyncedImmutable = errors.New("synced transactions are managed by the accounting feed and cannot be deleted here")
	ErrNotFound        = sources.ErrNotFound
	ErrEmptyImport     = errors.New("nothing to import")
)

// Publisher sends ledger events. *amqp.Client implements it.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// LedgerService validates and applies ledger mutations. Storage is the source
// of truth; event publishing is best effort.
type LedgerService struct {
	ledger    sources.Ledger
	synced    sources.AggregateReader
	publisher Publisher
	onChange  []func()
	logger    *slog.Logger
	newID     func() string
	now       func() time.Time
}

type Option func(*LedgerService)

func WithPublisher(p Publisher) Option { return func(s *LedgerService) { s.publisher = p } }

// WithSyncedSource lets Delete recognize records that only exist in the
// synced feed.
func WithSyncedSource(r sources.AggregateReader) Option {
	return func(s *LedgerService) { s.synced = r }
}

func WithLogger(l *slog.Logger) Option { return func(s *LedgerService) { s.logger = l } }

// OnChange registers a callback run after every successful mutation.
func OnChange(fn func()) Option {
	return func(s *LedgerService) { s.onChange = append(s.onChange, fn) }
}

func NewLedgerService(ledger sources.Ledger, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger: ledger,
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates in, assigns an ID and stores a manual transaction. Invalid
// input never reaches storage.
func (s *LedgerService) Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	t, err := in.ToTransaction(s.newID(), core.SourceManual, s.now())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	created, err := s.ledger.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventCreated, created.ID))
	return created, nil
}

// Import stores a generated batch. The whole batch is validated first; one
// bad row rejects it before anything is written.
func (s *LedgerService) Import(ctx context.Context, inputs []core.TransactionInput) ([]core.Transaction, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyImport
	}
	now := s.now()
	batch := make([]core.Transaction, 0, len(inputs))
	for i, in := range inputs {
		t, err := in.ToTransaction(s.newID(), core.SourceGenerated, now)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidInput, i+1, err)
		}
		batch = append(batch, t)
	}
	n, err := s.ledger.ImportTransactions(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("import transactions: %w", err)
	}
	s.changed(ctx, amqp.NewImportEvent(n))
	return batch, nil
}

// Delete removes a local record. Synced records are refused without any
// mutation being issued.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %w", ErrInvalidInput, core.ErrEmptyTransaction)
	}
	t, err := s.ledger.GetTransaction(ctx, id)
	switch {
	case errors.Is(err, sources.ErrNotFound):
		if s.isSynced(ctx, id) {
			return ErrSyncedImmutable
		}
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("look up transaction: %w", err)
	case t.Source.IsSynced():
		return ErrSyncedImmutable
	}
	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.changed(ctx, amqp.NewLedgerEvent(amqp.EventDeleted, id))
	return nil
}

func (s *LedgerService) isSynced(ctx context.Context, id string) bool {
	if s.synced == nil {
		return false
	}
	agg, err := s.synced.FetchAggregateReport(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Could not check synced feed for delete", "id", id, "error", err)
		return false
	}
	for _, t := range agg.EmbeddedTransactions {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (s *LedgerService) changed(ctx context.Context, ev amqp.LedgerEvent) {
	for _, fn := range s.onChange {
		fn()
	}
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping ledger event", "type", ev.Type)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"type", ev.Type, "id", ev.TransactionID, "error", err)
	}
}
