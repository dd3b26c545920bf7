// Package worker reacts to ledger events published by other finboard
// processes.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"finboard/internal/amqp"
	"finboard/internal/ledgerview"
	"finboard/internal/report"
)

// Reports is the report service the worker keeps fresh.
type Reports interface {
	Current(ctx context.Context, sort ledgerview.SortState) report.Result
	Invalidate()
}

// Consumer delivers ledger events. *amqp.Client implements it.
type Consumer interface {
	ConsumeLedgerEvents(ctx context.Context, handler func(context.Context, amqp.LedgerEvent) error) error
}

// LedgerWorker drops cached report data whenever the ledger changes
// elsewhere.
type LedgerWorker struct {
	reports Reports
	logger  *slog.Logger

	handled atomic.Int64
	ignored atomic.Int64
}

func NewLedgerWorker(reports Reports, logger *slog.Logger) *LedgerWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerWorker{reports: reports, logger: logger}
}

// HandleEvent invalidates the report caches. Unknown event types are logged
// and acknowledged so they do not loop through the queue.
func (w *LedgerWorker) HandleEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	switch ev.Type {
	case amqp.EventCreated, amqp.EventDeleted, amqp.EventImported:
	default:
		w.ignored.Add(1)
		w.logger.WarnContext(ctx, "Ignoring unknown ledger event", "type", ev.Type)
		return nil
	}
	w.logger.DebugContext(ctx, "Processing ledger event",
		"type", ev.Type,
		"transaction_id", ev.TransactionID,
		"count", ev.Count)
	w.reports.Invalidate()
	w.handled.Add(1)
	return nil
}

// Run consumes until ctx ends. A cancelled context is a clean stop.
func (w *LedgerWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.ConsumeLedgerEvents(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// StartupCheck loads the first report so source problems show up in the
// logs at boot rather than on the first request.
func (w *LedgerWorker) StartupCheck(ctx context.Context) {
	res := w.reports.Current(ctx, ledgerview.DefaultSortState())
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			w.logger.WarnContext(ctx, "Source unavailable at startup", "source", e.Source, "error", e.Err)
		}
		return
	}
	w.logger.InfoContext(ctx, "Startup report loaded",
		"authority", res.Authority,
		"transactions", len(res.Working),
		"fell_back", res.FellBack)
}

// Stats returns how many events were handled and ignored.
func (w *LedgerWorker) Stats() (handled, ignored int64) {
	return w.handled.Load(), w.ignored.Load()
}
