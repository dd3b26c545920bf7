package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"finboard/internal/core"
	"finboard/internal/ledgerview"
	"finboard/internal/reconcile"
	"finboard/internal/sources"

	"golang.org/x/sync/errgroup"
)

// Sources are the collaborators a Loader fetches from. Nil entries are
// treated as not configured.
type Sources struct {
	Ledger    sources.LedgerReader
	Aggregate sources.AggregateReader
	Channels  sources.ChannelMetricsReader
	Roster    sources.RosterReader
}

// SourceError records a failed primary fetch.
type SourceError struct {
	Source string
	Err    error
}

func (e SourceError) Error() string { return fmt.Sprintf("%s: %v", e.Source, e.Err) }
func (e SourceError) Unwrap() error { return e.Err }

// Load is a settled fetch: the snapshot built from whatever answered, plus
// the primary source failures to show to the user.
type Load struct {
	Snapshot Snapshot
	Errors   []SourceError
}

// Loader fetches every source concurrently and waits for all of them to
// settle before building a snapshot.
type Loader struct {
	src      Sources
	channels []core.Channel
	logger   *slog.Logger
}

func NewLoader(src Sources, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		src:      src,
		channels: []core.Channel{core.ChannelShopify, core.ChannelMeta},
		logger:   logger,
	}
}

// Load never fails as a whole. A failing ledger or aggregate is reported in
// Load.Errors and contributes nothing; a failing roster or channel feed is
// logged and left out of the snapshot, which marks it not connected.
func (l *Loader) Load(ctx context.Context, sort ledgerview.SortState) Load {
	var (
		g   errgroup.Group
		mu  sync.Mutex
		out Load
	)
	out.Snapshot.Sort = sort
	out.Snapshot.Channels = make(map[core.Channel]core.ChannelMetrics)

	primaryFailed := func(source string, err error) {
		l.logger.ErrorContext(ctx, "Primary source failed", "source", source, "error", err)
		mu.Lock()
		out.Errors = append(out.Errors, SourceError{Source: source, Err: err})
		mu.Unlock()
	}

	if l.src.Ledger != nil {
		g.Go(func() error {
			txs, err := l.src.Ledger.ListTransactions(ctx)
			if err != nil {
				primaryFailed("ledger", err)
				return nil
			}
			mu.Lock()
			out.Snapshot.Local = txs
			mu.Unlock()
			return nil
		})
	}

	if l.src.Aggregate != nil {
		g.Go(func() error {
			agg, err := l.src.Aggregate.FetchAggregateReport(ctx)
			if err != nil {
				primaryFailed("aggregate", err)
				return nil
			}
			mu.Lock()
			out.Snapshot.Aggregate = &agg
			out.Snapshot.Remote = reconcile.RemoteSet{
				Transactions: agg.EmbeddedTransactions,
				DataSource:   agg.DataSource,
			}
			mu.Unlock()
			return nil
		})
	}

	if l.src.Roster != nil {
		g.Go(func() error {
			roster, err := l.src.Roster.ListPayroll(ctx)
			if err != nil {
				l.secondaryFailed(ctx, "roster", err)
				return nil
			}
			mu.Lock()
			out.Snapshot.Roster = roster
			out.Snapshot.RosterConnected = true
			mu.Unlock()
			return nil
		})
	}

	if l.src.Channels != nil {
		for _, ch := range l.channels {
			g.Go(func() error {
				m, err := l.src.Channels.FetchChannelMetrics(ctx, ch)
				if err != nil {
					l.secondaryFailed(ctx, "channel:"+string(ch), err)
					return nil
				}
				mu.Lock()
				out.Snapshot.Channels[ch] = m
				mu.Unlock()
				return nil
			})
		}
	}

	// Every goroutine returns nil; Wait only marks that all have settled.
	_ = g.Wait()
	return out
}

func (l *Loader) secondaryFailed(ctx context.Context, source string, err error) {
	if errors.Is(err, sources.ErrNotConnected) {
		l.logger.DebugContext(ctx, "Optional source not connected", "source", source)
		return
	}
	l.logger.WarnContext(ctx, "Optional source failed, showing as not connected", "source", source, "error", err)
}
