package report

import (
	"context"
	"log/slog"
	"time"

	"finboard/internal/cache"
	"finboard/internal/ledgerview"
)

const loadKey = "load"

// Result is a report together with the primary source failures behind it.
type Result struct {
	Report
	Errors []SourceError
}

// Service serves reports to the transport layers. Fetched source data is
// kept for a short TTL; Invalidate drops it after a ledger change.
type Service struct {
	loader *Loader
	engine *Engine
	loads  *cache.LRU[Load]
	logger *slog.Logger
}

func NewService(loader *Loader, engine *Engine, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader: loader,
		engine: engine,
		loads:  cache.NewLRU[Load](1, ttl),
		logger: logger,
	}
}

// Current loads (or reuses) the source data and recomputes for sort.
func (s *Service) Current(ctx context.Context, sort ledgerview.SortState) Result {
	ld, ok := s.loads.Get(loadKey)
	if !ok {
		ld = s.loader.Load(ctx, sort)
		// Failed loads are not cached so the next request retries.
		if len(ld.Errors) == 0 {
			s.loads.Set(loadKey, ld)
		}
	}
	snap := ld.Snapshot
	snap.Sort = sort
	return Result{Report: s.engine.Recompute(snap), Errors: ld.Errors}
}

// Invalidate forgets cached source data and memoized reports.
func (s *Service) Invalidate() {
	s.loads.Purge()
	s.engine.Invalidate()
	s.logger.Debug("Report caches invalidated")
}

// Expirers returns the stores a cache.Janitor should sweep.
func (s *Service) Expirers() []cache.Expirer {
	out := []cache.Expirer{s.loads}
	if e, ok := s.engine.memo.(cache.Expirer); ok {
		out = append(out, e)
	}
	return out
}
