// Package memory is an in-process implementation of every source port.
package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"finboard/internal/core"
	"finboard/internal/sources"
	"finboard/internal/sources/mapping"
)

var (
	_ sources.Ledger               = (*Store)(nil)
	_ sources.AggregateReader      = (*Store)(nil)
	_ sources.ChannelMetricsReader = (*Store)(nil)
	_ sources.RosterReader         = (*Store)(nil)
)

// Op names a store operation for fault injection.
type Op string

const (
	OpList      Op = "list"
	OpAggregate Op = "aggregate"
	OpChannels  Op = "channels"
	OpPayroll   Op = "payroll"
)

// Store keeps everything in memory. The zero value is not usable; call New.
type Store struct {
	mu        sync.Mutex
	ledger    []core.Transaction
	aggregate *core.Aggregate
	channels  map[core.Channel]core.ChannelMetrics
	payroll   []core.PayrollEntry
	failures  map[Op]error
}

func New() *Store {
	return &Store{
		channels: make(map[core.Channel]core.ChannelMetrics),
		failures: make(map[Op]error),
	}
}

// NewFromDir seeds a store from CSV files in base: ledger.csv, kpis.csv,
// projections.csv, payroll.csv and channels.csv. Missing files are skipped.
// When kpis.csv exists the store serves an aggregate built from it, with
// synced.csv as its embedded transactions.
func NewFromDir(base string) (*Store, error) {
	s := New()

	ledger, err := readCSV(filepath.Join(base, "ledger.csv"))
	if err != nil {
		return nil, err
	}
	txs, _ := mapping.Transactions(ledger, core.SourceManual, "seed-")
	s.ledger = txs

	kpis, err := readCSV(filepath.Join(base, "kpis.csv"))
	if err != nil {
		return nil, err
	}
	if kpis != nil {
		k, tag := mapping.KPIs(kpis)
		agg := core.Aggregate{KPIs: k, DataSource: tag}
		proj, err := readCSV(filepath.Join(base, "projections.csv"))
		if err != nil {
			return nil, err
		}
		agg.Projections = mapping.Projections(proj)
		synced, err := readCSV(filepath.Join(base, "synced.csv"))
		if err != nil {
			return nil, err
		}
		agg.EmbeddedTransactions, _ = mapping.Transactions(synced, core.SourceSynced, "synced-")
		s.aggregate = &agg
	}

	payroll, err := readCSV(filepath.Join(base, "payroll.csv"))
	if err != nil {
		return nil, err
	}
	s.payroll = mapping.Payroll(payroll)

	channels, err := readCSV(filepath.Join(base, "channels.csv"))
	if err != nil {
		return nil, err
	}
	s.channels = mapping.Channels(channels)
	return s, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// Fail makes op return err until cleared with a nil error.
func (s *Store) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) SetAggregate(a *core.Aggregate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggregate = a
}

func (s *Store) SetChannel(ch core.Channel, m core.ChannelMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[ch] = m
}

func (s *Store) SetPayroll(p []core.PayrollEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payroll = slices.Clone(p)
}

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpList]; err != nil {
		return nil, err
	}
	return slices.Clone(s.ledger), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.ledger {
		if t.ID == id {
			return t, nil
		}
	}
	if s.aggregate != nil {
		for _, t := range s.aggregate.EmbeddedTransactions {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return core.Transaction{}, sources.ErrNotFound
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		return core.Transaction{}, core.ErrEmptyTransaction
	}
	t = t.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = append(s.ledger, t)
	return t, nil
}

func (s *Store) ImportTransactions(_ context.Context, txs []core.Transaction) (int, error) {
	for _, t := range txs {
		if t.ID == "" {
			return 0, core.ErrEmptyTransaction
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range txs {
		s.ledger = append(s.ledger, t.Normalize())
	}
	return len(txs), nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.ledger, func(t core.Transaction) bool { return t.ID == id })
	if i < 0 {
		return sources.ErrNotFound
	}
	s.ledger = slices.Delete(s.ledger, i, i+1)
	return nil
}

// FetchAggregateReport returns an empty demo aggregate when none was set.
func (s *Store) FetchAggregateReport(_ context.Context) (core.Aggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpAggregate]; err != nil {
		return core.Aggregate{}, err
	}
	if s.aggregate == nil {
		return core.Aggregate{DataSource: core.DataSourceDemo}, nil
	}
	a := *s.aggregate
	a.EmbeddedTransactions = slices.Clone(a.EmbeddedTransactions)
	a.Projections = slices.Clone(a.Projections)
	a.CategoryBreakdown = slices.Clone(a.CategoryBreakdown)
	return a, nil
}

func (s *Store) FetchChannelMetrics(_ context.Context, ch core.Channel) (core.ChannelMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpChannels]; err != nil {
		return core.ChannelMetrics{}, err
	}
	m, ok := s.channels[ch]
	if !ok {
		return core.ChannelMetrics{}, fmt.Errorf("channel %s: %w", ch, sources.ErrNotConnected)
	}
	return m, nil
}

func (s *Store) ListPayroll(_ context.Context) ([]core.PayrollEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failures[OpPayroll]; err != nil {
		return nil, err
	}
	return slices.Clone(s.payroll), nil
}
