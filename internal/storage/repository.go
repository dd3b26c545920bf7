// Package storage persists the local ledger in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finboard/internal/core"
	"finboard/internal/sources"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var _ sources.Ledger = (*SQLiteRepository)(nil)

const selectColumns = `id, kind, amount, category, description, date, client_name, invoice_number, source`

type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("Ledger schema ready", "db_path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM transactions ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, sources.ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.ID == "" {
		return core.Transaction{}, core.ErrEmptyTransaction
	}
	t = t.Normalize()
	if _, err := r.db.ExecContext(ctx, insertSQL, insertArgs(t)...); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"kind", t.Kind,
		"amount", t.Amount.String(),
		"source", t.Source)
	return t, nil
}

// ImportTransactions stores the batch in one database transaction; either
// every row is written or none is.
func (r *SQLiteRepository) ImportTransactions(ctx context.Context, txs []core.Transaction) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		if t.ID == "" {
			return 0, core.ErrEmptyTransaction
		}
		if _, err := stmt.ExecContext(ctx, insertArgs(t.Normalize())...); err != nil {
			return 0, fmt.Errorf("import transaction %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	r.logger.InfoContext(ctx, "Transactions imported to SQLite", "count", len(txs))
	return len(txs), nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return sources.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Transaction deleted from SQLite", "id", id)
	return nil
}

const insertSQL = `INSERT INTO transactions (` + selectColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func insertArgs(t core.Transaction) []any {
	return []any{
		t.ID, string(t.Kind), t.Amount.String(), t.Category, t.Description,
		t.Date, t.ClientName, t.InvoiceNumber, string(t.Source),
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t              core.Transaction
		kind, src, amt string
	)
	err := s.Scan(&t.ID, &kind, &amt, &t.Category, &t.Description, &t.Date, &t.ClientName, &t.InvoiceNumber, &src)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = core.Kind(kind)
	t.Source = core.Source(src)
	t.Amount, err = decimal.NewFromString(amt)
	if err != nil {
		return t, fmt.Errorf("transaction %s amount %q: %w", t.ID, amt, err)
	}
	return t, nil
}
