package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

const (
	SourceManual    Source = "manual"
	SourceGenerated Source = "generated"
	SourceSynced    Source = "synced"
)

type (
	Kind string

	// Source records where a transaction came from. Synced records belong to
	// the accounting feed and are immutable from this side.
	Source string

	Transaction struct {
		ID            string
		Kind          Kind
		Amount        decimal.Decimal // magnitude, see Normalize
		Category      string
		Description   string
		Date          string // as received; ordered through DateOrdinal
		ClientName    string
		InvoiceNumber string
		Source        Source
	}

	// TransactionInput carries user supplied fields for a manual add.
	// Amount is kept as text so a missing value can be told apart from zero.
	TransactionInput struct {
		Kind          string
		Amount        string
		Category      string
		Description   string
		Date          string
		ClientName    string
		InvoiceNumber string
	}
)

var (
	ErrMissingAmount    = errors.New("missing amount")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidKind      = errors.New("invalid kind: must be income or expense")
	ErrDescriptionLong  = errors.New("description too long (max 500 characters)")
	ErrEmptyTransaction = errors.New("transaction id cannot be empty")
)

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

func (s Source) IsSynced() bool {
	return s == SourceSynced
}

// SignedAmount is the amount with the sign implied by Kind. All sums use it.
func (t Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == Income {
		return t.Amount
	}
	return t.Amount.Neg()
}

// Ordinal returns the sortable date key of the transaction.
func (t Transaction) Ordinal() int64 {
	return DateOrdinal(t.Date)
}

// Normalize folds the amount to its magnitude. Upstream feeds disagree on
// whether expenses carry a minus sign; Kind is the only source of truth.
func (t Transaction) Normalize() Transaction {
	t.Amount = t.Amount.Abs()
	t.Kind = Kind(strings.ToLower(strings.TrimSpace(string(t.Kind))))
	if t.Source == "" {
		t.Source = SourceManual
	}
	return t
}

// Validate checks the manual-add input. It never touches a collaborator.
func (in TransactionInput) Validate() error {
	if strings.TrimSpace(in.Amount) == "" {
		return ErrMissingAmount
	}
	amt, err := ParseAmount(in.Amount)
	if err != nil {
		return err
	}
	if amt.IsZero() {
		return ErrInvalidAmount
	}
	if _, err := ParseKind(in.Kind); err != nil {
		return err
	}
	if len(in.Description) > 500 {
		return ErrDescriptionLong
	}
	return nil
}

// ToTransaction validates the input and builds a transaction for the given
// source. An empty date defaults to today's ISO date.
func (in TransactionInput) ToTransaction(id string, src Source, now time.Time) (Transaction, error) {
	if err := in.Validate(); err != nil {
		return Transaction{}, err
	}
	amt, _ := ParseAmount(in.Amount)
	kind, _ := ParseKind(in.Kind)
	date := strings.TrimSpace(in.Date)
	if date == "" {
		date = now.Format("2006-01-02")
	}
	t := Transaction{
		ID:            id,
		Kind:          kind,
		Amount:        amt,
		Category:      strings.TrimSpace(in.Category),
		Description:   strings.TrimSpace(in.Description),
		Date:          date,
		ClientName:    strings.TrimSpace(in.ClientName),
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		Source:        src,
	}
	return t.Normalize(), nil
}
