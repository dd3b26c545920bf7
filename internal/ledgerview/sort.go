// Package ledgerview sorts a working set on one field and exposes it through a
// window that only grows until the sort changes.
package ledgerview

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"finboard/internal/core"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Field string

const (
	FieldDate        Field = "date"
	FieldCategory    Field = "category"
	FieldAmount      Field = "amount"
	FieldDescription Field = "description"
	FieldClientName  Field = "clientName"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Fields lists the sortable fields.
func Fields() []Field {
	return []Field{FieldDate, FieldCategory, FieldAmount, FieldDescription, FieldClientName}
}

func ParseField(s string) (Field, error) {
	s = strings.TrimSpace(s)
	for _, f := range Fields() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	if strings.EqualFold(s, "client_name") || strings.EqualFold(s, "client") {
		return FieldClientName, nil
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// DefaultDirection is desc for date and asc for everything else.
func (f Field) DefaultDirection() Direction {
	if f == FieldDate {
		return Desc
	}
	return Asc
}

func (d Direction) Flip() Direction {
	if d == Asc {
		return Desc
	}
	return Asc
}

// SortState is the active field and direction.
type SortState struct {
	Field     Field
	Direction Direction
}

func DefaultSortState() SortState {
	return SortState{Field: FieldDate, Direction: FieldDate.DefaultDirection()}
}

// ParseSortState reads a field and an optional direction. An empty field
// gives the default state; an empty direction gives the field's default.
func ParseSortState(field, dir string) (SortState, error) {
	if strings.TrimSpace(field) == "" {
		return DefaultSortState(), nil
	}
	f, err := ParseField(field)
	if err != nil {
		return SortState{}, err
	}
	state := SortState{Field: f, Direction: f.DefaultDirection()}
	switch d := strings.ToLower(strings.TrimSpace(dir)); d {
	case "":
	case string(Asc), string(Desc):
		state.Direction = Direction(d)
	default:
		return SortState{}, fmt.Errorf("unknown sort direction %q", dir)
	}
	return state, nil
}

// Toggle returns the state after the user asked to sort by f: the direction
// flips when f is already active, otherwise f starts at its default.
func (s SortState) Toggle(f Field) SortState {
	if s.Field == f {
		return SortState{Field: f, Direction: s.Direction.Flip()}
	}
	return SortState{Field: f, Direction: f.DefaultDirection()}
}

// Sorter orders transactions. String fields use locale collation; the
// collator keeps internal buffers so calls are serialized.
type Sorter struct {
	mu   sync.Mutex
	coll *collate.Collator
}

func NewSorter(tag language.Tag) *Sorter {
	return &Sorter{coll: collate.New(tag)}
}

// DefaultSorter collates with English rules.
func DefaultSorter() *Sorter {
	return NewSorter(language.English)
}

type keyed struct {
	tx  core.Transaction
	ord int64
}

// Sort returns a stably sorted copy of txs.
func (s *Sorter) Sort(txs []core.Transaction, state SortState) []core.Transaction {
	items := make([]keyed, len(txs))
	for i, t := range txs {
		items[i] = keyed{tx: t}
		if state.Field == FieldDate {
			items[i].ord = t.Ordinal()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	compare := s.comparator(state.Field)
	slices.SortStableFunc(items, func(a, b keyed) int {
		c := compare(a, b)
		if state.Direction == Desc {
			return -c
		}
		return c
	})

	out := make([]core.Transaction, len(items))
	for i, it := range items {
		out[i] = it.tx
	}
	return out
}

// Compare orders a and b on field ascending. Exposed for tests and callers
// that need a single comparison.
func (s *Sorter) Compare(field Field, a, b core.Transaction) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ka, kb := keyed{tx: a}, keyed{tx: b}
	if field == FieldDate {
		ka.ord, kb.ord = a.Ordinal(), b.Ordinal()
	}
	return s.comparator(field)(ka, kb)
}

func (s *Sorter) comparator(field Field) func(a, b keyed) int {
	switch field {
	case FieldDate:
		return func(a, b keyed) int { return cmp.Compare(a.ord, b.ord) }
	case FieldAmount:
		// Magnitude only: an expense of 100 ties with an income of 100.
		return func(a, b keyed) int { return a.tx.Amount.Abs().Cmp(b.tx.Amount.Abs()) }
	case FieldCategory:
		return func(a, b keyed) int { return s.coll.CompareString(a.tx.Category, b.tx.Category) }
	case FieldDescription:
		return func(a, b keyed) int { return s.coll.CompareString(a.tx.Description, b.tx.Description) }
	case FieldClientName:
		return func(a, b keyed) int { return s.coll.CompareString(a.tx.ClientName, b.tx.ClientName) }
	default:
		return func(a, b keyed) int { return 0 }
	}
}
