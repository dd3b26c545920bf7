package ledgerview

import "finboard/internal/core"

// PageSize is the window increment.
const PageSize = 50

// View holds the sort state and window over one working set. The sorted
// slice is rebuilt only when the input or the sort state changes.
type View struct {
	sorter *Sorter
	input  []core.Transaction
	state  SortState
	window int
	sorted []core.Transaction
	dirty  bool
}

func NewView(sorter *Sorter, txs []core.Transaction) *View {
	if sorter == nil {
		sorter = DefaultSorter()
	}
	return &View{
		sorter: sorter,
		input:  txs,
		state:  DefaultSortState(),
		window: PageSize,
		dirty:  true,
	}
}

// SetInput replaces the working set. The window is kept.
func (v *View) SetInput(txs []core.Transaction) {
	v.input = txs
	v.dirty = true
}

// SortBy applies the toggle rule and resets the window.
func (v *View) SortBy(f Field) {
	v.SetSort(v.state.Toggle(f))
}

// SetSort installs a sort state directly and resets the window if it differs.
func (v *View) SetSort(state SortState) {
	if state == v.state {
		return
	}
	v.state = state
	v.window = PageSize
	v.dirty = true
}

func (v *View) State() SortState { return v.state }

// LoadMore grows the window by one page.
func (v *View) LoadMore() {
	v.window += PageSize
}

func (v *View) Window() int { return v.window }

// Sorted returns the whole sorted set, independent of the window.
func (v *View) Sorted() []core.Transaction {
	if v.dirty {
		v.sorted = v.sorter.Sort(v.input, v.state)
		v.dirty = false
	}
	return v.sorted
}

// Visible returns sorted[:min(window, len)].
func (v *View) Visible() []core.Transaction {
	s := v.Sorted()
	return s[:min(v.window, len(s))]
}

func (v *View) HasMore() bool {
	return v.window < len(v.Sorted())
}
