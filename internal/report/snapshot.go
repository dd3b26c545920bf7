// Package report is the recompute entry point: it turns an immutable input
// snapshot into the full set of report outputs.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"finboard/internal/breakdown"
	"finboard/internal/core"
	"finboard/internal/ledgerview"
	"finboard/internal/reconcile"
)

// Snapshot is the complete input of one recompute. It must not be mutated
// after it is handed to the engine.
type Snapshot struct {
	Local     []core.Transaction
	Remote    reconcile.RemoteSet
	Aggregate *core.Aggregate
	// Channels holds the feeds that answered; a missing key is "not connected".
	Channels        map[core.Channel]core.ChannelMetrics
	Roster          []core.PayrollEntry
	RosterConnected bool
	Sort            ledgerview.SortState
}

// fingerprint identifies the snapshot content. Map keys are encoded in
// sorted order, so equal snapshots always hash equally.
func (s Snapshot) fingerprint() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Report is the output of a recompute. Reports may be shared between
// callers and must be treated as read-only.
type Report struct {
	// Working is the full reconciled set in the snapshot's sort order.
	Working   []core.Transaction
	Authority reconcile.Authority
	// FellBack is set when a live feed answered with no rows and the local
	// ledger was shown instead.
	FellBack         bool
	DataSource       core.DataSourceTag
	Sort             ledgerview.SortState
	KPIs             core.KPISet
	Categories       breakdown.CategoryBreakdown
	Channels         []core.ChannelAttribution
	Projections      []core.Projection
	Payroll          []core.PayrollEntry
	PayrollConnected bool
}
