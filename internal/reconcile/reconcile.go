// Package reconcile picks the authoritative transaction set for a report pass.
package reconcile

import "finboard/internal/core"

// Authority names the source a Selection came from.
type Authority string

const (
	AuthorityRemote Authority = "remote"
	AuthorityLocal  Authority = "local"
)

// RemoteSet is the transaction list embedded in a backend aggregate, along
// with the tag describing where the backend got it.
type RemoteSet struct {
	Transactions []core.Transaction
	DataSource   core.DataSourceTag
}

// Selection is the outcome of a policy.
type Selection struct {
	Working   []core.Transaction
	Authority Authority
	// FellBack is set when the remote was tagged live but carried no rows, so
	// the local set was shown instead.
	FellBack bool
}

// Policy chooses the working set. Implementations must not mutate inputs.
type Policy interface {
	Select(remote RemoteSet, local []core.Transaction) Selection
}

// PreferRemoteIfNonEmpty uses the remote set wholesale when it is tagged live
// and has at least one row, and the local set wholesale otherwise. The two are
// never merged.
type PreferRemoteIfNonEmpty struct{}

func (PreferRemoteIfNonEmpty) Select(remote RemoteSet, local []core.Transaction) Selection {
	live := remote.DataSource == core.DataSourceLive
	if live && len(remote.Transactions) > 0 {
		return Selection{Working: clone(remote.Transactions), Authority: AuthorityRemote}
	}
	return Selection{
		Working:   clone(local),
		Authority: AuthorityLocal,
		FellBack:  live,
	}
}

// Reconcile applies the default policy.
func Reconcile(remote RemoteSet, local []core.Transaction) Selection {
	return PreferRemoteIfNonEmpty{}.Select(remote, local)
}

func clone(in []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(in))
	for i, t := range in {
		out[i] = t.Normalize()
	}
	return out
}
