package reconcile

import (
	"testing"

	"finboard/internal/core"

	"github.com/shopspring/decimal"
)

func tx(id string, src core.Source) core.Transaction {
	return core.Transaction{ID: id, Kind: core.Income, Amount: decimal.NewFromInt(10), Source: src}
}

func TestLiveEmptyRemoteFallsBackToLocal(t *testing.T) {
	local := []core.Transaction{tx("a", core.SourceManual), tx("b", core.SourceManual), tx("c", core.SourceManual)}
	sel := Reconcile(RemoteSet{DataSource: core.DataSourceLive}, local)

	if len(sel.Working) != 3 {
		t.Fatalf("expected 3 local rows, got %d", len(sel.Working))
	}
	if sel.Authority != AuthorityLocal {
		t.Fatalf("authority = %q", sel.Authority)
	}
	if !sel.FellBack {
		t.Fatal("expected FellBack for live but empty remote")
	}
}

func TestLiveRemoteWinsWholesale(t *testing.T) {
	remote := RemoteSet{
		DataSource:   core.DataSourceLive,
		Transactions: []core.Transaction{tx("r1", core.SourceSynced)},
	}
	local := []core.Transaction{tx("a", core.SourceManual), tx("b", core.SourceManual)}
	sel := Reconcile(remote, local)

	if len(sel.Working) != 1 || sel.Working[0].ID != "r1" {
		t.Fatalf("expected remote only, got %+v", sel.Working)
	}
	if sel.Authority != AuthorityRemote || sel.FellBack {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestNonLiveRemoteIgnored(t *testing.T) {
	remote := RemoteSet{
		DataSource:   core.DataSourceDemo,
		Transactions: []core.Transaction{tx("r1", core.SourceSynced)},
	}
	sel := Reconcile(remote, []core.Transaction{tx("a", core.SourceManual)})
	if sel.Authority != AuthorityLocal || sel.FellBack {
		t.Fatalf("unexpected selection: %+v", sel)
	}
}

func TestSelectDoesNotAliasInput(t *testing.T) {
	local := []core.Transaction{tx("a", core.SourceManual)}
	sel := Reconcile(RemoteSet{}, local)
	sel.Working[0].ID = "changed"
	if local[0].ID != "a" {
		t.Fatal("working set must not alias the local input")
	}
}
