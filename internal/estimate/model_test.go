package estimate

import "testing"

func TestDefaultModel(t *testing.T) {
	m := DefaultModel()
	if m.AssumedROAS != 2.5 || m.PaidCapShare != 0.40 || m.OrganicFloorShare != 0.40 ||
		m.DirectShare != 0.15 || m.VisitMultiplier != 15 || m.MinVisits != 100 {
		t.Fatalf("unexpected defaults: %+v", m)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestModelValidate(t *testing.T) {
	bad := []Model{
		{AssumedROAS: -1, MinVisits: 1},
		{AssumedROAS: 1, PaidCapShare: 1.5, MinVisits: 1},
		{AssumedROAS: 1, DirectShare: -0.1, MinVisits: 1},
		{AssumedROAS: 1, MinVisits: 0},
	}
	for i, m := range bad {
		if err := m.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEstimatedVisits(t *testing.T) {
	m := DefaultModel()
	cases := []struct {
		orders, clicks, want float64
	}{
		{0, 0, 100},
		{2, 50, 150},   // 2*15=30 < 100
		{10, 50, 200},  // 10*15=150
		{100, 0, 1500}, // 100*15
	}
	for _, tc := range cases {
		if got := m.EstimatedVisits(tc.orders, tc.clicks); got != tc.want {
			t.Errorf("EstimatedVisits(%v, %v) = %v, want %v", tc.orders, tc.clicks, got, tc.want)
		}
	}
}
