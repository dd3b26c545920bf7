package core

import (
	"testing"
	"time"
)

func TestDateOrdinal(t *testing.T) {
	jan9 := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC).UnixMilli()
	cases := []struct {
		in   string
		want int64
	}{
		{"2026-01-09", jan9},
		{"9-Jan-2026", jan9},
		{"09-jan-2026", jan9},
		{"9-January-2026", jan9},
		{"2026-01-09T00:00:00Z", jan9},
		{"01/09/2026", jan9},
		{"Jan 9, 2026", jan9},
		{"", EpochSentinel},
		{"not a date", EpochSentinel},
		{"31-Feb-2026", EpochSentinel},
		{"9-Foo-2026", EpochSentinel},
		{"9-Jan", EpochSentinel},
		{"9-Janxyz-2026", EpochSentinel},
		{"9-Junk-2026", EpochSentinel},
		{"9-Ja-2026", EpochSentinel},
		{"9-JANUARY-2026", jan9},
	}
	for _, tc := range cases {
		if got := DateOrdinal(tc.in); got != tc.want {
			t.Errorf("DateOrdinal(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDateOrdinalOrdersSentinelFirst(t *testing.T) {
	if DateOrdinal("garbage") >= DateOrdinal("1-Jan-1971") {
		t.Fatal("sentinel must sort before real dates")
	}
}
