package core

import (
	"strconv"
	"strings"
	"time"
)

// EpochSentinel is the ordinal given to dates that cannot be parsed. It sorts
// before every real date.
const EpochSentinel int64 = 0

// layouts tried in order by the general parse.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon, 02 Jan 2006 15:04:05 MST",
}

var monthAbbrev = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// DateOrdinal maps a date string to a sortable integer (Unix milliseconds, UTC).
// It never fails: anything it cannot read becomes EpochSentinel.
func DateOrdinal(s string) int64 {
	t, ok := ParseDate(s)
	if !ok {
		return EpochSentinel
	}
	return t.UnixMilli()
}

// ParseDate tries the general layouts first and then the D-Mon-YYYY form
// used by the accounting feed ("9-Jan-2026").
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return parseDayMonYear(s)
}

// parseMonth accepts a three-letter abbreviation or the full English name.
func parseMonth(s string) (time.Month, bool) {
	mon := strings.ToLower(strings.TrimSpace(s))
	if len(mon) < 3 {
		return 0, false
	}
	month, ok := monthAbbrev[mon[:3]]
	if !ok || (len(mon) > 3 && mon != strings.ToLower(month.String())) {
		return 0, false
	}
	return month, true
}

func parseDayMonYear(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, ok := parseMonth(parts[1])
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || year < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31-Feb into March; treat that as unparseable.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
