// Package estimate holds the constants of the marketing estimation heuristics.
//
// None of these figures is measured. They stand in for click-to-purchase
// tracking and visit analytics the data sources do not provide, and are kept
// here so the model can be tuned or replaced without touching the
// aggregation code that consumes it.
package estimate

import "fmt"

// Model parameterizes the attribution and conversion heuristics.
type Model struct {
	// AssumedROAS multiplies paid spend into attributed revenue.
	AssumedROAS float64
	// PaidCapShare caps paid revenue at this share of total revenue.
	PaidCapShare float64
	// OrganicFloorShare is the minimum share of revenue credited to organic.
	OrganicFloorShare float64
	// DirectShare is the fixed share of revenue credited to direct traffic.
	DirectShare float64
	// VisitMultiplier estimates visits per order.
	VisitMultiplier float64
	// MinVisits is the floor for order-derived visits.
	MinVisits float64
}

// DefaultModel returns the documented defaults.
func DefaultModel() Model {
	return Model{
		AssumedROAS:       2.5,
		PaidCapShare:      0.40,
		OrganicFloorShare: 0.40,
		DirectShare:       0.15,
		VisitMultiplier:   15,
		MinVisits:         100,
	}
}

// Validate rejects parameters that would make the heuristics meaningless.
func (m Model) Validate() error {
	if m.AssumedROAS < 0 {
		return fmt.Errorf("assumed ROAS %v must not be negative", m.AssumedROAS)
	}
	for name, v := range map[string]float64{
		"paid cap share":      m.PaidCapShare,
		"organic floor share": m.OrganicFloorShare,
		"direct share":        m.DirectShare,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s %v must be between 0 and 1", name, v)
		}
	}
	if m.VisitMultiplier < 0 {
		return fmt.Errorf("visit multiplier %v must not be negative", m.VisitMultiplier)
	}
	if m.MinVisits <= 0 {
		return fmt.Errorf("min visits %v must be positive", m.MinVisits)
	}
	return nil
}

// EstimatedVisits is clicks plus max(orders*VisitMultiplier, MinVisits).
func (m Model) EstimatedVisits(orders, clicks float64) float64 {
	return clicks + max(orders*m.VisitMultiplier, m.MinVisits)
}
