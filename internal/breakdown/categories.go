// Package breakdown groups a working set into category buckets and splits
// channel revenue across marketing sources.
package breakdown

import (
	"cmp"
	"slices"
	"strings"

	"finboard/internal/core"

	"github.com/shopspring/decimal"
)

// Dominance tells which side of a bucket its ranking is based on.
type Dominance string

const (
	IncomeDominant  Dominance = "income"
	ExpenseDominant Dominance = "expense"
)

// Bucket is a category bucket with its ranking data.
type Bucket struct {
	core.CategoryBucket
	Dominance Dominance
	// Ratio is the dominant total relative to the largest bucket, in 0..1.
	Ratio float64
}

// DominantTotal returns the total the bucket is ranked by.
func (b Bucket) DominantTotal() decimal.Decimal {
	if b.Dominance == IncomeDominant {
		return b.IncomeTotal
	}
	return b.ExpenseTotal
}

// CategoryBreakdown is the ranked result of Categories.
type CategoryBreakdown struct {
	Buckets []Bucket
	// Max is the largest dominant total, the 100% baseline for Ratio.
	Max decimal.Decimal
}

// Categories groups txs by category. Income and expense totals are exact sums
// of the signed amounts; expenses are kept as a positive magnitude.
func Categories(txs []core.Transaction) CategoryBreakdown {
	index := make(map[string]int)
	var buckets []Bucket
	for _, t := range txs {
		name := strings.TrimSpace(t.Category)
		i, ok := index[name]
		if !ok {
			i = len(buckets)
			index[name] = i
			buckets = append(buckets, Bucket{CategoryBucket: core.CategoryBucket{
				Name:         name,
				IncomeTotal:  decimal.Zero,
				ExpenseTotal: decimal.Zero,
			}})
		}
		b := &buckets[i]
		s := t.SignedAmount()
		if s.IsNegative() {
			b.ExpenseTotal = b.ExpenseTotal.Add(s.Neg())
		} else {
			b.IncomeTotal = b.IncomeTotal.Add(s)
		}
		b.Count++
	}
	return rank(buckets)
}

// FromBuckets ranks buckets supplied by an upstream aggregate.
func FromBuckets(in []core.CategoryBucket) CategoryBreakdown {
	buckets := make([]Bucket, 0, len(in))
	for _, c := range in {
		c.ExpenseTotal = c.ExpenseTotal.Abs()
		buckets = append(buckets, Bucket{CategoryBucket: c})
	}
	return rank(buckets)
}

func rank(buckets []Bucket) CategoryBreakdown {
	for i := range buckets {
		b := &buckets[i]
		if b.IncomeTotal.IsPositive() && b.ExpenseTotal.IsZero() {
			b.Dominance = IncomeDominant
		} else {
			b.Dominance = ExpenseDominant
		}
	}
	slices.SortStableFunc(buckets, func(a, b Bucket) int {
		if c := b.DominantTotal().Cmp(a.DominantTotal()); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	out := CategoryBreakdown{Buckets: buckets, Max: decimal.Zero}
	if len(buckets) == 0 {
		return out
	}
	out.Max = buckets[0].DominantTotal()
	if out.Max.IsZero() {
		return out
	}
	for i := range buckets {
		buckets[i].Ratio = buckets[i].DominantTotal().Div(out.Max).InexactFloat64()
	}
	return out
}
