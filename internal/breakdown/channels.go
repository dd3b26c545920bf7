package breakdown

import (
	"finboard/internal/core"
	"finboard/internal/estimate"

	"github.com/shopspring/decimal"
)

const (
	LabelOrganic = "Organic"
	LabelPaid    = "Paid (Meta)"
	LabelDirect  = "Direct"
	LabelOther   = "Other"
)

// ChannelInput is what the attribution needs from the channel feeds.
type ChannelInput struct {
	ShopifyRevenue   decimal.Decimal
	MetaSpend        decimal.Decimal
	ShopifyConnected bool
	MetaConnected    bool
}

// Channels splits shop revenue across organic, paid, direct and other.
//
// This is an estimation model, not measured attribution:
//
//	paidAttributed = metaSpend * AssumedROAS
//	paid           = min(paidAttributed, revenue * PaidCapShare)
//	organic        = max(revenue - paidAttributed, revenue * OrganicFloorShare)
//	direct         = revenue * DirectShare
//	other          = max(revenue - organic - paid - direct, 0)
//
// Share is each value over the sum of all four, 0 when that sum is 0. The
// four values may add up to more than revenue; shares always sum to 1.
func Channels(in ChannelInput, m estimate.Model) []core.ChannelAttribution {
	rev := in.ShopifyRevenue
	f := decimal.NewFromFloat

	attributed := in.MetaSpend.Mul(f(m.AssumedROAS))
	paid := decimal.Min(attributed, rev.Mul(f(m.PaidCapShare)))
	organic := decimal.Max(rev.Sub(attributed), rev.Mul(f(m.OrganicFloorShare)))
	direct := rev.Mul(f(m.DirectShare))
	other := decimal.Max(rev.Sub(organic).Sub(paid).Sub(direct), decimal.Zero)

	out := []core.ChannelAttribution{
		{Label: LabelOrganic, EstimatedValue: organic, Connected: in.ShopifyConnected},
		{Label: LabelPaid, EstimatedValue: paid, Connected: in.ShopifyConnected && in.MetaConnected},
		{Label: LabelDirect, EstimatedValue: direct, Connected: in.ShopifyConnected},
		{Label: LabelOther, EstimatedValue: other, Connected: in.ShopifyConnected},
	}
	total := decimal.Sum(organic, paid, direct, other)
	if total.IsZero() {
		return out
	}
	for i := range out {
		out[i].Share = out[i].EstimatedValue.Div(total).InexactFloat64()
	}
	return out
}
