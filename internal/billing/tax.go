package billing

import "github.com/shopspring/decimal"

// taxSchedule describes three non-overlapping tiers. A price equal to a
// ceiling belongs to the lower tier.
type taxSchedule struct {
	flatCeiling decimal.Decimal
	flatTax     decimal.Decimal
	midCeiling  decimal.Decimal
	midRate     decimal.Decimal
	topRate     decimal.Decimal
}

var (
	productTax = taxSchedule{
		flatCeiling: decimal.NewFromInt(1000),
		flatTax:     decimal.NewFromInt(200),
		midCeiling:  decimal.NewFromInt(5000),
		midRate:     decimal.RequireFromString("0.12"),
		topRate:     decimal.RequireFromString("0.18"),
	}
	serviceTax = taxSchedule{
		flatCeiling: decimal.NewFromInt(1000),
		flatTax:     decimal.NewFromInt(100),
		midCeiling:  decimal.NewFromInt(8000),
		midRate:     decimal.RequireFromString("0.10"),
		topRate:     decimal.RequireFromString("0.15"),
	}
)

func (s taxSchedule) apply(price decimal.Decimal) decimal.Decimal {
	switch {
	case price.LessThanOrEqual(s.flatCeiling):
		return s.flatTax
	case price.LessThanOrEqual(s.midCeiling):
		return price.Mul(s.midRate)
	default:
		return price.Mul(s.topRate)
	}
}

// ComputeTax returns the tax owed for a single item of the given kind and
// price. Kinds without a schedule are untaxed.
func ComputeTax(kind Kind, price decimal.Decimal) decimal.Decimal {
	switch kind {
	case KindProduct:
		return productTax.apply(price)
	case KindService:
		return serviceTax.apply(price)
	default:
		return decimal.Zero
	}
}
