// Package pricing computes line totals, discounts and grand totals.
//
// Arithmetic is plain float64 with no intermediate rounding; amounts are only
// rounded to two decimals by FormatAmount when presented.
package pricing

import (
	"billing/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	MinPercent = 1
	MaxPercent = 5
)

// ItemTotal returns the line total. Boards multiply area by quantity,
// finishes are charged on area alone, everything else is qty*price.
func ItemTotal(item domain.LineItem) float64 {
	if item.Pricing() != domain.PricingArea {
		return item.Qty * item.Price
	}
	area := *item.Sqft * *item.Rate
	if item.Category == domain.CategoryFinishes {
		return area
	}
	return item.Qty * area
}

// AreaQuantity is the printable area column: qty*sqft for boards, sqft for
// finishes. Unit-priced items have no area.
func AreaQuantity(item domain.LineItem) (float64, bool) {
	if item.Pricing() != domain.PricingArea {
		return 0, false
	}
	if item.Category == domain.CategoryFinishes {
		return *item.Sqft, true
	}
	return item.Qty * *item.Sqft, true
}

// UnitRate is the rate column: rate for area-priced items, price otherwise.
func UnitRate(item domain.LineItem) float64 {
	if item.Pricing() == domain.PricingArea {
		return *item.Rate
	}
	return item.Price
}

func SubTotal(items []domain.LineItem) float64 {
	var sum float64
	for _, item := range items {
		sum += ItemTotal(item)
	}
	return sum
}

// ComputeTotals applies the percentage and flat discounts to the subtotal.
// percent is used as given; a value <= 0 means no percentage discount.
func ComputeTotals(items []domain.LineItem, percent, flat float64) domain.Totals {
	subTotal := SubTotal(items)

	var percentAmount float64
	if percent > 0 {
		percentAmount = subTotal * percent / 100
	}
	discount := percentAmount + flat

	return domain.Totals{
		SubTotal:        subTotal,
		DiscountPercent: percent,
		DiscountFlat:    flat,
		PercentAmount:   percentAmount,
		DiscountAmount:  discount,
		GrandTotal:      subTotal - discount,
	}
}

// DisplayAmount floors negative values at zero.
func DisplayAmount(value float64) float64 {
	if value < 0 {
		return 0
	}
	return value
}

// FormatAmount renders the display amount with two decimals.
func FormatAmount(value float64) string {
	return decimal.NewFromFloat(DisplayAmount(value)).StringFixed(2)
}

// ClampPercent is the input-layer rule for the percentage field: non-positive
// disables it, anything else lands in [MinPercent, MaxPercent].
func ClampPercent(value float64) float64 {
	switch {
	case value <= 0:
		return 0
	case value < MinPercent:
		return MinPercent
	case value > MaxPercent:
		return MaxPercent
	default:
		return value
	}
}
