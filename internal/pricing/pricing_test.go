package pricing

import (
	"testing"

	"billing/internal/domain"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name string
		item domain.LineItem
		want float64
	}{
		{
			name: "unit priced",
			item: domain.LineItem{Name: "Hinge", Qty: 4, Price: 120},
			want: 480,
		},
		{
			name: "wooden boards multiply quantity by area",
			item: domain.LineItem{Category: domain.CategoryWoodenBoards, Qty: 3, Price: 9, Sqft: ptr(32), Rate: ptr(110)},
			want: 3 * 32 * 110,
		},
		{
			name: "finishes ignore quantity",
			item: domain.LineItem{Category: domain.CategoryFinishes, Qty: 3, Sqft: ptr(40), Rate: ptr(85)},
			want: 40 * 85,
		},
		{
			name: "other category with area falls back to qty*sqft*rate",
			item: domain.LineItem{Category: domain.CategoryCountertops, Qty: 2, Sqft: ptr(10), Rate: ptr(50)},
			want: 1000,
		},
		{
			name: "sqft without rate is unit priced",
			item: domain.LineItem{Category: domain.CategoryWoodenBoards, Qty: 2, Price: 300, Sqft: ptr(10)},
			want: 600,
		},
		{
			name: "rate without sqft is unit priced",
			item: domain.LineItem{Category: domain.CategoryFinishes, Qty: 5, Price: 20, Rate: ptr(80)},
			want: 100,
		},
		{
			name: "zero sqft is unit priced",
			item: domain.LineItem{Category: domain.CategoryWoodenBoards, Qty: 1, Price: 70, Sqft: ptr(0), Rate: ptr(80)},
			want: 70,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ItemTotal(tt.item), 1e-9)
		})
	}
}

func TestComputeTotalsDiscounts(t *testing.T) {
	items := []domain.LineItem{{Name: "Wardrobe", Qty: 1, Price: 10000}}

	totals := ComputeTotals(items, 5, 200)
	assert.Equal(t, 10000.0, totals.SubTotal)
	assert.Equal(t, 500.0, totals.PercentAmount)
	assert.Equal(t, 700.0, totals.DiscountAmount)
	assert.Equal(t, 9300.0, totals.GrandTotal)
	assert.Equal(t, 5.0, totals.DiscountPercent)
	assert.Equal(t, 200.0, totals.DiscountFlat)
}

func TestComputeTotalsNonPositivePercentIsIgnored(t *testing.T) {
	items := []domain.LineItem{{Name: "Shelf", Qty: 2, Price: 500}}

	for _, percent := range []float64{0, -3} {
		totals := ComputeTotals(items, percent, 50)
		assert.Equal(t, 0.0, totals.PercentAmount)
		assert.Equal(t, 50.0, totals.DiscountAmount)
		assert.Equal(t, 950.0, totals.GrandTotal)
	}
}

func TestComputeTotalsDoesNotClampPercent(t *testing.T) {
	items := []domain.LineItem{{Name: "Bed", Qty: 1, Price: 1000}}

	totals := ComputeTotals(items, 20, 0)
	assert.Equal(t, 200.0, totals.PercentAmount)
	assert.Equal(t, 800.0, totals.GrandTotal)
}

func TestComputeTotalsNegativeGrandTotal(t *testing.T) {
	items := []domain.LineItem{{Name: "Knob", Qty: 1, Price: 100}}

	totals := ComputeTotals(items, 0, 250)
	assert.Equal(t, -150.0, totals.GrandTotal)
	assert.Equal(t, 0.0, DisplayAmount(totals.GrandTotal))
	assert.Equal(t, "0.00", FormatAmount(totals.GrandTotal))
}

func TestSubTotalIsOrderIndependent(t *testing.T) {
	items := []domain.LineItem{
		{Name: "A", Qty: 3, Price: 0.1},
		{Name: "B", Category: domain.CategoryWoodenBoards, Qty: 2, Sqft: ptr(7.5), Rate: ptr(0.3)},
		{Name: "C", Category: domain.CategoryFinishes, Qty: 9, Sqft: ptr(12.25), Rate: ptr(1.7)},
		{Name: "D", Qty: 1, Price: 99.99},
	}
	want := SubTotal(items)

	permutations := [][]int{{3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}
	for _, order := range permutations {
		shuffled := make([]domain.LineItem, 0, len(items))
		for _, idx := range order {
			shuffled = append(shuffled, items[idx])
		}
		assert.InDelta(t, want, SubTotal(shuffled), 1e-9)
	}
}

func TestAreaQuantityAndUnitRate(t *testing.T) {
	board := domain.LineItem{Category: domain.CategoryWoodenBoards, Qty: 2, Sqft: ptr(16), Rate: ptr(90)}
	area, ok := AreaQuantity(board)
	assert.True(t, ok)
	assert.Equal(t, 32.0, area)
	assert.Equal(t, 90.0, UnitRate(board))

	finish := domain.LineItem{Category: domain.CategoryFinishes, Qty: 2, Sqft: ptr(16), Rate: ptr(40)}
	area, ok = AreaQuantity(finish)
	assert.True(t, ok)
	assert.Equal(t, 16.0, area)

	unit := domain.LineItem{Qty: 2, Price: 15}
	_, ok = AreaQuantity(unit)
	assert.False(t, ok)
	assert.Equal(t, 15.0, UnitRate(unit))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1250.50", FormatAmount(1250.5))
	assert.Equal(t, "0.30", FormatAmount(0.1+0.2))
	assert.Equal(t, "9300.00", FormatAmount(9300))
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-2, 0},
		{0, 0},
		{0.5, 1},
		{3, 3},
		{5, 5},
		{12, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampPercent(tt.in), "ClampPercent(%v)", tt.in)
	}
}
