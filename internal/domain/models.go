package domain

const (
	CategoryWoodenBoards = "Wooden Boards"
	CategoryFinishes     = "Finishes"
	CategoryCountertops  = "Countertops"
	CategoryHardware     = "Hardware"
	CategoryBedHardware  = "Bed Hardware"
)

// PricingMode tells how a line item's total is derived.
type PricingMode string

const (
	PricingUnit PricingMode = "unit"
	PricingArea PricingMode = "area"
)

type Company struct {
	Name     string `json:"company"`
	TagLine  string `json:"tagLine"`
	Location string `json:"location"`
	Phone    string `json:"phone"`
}

type ClientDetail struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// LineItem is a product row on an invoice. Sqft and Rate are only meaningful
// for area-priced items. Mode may pin the pricing mode on input and always
// holds the resolved mode once the item is committed.
type LineItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Qty         float64     `json:"qty"`
	Price       float64     `json:"price"`
	Sqft        *float64    `json:"sqft,omitempty"`
	Rate        *float64    `json:"rate,omitempty"`
	Mode        PricingMode `json:"pricingMode,omitempty"`
}

// Pricing resolves the pricing mode from the item's fields. An item is
// area-priced only when both sqft and rate are set and positive.
func (i LineItem) Pricing() PricingMode {
	if i.Sqft != nil && i.Rate != nil && *i.Sqft > 0 && *i.Rate > 0 {
		return PricingArea
	}
	return PricingUnit
}

type Discount struct {
	Enabled bool    `json:"enabled"`
	Percent float64 `json:"percent"`
	Flat    float64 `json:"flat"`
}

// InvoiceData is the raw input persisted with every snapshot.
type InvoiceData struct {
	Company                   string       `json:"company"`
	TagLine                   string       `json:"tagLine"`
	Location                  string       `json:"location"`
	Phone                     string       `json:"phone"`
	Client                    ClientDetail `json:"client"`
	Items                     []LineItem   `json:"items"`
	DiscountEnabled           bool         `json:"discountEnabled"`
	DiscountPercent           float64      `json:"discountPercent"`
	DiscountFlat              float64      `json:"discountFlat"`
	ProjectDescriptionEnabled bool         `json:"projectDescriptionEnabled"`
	ProjectDescription        string       `json:"projectDescription"`
}

// Totals is the computed money breakdown. GrandTotal may be negative; it is
// floored only when presented.
type Totals struct {
	SubTotal        float64 `json:"subTotal"`
	DiscountPercent float64 `json:"discountPercent"`
	DiscountFlat    float64 `json:"discountFlat"`
	PercentAmount   float64 `json:"percentDiscountAmount"`
	DiscountAmount  float64 `json:"discountAmount"`
	GrandTotal      float64 `json:"grandTotal"`
}

type Snapshot struct {
	InvoiceNo  string      `json:"invoiceNo"`
	CreatedAt  Timestamp   `json:"createdAt"`
	ExpiryTime Timestamp   `json:"expiryTime"`
	Data       InvoiceData `json:"data"`
	Totals     Totals      `json:"totals"`
}

type CatalogEntry struct {
	ID          string  `json:"id"`
	Category    string  `json:"category"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

type CatalogGroup struct {
	Category string         `json:"category"`
	Items    []CatalogEntry `json:"items"`
}

// RenderRow is one printable table row.
type RenderRow struct {
	Index       int      `json:"index"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Qty         float64  `json:"qty"`
	Area        *float64 `json:"area,omitempty"`
	Rate        float64  `json:"rate"`
	Total       float64  `json:"total"`
}

// RenderPayload is the read-only object handed to any presentation layer.
type RenderPayload struct {
	Company                   string       `json:"company"`
	TagLine                   string       `json:"tagLine"`
	Location                  string       `json:"location"`
	Phone                     string       `json:"phone"`
	Client                    ClientDetail `json:"client"`
	Items                     []LineItem   `json:"items"`
	Rows                      []RenderRow  `json:"rows"`
	DiscountPercent           float64      `json:"discountPercent"`
	DiscountFlat              float64      `json:"discountFlat"`
	ProjectDescriptionEnabled bool         `json:"projectDescriptionEnabled"`
	ProjectDescription        string       `json:"projectDescription"`
	InvoiceNo                 string       `json:"invoiceNo"`
	Date                      string       `json:"date"`
	Day                       string       `json:"day"`
	SubTotal                  float64      `json:"subTotal"`
	PercentDiscountAmount     float64      `json:"percentDiscountAmount"`
	DiscountAmount            float64      `json:"discountAmount"`
	GrandTotal                float64      `json:"grandTotal"`
	GrandTotalDisplay         string       `json:"grandTotalDisplay"`
	AmountWords               string       `json:"amountWords"`
	IsEdit                    bool         `json:"isEdit"`
}
