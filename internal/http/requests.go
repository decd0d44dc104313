package http

import (
	"reflect"
	"strings"

	"billing/internal/domain"

	"github.com/go-playground/validator/v10"
)

type clientRequest struct {
	Name    string `json:"name" validate:"max=200"`
	Address string `json:"address" validate:"max=500"`
	Phone   string `json:"phone" validate:"max=40"`
}

type itemRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name" validate:"max=200"`
	Description string   `json:"description" validate:"max=1000"`
	Category    string   `json:"category" validate:"max=100"`
	Qty         *float64 `json:"qty" validate:"omitempty,gte=0"`
	Price       float64  `json:"price" validate:"gte=0"`
	Sqft        *float64 `json:"sqft" validate:"omitempty,gte=0"`
	Rate        *float64 `json:"rate" validate:"omitempty,gte=0"`
	PricingMode string   `json:"pricingMode" validate:"omitempty,oneof=unit area"`
}

// invoiceRequest is the draft body for quoting, creating and updating
// invoices. Field names match the stored invoice data.
type invoiceRequest struct {
	Client                    clientRequest `json:"client"`
	Items                     []itemRequest `json:"items" validate:"max=500,dive"`
	DiscountEnabled           bool          `json:"discountEnabled"`
	DiscountPercent           float64       `json:"discountPercent" validate:"gte=0,lte=100"`
	DiscountFlat              float64       `json:"discountFlat" validate:"gte=0"`
	ProjectDescriptionEnabled bool          `json:"projectDescriptionEnabled"`
	ProjectDescription        string        `json:"projectDescription" validate:"max=4000"`
}

func (req invoiceRequest) toData() domain.InvoiceData {
	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		qty := 1.0
		if item.Qty != nil {
			qty = *item.Qty
		}
		items = append(items, domain.LineItem{
			ID:          item.ID,
			Name:        item.Name,
			Description: item.Description,
			Category:    item.Category,
			Qty:         qty,
			Price:       item.Price,
			Sqft:        item.Sqft,
			Rate:        item.Rate,
			Mode:        domain.PricingMode(item.PricingMode),
		})
	}
	return domain.InvoiceData{
		Client: domain.ClientDetail{
			Name:    req.Client.Name,
			Address: req.Client.Address,
			Phone:   req.Client.Phone,
		},
		Items:                     items,
		DiscountEnabled:           req.DiscountEnabled,
		DiscountPercent:           req.DiscountPercent,
		DiscountFlat:              req.DiscountFlat,
		ProjectDescriptionEnabled: req.ProjectDescriptionEnabled,
		ProjectDescription:        req.ProjectDescription,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetails flattens validator errors into namespace -> failed tag,
// e.g. "invoiceRequest.items[0].qty" -> "gte" becomes "items[0].qty".
func validationDetails(err error) map[string]string {
	details := map[string]string{}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}
	for _, fe := range validationErrors {
		field := fe.Namespace()
		if idx := strings.Index(field, "."); idx >= 0 {
			field = field[idx+1:]
		}
		details[field] = fe.Tag()
	}
	return details
}
