package service

import (
	"strings"

	"billing/internal/domain"
	"billing/internal/lineitem"
	"billing/internal/pricing"
)

// ClientPatch is a partial update of the client block; nil fields are kept.
type ClientPatch struct {
	Name    *string
	Address *string
	Phone   *string
}

// Session is the in-progress invoice owned by one editing flow. It is not
// safe for concurrent use.
type Session struct {
	client             domain.ClientDetail
	items              *lineitem.Editor
	discount           domain.Discount
	descriptionEnabled bool
	description        string
	editingInvoiceNo   string
}

func NewSession(newID func() string) *Session {
	return &Session{items: lineitem.NewEditor(newID)}
}

func (s *Session) Client() domain.ClientDetail {
	return s.client
}

func (s *Session) SetClient(patch ClientPatch) {
	if patch.Name != nil {
		s.client.Name = *patch.Name
	}
	if patch.Address != nil {
		s.client.Address = *patch.Address
	}
	if patch.Phone != nil {
		s.client.Phone = *patch.Phone
	}
}

// Items exposes the line item editor for add, edit and delete.
func (s *Session) Items() *lineitem.Editor {
	return s.items
}

func (s *Session) Discount() domain.Discount {
	return s.discount
}

// SetDiscountEnabled toggles the percentage discount. Disabling it zeroes the
// percent; the flat amount is kept.
func (s *Session) SetDiscountEnabled(enabled bool) {
	s.discount.Enabled = enabled
	if !enabled {
		s.discount.Percent = 0
	}
}

// SetDiscountPercent stores the percent clamped to [1, 5]. Values <= 0 turn
// the percentage off. It has no effect while the discount is disabled.
func (s *Session) SetDiscountPercent(percent float64) {
	if !s.discount.Enabled {
		return
	}
	s.discount.Percent = pricing.ClampPercent(percent)
}

func (s *Session) SetDiscountFlat(flat float64) {
	if flat < 0 {
		flat = 0
	}
	s.discount.Flat = flat
}

func (s *Session) ProjectDescription() (bool, string) {
	return s.descriptionEnabled, s.description
}

func (s *Session) SetProjectDescription(enabled bool, text string) {
	s.descriptionEnabled = enabled
	s.description = text
}

// EditingInvoiceNo is the number being re-saved, or "" for a new invoice.
func (s *Session) EditingInvoiceNo() string {
	return s.editingInvoiceNo
}

func (s *Session) Totals() domain.Totals {
	return pricing.ComputeTotals(s.items.Items(), s.discount.Percent, s.discount.Flat)
}

// Data snapshots the session together with the issuing company.
func (s *Session) Data(company domain.Company) domain.InvoiceData {
	return domain.InvoiceData{
		Company:                   company.Name,
		TagLine:                   company.TagLine,
		Location:                  company.Location,
		Phone:                     company.Phone,
		Client:                    s.client,
		Items:                     s.items.Items(),
		DiscountEnabled:           s.discount.Enabled,
		DiscountPercent:           s.discount.Percent,
		DiscountFlat:              s.discount.Flat,
		ProjectDescriptionEnabled: s.descriptionEnabled,
		ProjectDescription:        s.description,
	}
}

// LoadDraft replaces the whole session state from stored invoice data. Missing
// fields fall back to their zero values. Older records carry a percent without
// the enabled flag; a positive percent enables the discount.
func (s *Session) LoadDraft(data domain.InvoiceData) {
	s.client = domain.ClientDetail{
		Name:    strings.TrimSpace(data.Client.Name),
		Address: strings.TrimSpace(data.Client.Address),
		Phone:   strings.TrimSpace(data.Client.Phone),
	}
	s.items.Replace(data.Items)

	s.discount = domain.Discount{}
	s.SetDiscountEnabled(data.DiscountEnabled || data.DiscountPercent > 0)
	if s.discount.Enabled {
		s.discount.Percent = data.DiscountPercent
		if s.discount.Percent < 0 {
			s.discount.Percent = 0
		}
	}
	s.SetDiscountFlat(data.DiscountFlat)

	s.descriptionEnabled = data.ProjectDescriptionEnabled
	s.description = data.ProjectDescription
}

// Reset clears everything, including the editing context.
func (s *Session) Reset() {
	s.client = domain.ClientDetail{}
	s.items.Replace(nil)
	s.discount = domain.Discount{}
	s.descriptionEnabled = false
	s.description = ""
	s.editingInvoiceNo = ""
}
