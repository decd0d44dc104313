// Package lineitem holds the invoice's committed items and the single temp
// item being composed or edited.
package lineitem

import (
	"fmt"
	"strings"

	"billing/internal/domain"

	"github.com/google/uuid"
)

// ItemPatch is a partial update of the temp item; nil fields are unchanged.
type ItemPatch struct {
	// ID keeps a caller-held id on a new item. Ignored while editing.
	ID          *string
	Name        *string
	Description *string
	Category    *string
	Qty         *float64
	Price       *float64
	Sqft        *float64
	Rate        *float64
	// Mode pins the pricing mode; empty infers it from sqft and rate.
	Mode        *domain.PricingMode
	// ClearArea drops sqft and rate, turning the item back to unit pricing.
	ClearArea   bool
}

type Editor struct {
	newID   func() string
	temp    domain.LineItem
	items   []domain.LineItem
	editing bool
}

// NewEditor returns an editor with an empty temp item. A nil newID uses
// random UUIDs.
func NewEditor(newID func() string) *Editor {
	if newID == nil {
		newID = uuid.NewString
	}
	e := &Editor{newID: newID}
	e.temp = e.emptyItem()
	return e
}

func (e *Editor) emptyItem() domain.LineItem {
	return domain.LineItem{ID: e.newID(), Qty: 1}
}

func (e *Editor) Temp() domain.LineItem {
	return cloneItem(e.temp)
}

func (e *Editor) Items() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(e.items))
	for _, item := range e.items {
		out = append(out, cloneItem(item))
	}
	return out
}

func (e *Editor) Editing() bool {
	return e.editing
}

func (e *Editor) SetTemp(patch ItemPatch) {
	if patch.ID != nil && !e.editing {
		if id := strings.TrimSpace(*patch.ID); id != "" {
			e.temp.ID = id
		}
	}
	if patch.Name != nil {
		e.temp.Name = *patch.Name
	}
	if patch.Description != nil {
		e.temp.Description = *patch.Description
	}
	if patch.Category != nil {
		e.temp.Category = *patch.Category
	}
	if patch.Qty != nil {
		e.temp.Qty = *patch.Qty
	}
	if patch.Price != nil {
		e.temp.Price = *patch.Price
	}
	if patch.ClearArea {
		e.temp.Sqft = nil
		e.temp.Rate = nil
	}
	if patch.Sqft != nil {
		e.temp.Sqft = floatPtr(*patch.Sqft)
	}
	if patch.Rate != nil {
		e.temp.Rate = floatPtr(*patch.Rate)
	}
	if patch.Mode != nil {
		e.temp.Mode = *patch.Mode
	}
}

// ApplyCatalogEntry fills the temp item from a picked catalog product. For
// area-priced categories the catalog price becomes the per-sqft rate.
func (e *Editor) ApplyCatalogEntry(entry domain.CatalogEntry) {
	e.temp.Name = entry.Name
	e.temp.Category = entry.Category
	e.temp.Description = entry.Description
	e.temp.Price = entry.Price
	e.temp.Mode = ""
	if isAreaCategory(entry.Category) {
		e.temp.Rate = floatPtr(entry.Price)
	} else {
		e.temp.Sqft = nil
		e.temp.Rate = nil
	}
}

// Commit validates the temp item and appends it, or replaces the edited
// item in place. A pinned unit mode drops sqft and rate; a pinned area mode
// requires both. The temp item is reset on success only.
func (e *Editor) Commit() error {
	item := cloneItem(e.temp)
	item.Name = strings.TrimSpace(item.Name)

	if err := validate(item); err != nil {
		return err
	}
	switch item.Mode {
	case domain.PricingUnit:
		item.Sqft = nil
		item.Rate = nil
	case domain.PricingArea:
		if item.Pricing() != domain.PricingArea {
			return invalid("pricingMode", "area pricing needs a positive sqft and rate")
		}
	case "":
	default:
		return invalid("pricingMode", fmt.Sprintf("unknown pricing mode %q", item.Mode))
	}
	item.Mode = item.Pricing()

	if !e.editing && e.indexOf(item.ID) >= 0 {
		item.ID = e.newID()
	}
	if dup, ok := e.findDuplicate(item); ok {
		return &ValidationError{
			Err:     ErrDuplicate,
			Field:   "name",
			Details: fmt.Sprintf("%q is already on the invoice", dup.Name),
		}
	}

	if e.editing {
		if idx := e.indexOf(item.ID); idx >= 0 {
			e.items[idx] = item
		} else {
			e.items = append(e.items, item)
		}
	} else {
		e.items = append(e.items, item)
	}

	e.ResetTemp()
	return nil
}

// Edit loads a committed item into the temp slot.
func (e *Editor) Edit(id string) error {
	idx := e.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("edit %s: %w", id, ErrItemNotFound)
	}
	e.temp = cloneItem(e.items[idx])
	e.temp.Mode = ""
	e.editing = true
	return nil
}

// Delete removes the item. Deleting the item loaded into the temp slot also
// ends the edit session.
func (e *Editor) Delete(id string) bool {
	idx := e.indexOf(id)
	if idx >= 0 {
		e.items = append(e.items[:idx], e.items[idx+1:]...)
	}
	if e.temp.ID == id {
		e.ResetTemp()
	}
	return idx >= 0
}

func (e *Editor) ResetTemp() {
	e.temp = e.emptyItem()
	e.editing = false
}

// Replace loads items wholesale, e.g. from a stored draft. Missing or repeated
// ids are regenerated so ids stay unique.
func (e *Editor) Replace(items []domain.LineItem) {
	seen := make(map[string]struct{}, len(items))
	e.items = make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		item = cloneItem(item)
		if _, dup := seen[item.ID]; item.ID == "" || dup {
			item.ID = e.newID()
		}
		seen[item.ID] = struct{}{}
		item.Mode = item.Pricing()
		e.items = append(e.items, item)
	}
	e.ResetTemp()
}

func (e *Editor) indexOf(id string) int {
	for i, item := range e.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// findDuplicate matches on name plus the candidate's own price field: rate
// for an area-priced candidate, price otherwise. The existing item's mode
// does not matter.
func (e *Editor) findDuplicate(candidate domain.LineItem) (domain.LineItem, bool) {
	name := normalizeName(candidate.Name)
	area := candidate.Pricing() == domain.PricingArea
	for _, existing := range e.items {
		if existing.ID == candidate.ID || normalizeName(existing.Name) != name {
			continue
		}
		if area {
			if existing.Rate != nil && *existing.Rate == *candidate.Rate {
				return existing, true
			}
			continue
		}
		if existing.Price == candidate.Price {
			return existing, true
		}
	}
	return domain.LineItem{}, false
}

func validate(item domain.LineItem) error {
	if item.Name == "" {
		return invalid("name", "product name is required")
	}
	if item.Qty < 0 {
		return invalid("qty", "quantity cannot be negative")
	}
	if item.Price < 0 {
		return invalid("price", "price cannot be negative")
	}
	if item.Sqft != nil && *item.Sqft < 0 {
		return invalid("sqft", "area cannot be negative")
	}
	if item.Rate != nil && *item.Rate < 0 {
		return invalid("rate", "rate cannot be negative")
	}
	return nil
}

func normalizeName(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isAreaCategory(category string) bool {
	return category == domain.CategoryWoodenBoards || category == domain.CategoryFinishes
}

func cloneItem(item domain.LineItem) domain.LineItem {
	if item.Sqft != nil {
		item.Sqft = floatPtr(*item.Sqft)
	}
	if item.Rate != nil {
		item.Rate = floatPtr(*item.Rate)
	}
	return item
}

func floatPtr(v float64) *float64 {
	return &v
}
