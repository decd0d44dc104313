// Package catalog holds the products offered in the item picker.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"billing/internal/domain"
)

var defaultEntries = []domain.CatalogEntry{
	{ID: "woodBoard1", Category: domain.CategoryWoodenBoards, Name: "Marine Plywood (BWR/BWP)", Price: 3500},
	{ID: "woodBoard2", Category: domain.CategoryWoodenBoards, Name: "HDF-HMR", Price: 3000},
	{ID: "woodBoard3", Category: domain.CategoryWoodenBoards, Name: "MDF", Price: 2500},
	{ID: "woodBoard4", Category: domain.CategoryWoodenBoards, Name: "Stainless Steel", Price: 8000},
	{ID: "woodBoard5", Category: domain.CategoryWoodenBoards, Name: "Particle Board", Price: 1500},

	{ID: "finish1", Category: domain.CategoryFinishes, Name: "Laminate (Matte/Gloss)", Price: 800},
	{ID: "finish2", Category: domain.CategoryFinishes, Name: "Acrylic High Gloss", Price: 2500},
	{ID: "finish3", Category: domain.CategoryFinishes, Name: "Veneer (Natural Wood)", Price: 2200},
	{ID: "finish4", Category: domain.CategoryFinishes, Name: "Lacquer / PU Paint", Price: 1800},
	{ID: "finish5", Category: domain.CategoryFinishes, Name: "Glass (Lacquered / Frosted)", Price: 3000},

	{ID: "counter1", Category: domain.CategoryCountertops, Name: "Quartz", Price: 5500},
	{ID: "counter2", Category: domain.CategoryCountertops, Name: "Granite", Price: 4500},
	{ID: "counter3", Category: domain.CategoryCountertops, Name: "Solid Surface (Corian Type)", Price: 6000},

	{ID: "hardware1", Category: domain.CategoryHardware, Name: "Cabinet Handles (Aluminium)", Price: 250},
	{ID: "hardware2", Category: domain.CategoryHardware, Name: "Cabinet Handles (SS / Brass)", Price: 400},
	{ID: "hardware3", Category: domain.CategoryHardware, Name: "Soft Close Hinges", Price: 120},
	{ID: "hardware4", Category: domain.CategoryHardware, Name: "Drawer Channels (Soft Close Rollers)", Price: 900},
	{ID: "hardware5", Category: domain.CategoryHardware, Name: "Tandem Box Drawer System", Price: 4500},

	{ID: "bedHardware1", Category: domain.CategoryBedHardware, Name: "Hydraulic Bed Lift Mechanism (Single)", Price: 4500},
	{ID: "bedHardware2", Category: domain.CategoryBedHardware, Name: "Hydraulic Bed Lift Mechanism (Double)", Price: 8500},
	{ID: "bedHardware3", Category: domain.CategoryBedHardware, Name: "Bed Storage Rollers", Price: 300},
	{ID: "bedHardware4", Category: domain.CategoryBedHardware, Name: "Heavy Duty Bed Hinges", Price: 600},
}

var categoryOrder = []string{
	domain.CategoryWoodenBoards,
	domain.CategoryFinishes,
	domain.CategoryCountertops,
	domain.CategoryHardware,
	domain.CategoryBedHardware,
}

// Catalog is safe for concurrent use; imports may run while requests read it.
type Catalog struct {
	mu      sync.RWMutex
	entries []domain.CatalogEntry
}

func New(entries []domain.CatalogEntry) *Catalog {
	c := &Catalog{}
	c.Merge(entries)
	return c
}

// Default returns the built-in product list.
func Default() *Catalog {
	return New(defaultEntries)
}

func (c *Catalog) Entries() []domain.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.CatalogEntry(nil), c.entries...)
}

func (c *Catalog) Find(id string) (domain.CatalogEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return domain.CatalogEntry{}, false
}

// Merge replaces entries with a matching id, or a matching category and name
// when the incoming entry has no id, and appends the rest. It returns how many
// entries were added and updated.
func (c *Catalog) Merge(entries []domain.CatalogEntry) (added, updated int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		entry.Name = strings.TrimSpace(entry.Name)
		entry.Category = strings.TrimSpace(entry.Category)
		if entry.Name == "" {
			continue
		}
		if idx := c.indexOf(entry); idx >= 0 {
			if entry.ID == "" {
				entry.ID = c.entries[idx].ID
			}
			c.entries[idx] = entry
			updated++
			continue
		}
		if entry.ID == "" {
			entry.ID = generatedID(entry)
		}
		c.entries = append(c.entries, entry)
		added++
	}
	return added, updated
}

func (c *Catalog) indexOf(entry domain.CatalogEntry) int {
	for i, existing := range c.entries {
		if entry.ID != "" && existing.ID == entry.ID {
			return i
		}
		if entry.ID == "" &&
			strings.EqualFold(existing.Category, entry.Category) &&
			strings.EqualFold(existing.Name, entry.Name) {
			return i
		}
	}
	return -1
}

// Groups returns entries grouped by category: known categories first in the
// picker's order, then any others alphabetically.
func (c *Catalog) Groups() []domain.CatalogGroup {
	entries := c.Entries()

	byCategory := make(map[string][]domain.CatalogEntry)
	for _, entry := range entries {
		byCategory[entry.Category] = append(byCategory[entry.Category], entry)
	}

	groups := make([]domain.CatalogGroup, 0, len(byCategory))
	for _, category := range categoryOrder {
		if items, ok := byCategory[category]; ok {
			groups = append(groups, domain.CatalogGroup{Category: category, Items: items})
			delete(byCategory, category)
		}
	}

	rest := make([]string, 0, len(byCategory))
	for category := range byCategory {
		rest = append(rest, category)
	}
	sort.Strings(rest)
	for _, category := range rest {
		groups = append(groups, domain.CatalogGroup{Category: category, Items: byCategory[category]})
	}
	return groups
}

func generatedID(entry domain.CatalogEntry) string {
	slug := strings.ToLower(entry.Category + "-" + entry.Name)
	return strings.Join(strings.FieldsFunc(slug, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}), "-")
}
