package categorize

import (
	"fmt"
	"strings"

	"github.com/ledgerhound/stmtledger/internal/domain"
)

// Suggester proposes a category for a merchant absent from the map. Its
// answer is advisory only: a caller surfaces it as a proposal and never
// records it without confirmation.
type Suggester interface {
	Suggest(merchant string) (domain.Category, bool)
}

// Suggestion is a proposed category for an unmapped merchant.
type Suggestion struct {
	Index    int
	Merchant string
	Category domain.Category
}

// Categorizer applies the persisted merchant map to a ledger and tracks
// which records remain unknown. Every confirmed assignment is written back
// to the store immediately, so an interrupted session loses at most the
// answer in flight.
type Categorizer struct {
	store     Store
	mapping   map[string]domain.Category
	suggester Suggester
}

// New loads the mapping from store. The suggester may be nil.
func New(store Store, suggester Suggester) (*Categorizer, error) {
	mapping, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant mapping: %w", err)
	}
	return &Categorizer{store: store, mapping: mapping, suggester: suggester}, nil
}

// Len returns the number of mapped merchants.
func (c *Categorizer) Len() int { return len(c.mapping) }

// Lookup returns the stored category for a merchant, if any. The lookup is
// case-insensitive.
func (c *Categorizer) Lookup(merchant string) (domain.Category, bool) {
	cat, ok := c.mapping[strings.ToLower(merchant)]
	return cat, ok
}

// Apply labels every record whose merchant the map knows and returns the
// indexes still uncategorized, in ledger order.
func (c *Categorizer) Apply(ledger *domain.Ledger) ([]int, error) {
	var pending []int
	for i, rec := range ledger.Records() {
		if rec.Anchor {
			continue
		}
		if cat, ok := c.Lookup(rec.Merchant); ok {
			if err := ledger.SetCategory(i, cat); err != nil {
				return nil, err
			}
		} else {
			pending = append(pending, i)
		}
	}
	return pending, nil
}

// Suggestions runs the advisory suggester over the pending indexes.
// Deterministic map hits are never revisited here; suggestions exist only
// for merchants the map does not know.
func (c *Categorizer) Suggestions(ledger *domain.Ledger, pending []int) []Suggestion {
	if c.suggester == nil {
		return nil
	}
	var out []Suggestion
	records := ledger.Records()
	for _, i := range pending {
		if cat, ok := c.suggester.Suggest(records[i].Merchant); ok {
			out = append(out, Suggestion{Index: i, Merchant: records[i].Merchant, Category: cat})
		}
	}
	return out
}

// Assign records a confirmed merchant-to-category pair, labels the record,
// and persists the whole map at once.
func (c *Categorizer) Assign(ledger *domain.Ledger, index int, category domain.Category) error {
	records := ledger.Records()
	if index < 0 || index >= len(records) {
		return fmt.Errorf("record index %d out of range", index)
	}

	if err := domain.RegisterCategory(category); err != nil {
		return err
	}

	merchant := strings.ToLower(records[index].Merchant)
	c.mapping[merchant] = category
	if err := ledger.SetCategory(index, category); err != nil {
		return err
	}

	// Later records for the same merchant resolve without re-asking.
	for i := index + 1; i < len(records); i++ {
		if strings.ToLower(records[i].Merchant) == merchant {
			if err := ledger.SetCategory(i, category); err != nil {
				return err
			}
		}
	}

	if err := c.store.Save(c.mapping); err != nil {
		return fmt.Errorf("failed to persist merchant mapping: %w", err)
	}
	return nil
}
