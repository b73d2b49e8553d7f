// Package cart keeps the per-table carts in memory.
package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"tableside/internal/domain"
)

type Entry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Snapshot is an immutable copy of a cart, ordered by ascending product id.
type Snapshot []Entry

func (s Snapshot) IsEmpty() bool { return len(s) == 0 }

func (s Snapshot) Quantity(productID int64) int {
	for _, e := range s {
		if e.ProductID == productID {
			return e.Quantity
		}
	}
	return 0
}

// ProductResolver is the catalog lookup the store validates products against.
type ProductResolver interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
}

type tableCart struct {
	mu    sync.Mutex
	items map[int64]int
}

func (c *tableCart) snapshot() Snapshot {
	out := make(Snapshot, 0, len(c.items))
	for id, qty := range c.items {
		out = append(out, Entry{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Store maps table id -> cart. Mutations of one table's cart are serialized by
// that cart's own mutex; the store-wide lock only guards the map itself.
type Store struct {
	mu      sync.Mutex
	carts   map[int64]*tableCart
	catalog ProductResolver
}

func NewStore(catalog ProductResolver) *Store {
	return &Store{carts: make(map[int64]*tableCart), catalog: catalog}
}

func (s *Store) cart(tableID int64) *tableCart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[tableID]
	if !ok {
		c = &tableCart{items: make(map[int64]int)}
		s.carts[tableID] = c
	}
	return c
}

// Add increments the product's quantity, inserting it with quantity 1 when
// absent. Unknown products fail with InvalidProduct.
func (s *Store) Add(ctx context.Context, tableID, productID int64) (Snapshot, error) {
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NewError(domain.KindInvalidProduct, "product %d: %s", productID, domain.ErrMsgProductNotFound)
		}
		return nil, err
	}
	c := s.cart(tableID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[productID]++
	return c.snapshot(), nil
}

// Remove deletes the entry entirely. Removing an absent product is a no-op.
func (s *Store) Remove(tableID, productID int64) Snapshot {
	c := s.cart(tableID)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, productID)
	return c.snapshot()
}

func (s *Store) Clear(tableID int64) {
	c := s.cart(tableID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[int64]int)
}

func (s *Store) Snapshot(tableID int64) Snapshot {
	c := s.cart(tableID)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Consume removes the quantities of a merged snapshot. With no concurrent
// edits this empties the cart; items added after the snapshot was taken stay.
func (s *Store) Consume(tableID int64, merged Snapshot) {
	c := s.cart(tableID)
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range merged {
		left := c.items[e.ProductID] - e.Quantity
		if left > 0 {
			c.items[e.ProductID] = left
		} else {
			delete(c.items, e.ProductID)
		}
	}
}

// PricedEntry is one cart entry at the current price. Unavailable entries
// reference a product that left the catalog after it was added; they stay
// visible so the guest can remove them, but are not priced.
type PricedEntry struct {
	Entry
	Product     domain.Product  `json:"product"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Unavailable bool            `json:"unavailable,omitempty"`
}

type Priced struct {
	Entries []PricedEntry   `json:"items"`
	Total   decimal.Decimal `json:"total"`
}

// Priced values the table's cart at current catalog prices. Nothing is
// captured: the order lines take their prices at submission.
func (s *Store) Priced(ctx context.Context, tableID int64) (Priced, error) {
	out := Priced{Entries: make([]PricedEntry, 0), Total: decimal.Zero}
	for _, e := range s.Snapshot(tableID) {
		p, err := s.catalog.GetProduct(ctx, e.ProductID)
		if domain.IsKind(err, domain.KindNotFound) {
			out.Entries = append(out.Entries, PricedEntry{
				Entry:       e,
				Product:     domain.Product{ID: e.ProductID},
				Subtotal:    decimal.Zero,
				Unavailable: true,
			})
			continue
		}
		if err != nil {
			return Priced{}, err
		}
		sub := p.Price.Mul(decimal.NewFromInt(int64(e.Quantity)))
		out.Entries = append(out.Entries, PricedEntry{Entry: e, Product: p, Subtotal: sub})
		out.Total = out.Total.Add(sub)
	}
	return out, nil
}

func (s *Store) Total(ctx context.Context, tableID int64) (decimal.Decimal, error) {
	p, err := s.Priced(ctx, tableID)
	if err != nil {
		return decimal.Zero, err
	}
	return p.Total, nil
}
