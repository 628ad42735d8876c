// Package cart holds the per-session shopping cart. Memory only: a cart
// lives exactly as long as the browser session and is never persisted.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Item is one cart line. Uniqueness is by ProductID within a session.
type Item struct {
	ProductID int64           `json:"produit_id"`
	Name      string          `json:"nom"`
	UnitPrice decimal.Decimal `json:"prix"`
	ImageRef  string          `json:"image,omitempty"`
	CompanyID int64           `json:"compagnie_id"`
	Quantity  int             `json:"quantite"`
}

// Store keeps one ordered cart per browser session.
type Store struct {
	mu    sync.Mutex
	carts map[string][]Item
}

func NewStore() *Store {
	return &Store{carts: make(map[string][]Item)}
}

// AddItem inserts a line, merging quantities when the product is already
// present. Quantities below 1 are clamped to 1.
func (s *Store) AddItem(sessionID string, item Item) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ProductID == item.ProductID {
			lines[i].Quantity += item.Quantity
			return
		}
	}
	s.carts[sessionID] = append(lines, item)
}

// RemoveItem drops every line matching the product id.
func (s *Store) RemoveItem(sessionID string, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	kept := lines[:0]
	for _, line := range lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		delete(s.carts, sessionID)
		return
	}
	s.carts[sessionID] = kept
}

// UpdateQuantity sets the quantity for a product, clamped to at least 1.
// Absent products are left alone.
func (s *Store) UpdateQuantity(sessionID string, productID int64, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	for i := range lines {
		if lines[i].ProductID == productID {
			lines[i].Quantity = quantity
			return
		}
	}
}

// Clear empties the session's cart, used after a finalized order.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
}

// Items returns a copy of the cart lines in insertion order.
func (s *Store) Items(sessionID string) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.carts[sessionID]
	out := make([]Item, len(lines))
	copy(out, lines)
	return out
}

// Total recomputes Σ(unitPrice × quantity) from the live entries on every
// call. Never cached.
func (s *Store) Total(sessionID string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, line := range s.carts[sessionID] {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
