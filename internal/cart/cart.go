package cart

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Line is one product entry in a cart. UnitPrice is captured at add time so a
// later price edit does not silently change an open cart.
type Line struct {
	ProductID uint
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times unit price.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is a customer's working cart. Total is always the sum of the line
// subtotals; every mutation goes through recompute.
type Cart struct {
	Lines []Line
	Total decimal.Decimal
}

func (c *Cart) recompute() {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	c.Total = total
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c == nil || len(c.Lines) == 0
}

// Store keeps the in-memory carts, keyed by customer phone.
type Store struct {
	mu    sync.Mutex
	carts map[string]*Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]*Cart)}
}

// Get returns the customer's cart, creating an empty one if needed.
func (s *Store) Get(phone string) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLocked(phone)
}

func (s *Store) ensureLocked(phone string) *Cart {
	c, ok := s.carts[phone]
	if !ok {
		c = &Cart{Total: decimal.Zero}
		s.carts[phone] = c
	}
	return c
}

// AddLine appends a line to the customer's cart and returns the updated cart.
func (s *Store) AddLine(phone string, line Line) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ensureLocked(phone)
	c.Lines = append(c.Lines, line)
	c.recompute()
	return c
}

// Replace swaps the customer's cart content for the given lines.
func (s *Store) Replace(phone string, lines []Line) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ensureLocked(phone)
	c.Lines = append([]Line(nil), lines...)
	c.recompute()
	return c
}

// Clear empties the customer's cart.
func (s *Store) Clear(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.ensureLocked(phone)
	c.Lines = nil
	c.recompute()
}
