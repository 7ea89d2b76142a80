package cart

import (
	"context"

	"github.com/yupvendas/storebot/pkg/db/models"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// productLoader is the slice of the catalog the cart mirror needs.
type productLoader interface {
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
}

// Service keeps the in-memory cart and its persisted rows in sync. The memory
// copy is authoritative while the process runs; rows exist for recovery.
type Service interface {
	Cart(phone string) *Cart
	Add(ctx context.Context, phone string, product models.Product, quantity int) (*Cart, error)
	Load(ctx context.Context, phone string) (*Cart, error)
	Persist(ctx context.Context, phone string) error
	Clear(ctx context.Context, phone string) error
}

type service struct {
	store    *Store
	repo     Repository
	products productLoader
}

// NewService wires cart dependencies.
func NewService(store *Store, repo Repository, products productLoader) (Service, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart store required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "cart repository required")
	}
	if products == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product loader required")
	}
	return &service{store: store, repo: repo, products: products}, nil
}

func (s *service) Cart(phone string) *Cart {
	return s.store.Get(phone)
}

// Add appends a cart line snapshotting the product's current name and price,
// and mirrors the result to the database.
func (s *service) Add(ctx context.Context, phone string, product models.Product, quantity int) (*Cart, error) {
	if quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	c := s.store.AddLine(phone, Line{
		ProductID: product.ID,
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
	})
	if err := s.Persist(ctx, phone); err != nil {
		return nil, err
	}
	return c, nil
}

// Load rebuilds the in-memory cart from persisted rows, joining the catalog
// for current names and prices. Rows whose product no longer exists are
// dropped. Loading twice without a mutation in between yields the same cart.
func (s *service) Load(ctx context.Context, phone string) (*Cart, error) {
	items, err := s.repo.ListByCustomer(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart rows")
	}
	if len(items) == 0 {
		return s.store.Replace(phone, nil), nil
	}

	ids := make([]uint, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			continue
		}
		lines = append(lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.Price,
		})
	}
	return s.store.Replace(phone, lines), nil
}

// Persist mirrors the in-memory cart to rows, replacing whatever was stored.
func (s *service) Persist(ctx context.Context, phone string) error {
	c := s.store.Get(phone)
	items := make([]models.CartItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, models.CartItem{
			CustomerPhone: phone,
			ProductID:     l.ProductID,
			Quantity:      l.Quantity,
		})
	}
	if err := s.repo.ReplaceForCustomer(ctx, phone, items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart rows")
	}
	return nil
}

// Clear empties both the in-memory cart and the persisted rows.
func (s *service) Clear(ctx context.Context, phone string) error {
	s.store.Clear(phone)
	if err := s.repo.DeleteForCustomer(ctx, phone); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart rows")
	}
	return nil
}
