package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
	pkgerrors "github.com/yupvendas/storebot/pkg/errors"
)

// Service defines catalog operations used by the bot and the dashboard.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uint, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListInStock(ctx context.Context) ([]models.Product, error)
	AdjustStock(ctx context.Context, id uint, delta decimal.Decimal) (*models.Product, error)
}

// CreateInput carries the fields of a new product.
type CreateInput struct {
	Name         string
	Price        decimal.Decimal
	Stock        decimal.Decimal
	ContentType  enums.ContentType
	ContentValue decimal.Decimal
}

// UpdateInput carries optional field updates; nil means keep the current
// value.
type UpdateInput struct {
	Name         *string
	Price        *decimal.Decimal
	Stock        *decimal.Decimal
	ContentType  *enums.ContentType
	ContentValue *decimal.Decimal
}

type service struct {
	repo Repository
}

// NewService wires catalog dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.Price.IsNegative() || input.Price.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.Stock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product stock cannot be negative")
	}
	if !input.ContentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content type")
	}
	if input.ContentValue.IsZero() {
		input.ContentValue = decimal.NewFromInt(1)
	}

	product := &models.Product{
		Name:         input.Name,
		Price:        input.Price,
		Stock:        input.Stock,
		ContentType:  input.ContentType,
		ContentValue: input.ContentValue,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return product, nil
}

func (s *service) Update(ctx context.Context, id uint, input UpdateInput) (*models.Product, error) {
	product, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if input.Stock.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.ContentType != nil {
		if !input.ContentType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid content type")
		}
		product.ContentType = *input.ContentType
	}
	if input.ContentValue != nil {
		product.ContentValue = *input.ContentValue
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return product, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get product")
	}
	return product, nil
}

func (s *service) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) ListInStock(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListInStock(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list in-stock products")
	}
	return products, nil
}

// AdjustStock applies delta to the product's stock. Failed decrements carry
// InsufficientStockError in the chain so callers can report the available
// amount.
func (s *service) AdjustStock(ctx context.Context, id uint, delta decimal.Decimal) (*models.Product, error) {
	product, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		var insufficient *InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "adjust stock")
		}
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	return product, nil
}
