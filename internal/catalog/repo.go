package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db"
	"github.com/yupvendas/storebot/pkg/db/models"
)

// Repository exposes persistence helpers for products.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	ListInStock(ctx context.Context) ([]models.Product, error)
	AdjustStock(ctx context.Context, id uint, delta decimal.Decimal) (*models.Product, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *repositoryImpl) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) GetByIDs(ctx context.Context, ids []uint) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).Order("name ASC").Find(&products).Error
	return products, err
}

func (r *repositoryImpl) ListInStock(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("stock > 0").
		Order("name ASC").
		Find(&products).Error
	return products, err
}

// AdjustStock applies delta to the product's stock. Negative deltas are
// guarded by a `stock >= ?` predicate so concurrent decrements can never push
// stock below zero; a guarded miss returns InsufficientStockError with the
// current stock.
func (r *repositoryImpl) AdjustStock(ctx context.Context, id uint, delta decimal.Decimal) (*models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id)
	if delta.IsNegative() {
		query = query.Where("stock >= ?", delta.Neg())
	}
	result := query.UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		product, err := r.GetByID(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, gorm.ErrRecordNotFound
			}
			return nil, err
		}
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
		}
	}
	return r.GetByID(ctx, id)
}
