package waitlist

import (
	"context"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
)

// Repository exposes persistence helpers for stock notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sub *models.StockNotification) error
	ListByProduct(ctx context.Context, productID uint) ([]models.StockNotification, error)
	DeleteByProduct(ctx context.Context, productID uint) error
	DeleteByCustomer(ctx context.Context, phone string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a waitlist repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, sub *models.StockNotification) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repositoryImpl) ListByProduct(ctx context.Context, productID uint) ([]models.StockNotification, error) {
	var rows []models.StockNotification
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) DeleteByProduct(ctx context.Context, productID uint) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.StockNotification{}).Error
}

func (r *repositoryImpl) DeleteByCustomer(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Delete(&models.StockNotification{}).Error
}
