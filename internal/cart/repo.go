package cart

import (
	"context"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
)

// Repository persists cart rows so an open cart survives a restart.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListByCustomer(ctx context.Context, phone string) ([]models.CartItem, error)
	ReplaceForCustomer(ctx context.Context, phone string, items []models.CartItem) error
	DeleteForCustomer(ctx context.Context, phone string) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, phone string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *repositoryImpl) ReplaceForCustomer(ctx context.Context, phone string, items []models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_phone = ?", phone).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *repositoryImpl) DeleteForCustomer(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Delete(&models.CartItem{}).Error
}
