package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
)

// SavedRepository persists a customer's standard order, independent of any
// live cart.
type SavedRepository interface {
	WithTx(tx *gorm.DB) SavedRepository
	ListByCustomer(ctx context.Context, phone string) ([]models.SavedOrderItem, error)
	ReplaceForCustomer(ctx context.Context, phone string, items []models.SavedOrderItem) error
	DeleteForCustomer(ctx context.Context, phone string) error
}

type savedRepositoryImpl struct {
	db *gorm.DB
}

// NewSavedRepository returns a saved-order repository bound to the provided
// database.
func NewSavedRepository(db *gorm.DB) SavedRepository {
	return &savedRepositoryImpl{db: db}
}

func (r *savedRepositoryImpl) WithTx(tx *gorm.DB) SavedRepository {
	if tx == nil {
		return r
	}
	return &savedRepositoryImpl{db: tx}
}

func (r *savedRepositoryImpl) ListByCustomer(ctx context.Context, phone string) ([]models.SavedOrderItem, error) {
	var rows []models.SavedOrderItem
	err := r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *savedRepositoryImpl) ReplaceForCustomer(ctx context.Context, phone string, items []models.SavedOrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("customer_phone = ?", phone).Delete(&models.SavedOrderItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *savedRepositoryImpl) DeleteForCustomer(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Delete(&models.SavedOrderItem{}).Error
}
