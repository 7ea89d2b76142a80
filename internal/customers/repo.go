package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
)

// Repository exposes persistence helpers for customers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, phone string) error
	GetByPhone(ctx context.Context, phone string) (*models.Customer, error)
	List(ctx context.Context) ([]models.Customer, error)
	SetHumanMode(ctx context.Context, phone string, on bool) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a customer repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *repositoryImpl) Update(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *repositoryImpl) Delete(ctx context.Context, phone string) error {
	return r.db.WithContext(ctx).Delete(&models.Customer{}, "phone = ?", phone).Error
}

func (r *repositoryImpl) GetByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, "phone = ?", phone).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repositoryImpl) List(ctx context.Context) ([]models.Customer, error) {
	var rows []models.Customer
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) SetHumanMode(ctx context.Context, phone string, on bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("phone = ?", phone).
		UpdateColumn("human_mode", on)
	return result.RowsAffected, result.Error
}
