package chat

import (
	"context"

	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
)

// Repository exposes persistence helpers for chat history.
type Repository interface {
	Create(ctx context.Context, message *models.ChatMessage) error
	ListByCustomer(ctx context.Context, phone string, limit int) ([]models.ChatMessage, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a chat repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, phone string, limit int) ([]models.ChatMessage, error) {
	var rows []models.ChatMessage
	query := r.db.WithContext(ctx).
		Where("customer_phone = ?", phone).
		Order("created_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
