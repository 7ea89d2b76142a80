package orders

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yupvendas/storebot/pkg/db/models"
	"github.com/yupvendas/storebot/pkg/enums"
)

// Repository exposes persistence helpers for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	ListByCustomer(ctx context.Context, phone string, limit int) ([]models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status enums.OrderStatus, paymentRef *string) (int64, error)
	TopProducts(ctx context.Context, limit int) ([]ProductSales, error)
	TopCustomers(ctx context.Context, limit int) ([]CustomerSales, error)
	Stats(ctx context.Context) (Stats, error)
}

// ProductSales is one row of the best-sellers report.
type ProductSales struct {
	ProductName string          `json:"product_name"`
	Quantity    int64           `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// CustomerSales is one row of the top-buyers report.
type CustomerSales struct {
	CustomerPhone string          `json:"customer_phone"`
	Orders        int64           `json:"orders"`
	Spent         decimal.Decimal `json:"spent"`
}

// Stats aggregates dashboard headline numbers.
type Stats struct {
	Orders   int64           `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
	Pending  int64           `json:"pending"`
	Products int64           `json:"products"`
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, phone string, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_phone = ?", phone).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) List(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	query := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) UpdateStatus(ctx context.Context, id uint, status enums.OrderStatus, paymentRef *string) (int64, error) {
	updates := map[string]any{"status": status}
	if paymentRef != nil {
		updates["payment_ref"] = *paymentRef
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) TopProducts(ctx context.Context, limit int) ([]ProductSales, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []ProductSales
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("product_name, SUM(quantity) AS quantity, SUM(quantity * unit_price) AS revenue").
		Group("product_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) TopCustomers(ctx context.Context, limit int) ([]CustomerSales, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []CustomerSales
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("customer_phone, COUNT(*) AS orders, SUM(total) AS spent").
		Where("status <> ?", enums.OrderStatusCancelled).
		Group("customer_phone").
		Order("spent DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *repositoryImpl) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Count(&stats.Orders).Error; err != nil {
		return Stats{}, err
	}
	var revenue struct {
		Revenue decimal.Decimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS revenue").
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusPaid}).
		Scan(&revenue).Error; err != nil {
		return Stats{}, err
	}
	stats.Revenue = revenue.Revenue
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusAwaitingPayment).
		Count(&stats.Pending).Error; err != nil {
		return Stats{}, err
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Count(&stats.Products).Error; err != nil {
		return Stats{}, err
	}
	return stats, nil
}
