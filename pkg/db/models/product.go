package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/enums"
)

// Product is a sellable package. Stock counts packages and may be fractional
// for weight-based goods; ContentValue describes what one package contains.
type Product struct {
	ID           uint              `gorm:"column:id;primaryKey;autoIncrement"`
	Name         string            `gorm:"column:name;not null"`
	Price        decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock        decimal.Decimal   `gorm:"column:stock;type:numeric(12,3);not null"`
	ContentType  enums.ContentType `gorm:"column:content_type;not null"`
	ContentValue decimal.Decimal   `gorm:"column:content_value;type:numeric(12,3);not null"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
