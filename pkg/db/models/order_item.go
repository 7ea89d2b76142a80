package models

import "github.com/shopspring/decimal"

// OrderItem snapshots one cart line at finalize time. ProductID is a weak
// reference so history stays readable after a product is edited or deleted.
type OrderItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     uint            `gorm:"column:order_id;not null;index"`
	ProductID   *uint           `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
}
