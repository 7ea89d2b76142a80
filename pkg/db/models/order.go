package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yupvendas/storebot/pkg/enums"
)

// Order is an immutable sale record; only status and payment reference change
// after creation.
type Order struct {
	ID            uint              `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerPhone string            `gorm:"column:customer_phone;not null;index"`
	Total         decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Status        enums.OrderStatus `gorm:"column:status;not null"`
	PaymentRef    *string           `gorm:"column:payment_ref"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
}
