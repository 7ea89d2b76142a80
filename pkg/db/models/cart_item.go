package models

// CartItem is one persisted cart row. The in-memory cart is the working copy;
// these rows exist so a restart recovers the same cart.
type CartItem struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerPhone string `gorm:"column:customer_phone;not null;index"`
	ProductID     uint   `gorm:"column:product_id;not null"`
	Quantity      int    `gorm:"column:quantity;not null"`
}
