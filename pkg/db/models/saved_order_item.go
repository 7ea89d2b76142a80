package models

// SavedOrderItem is one line of a customer's standard order, independent of
// any live cart.
type SavedOrderItem struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerPhone string `gorm:"column:customer_phone;not null;index"`
	ProductID     uint   `gorm:"column:product_id;not null"`
	Quantity      int    `gorm:"column:quantity;not null"`
}
