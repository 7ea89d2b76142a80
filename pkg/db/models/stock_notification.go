package models

// StockNotification is a restock waitlist membership, unique per
// (customer, product) pair.
type StockNotification struct {
	ID            uint   `gorm:"column:id;primaryKey;autoIncrement"`
	CustomerPhone string `gorm:"column:customer_phone;not null;uniqueIndex:idx_stock_notifications_customer_product"`
	ProductID     uint   `gorm:"column:product_id;not null;uniqueIndex:idx_stock_notifications_customer_product"`
}
