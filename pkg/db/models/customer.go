package models

import "time"

// Customer is a registered WhatsApp buyer, keyed by chat identity.
type Customer struct {
	Phone     string    `gorm:"column:phone;primaryKey"`
	TaxID     *string   `gorm:"column:tax_id"`
	Name      *string   `gorm:"column:name"`
	Address   *string   `gorm:"column:address"`
	City      *string   `gorm:"column:city"`
	Region    *string   `gorm:"column:region"`
	HumanMode bool      `gorm:"column:human_mode;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
