package models

// Setting is one runtime configuration entry (admin phone, minimum order
// value, registration flag, payment flag).
type Setting struct {
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value;not null"`
}
