package models

import (
	"time"

	"github.com/yupvendas/storebot/pkg/enums"
)

// User is a dashboard (back-office) account, not a WhatsApp customer.
type User struct {
	ID           uint           `gorm:"column:id;primaryKey;autoIncrement"`
	Username     string         `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Name         string         `gorm:"column:name"`
	Role         enums.UserRole `gorm:"column:role;not null"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
}
