package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is one line of conversation history with a customer. Sender is
// "customer", "bot", or the display name of the agent who replied.
type ChatMessage struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerPhone string    `gorm:"column:customer_phone;not null;index"`
	Body          string    `gorm:"column:body;not null"`
	Sender        string    `gorm:"column:sender;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the id client-side so the model works on both Postgres
// and SQLite.
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
