package models

// BotMessage is one admin-editable piece of bot copy, keyed by template name.
type BotMessage struct {
	Key     string `gorm:"column:key;primaryKey"`
	Content string `gorm:"column:content;not null"`
}
