package models

import "time"

// LocalStateEntry is one persisted key of the client-side store, scoped by
// namespace so several profiles can share a database.
type LocalStateEntry struct {
	Namespace string    `gorm:"column:namespace;primaryKey"`
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (LocalStateEntry) TableName() string {
	return "local_state"
}
