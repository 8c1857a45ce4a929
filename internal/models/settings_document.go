package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SettingsDocument stores one schemaless settings document in Postgres,
// addressed the same way as a Firestore document: collection + key.
type SettingsDocument struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Collection string    `gorm:"size:120;not null;uniqueIndex:idx_settings_collection_key" json:"collection"`
	Key        string    `gorm:"size:120;not null;uniqueIndex:idx_settings_collection_key" json:"key"`
	Data       string    `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID to new documents.
func (d *SettingsDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
