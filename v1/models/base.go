package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel carries the audit timestamps shared by every table
type BaseModel struct {
	CreatedAt time.Time `gorm:"column:created_at;not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null" json:"updatedAt"`
}

// BeforeCreate sets both timestamps when the caller left them empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	return nil
}

// BeforeUpdate refreshes UpdatedAt on full-struct saves
func (b *BaseModel) BeforeUpdate(tx *gorm.DB) error {
	b.UpdatedAt = time.Now().UTC()
	return nil
}

// AllModels lists every persisted model in migration order
func AllModels() []interface{} {
	return []interface{}{
		&YoutubeAccount{},
		&Member{},
		&MembershipRequest{},
		&Vendor{},
		&RevenueRecord{},
	}
}
