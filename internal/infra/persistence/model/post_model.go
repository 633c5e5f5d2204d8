package model

import "github.com/google/uuid"

// PostModel mirrors the 'posts' table. User is preloaded for the author summary.
type PostModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text         string    `gorm:"type:text;not null"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null"`
	AuditColumns `gorm:"embedded"`

	User *UserModel `gorm:"foreignKey:UserID"`
}

// TableName explicitly sets the table name for GORM.
func (PostModel) TableName() string {
	return "posts"
}
