package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionTokenModel mirrors the 'session_tokens' table, the ledger of issued access tokens.
type SessionTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token     string    `gorm:"type:text;uniqueIndex:uq_session_tokens_token;not null"`
	TokenType string    `gorm:"type:varchar(20);not null"`
	Revoked   bool      `gorm:"not null;default:false"`
	Expired   bool      `gorm:"not null;default:false"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (SessionTokenModel) TableName() string {
	return "session_tokens"
}

// VerificationTokenModel mirrors the 'verification_tokens' table.
type VerificationTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token     string    `gorm:"type:varchar(64);uniqueIndex:uq_verification_tokens_token;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (VerificationTokenModel) TableName() string {
	return "verification_tokens"
}
