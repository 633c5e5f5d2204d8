package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. Owned rows are removed with the user.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	FirstName    string    `gorm:"type:varchar(100)"`
	LastName     string    `gorm:"type:varchar(100)"`
	UserName     string    `gorm:"type:varchar(100);uniqueIndex:uq_users_user_name;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex:uq_users_email;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null"`
	Enabled      bool      `gorm:"not null;default:false"`
	MemberSince  time.Time `gorm:"not null"`
	AuditColumns `gorm:"embedded"`

	SessionTokens      []SessionTokenModel      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	VerificationTokens []VerificationTokenModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Posts              []PostModel              `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// AuditColumns are the bookkeeping columns shared by users and posts.
type AuditColumns struct {
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	CreatedBy string    `gorm:"type:varchar(255)"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
	UpdatedBy string    `gorm:"type:varchar(255)"`
}
