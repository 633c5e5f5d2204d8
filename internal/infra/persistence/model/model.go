// Package model holds the GORM persistence models. They never leave the persistence layer.
package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&UserModel{},
		&SessionTokenModel{},
		&VerificationTokenModel{},
		&PostModel{},
	}
}

// BeforeCreate assigns an id when the caller did not.
func (m *UserModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// BeforeCreate assigns an id when the caller did not.
func (m *SessionTokenModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// BeforeCreate assigns an id when the caller did not.
func (m *VerificationTokenModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}

// BeforeCreate assigns an id when the caller did not.
func (m *PostModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}

	return nil
}
