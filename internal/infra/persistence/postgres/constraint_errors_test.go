package postgres

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintViolations(t *testing.T) {
	unique := fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraintEmail})

	assert.True(t, isUniqueConstraintViolation(unique))
	assert.True(t, isUniqueConstraintViolation(gorm.ErrDuplicatedKey))
	assert.False(t, isUniqueConstraintViolation(errors.New("boom")))
	assert.Equal(t, constraintEmail, violatedConstraint(unique))
	assert.Empty(t, violatedConstraint(errors.New("boom")))

	assert.True(t, isForeignKeyConstraintViolation(&pgconn.PgError{Code: pgForeignKeyViolation}))
	assert.True(t, isForeignKeyConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isForeignKeyConstraintViolation(unique))

	assert.True(t, isNotNullConstraintViolation(&pgconn.PgError{Code: pgNotNullViolation}))
	assert.True(t, isNotNullConstraintViolation(errors.New(`null value in column "email"`)))
	assert.False(t, isNotNullConstraintViolation(unique))
}
