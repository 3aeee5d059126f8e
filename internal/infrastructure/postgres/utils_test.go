package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	check := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23514", ConstraintName: "chk_stock_non_negative"})
	fkLoc := &pgconn.PgError{Code: "23503", ConstraintName: "fk_stock_location"}
	fkProd := &pgconn.PgError{Code: "23503", ConstraintName: "fk_movement_product"}
	other := errors.New("conexión cerrada")

	assert.ErrorIs(t, translate(check), ErrNegativeStock)
	assert.ErrorIs(t, translate(check), check, "conserva el error original")
	assert.ErrorIs(t, translate(fkLoc), ErrUnknownLocation)
	assert.ErrorIs(t, translate(fkProd), ErrUnknownProduct)
	assert.Same(t, other, translate(other))
	assert.NoError(t, translate(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueViolation(errors.New("ERROR: duplicate key (SQLSTATE 23505)")))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	if p := nullable("x"); assert.NotNil(t, p) {
		assert.Equal(t, "x", *p)
	}
}
