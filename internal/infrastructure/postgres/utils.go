package postgres

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier lo cumplen *pgxpool.Pool y pgx.Tx; los repos funcionan igual dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner Querier capaz de abrir transacciones (*pgxpool.Pool).
type TxBeginner interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Errores traducidos desde códigos SQLSTATE.
var (
	ErrNegativeStock   = errors.New("las existencias no pueden quedar negativas")
	ErrUnknownProduct  = errors.New("producto inexistente")
	ErrUnknownLocation = errors.New("ubicación inexistente")
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation 23505.
func isUniqueViolation(err error) bool {
	if c := pgCode(err); c != "" {
		return c == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "23505")
}

// isCheckViolation 23514: on_hand >= 0.
func isCheckViolation(err error) bool {
	return pgCode(err) == "23514"
}

// isForeignKeyViolation 23503.
func isForeignKeyViolation(err error) (constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// translate convierte violaciones de constraints en errores del almacén con significado.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if isCheckViolation(err) {
		return errors.Join(ErrNegativeStock, err)
	}
	if constraint, ok := isForeignKeyViolation(err); ok {
		if strings.HasSuffix(constraint, "_location") {
			return errors.Join(ErrUnknownLocation, err)
		}
		return errors.Join(ErrUnknownProduct, err)
	}
	return err
}
