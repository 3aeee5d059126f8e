package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo lectura de existencias sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

// GetGlobalOnHand total global; sin fila devuelve 0.
func (r *StockRepo) GetGlobalOnHand(ctx context.Context, c code.ProductCode) (int, error) {
	var onHand int
	err := r.q.QueryRow(ctx, `SELECT on_hand FROM inventory_on_hand WHERE product_code = $1`, c.String()).Scan(&onHand)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get global on hand: %w", err)
	}
	return onHand, nil
}

// GetLocationBalances desglose por ubicación con el código de ubicación resuelto.
func (r *StockRepo) GetLocationBalances(ctx context.Context, c code.ProductCode) ([]entity.LocationBalance, error) {
	query := `
		SELECT s.location_id, l.code, s.on_hand
		FROM location_stock s
		JOIN locations l ON l.id = s.location_id
		WHERE s.product_code = $1
		ORDER BY l.code`
	rows, err := r.q.Query(ctx, query, c.String())
	if err != nil {
		return nil, fmt.Errorf("get location balances: %w", err)
	}
	defer rows.Close()
	var list []entity.LocationBalance
	for rows.Next() {
		var b entity.LocationBalance
		if err := rows.Scan(&b.LocationID, &b.LocationCode, &b.OnHand); err != nil {
			return nil, fmt.Errorf("scan location balance: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// SetLocationOnHand fija existencias absolutas en una ubicación y recalcula el
// total global como suma de ubicaciones. Solo para carga inicial.
func (r *StockRepo) SetLocationOnHand(ctx context.Context, c code.ProductCode, locationID string, qty int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO location_stock (product_code, location_id, on_hand, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_code, location_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, updated_at = now()`,
		c.String(), locationID, qty)
	if err != nil {
		return fmt.Errorf("set location on hand: %w", translate(err))
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO inventory_on_hand (product_code, on_hand, updated_at)
		SELECT $1, COALESCE(SUM(on_hand), 0), now() FROM location_stock WHERE product_code = $1
		ON CONFLICT (product_code)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, updated_at = now()`,
		c.String())
	if err != nil {
		return fmt.Errorf("sync global on hand: %w", translate(err))
	}
	return nil
}
