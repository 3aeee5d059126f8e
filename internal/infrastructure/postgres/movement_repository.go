package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

var tracer = otel.Tracer("inventario-scan/postgres")

const defaultHistoryLimit = 50

// MovementRepo registra movimientos. Cada Record* corre en su propia transacción:
// actualiza location_stock, inventory_on_hand y agrega la fila del movimiento.
type MovementRepo struct {
	db  TxBeginner
	now func() time.Time
}

var _ repository.MovementRepository = (*MovementRepo)(nil)

// NewMovementRepository construye el adaptador. Requiere pool (abre transacciones).
func NewMovementRepository(db TxBeginner) *MovementRepo {
	return &MovementRepo{db: db, now: time.Now}
}

// inTx ejecuta fn dentro de una transacción con Commit o Rollback.
func (r *MovementRepo) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RecordAdjustment aplica un delta al total global.
func (r *MovementRepo) RecordAdjustment(ctx context.Context, in repository.AdjustmentInput) (*entity.Movement, error) {
	ctx, span := tracer.Start(ctx, "postgres.recordAdjustment", trace.WithAttributes(
		attribute.String("product.code", in.Code.String()),
		attribute.Int("movement.delta", in.Delta),
	))
	defer span.End()

	m := &entity.Movement{
		ID:        uuid.New().String(),
		Type:      entity.MovementAdjust,
		Code:      in.Code,
		Delta:     in.Delta,
		Reason:    in.Reason,
		Note:      in.Note,
		CreatedBy: in.CreatedBy,
		CreatedAt: r.now(),
	}
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if err := addGlobal(ctx, tx, in.Code, in.Delta); err != nil {
			return err
		}
		return insertMovement(ctx, tx, m)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recordAdjustment")
		return nil, err
	}
	return m, nil
}

// RecordLocationDelta aplica el delta en la ubicación y en el total global. Una
// entrada valorizada recalcula antes el costo promedio del producto.
func (r *MovementRepo) RecordLocationDelta(ctx context.Context, in repository.LocationDeltaInput) (*entity.Movement, error) {
	ctx, span := tracer.Start(ctx, "postgres.recordLocationDelta", trace.WithAttributes(
		attribute.String("product.code", in.Code.String()),
		attribute.String("movement.type", string(in.Type)),
		attribute.String("location.id", in.LocationID),
		attribute.Int("movement.delta", in.Delta),
	))
	defer span.End()

	m := &entity.Movement{
		ID:             uuid.New().String(),
		TransferID:     in.TransferID,
		Type:           in.Type,
		Code:           in.Code,
		Delta:          in.Delta,
		LocationID:     in.LocationID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Reason:         in.Reason,
		Note:           in.Note,
		UnitCost:       in.UnitCost,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      r.now(),
	}
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		if in.Type == entity.MovementReceive && in.UnitCost != nil {
			if err := updateAverageCost(ctx, tx, in.Code, in.Delta, *in.UnitCost); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO location_stock (product_code, location_id, on_hand, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (product_code, location_id)
			DO UPDATE SET on_hand = location_stock.on_hand + EXCLUDED.on_hand, updated_at = now()`,
			in.Code.String(), in.LocationID, in.Delta)
		if err != nil {
			return fmt.Errorf("update location stock: %w", translate(err))
		}
		if err := addGlobal(ctx, tx, in.Code, in.Delta); err != nil {
			return err
		}
		return insertMovement(ctx, tx, m)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recordLocationDelta")
		return nil, err
	}
	return m, nil
}

func addGlobal(ctx context.Context, tx pgx.Tx, c code.ProductCode, delta int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_on_hand (product_code, on_hand, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (product_code)
		DO UPDATE SET on_hand = inventory_on_hand.on_hand + EXCLUDED.on_hand, updated_at = now()`,
		c.String(), delta)
	if err != nil {
		return fmt.Errorf("update global on hand: %w", translate(err))
	}
	return nil
}

// updateAverageCost bloquea el producto y recalcula el costo con las existencias previas a la entrada.
func updateAverageCost(ctx context.Context, tx pgx.Tx, c code.ProductCode, qtyIn int, unitCost decimal.Decimal) error {
	var current decimal.Decimal
	err := tx.QueryRow(ctx, `SELECT cost FROM products WHERE code = $1 FOR UPDATE`, c.String()).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, c)
		}
		return fmt.Errorf("lock product cost: %w", err)
	}
	var onHand int
	err = tx.QueryRow(ctx, `SELECT COALESCE((SELECT on_hand FROM inventory_on_hand WHERE product_code = $1), 0)`, c.String()).Scan(&onHand)
	if err != nil {
		return fmt.Errorf("get on hand for cost: %w", err)
	}
	next := inventory.WeightedAverageCost(onHand, current, qtyIn, unitCost)
	if _, err := tx.Exec(ctx, `UPDATE products SET cost = $2, updated_at = now() WHERE code = $1`, c.String(), next); err != nil {
		return fmt.Errorf("update product cost: %w", err)
	}
	return nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, m *entity.Movement) error {
	var unitCost decimal.NullDecimal
	if m.UnitCost != nil {
		unitCost = decimal.NewNullDecimal(*m.UnitCost)
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements
			(id, transfer_id, type, product_code, delta, location_id, from_location_id, to_location_id,
			 reason, note, unit_cost, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, nullable(m.TransferID), string(m.Type), m.Code.String(), m.Delta,
		nullable(m.LocationID), nullable(m.FromLocationID), nullable(m.ToLocationID),
		m.Reason, m.Note, unitCost, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", translate(err))
	}
	return nil
}

// ListRecentAdjustments últimos ajustes globales, más reciente primero.
func (r *MovementRepo) ListRecentAdjustments(ctx context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error) {
	return r.list(ctx, c, limit, `m.type = 'adjust'`)
}

// ListRecentMovements últimos movimientos por ubicación con códigos de origen y destino.
func (r *MovementRepo) ListRecentMovements(ctx context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error) {
	return r.list(ctx, c, limit, `m.type <> 'adjust'`)
}

func (r *MovementRepo) list(ctx context.Context, c code.ProductCode, limit int, filter string) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	query := `
		SELECT m.id::text, COALESCE(m.transfer_id::text, ''), m.type, m.product_code, m.delta,
		       COALESCE(m.location_id, ''), COALESCE(m.from_location_id, ''), COALESCE(m.to_location_id, ''),
		       COALESCE(fl.code, ''), COALESCE(tl.code, ''),
		       m.reason, m.note, m.unit_cost, m.created_by, m.created_at
		FROM inventory_movements m
		LEFT JOIN locations fl ON fl.id = m.from_location_id
		LEFT JOIN locations tl ON tl.id = m.to_location_id
		WHERE m.product_code = $1 AND ` + filter + `
		ORDER BY m.created_at DESC
		LIMIT $2`
	rows, err := r.db.Query(ctx, query, c.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var (
			m        entity.Movement
			typ, pc  string
			unitCost decimal.NullDecimal
		)
		if err := rows.Scan(&m.ID, &m.TransferID, &typ, &pc, &m.Delta,
			&m.LocationID, &m.FromLocationID, &m.ToLocationID,
			&m.FromLocationCode, &m.ToLocationCode,
			&m.Reason, &m.Note, &unitCost, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m.Type = entity.MovementType(typ)
		if !m.Type.Valid() {
			return nil, fmt.Errorf("movimiento %s con tipo desconocido %q", m.ID, typ)
		}
		m.Code = code.ProductCode(pc)
		if unitCost.Valid {
			uc := unitCost.Decimal
			m.UnitCost = &uc
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
