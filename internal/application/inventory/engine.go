package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// MovementKind operación lógica solicitada por el operador.
// Un traslado produce dos movimientos (transferOut + transferIn).
type MovementKind string

const (
	KindReceive  MovementKind = "receive"
	KindSend     MovementKind = "send"
	KindTransfer MovementKind = "transfer"
	KindAdjust   MovementKind = "adjust"
)

// MovementRequest entrada del motor.
// receive: ToLocationID, Quantity >= 1, UnitCost opcional.
// send: FromLocationID, Quantity >= 1.
// transfer: FromLocationID != ToLocationID, Quantity >= 1.
// adjust: Delta != 0 (con signo), Reason opcional.
type MovementRequest struct {
	Kind           MovementKind
	Code           code.ProductCode
	Quantity       int
	Delta          int
	FromLocationID string
	ToLocationID   string
	Reason         string
	Note           string
	UnitCost       *decimal.Decimal
	CreatedBy      string
}

// ApplyResult movimientos registrados y saldos refrescados.
// BalancesStale indica que el refresco posterior falló y Balances es la vista previa.
type ApplyResult struct {
	Movements     []*entity.Movement
	Balances      entity.Balances
	BalancesStale bool
}

// Engine valida y ejecuta un movimiento contra la caché de saldos y el almacén.
// La verificación de suficiencia usa la caché: es orientativa y no evita carreras
// con otras sesiones.
type Engine struct {
	movements repository.MovementRepository
	cache     *BalanceCache
	log       zerolog.Logger
	newID     func() string
}

var _ MovementApplier = (*Engine)(nil)

// NewEngine construye el motor.
func NewEngine(movements repository.MovementRepository, cache *BalanceCache, log zerolog.Logger) *Engine {
	return &Engine{
		movements: movements,
		cache:     cache,
		log:       log,
		newID:     func() string { return uuid.New().String() },
	}
}

// Validate revisa la forma de la solicitud sin consultar el almacén.
func (e *Engine) Validate(req MovementRequest) error {
	if !code.Valid(req.Code.String()) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFormat, req.Code)
	}
	if req.UnitCost != nil && (req.Kind != KindReceive || req.UnitCost.IsNegative()) {
		return fmt.Errorf("%w: costo unitario solo en entradas y no negativo", domain.ErrInvalidInput)
	}
	switch req.Kind {
	case KindAdjust:
		if req.Delta == 0 {
			return domain.ErrZeroDelta
		}
	case KindReceive:
		if req.ToLocationID == "" {
			return fmt.Errorf("%w: falta ubicación destino", domain.ErrInvalidInput)
		}
		if req.Quantity < 1 {
			return fmt.Errorf("%w: cantidad debe ser >= 1", domain.ErrInvalidInput)
		}
	case KindSend:
		if req.FromLocationID == "" {
			return fmt.Errorf("%w: falta ubicación origen", domain.ErrInvalidInput)
		}
		if req.Quantity < 1 {
			return fmt.Errorf("%w: cantidad debe ser >= 1", domain.ErrInvalidInput)
		}
	case KindTransfer:
		if req.FromLocationID == "" || req.ToLocationID == "" {
			return fmt.Errorf("%w: traslado requiere origen y destino", domain.ErrInvalidInput)
		}
		if req.FromLocationID == req.ToLocationID {
			return fmt.Errorf("%w: origen y destino iguales", domain.ErrInvalidInput)
		}
		if req.Quantity < 1 {
			return fmt.Errorf("%w: cantidad debe ser >= 1", domain.ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, req.Kind)
	}
	return nil
}

// Apply ejecuta una operación lógica. Los errores de validación y de suficiencia
// se detectan antes de cualquier escritura.
//
// En un traslado cuya salida quedó registrada y cuya entrada falló se devuelven
// ambos: el resultado (con la salida) y un *domain.NonAtomicTransferError. No se
// emite ninguna compensación.
func (e *Engine) Apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "engine.apply", trace.WithAttributes(
		attribute.String("movement.kind", string(req.Kind)),
		attribute.String("product.code", req.Code.String()),
	))
	defer span.End()

	var (
		movs []*entity.Movement
		err  error
	)
	switch req.Kind {
	case KindAdjust:
		movs, err = e.doAdjust(ctx, req)
	case KindReceive:
		movs, err = e.doReceive(ctx, req)
	case KindSend:
		movs, err = e.doSend(ctx, req)
	case KindTransfer:
		movs, err = e.doTransfer(ctx, req)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if len(movs) == 0 {
		return nil, err
	}

	res := &ApplyResult{Movements: movs}
	b, rerr := e.cache.Refresh(ctx, req.Code)
	if rerr != nil {
		e.log.Warn().Err(rerr).Str("code", req.Code.String()).Msg("refresco de saldos tras movimiento fallido")
		res.Balances, _ = e.cache.Get(req.Code)
		res.BalancesStale = true
	} else {
		res.Balances = b
	}
	if err == nil {
		e.log.Info().
			Str("code", req.Code.String()).
			Str("kind", string(req.Kind)).
			Int("movements", len(movs)).
			Str("by", req.CreatedBy).
			Msg("movimiento aplicado")
	}
	return res, err
}

// doAdjust: delta con signo aplicado al total global, sin verificar suficiencia.
func (e *Engine) doAdjust(ctx context.Context, req MovementRequest) ([]*entity.Movement, error) {
	mov, err := e.movements.RecordAdjustment(ctx, repository.AdjustmentInput{
		Code:      req.Code,
		Delta:     req.Delta,
		Reason:    req.Reason,
		Note:      req.Note,
		CreatedBy: req.CreatedBy,
	})
	if err != nil {
		return nil, domain.NewStoreError("recordAdjustment", err)
	}
	return []*entity.Movement{mov}, nil
}

// doReceive: +qty en destino, sin tope superior.
func (e *Engine) doReceive(ctx context.Context, req MovementRequest) ([]*entity.Movement, error) {
	mov, err := e.movements.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code:         req.Code,
		LocationID:   req.ToLocationID,
		Delta:        req.Quantity,
		Type:         entity.MovementReceive,
		ToLocationID: req.ToLocationID,
		Reason:       req.Reason,
		Note:         req.Note,
		UnitCost:     req.UnitCost,
		CreatedBy:    req.CreatedBy,
	})
	if err != nil {
		return nil, domain.NewStoreError("recordLocationDelta", err)
	}
	return []*entity.Movement{mov}, nil
}

// doSend: verifica existencias en caché del origen y aplica -qty.
func (e *Engine) doSend(ctx context.Context, req MovementRequest) ([]*entity.Movement, error) {
	if err := e.checkSufficient(ctx, req.Code, req.FromLocationID, req.Quantity); err != nil {
		return nil, err
	}
	mov, err := e.movements.RecordLocationDelta(ctx, repository.LocationDeltaInput{
		Code:           req.Code,
		LocationID:     req.FromLocationID,
		Delta:          -req.Quantity,
		Type:           entity.MovementSend,
		FromLocationID: req.FromLocationID,
		Reason:         req.Reason,
		Note:           req.Note,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		return nil, domain.NewStoreError("recordLocationDelta", err)
	}
	return []*entity.Movement{mov}, nil
}

// doTransfer: dos llamadas independientes, salida en origen y luego entrada en destino.
// Si la entrada falla la salida queda aplicada; se reporta sin compensar.
func (e *Engine) doTransfer(ctx context.Context, req MovementRequest) ([]*entity.Movement, error) {
	if err := e.checkSufficient(ctx, req.Code, req.FromLocationID, req.Quantity); err != nil {
		return nil, err
	}
	transferID := e.newID()
	leg := repository.LocationDeltaInput{
		Code:           req.Code,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		TransferID:     transferID,
		Reason:         req.Reason,
		Note:           req.Note,
		CreatedBy:      req.CreatedBy,
	}

	out := leg
	out.LocationID = req.FromLocationID
	out.Delta = -req.Quantity
	out.Type = entity.MovementTransferOut
	debit, err := e.movements.RecordLocationDelta(ctx, out)
	if err != nil {
		return nil, domain.NewStoreError("recordLocationDelta", err)
	}

	in := leg
	in.LocationID = req.ToLocationID
	in.Delta = req.Quantity
	in.Type = entity.MovementTransferIn
	credit, err := e.movements.RecordLocationDelta(ctx, in)
	if err != nil {
		e.log.Error().
			Err(err).
			Str("code", req.Code.String()).
			Str("transfer_id", transferID).
			Str("debit_id", debit.ID).
			Str("from", req.FromLocationID).
			Str("to", req.ToLocationID).
			Int("qty", req.Quantity).
			Msg("traslado incompleto: salida aplicada sin entrada, requiere conciliación manual")
		return []*entity.Movement{debit}, &domain.NonAtomicTransferError{
			Debit: debit,
			Err:   domain.NewStoreError("recordLocationDelta", err),
		}
	}
	return []*entity.Movement{debit, credit}, nil
}

// checkSufficient compara contra la caché; si el producto nunca se cargó en esta
// sesión lo refresca primero para no validar contra un cero ficticio.
func (e *Engine) checkSufficient(ctx context.Context, pc code.ProductCode, locationID string, qty int) error {
	b, ok := e.cache.Get(pc)
	if !ok {
		var err error
		if b, err = e.cache.Refresh(ctx, pc); err != nil {
			return err
		}
	}
	if onHand := b.OnHandAt(locationID); qty > onHand {
		return &domain.InsufficientStockError{
			Code:       pc.String(),
			LocationID: locationID,
			OnHand:     onHand,
			Requested:  qty,
		}
	}
	return nil
}
