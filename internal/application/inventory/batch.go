package inventory

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// BatchParams parámetros compartidos por todas las líneas del lote.
type BatchParams struct {
	Kind           MovementKind // receive | send | transfer
	FromLocationID string
	ToLocationID   string
	Reason         string
	Note           string
	CreatedBy      string
}

// FailedLine línea que no se aplicó y el motivo.
type FailedLine struct {
	Line entity.CartLine
	Err  error
}

// BatchResult resultado de un envío: líneas aplicadas, fallidas y unidades movidas.
type BatchResult struct {
	Succeeded    []entity.CartLine
	Failed       []FailedLine
	UnitsApplied int
	Movements    []*entity.Movement
}

// Err devuelve un error que envuelve domain.ErrPartialBatchFailure si alguna línea falló.
func (r *BatchResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d de %d líneas fallaron",
		domain.ErrPartialBatchFailure, len(r.Failed), len(r.Failed)+len(r.Succeeded))
}

// BatchAggregator acumula códigos en líneas por cantidad y, al enviar, invoca el
// motor una vez por línea en orden de inserción. No se detiene en la primera falla:
// al terminar el carrito queda solo con las líneas fallidas.
type BatchAggregator struct {
	applier MovementApplier
	log     zerolog.Logger

	mu         sync.Mutex
	lines      []entity.CartLine
	index      map[code.ProductCode]int
	submitting bool
}

// NewBatchAggregator construye un carrito vacío.
func NewBatchAggregator(applier MovementApplier, log zerolog.Logger) *BatchAggregator {
	return &BatchAggregator{
		applier: applier,
		log:     log,
		index:   make(map[code.ProductCode]int),
	}
}

// AddOrIncrement agrega el código con cantidad 1 o incrementa su línea. Devuelve la cantidad resultante.
func (b *BatchAggregator) AddOrIncrement(c code.ProductCode) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return 0, domain.ErrBusy
	}
	if i, ok := b.index[c]; ok {
		b.lines[i].Qty++
		return b.lines[i].Qty, nil
	}
	b.index[c] = len(b.lines)
	b.lines = append(b.lines, entity.CartLine{Code: c, Qty: 1})
	return 1, nil
}

// SetQty fija la cantidad de una línea existente (qty >= 1).
func (b *BatchAggregator) SetQty(c code.ProductCode, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: cantidad debe ser >= 1", domain.ErrInvalidInput)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return domain.ErrBusy
	}
	i, ok := b.index[c]
	if !ok {
		return fmt.Errorf("%w: %s no está en el lote", domain.ErrNotFound, c)
	}
	b.lines[i].Qty = qty
	return nil
}

// Remove quita la línea del código; no hace nada si no existe.
func (b *BatchAggregator) Remove(c code.ProductCode) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return domain.ErrBusy
	}
	i, ok := b.index[c]
	if !ok {
		return nil
	}
	b.lines = append(b.lines[:i], b.lines[i+1:]...)
	b.reindex()
	return nil
}

// Clear vacía el carrito.
func (b *BatchAggregator) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.submitting {
		return domain.ErrBusy
	}
	b.replace(nil)
	return nil
}

// TotalUnits suma de cantidades del carrito.
func (b *BatchAggregator) TotalUnits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, l := range b.lines {
		total += l.Qty
	}
	return total
}

// Lines copia de las líneas en orden de inserción.
func (b *BatchAggregator) Lines() []entity.CartLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]entity.CartLine(nil), b.lines...)
}

// Submit aplica cada línea con los parámetros compartidos, secuencialmente.
// Devuelve error solo si el lote no puede iniciarse (vacío, parámetros inválidos,
// envío en curso); las fallas por línea viajan en BatchResult.Failed.
func (b *BatchAggregator) Submit(ctx context.Context, p BatchParams) (*BatchResult, error) {
	if p.Kind == KindAdjust {
		return nil, fmt.Errorf("%w: los ajustes no se envían en lote", domain.ErrInvalidInput)
	}

	b.mu.Lock()
	if b.submitting {
		b.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if len(b.lines) == 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: el lote está vacío", domain.ErrInvalidInput)
	}
	lines := append([]entity.CartLine(nil), b.lines...)
	if err := b.applier.Validate(p.request(lines[0])); err != nil {
		b.mu.Unlock()
		return nil, err
	}
	b.submitting = true
	b.mu.Unlock()

	ctx, span := tracer.Start(ctx, "batch.submit", trace.WithAttributes(
		attribute.String("movement.kind", string(p.Kind)),
		attribute.Int("batch.lines", len(lines)),
	))
	defer span.End()

	res := &BatchResult{}
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, FailedLine{Line: line, Err: err})
			continue
		}
		applied, err := b.applier.Apply(ctx, p.request(line))
		if applied != nil {
			res.Movements = append(res.Movements, applied.Movements...)
		}
		if err != nil {
			res.Failed = append(res.Failed, FailedLine{Line: line, Err: err})
			continue
		}
		res.Succeeded = append(res.Succeeded, line)
		res.UnitsApplied += line.Qty
	}

	failed := make([]entity.CartLine, 0, len(res.Failed))
	for _, f := range res.Failed {
		failed = append(failed, f.Line)
	}

	b.mu.Lock()
	b.replace(failed)
	b.submitting = false
	b.mu.Unlock()

	span.SetAttributes(attribute.Int("batch.succeeded", len(res.Succeeded)), attribute.Int("batch.failed", len(res.Failed)))
	lvl := zerolog.InfoLevel
	if len(res.Failed) > 0 {
		lvl = zerolog.WarnLevel
	}
	b.log.WithLevel(lvl).
		Str("kind", string(p.Kind)).
		Int("succeeded", len(res.Succeeded)).
		Int("failed", len(res.Failed)).
		Int("units", res.UnitsApplied).
		Msg("lote enviado")
	return res, nil
}

func (p BatchParams) request(line entity.CartLine) MovementRequest {
	return MovementRequest{
		Kind:           p.Kind,
		Code:           line.Code,
		Quantity:       line.Qty,
		FromLocationID: p.FromLocationID,
		ToLocationID:   p.ToLocationID,
		Reason:         p.Reason,
		Note:           p.Note,
		CreatedBy:      p.CreatedBy,
	}
}

func (b *BatchAggregator) replace(lines []entity.CartLine) {
	b.lines = lines
	b.reindex()
}

func (b *BatchAggregator) reindex() {
	b.index = make(map[code.ProductCode]int, len(b.lines))
	for i, l := range b.lines {
		b.index[l.Code] = i
	}
}
