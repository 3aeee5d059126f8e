package dto

import (
	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// CartLineDTO línea del carrito.
type CartLineDTO struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

func ToCartLineDTOs(lines []entity.CartLine) []CartLineDTO {
	out := make([]CartLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, CartLineDTO{Code: l.Code.String(), Qty: l.Qty})
	}
	return out
}

// BatchDTO carrito actual.
type BatchDTO struct {
	Lines      []CartLineDTO `json:"lines"`
	TotalUnits int           `json:"total_units"`
}

// AddLineRequest body para POST /api/batch/lines.
type AddLineRequest struct {
	Code string `json:"code"`
}

// SetQtyRequest body para PUT /api/batch/lines/:code.
type SetQtyRequest struct {
	Qty int `json:"qty"`
}

// BatchSubmitRequest parámetros compartidos del lote. type: receive | send | transfer.
type BatchSubmitRequest struct {
	Type           string `json:"type"`
	FromLocationID string `json:"from_location_id,omitempty"`
	ToLocationID   string `json:"to_location_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Note           string `json:"note,omitempty"`
}

func (r BatchSubmitRequest) ToParams(createdBy string) inventory.BatchParams {
	return inventory.BatchParams{
		Kind:           inventory.MovementKind(r.Type),
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Reason:         r.Reason,
		Note:           r.Note,
		CreatedBy:      createdBy,
	}
}

// FailedLineDTO línea que quedó en el carrito.
type FailedLineDTO struct {
	Code      string `json:"code"`
	Qty       int    `json:"qty"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// BatchResultDTO resultado de un envío.
type BatchResultDTO struct {
	Succeeded    []CartLineDTO   `json:"succeeded"`
	Failed       []FailedLineDTO `json:"failed"`
	UnitsApplied int             `json:"units_applied"`
	Movements    []MovementDTO   `json:"movements"`
}

func ToBatchResultDTO(r *inventory.BatchResult, codeOf func(error) string) BatchResultDTO {
	out := BatchResultDTO{
		Succeeded:    ToCartLineDTOs(r.Succeeded),
		Failed:       make([]FailedLineDTO, 0, len(r.Failed)),
		UnitsApplied: r.UnitsApplied,
		Movements:    ToMovementDTOs(r.Movements),
	}
	for _, f := range r.Failed {
		out.Failed = append(out.Failed, FailedLineDTO{
			Code:      f.Line.Code.String(),
			Qty:       f.Line.Qty,
			ErrorCode: codeOf(f.Err),
			Message:   f.Err.Error(),
		})
	}
	return out
}
