package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

// MovementRequest body para POST /api/inventory/movements.
// type: receive | send | transfer | adjust. Code es opcional: si viene debe ser el producto actual.
type MovementRequest struct {
	Type           string           `json:"type"`
	Code           string           `json:"code,omitempty"`
	Quantity       int              `json:"quantity,omitempty"`
	Delta          int              `json:"delta,omitempty"`
	FromLocationID string           `json:"from_location_id,omitempty"`
	ToLocationID   string           `json:"to_location_id,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	Note           string           `json:"note,omitempty"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
}

// ToRequest convierte al modelo del motor. Un código mal formado se deja crudo para que la validación lo rechace.
func (r MovementRequest) ToRequest(createdBy string) inventory.MovementRequest {
	var pc code.ProductCode
	if r.Code != "" {
		if n, err := code.Normalize(r.Code); err == nil {
			pc = n
		} else {
			pc = code.ProductCode(r.Code)
		}
	}
	return inventory.MovementRequest{
		Kind:           inventory.MovementKind(r.Type),
		Code:           pc,
		Quantity:       r.Quantity,
		Delta:          r.Delta,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Reason:         r.Reason,
		Note:           r.Note,
		UnitCost:       r.UnitCost,
		CreatedBy:      createdBy,
	}
}

// FromMovementRequest borrador de la sesión en forma de DTO.
func FromMovementRequest(r *inventory.MovementRequest) *MovementRequest {
	if r == nil {
		return nil
	}
	return &MovementRequest{
		Type:           string(r.Kind),
		Code:           r.Code.String(),
		Quantity:       r.Quantity,
		Delta:          r.Delta,
		FromLocationID: r.FromLocationID,
		ToLocationID:   r.ToLocationID,
		Reason:         r.Reason,
		Note:           r.Note,
		UnitCost:       r.UnitCost,
	}
}

// MovementDTO movimiento aplicado.
type MovementDTO struct {
	ID               string           `json:"id"`
	TransferID       string           `json:"transfer_id,omitempty"`
	Type             string           `json:"type"`
	Code             string           `json:"code"`
	Delta            int              `json:"delta"`
	LocationID       string           `json:"location_id,omitempty"`
	FromLocationID   string           `json:"from_location_id,omitempty"`
	FromLocationCode string           `json:"from_location_code,omitempty"`
	ToLocationID     string           `json:"to_location_id,omitempty"`
	ToLocationCode   string           `json:"to_location_code,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	Note             string           `json:"note,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	CreatedBy        string           `json:"created_by,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ToMovementDTO nil -> nil.
func ToMovementDTO(m *entity.Movement) *MovementDTO {
	if m == nil {
		return nil
	}
	return &MovementDTO{
		ID:               m.ID,
		TransferID:       m.TransferID,
		Type:             string(m.Type),
		Code:             m.Code.String(),
		Delta:            m.Delta,
		LocationID:       m.LocationID,
		FromLocationID:   m.FromLocationID,
		FromLocationCode: m.FromLocationCode,
		ToLocationID:     m.ToLocationID,
		ToLocationCode:   m.ToLocationCode,
		Reason:           m.Reason,
		Note:             m.Note,
		UnitCost:         m.UnitCost,
		CreatedBy:        m.CreatedBy,
		CreatedAt:        m.CreatedAt,
	}
}

// ToMovementDTOs siempre devuelve un slice no nil (JSON []).
func ToMovementDTOs(list []*entity.Movement) []MovementDTO {
	out := make([]MovementDTO, 0, len(list))
	for _, m := range list {
		if d := ToMovementDTO(m); d != nil {
			out = append(out, *d)
		}
	}
	return out
}

// LocationBalanceDTO existencias en una ubicación.
type LocationBalanceDTO struct {
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code"`
	OnHand       int    `json:"on_hand"`
}

// BalancesDTO total global y desglose.
type BalancesDTO struct {
	Code        string               `json:"code"`
	Global      int                  `json:"global"`
	ByLocation  []LocationBalanceDTO `json:"by_location"`
	RefreshedAt *time.Time           `json:"refreshed_at,omitempty"`
}

func ToBalancesDTO(b entity.Balances) BalancesDTO {
	out := BalancesDTO{
		Code:       b.Code.String(),
		Global:     b.Global,
		ByLocation: make([]LocationBalanceDTO, 0, len(b.ByLocation)),
	}
	if !b.RefreshedAt.IsZero() {
		t := b.RefreshedAt
		out.RefreshedAt = &t
	}
	for _, lb := range b.ByLocation {
		out.ByLocation = append(out.ByLocation, LocationBalanceDTO{
			LocationID:   lb.LocationID,
			LocationCode: lb.LocationCode,
			OnHand:       lb.OnHand,
		})
	}
	return out
}

// ApplyResultDTO respuesta de un movimiento aplicado.
type ApplyResultDTO struct {
	Movements     []MovementDTO `json:"movements"`
	Balances      BalancesDTO   `json:"balances"`
	BalancesStale bool          `json:"balances_stale,omitempty"`
}

func ToApplyResultDTO(r *inventory.ApplyResult) ApplyResultDTO {
	if r == nil {
		return ApplyResultDTO{Movements: []MovementDTO{}}
	}
	return ApplyResultDTO{
		Movements:     ToMovementDTOs(r.Movements),
		Balances:      ToBalancesDTO(r.Balances),
		BalancesStale: r.BalancesStale,
	}
}

// LocationDTO ubicación seleccionable.
type LocationDTO struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

func ToLocationDTOs(list []entity.Location) []LocationDTO {
	out := make([]LocationDTO, 0, len(list))
	for _, l := range list {
		out = append(out, LocationDTO{ID: l.ID, Code: l.Code, Name: l.Name})
	}
	return out
}
