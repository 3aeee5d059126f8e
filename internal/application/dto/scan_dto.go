package dto

import (
	"time"

	"github.com/jhoicas/Inventario-scan/internal/application/inventory"
)

// ScanEventRequest lectura de la cámara. decoded_at es opcional (hora del servidor si falta).
type ScanEventRequest struct {
	RawText   string     `json:"raw_text"`
	DecodedAt *time.Time `json:"decoded_at,omitempty"`
}

// LookupRequest código digitado manualmente.
type LookupRequest struct {
	Code string `json:"code"`
}

// BatchModeRequest body para PUT /api/session/mode.
type BatchModeRequest struct {
	Batch bool `json:"batch"`
}

// ProductViewDTO producto resuelto.
type ProductViewDTO struct {
	Code              string        `json:"code"`
	ImageURL          string        `json:"image_url,omitempty"`
	Balances          BalancesDTO   `json:"balances"`
	RecentMovements   []MovementDTO `json:"recent_movements"`
	RecentAdjustments []MovementDTO `json:"recent_adjustments"`
}

func ToProductViewDTO(p *inventory.ProductView) *ProductViewDTO {
	if p == nil {
		return nil
	}
	return &ProductViewDTO{
		Code:              p.Code.String(),
		ImageURL:          p.ImageURL,
		Balances:          ToBalancesDTO(p.Balances),
		RecentMovements:   ToMovementDTOs(p.RecentMovements),
		RecentAdjustments: ToMovementDTOs(p.RecentAdjustments),
	}
}

// LookupResponse superseded=true: otra consulta la reemplazó y product viene vacío.
type LookupResponse struct {
	Superseded bool            `json:"superseded"`
	Product    *ProductViewDTO `json:"product,omitempty"`
}

func ToLookupResponse(r *inventory.LookupResult) *LookupResponse {
	if r == nil {
		return nil
	}
	return &LookupResponse{Superseded: r.Superseded, Product: ToProductViewDTO(r.Product)}
}

// ScanResponse qué se hizo con la lectura.
type ScanResponse struct {
	Code       string          `json:"code"`
	Suppressed bool            `json:"suppressed"`
	CartQty    int             `json:"cart_qty,omitempty"`
	Lookup     *LookupResponse `json:"lookup,omitempty"`
}

func ToScanResponse(o *inventory.ScanOutcome) ScanResponse {
	return ScanResponse{
		Code:       o.Code.String(),
		Suppressed: o.Suppressed,
		CartQty:    o.CartQty,
		Lookup:     ToLookupResponse(o.Lookup),
	}
}

// SessionDTO estado visible de la sesión del operador.
type SessionDTO struct {
	SessionID  string           `json:"session_id"`
	State      string           `json:"state"`
	Product    *ProductViewDTO  `json:"product,omitempty"`
	Draft      *MovementRequest `json:"draft,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
	BatchMode  bool             `json:"batch_mode"`
	Cart       []CartLineDTO    `json:"cart"`
	CartUnits  int              `json:"cart_units"`
	LastBatch  *BatchResultDTO  `json:"last_batch,omitempty"`
	Generation uint64           `json:"generation"`
}

// ToSessionDTO codeOf clasifica los errores de las líneas del último lote.
func ToSessionDTO(s inventory.Snapshot, codeOf func(error) string) SessionDTO {
	out := SessionDTO{
		SessionID:  s.SessionID,
		State:      string(s.State),
		Product:    ToProductViewDTO(s.Product),
		Draft:      FromMovementRequest(s.Draft),
		LastError:  s.LastError,
		BatchMode:  s.BatchMode,
		Cart:       ToCartLineDTOs(s.Cart),
		CartUnits:  s.CartUnits,
		Generation: uint64(s.Generation),
	}
	if s.LastBatch != nil {
		b := ToBatchResultDTO(s.LastBatch, codeOf)
		out.LastBatch = &b
	}
	return out
}
