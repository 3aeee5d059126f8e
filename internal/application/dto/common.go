package dto

// LimitQuery límite opcional de listados (?limit=).
type LimitQuery struct {
	Limit int `query:"limit"`
}

// Normalize aplica el valor por defecto y el tope.
func (q *LimitQuery) Normalize(def, max int) {
	if q.Limit <= 0 {
		q.Limit = def
	}
	if q.Limit > max {
		q.Limit = max
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NonAtomicTransferResponse error de traslado con la salida que sí quedó registrada.
type NonAtomicTransferResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Debit   *MovementDTO `json:"debit,omitempty"`
}
