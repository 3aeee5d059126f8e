package entity

import "github.com/jhoicas/Inventario-scan/internal/domain/code"

// CartLine línea del lote: un código y su cantidad acumulada (Qty >= 1).
type CartLine struct {
	Code code.ProductCode
	Qty  int
}
