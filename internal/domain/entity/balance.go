package entity

import (
	"time"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

// Balances vista de existencias de un producto: total global y desglose por ubicación.
// Se asume que el almacén mantiene Global == suma de ByLocation; el núcleo no lo verifica.
type Balances struct {
	Code        code.ProductCode
	Global      int
	ByLocation  []LocationBalance
	RefreshedAt time.Time
}

// OnHandAt devuelve las existencias en la ubicación, cero si no aparece en el desglose.
func (b Balances) OnHandAt(locationID string) int {
	for _, lb := range b.ByLocation {
		if lb.LocationID == locationID {
			return lb.OnHand
		}
	}
	return 0
}
