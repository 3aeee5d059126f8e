package inventory

import "github.com/shopspring/decimal"

// WeightedAverageCost calcula el costo promedio ponderado tras una entrada valorizada.
// NuevoCosto = ((Existencias * CostoActual) + (CantEntrada * CostoEntrada)) / (Existencias + CantEntrada)
// Existencias negativas (inconsistencia del almacén) se tratan como cero.
func WeightedAverageCost(onHand int, currentCost decimal.Decimal, qtyIn int, unitCost decimal.Decimal) decimal.Decimal {
	if onHand < 0 {
		onHand = 0
	}
	total := onHand + qtyIn
	if total <= 0 {
		return decimal.Zero
	}
	num := decimal.NewFromInt(int64(onHand)).Mul(currentCost).
		Add(decimal.NewFromInt(int64(qtyIn)).Mul(unitCost))
	return num.Div(decimal.NewFromInt(int64(total))).Round(4)
}
