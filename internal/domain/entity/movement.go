package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

// MovementType tipo de un movimiento aplicado.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementReceive     MovementType = "receive"     // entrada a una ubicación
	MovementSend        MovementType = "send"        // salida desde una ubicación
	MovementTransferOut MovementType = "transferOut" // pata de salida de un traslado
	MovementTransferIn  MovementType = "transferIn"  // pata de entrada de un traslado
	MovementAdjust      MovementType = "adjust"      // ajuste de existencias global
)

// Valid indica si t es uno de los tipos conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementReceive, MovementSend, MovementTransferOut, MovementTransferIn, MovementAdjust:
		return true
	}
	return false
}

// Movement registro inmutable de una operación aplicada. Lo crea el almacén
// al aplicar el movimiento; nunca se modifica.
type Movement struct {
	ID               string
	TransferID       string // correlaciona las dos patas de un traslado
	Type             MovementType
	Code             code.ProductCode
	Delta            int // con signo
	LocationID       string
	FromLocationID   string
	ToLocationID     string
	FromLocationCode string // resuelto solo en consultas de historial
	ToLocationCode   string
	Reason           string
	Note             string
	UnitCost         *decimal.Decimal // solo en entradas valorizadas
	CreatedBy        string
	CreatedAt        time.Time
}
