package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
)

func TestMovementType_Valid(t *testing.T) {
	for _, typ := range []entity.MovementType{
		entity.MovementReceive, entity.MovementSend, entity.MovementTransferOut,
		entity.MovementTransferIn, entity.MovementAdjust,
	} {
		assert.True(t, typ.Valid(), typ)
	}
	assert.False(t, entity.MovementType("transfer").Valid(), "el traslado lógico no es un tipo de movimiento")
	assert.False(t, entity.MovementType("").Valid())
}

func TestBalances_OnHandAt(t *testing.T) {
	b := entity.Balances{Global: 7, ByLocation: []entity.LocationBalance{
		{LocationID: "l1", OnHand: 5},
		{LocationID: "l2", OnHand: 2},
	}}
	assert.Equal(t, 5, b.OnHandAt("l1"))
	assert.Equal(t, 0, b.OnHandAt("l9"), "ubicación ausente cuenta como cero")
}
