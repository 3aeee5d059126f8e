package entity

// Location ubicación física donde se guarda inventario (bodega, estante, vehículo).
type Location struct {
	ID   string
	Code string // código corto para mostrar (ej. L1, BOD-NORTE)
	Name string
}

// LocationBalance existencias de un producto en una ubicación. OnHand nunca es negativo.
type LocationBalance struct {
	LocationID   string
	LocationCode string
	OnHand       int
}
