// Package memory implementa el almacén de inventario en memoria (desarrollo y pruebas).
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/inventory"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// Errores propios del almacén en memoria; el núcleo los recibe envueltos como StoreError.
var (
	ErrUnknownProduct  = errors.New("producto inexistente")
	ErrUnknownLocation = errors.New("ubicación inexistente")
	ErrNegativeStock   = errors.New("las existencias no pueden quedar negativas")
)

// Nombres de operación para Fault y Calls.
const (
	OpFindProduct           = "findProduct"
	OpGetImageRef           = "getImageRef"
	OpGetGlobalOnHand       = "getGlobalOnHand"
	OpGetLocationBalances   = "getLocationBalances"
	OpListLocations         = "listLocations"
	OpRecordAdjustment      = "recordAdjustment"
	OpRecordLocationDelta   = "recordLocationDelta"
	OpListRecentAdjustments = "listRecentAdjustments"
	OpListRecentMovements   = "listRecentMovements"
)

// Call describe una invocación; lo recibe Fault antes de ejecutar la operación.
type Call struct {
	Op         string
	Code       code.ProductCode
	LocationID string
	Delta      int
	Type       entity.MovementType
}

// FaultFunc si devuelve error la operación falla sin efectos.
type FaultFunc func(Call) error

// Store implementa repository.Store. Cada Record* es atómico bajo el candado.
type Store struct {
	mu        sync.RWMutex
	products  map[code.ProductCode]entity.Product
	locations []entity.Location
	byLoc     map[code.ProductCode]map[string]int
	global    map[code.ProductCode]int
	movements []*entity.Movement
	calls     map[string]int
	fault     FaultFunc
	now       func() time.Time
}

var _ repository.Store = (*Store)(nil)

// NewStore almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[code.ProductCode]entity.Product),
		byLoc:    make(map[code.ProductCode]map[string]int),
		global:   make(map[code.ProductCode]int),
		calls:    make(map[string]int),
		now:      time.Now,
	}
}

// SetClock fija la fuente de tiempo de los movimientos.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// SetFault instala (o con nil retira) la inyección de fallas.
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	s.fault = f
	s.mu.Unlock()
}

// Calls cantidad de invocaciones de la operación (incluye las que fallaron).
func (s *Store) Calls(op string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[op]
}

// AddProduct registra o reemplaza un producto del catálogo.
func (s *Store) AddProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	p.UpdatedAt = p.CreatedAt
	s.products[p.Code] = p
}

// AddLocation registra una ubicación.
func (s *Store) AddLocation(l entity.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.locations {
		if s.locations[i].ID == l.ID {
			s.locations[i] = l
			return
		}
	}
	s.locations = append(s.locations, l)
}

// SetOnHand fija existencias iniciales en una ubicación y recalcula el total global.
func (s *Store) SetOnHand(c code.ProductCode, locationID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byLoc[c] == nil {
		s.byLoc[c] = make(map[string]int)
	}
	s.global[c] += qty - s.byLoc[c][locationID]
	s.byLoc[c][locationID] = qty
}

// Product devuelve el producto tal como está en el almacén.
func (s *Store) Product(c code.ProductCode) (entity.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[c]
	return p, ok
}

// Movements copia de todos los movimientos en orden de registro.
func (s *Store) Movements() []*entity.Movement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.Movement, len(s.movements))
	for i, m := range s.movements {
		cp := *m
		out[i] = &cp
	}
	return out
}

// before registra la llamada y evalúa la falla inyectada. Requiere el candado.
func (s *Store) before(c Call) error {
	s.calls[c.Op]++
	if s.fault != nil {
		return s.fault(c)
	}
	return nil
}

func (s *Store) FindProduct(_ context.Context, c code.ProductCode) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpFindProduct, Code: c}); err != nil {
		return false, err
	}
	_, ok := s.products[c]
	return ok, nil
}

func (s *Store) GetImageRef(_ context.Context, c code.ProductCode) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpGetImageRef, Code: c}); err != nil {
		return "", err
	}
	return s.products[c].ImagePath, nil
}

func (s *Store) GetGlobalOnHand(_ context.Context, c code.ProductCode) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpGetGlobalOnHand, Code: c}); err != nil {
		return 0, err
	}
	return s.global[c], nil
}

// GetLocationBalances solo ubicaciones con fila para el producto, ordenadas por código.
func (s *Store) GetLocationBalances(_ context.Context, c code.ProductCode) ([]entity.LocationBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpGetLocationBalances, Code: c}); err != nil {
		return nil, err
	}
	out := make([]entity.LocationBalance, 0, len(s.byLoc[c]))
	for id, qty := range s.byLoc[c] {
		out = append(out, entity.LocationBalance{LocationID: id, LocationCode: s.locationCode(id), OnHand: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LocationCode < out[j].LocationCode })
	return out, nil
}

func (s *Store) ListLocations(_ context.Context) ([]entity.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpListLocations}); err != nil {
		return nil, err
	}
	out := append([]entity.Location(nil), s.locations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) RecordAdjustment(_ context.Context, in repository.AdjustmentInput) (*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpRecordAdjustment, Code: in.Code, Delta: in.Delta, Type: entity.MovementAdjust}); err != nil {
		return nil, err
	}
	if _, ok := s.products[in.Code]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, in.Code)
	}
	next := s.global[in.Code] + in.Delta
	if next < 0 {
		return nil, fmt.Errorf("%w: global %d, ajuste %d", ErrNegativeStock, s.global[in.Code], in.Delta)
	}
	s.global[in.Code] = next
	m := &entity.Movement{
		ID:        uuid.New().String(),
		Type:      entity.MovementAdjust,
		Code:      in.Code,
		Delta:     in.Delta,
		Reason:    in.Reason,
		Note:      in.Note,
		CreatedBy: in.CreatedBy,
		CreatedAt: s.now(),
	}
	s.movements = append(s.movements, m)
	cp := *m
	return &cp, nil
}

// RecordLocationDelta aplica el delta en la ubicación y en el total global. Una
// entrada con costo unitario recalcula el costo promedio ponderado del producto.
func (s *Store) RecordLocationDelta(_ context.Context, in repository.LocationDeltaInput) (*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpRecordLocationDelta, Code: in.Code, LocationID: in.LocationID, Delta: in.Delta, Type: in.Type}); err != nil {
		return nil, err
	}
	p, ok := s.products[in.Code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, in.Code)
	}
	if s.locationCode(in.LocationID) == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, in.LocationID)
	}
	if s.byLoc[in.Code] == nil {
		s.byLoc[in.Code] = make(map[string]int)
	}
	current := s.byLoc[in.Code][in.LocationID]
	if current+in.Delta < 0 {
		return nil, fmt.Errorf("%w: %s en %s disponible %d, delta %d", ErrNegativeStock, in.Code, in.LocationID, current, in.Delta)
	}

	if in.Type == entity.MovementReceive && in.UnitCost != nil {
		p.Cost = inventory.WeightedAverageCost(s.global[in.Code], p.Cost, in.Delta, *in.UnitCost)
		p.UpdatedAt = s.now()
		s.products[in.Code] = p
	}
	s.byLoc[in.Code][in.LocationID] = current + in.Delta
	s.global[in.Code] += in.Delta

	m := &entity.Movement{
		ID:             uuid.New().String(),
		TransferID:     in.TransferID,
		Type:           in.Type,
		Code:           in.Code,
		Delta:          in.Delta,
		LocationID:     in.LocationID,
		FromLocationID: in.FromLocationID,
		ToLocationID:   in.ToLocationID,
		Reason:         in.Reason,
		Note:           in.Note,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      s.now(),
	}
	if in.UnitCost != nil {
		uc := *in.UnitCost
		m.UnitCost = &uc
	}
	s.movements = append(s.movements, m)
	cp := *m
	return &cp, nil
}

func (s *Store) ListRecentAdjustments(_ context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpListRecentAdjustments, Code: c}); err != nil {
		return nil, err
	}
	return s.recent(c, limit, func(m *entity.Movement) bool { return m.Type == entity.MovementAdjust }), nil
}

func (s *Store) ListRecentMovements(_ context.Context, c code.ProductCode, limit int) ([]*entity.Movement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.before(Call{Op: OpListRecentMovements, Code: c}); err != nil {
		return nil, err
	}
	out := s.recent(c, limit, func(m *entity.Movement) bool { return m.Type != entity.MovementAdjust })
	for _, m := range out {
		m.FromLocationCode = s.locationCode(m.FromLocationID)
		m.ToLocationCode = s.locationCode(m.ToLocationID)
	}
	return out, nil
}

// recent más reciente primero, copias independientes.
func (s *Store) recent(c code.ProductCode, limit int, keep func(*entity.Movement) bool) []*entity.Movement {
	var out []*entity.Movement
	for i := len(s.movements) - 1; i >= 0; i-- {
		m := s.movements[i]
		if m.Code != c || !keep(m) {
			continue
		}
		cp := *m
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func (s *Store) locationCode(id string) string {
	if id == "" {
		return ""
	}
	for _, l := range s.locations {
		if l.ID == id {
			return l.Code
		}
	}
	return ""
}

// Seed carga un catálogo de demostración: tres ubicaciones y algunos productos.
func (s *Store) Seed() {
	for _, l := range []entity.Location{
		{ID: "loc-bodega", Code: "BOD", Name: "Bodega principal"},
		{ID: "loc-tienda", Code: "TDA", Name: "Tienda"},
		{ID: "loc-movil", Code: "MOV", Name: "Vehículo de reparto"},
	} {
		s.AddLocation(l)
	}
	for _, p := range []entity.Product{
		{Code: "RB-10-02-16", Name: "Rodamiento 10x02x16", ImagePath: "products/RB-10-02-16.jpg", Cost: decimal.NewFromInt(12500)},
		{Code: "TX-4-40-100", Name: "Tornillo 4-40 x100", ImagePath: "products/TX-4-40-100.png", Cost: decimal.NewFromInt(3200)},
		{Code: "CB-2-5-30", Name: "Cable 2.5mm 30m", Cost: decimal.NewFromInt(86000)},
	} {
		s.AddProduct(p)
	}
	s.SetOnHand("RB-10-02-16", "loc-bodega", 20)
	s.SetOnHand("RB-10-02-16", "loc-tienda", 4)
	s.SetOnHand("TX-4-40-100", "loc-bodega", 150)
}
