package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-scan/internal/application/scan"
	"github.com/jhoicas/Inventario-scan/internal/domain"
	"github.com/jhoicas/Inventario-scan/internal/domain/code"
	"github.com/jhoicas/Inventario-scan/internal/domain/entity"
	"github.com/jhoicas/Inventario-scan/internal/domain/repository"
)

// State estado del flujo de un producto.
type State string

// Idle → Resolving → Ready → Submitting → Applied | Ready. Un envío fallido vuelve
// directamente a Ready con LastError y el borrador conservados; Applied limpia el
// borrador y mantiene el producto.
const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateApplied    State = "applied"
)

// DefaultHistoryLimit cantidad de movimientos recientes que se cargan por producto.
const DefaultHistoryLimit = 10

// ProductView producto resuelto tal como se muestra al operador.
type ProductView struct {
	Code              code.ProductCode
	ImageURL          string
	Balances          entity.Balances
	RecentMovements   []*entity.Movement
	RecentAdjustments []*entity.Movement
}

func (p *ProductView) clone() *ProductView {
	if p == nil {
		return nil
	}
	c := *p
	c.Balances.ByLocation = append([]entity.LocationBalance(nil), p.Balances.ByLocation...)
	c.RecentMovements = append([]*entity.Movement(nil), p.RecentMovements...)
	c.RecentAdjustments = append([]*entity.Movement(nil), p.RecentAdjustments...)
	return &c
}

// LookupResult resultado de una consulta. Superseded indica que otra consulta más
// reciente la reemplazó: su resultado se descartó sin tocar la sesión.
type LookupResult struct {
	Product    *ProductView
	Superseded bool
}

// ScanOutcome qué se hizo con una lectura de cámara.
type ScanOutcome struct {
	Code       code.ProductCode
	Suppressed bool          // descartada por el debouncer
	CartQty    int           // modo lote: cantidad resultante de la línea
	Lookup     *LookupResult // modo individual
}

// Snapshot copia del estado de la sesión para la capa de presentación.
type Snapshot struct {
	SessionID  string
	State      State
	Product    *ProductView
	Draft      *MovementRequest
	LastError  string
	BatchMode  bool
	Cart       []entity.CartLine
	CartUnits  int
	LastBatch  *BatchResult
	Generation scan.Generation
}

// SessionDeps colaboradores y parámetros de una sesión.
type SessionDeps struct {
	Store          Store
	Images         repository.ImageResolver
	Log            zerolog.Logger
	DebounceWindow time.Duration
	HistoryLimit   int
	Now            Clock
}

// Session flujo de trabajo de un operador: producto actual, carrito, contador de
// generaciones y debouncer. Las llamadas al almacén se hacen sin el candado; entre
// llamadas la mutación es atómica y siempre pasa por el Guard.
type Session struct {
	id     string
	store  Store
	images repository.ImageResolver
	log    zerolog.Logger
	now    Clock
	limit  int

	guard     scan.Guard
	debouncer *scan.Debouncer
	cache     *BalanceCache
	engine    *Engine
	batch     *BatchAggregator

	mu        sync.Mutex
	state     State
	product   *ProductView
	draft     *MovementRequest
	lastErr   string
	batchMode bool
	lastBatch *BatchResult
	lastSeen  time.Time
}

// NewSession construye una sesión en estado Idle.
func NewSession(id string, deps SessionDeps) *Session {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	log := deps.Log.With().Str("session", id).Logger()
	cache := NewBalanceCache(deps.Store, log, now)
	engine := NewEngine(deps.Store, cache, log)
	return &Session{
		id:        id,
		store:     deps.Store,
		images:    deps.Images,
		log:       log,
		now:       now,
		limit:     limit,
		debouncer: scan.NewDebouncer(deps.DebounceWindow),
		cache:     cache,
		engine:    engine,
		batch:     NewBatchAggregator(engine, log),
		state:     StateIdle,
		lastSeen:  now(),
	}
}

// ID identificador de la sesión.
func (s *Session) ID() string { return s.id }

// HandleScan procesa una lectura de cámara: normaliza, aplica el debouncer y según
// el modo agrega al lote o resuelve el producto.
func (s *Session) HandleScan(ctx context.Context, ev scan.Event) (*ScanOutcome, error) {
	s.touch()
	pc, err := code.Normalize(ev.RawText)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	at := ev.DecodedAt
	if at.IsZero() {
		at = s.now()
	}
	if !s.debouncer.Accept(pc, at) {
		s.log.Debug().Str("code", pc.String()).Msg("lectura repetida descartada")
		return &ScanOutcome{Code: pc, Suppressed: true}, nil
	}

	s.mu.Lock()
	batchMode := s.batchMode
	s.mu.Unlock()

	if batchMode {
		qty, err := s.addToBatch(ctx, pc)
		if err != nil {
			return nil, err
		}
		return &ScanOutcome{Code: pc, CartQty: qty}, nil
	}
	res, err := s.lookup(ctx, pc)
	if err != nil {
		return nil, err
	}
	return &ScanOutcome{Code: pc, Lookup: res}, nil
}

// Lookup resuelve un código digitado manualmente (sin debouncer).
func (s *Session) Lookup(ctx context.Context, raw string) (*LookupResult, error) {
	s.touch()
	pc, err := code.Normalize(raw)
	if err != nil {
		s.setError(err)
		return nil, err
	}
	return s.lookup(ctx, pc)
}

// lookup ejecuta en orden existencia → imagen → saldos → historial. Tras cada paso
// verifica la generación; una consulta reemplazada termina sin error ni mutación.
func (s *Session) lookup(ctx context.Context, pc code.ProductCode) (*LookupResult, error) {
	gen := s.guard.Begin()
	s.commit(gen, func() {
		s.state = StateResolving
		s.product = &ProductView{Code: pc}
		s.draft = nil
		s.lastErr = ""
	})
	superseded := func(step string) (*LookupResult, error) {
		s.log.Debug().Str("code", pc.String()).Str("step", step).Msg("consulta reemplazada, resultado descartado")
		return &LookupResult{Superseded: true}, nil
	}

	exists, err := s.store.FindProduct(ctx, pc)
	if !s.guard.IsCurrent(gen) {
		return superseded("findProduct")
	}
	if err != nil {
		return s.failLookup(gen, domain.NewStoreError("findProduct", err))
	}
	if !exists {
		return s.failLookup(gen, fmt.Errorf("%w: %s", domain.ErrNotFound, pc))
	}

	imageURL := s.fetchImage(ctx, pc)
	if !s.commit(gen, func() { s.product.ImageURL = imageURL }) {
		return superseded("image")
	}

	balances, err := s.cache.Fetch(ctx, pc)
	if !s.guard.IsCurrent(gen) {
		return superseded("balances")
	}
	if err != nil {
		return s.failLookup(gen, err)
	}
	if !s.commit(gen, func() {
		s.cache.Put(balances)
		s.product.Balances = balances
	}) {
		return superseded("balances")
	}

	movs, adjs, herr := s.fetchHistory(ctx, pc)
	var view *ProductView
	if !s.commit(gen, func() {
		if herr == nil {
			s.product.RecentMovements = movs
			s.product.RecentAdjustments = adjs
		}
		s.state = StateReady
		view = s.product.clone()
	}) {
		return superseded("history")
	}
	return &LookupResult{Product: view}, nil
}

func (s *Session) failLookup(gen scan.Generation, err error) (*LookupResult, error) {
	if !s.commit(gen, func() {
		s.state = StateIdle
		s.product = nil
		s.lastErr = err.Error()
	}) {
		return &LookupResult{Superseded: true}, nil
	}
	s.log.Warn().Err(err).Msg("consulta de producto fallida")
	return nil, err
}

// fetchImage la imagen es decorativa: cualquier falla se registra y se omite.
func (s *Session) fetchImage(ctx context.Context, pc code.ProductCode) string {
	path, err := s.store.GetImageRef(ctx, pc)
	if err != nil {
		s.log.Warn().Err(err).Str("code", pc.String()).Msg("referencia de imagen no disponible")
		return ""
	}
	if path == "" || s.images == nil {
		return ""
	}
	url, err := s.images.ResolveImageURL(ctx, path)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("no se pudo resolver URL de imagen")
		return ""
	}
	return url
}

// fetchHistory falla de historial no bloquea la operación; se registra.
func (s *Session) fetchHistory(ctx context.Context, pc code.ProductCode) ([]*entity.Movement, []*entity.Movement, error) {
	movs, err := s.store.ListRecentMovements(ctx, pc, s.limit)
	if err != nil {
		s.log.Warn().Err(err).Str("code", pc.String()).Msg("historial de movimientos no disponible")
		return nil, nil, domain.NewStoreError("listRecentMovements", err)
	}
	adjs, err := s.store.ListRecentAdjustments(ctx, pc, s.limit)
	if err != nil {
		s.log.Warn().Err(err).Str("code", pc.String()).Msg("historial de ajustes no disponible")
		return nil, nil, domain.NewStoreError("listRecentAdjustments", err)
	}
	return movs, adjs, nil
}

// Apply ejecuta un movimiento sobre el producto resuelto. El código de la solicitud
// se toma del producto actual; si viene informado debe coincidir.
func (s *Session) Apply(ctx context.Context, req MovementRequest) (*ApplyResult, error) {
	s.touch()
	s.mu.Lock()
	switch {
	case s.state == StateSubmitting:
		s.mu.Unlock()
		return nil, domain.ErrBusy
	case s.product == nil || s.state == StateIdle || s.state == StateResolving:
		s.mu.Unlock()
		return nil, domain.ErrNoProduct
	case req.Code != "" && req.Code != s.product.Code:
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: el código %s no es el producto actual", domain.ErrInvalidInput, req.Code)
	}
	req.Code = s.product.Code
	draft := req
	s.draft = &draft
	s.state = StateSubmitting
	gen := s.guard.Current()
	s.mu.Unlock()

	res, err := s.engine.Apply(ctx, req)

	s.commit(gen, func() {
		if b, ok := s.cache.Get(req.Code); ok {
			s.product.Balances = b
		}
		if err != nil {
			// el borrador y el error quedan para reintento
			s.lastErr = err.Error()
			s.state = StateReady
			return
		}
		s.state = StateApplied
		s.draft = nil
		s.lastErr = ""
	})

	if err != nil {
		if errors.Is(err, domain.ErrNonAtomicTransfer) {
			s.log.Error().Err(err).Str("code", req.Code.String()).Msg("traslado no atómico: revisar existencias")
		}
		return res, err
	}

	movs, adjs, herr := s.fetchHistory(ctx, req.Code)
	if herr == nil {
		s.commit(gen, func() {
			s.product.RecentMovements = movs
			s.product.RecentAdjustments = adjs
		})
	}
	return res, nil
}

// SetBatchMode activa o desactiva el modo lote. Desactivarlo descarta el carrito.
func (s *Session) SetBatchMode(on bool) error {
	s.touch()
	if !on {
		if err := s.batch.Clear(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.batchMode = on
	if !on {
		s.lastBatch = nil
	}
	s.mu.Unlock()
	return nil
}

// AddToBatch agrega un código digitado al carrito (modo lote).
func (s *Session) AddToBatch(ctx context.Context, raw string) (code.ProductCode, int, error) {
	s.touch()
	pc, err := code.Normalize(raw)
	if err != nil {
		s.setError(err)
		return "", 0, err
	}
	qty, err := s.addToBatch(ctx, pc)
	return pc, qty, err
}

func (s *Session) addToBatch(ctx context.Context, pc code.ProductCode) (int, error) {
	s.mu.Lock()
	on := s.batchMode
	s.mu.Unlock()
	if !on {
		return 0, fmt.Errorf("%w: modo lote inactivo", domain.ErrInvalidInput)
	}
	exists, err := s.store.FindProduct(ctx, pc)
	if err != nil {
		err = domain.NewStoreError("findProduct", err)
		s.setError(err)
		return 0, err
	}
	if !exists {
		err := fmt.Errorf("%w: %s", domain.ErrNotFound, pc)
		s.setError(err)
		return 0, err
	}
	return s.batch.AddOrIncrement(pc)
}

// SetBatchQty fija la cantidad de una línea del carrito.
func (s *Session) SetBatchQty(raw string, qty int) error {
	s.touch()
	pc, err := code.Normalize(raw)
	if err != nil {
		return err
	}
	return s.batch.SetQty(pc, qty)
}

// RemoveFromBatch quita una línea del carrito.
func (s *Session) RemoveFromBatch(raw string) error {
	s.touch()
	pc, err := code.Normalize(raw)
	if err != nil {
		return err
	}
	return s.batch.Remove(pc)
}

// SubmitBatch envía el carrito. Las líneas fallidas quedan en el carrito para reintento.
func (s *Session) SubmitBatch(ctx context.Context, p BatchParams) (*BatchResult, error) {
	s.touch()
	s.mu.Lock()
	on := s.batchMode
	s.mu.Unlock()
	if !on {
		return nil, fmt.Errorf("%w: modo lote inactivo", domain.ErrInvalidInput)
	}
	gen := s.guard.Current()
	res, err := s.batch.Submit(ctx, p)
	if err != nil {
		return nil, err
	}
	s.commit(gen, func() {
		s.lastBatch = res
		if perr := res.Err(); perr != nil {
			s.lastErr = perr.Error()
		} else {
			s.lastErr = ""
		}
		if s.product != nil {
			if b, ok := s.cache.Get(s.product.Code); ok {
				s.product.Balances = b
			}
		}
	})
	return res, nil
}

// Reset vuelve a Idle: descarta producto, borrador y carrito, y deja obsoletas las
// consultas en curso.
func (s *Session) Reset() error {
	s.touch()
	if err := s.batch.Clear(); err != nil {
		return err
	}
	s.guard.Invalidate()
	s.debouncer.Reset()
	s.cache.Clear()
	s.mu.Lock()
	s.state = StateIdle
	s.product = nil
	s.draft = nil
	s.lastErr = ""
	s.lastBatch = nil
	s.mu.Unlock()
	return nil
}

// Snapshot copia del estado actual.
func (s *Session) Snapshot() Snapshot {
	cart := s.batch.Lines()
	units := 0
	for _, l := range cart {
		units += l.Qty
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var draft *MovementRequest
	if s.draft != nil {
		d := *s.draft
		draft = &d
	}
	return Snapshot{
		SessionID:  s.id,
		State:      s.state,
		Product:    s.product.clone(),
		Draft:      draft,
		LastError:  s.lastErr,
		BatchMode:  s.batchMode,
		Cart:       cart,
		CartUnits:  units,
		LastBatch:  s.lastBatch,
		Generation: s.guard.Current(),
	}
}

// LastSeen última actividad de la sesión.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// commit aplica fn bajo el candado solo si gen sigue vigente.
func (s *Session) commit(gen scan.Generation, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.guard.IsCurrent(gen) {
		return false
	}
	fn()
	return true
}

func (s *Session) setError(err error) {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}
