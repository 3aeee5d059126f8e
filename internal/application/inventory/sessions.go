package inventory

import (
	"sync"
	"time"
)

// SessionRegistry mantiene una sesión por operador (id de usuario del token) y
// expulsa las inactivas por TTL.
type SessionRegistry struct {
	deps          SessionDeps
	ttl           time.Duration
	sweepInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
}

// NewSessionRegistry ttl <= 0 desactiva la expulsión.
func NewSessionRegistry(deps SessionDeps, ttl time.Duration) *SessionRegistry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &SessionRegistry{
		deps:          deps,
		ttl:           ttl,
		sweepInterval: interval,
		sessions:      make(map[string]*Session),
	}
}

// Get devuelve la sesión del operador, creándola si no existe.
func (r *SessionRegistry) Get(operatorID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[operatorID]; ok {
		return s
	}
	s := NewSession(operatorID, r.deps)
	r.sessions[operatorID] = s
	r.deps.Log.Debug().Str("session", operatorID).Msg("sesión creada")
	return s
}

// Len cantidad de sesiones activas.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep elimina las sesiones sin actividad desde hace más de ttl. Devuelve cuántas.
func (r *SessionRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	cutoff := r.deps.Now().Add(-r.ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		r.deps.Log.Info().Int("removed", removed).Int("active", len(r.sessions)).Msg("sesiones inactivas expulsadas")
	}
	return removed
}

// Start inicia el barrido periódico en segundo plano.
func (r *SessionRegistry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ttl <= 0 || r.ticker != nil {
		return
	}
	r.ticker = time.NewTicker(r.sweepInterval)
	r.stop = make(chan struct{})
	r.wg.Add(1)
	go r.run(r.ticker, r.stop)
	r.deps.Log.Info().Dur("ttl", r.ttl).Dur("interval", r.sweepInterval).Msg("barrido de sesiones iniciado")
}

// Stop detiene el barrido y espera a la goroutine.
func (r *SessionRegistry) Stop() {
	r.mu.Lock()
	if r.ticker == nil {
		r.mu.Unlock()
		return
	}
	r.ticker.Stop()
	close(r.stop)
	r.ticker = nil
	r.mu.Unlock()
	r.wg.Wait()
}

func (r *SessionRegistry) run(t *time.Ticker, stop <-chan struct{}) {
	defer r.wg.Done()
	for {
		select {
		case <-t.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}
