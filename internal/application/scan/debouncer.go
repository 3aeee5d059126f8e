package scan

import (
	"sync"
	"time"

	"github.com/jhoicas/Inventario-scan/internal/domain/code"
)

// DefaultDebounceWindow ventana por defecto. Un QR visible ante el decodificador
// se vuelve a leer varias veces por segundo; no depende de la tasa de cuadros.
const DefaultDebounceWindow = 900 * time.Millisecond

// Event lectura cruda entregada por el decodificador. Se consume una sola vez.
type Event struct {
	RawText   string
	DecodedAt time.Time
}

// Debouncer suprime lecturas repetidas del mismo código dentro de la ventana.
// Solo recuerda la última lectura aceptada.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	lastCode code.ProductCode
	lastAt   time.Time
	seen     bool
}

// NewDebouncer construye el debouncer; window <= 0 usa DefaultDebounceWindow.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window}
}

// Accept devuelve true si la lectura debe procesarse. Se suprime el mismo código
// si llega a window o menos de la última aceptada. Una lectura suprimida no
// desplaza la marca de tiempo de la última aceptada.
func (d *Debouncer) Accept(c code.ProductCode, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen && c == d.lastCode && now.Sub(d.lastAt) <= d.window {
		return false
	}
	d.lastCode = c
	d.lastAt = now
	d.seen = true
	return true
}

// Reset olvida la última lectura aceptada.
func (d *Debouncer) Reset() {
	d.mu.Lock()
	d.seen = false
	d.lastCode = ""
	d.lastAt = time.Time{}
	d.mu.Unlock()
}
