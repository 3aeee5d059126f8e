package scan

import "sync/atomic"

// Generation valor del contador capturado al iniciar una consulta.
type Generation uint64

// Guard filtro de obsolescencia para consultas asíncronas. Cada consulta captura
// una generación con Begin y, tras cada paso contra el almacén, verifica con
// IsCurrent antes de tocar estado compartido. No cancela llamadas en vuelo;
// solo descarta sus resultados.
type Guard struct {
	counter atomic.Uint64
}

// Begin inicia una nueva consulta y deja obsoletas todas las anteriores.
func (g *Guard) Begin() Generation {
	return Generation(g.counter.Add(1))
}

// Invalidate deja obsoletas las consultas en curso sin iniciar otra (ej. reinicio del flujo).
func (g *Guard) Invalidate() {
	g.counter.Add(1)
}

// Current devuelve la generación vigente.
func (g *Guard) Current() Generation {
	return Generation(g.counter.Load())
}

// IsCurrent indica si gen sigue siendo la consulta vigente.
func (g *Guard) IsCurrent(gen Generation) bool {
	return g.Current() == gen
}
