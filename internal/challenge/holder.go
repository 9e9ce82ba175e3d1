// Package challenge guarda el challenge de cambio de password en vuelo entre
// la vista de login y la de set-password.
package challenge

import (
	"sync"

	"github.com/dropDatabas3/fieldtask/internal/idp"
)

// Holder es un slot único process-wide. A lo sumo existe un challenge
// pendiente a la vez: un Set posterior pisa al anterior (un nuevo intento de
// login invalida cualquier challenge abandonado). El flujo de set-password
// debe llamar Clear() tanto en éxito como en fallo para no filtrar un
// challenge viejo a un login posterior.
type Holder struct {
	mu      sync.Mutex
	pending *idp.Challenge
}

// NewHolder crea un holder vacío.
func NewHolder() *Holder {
	return &Holder{}
}

// Set guarda el challenge, reemplazando cualquier pendiente.
func (h *Holder) Set(ch *idp.Challenge) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = ch
}

// Get retorna el challenge pendiente o nil.
func (h *Holder) Get() *idp.Challenge {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pending
}

// Clear vacía el slot. Idempotente.
func (h *Holder) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = nil
}
