// Package activity mantiene el feed de acciones recientes del tablero.
// Buffer circular acotado: el feed es una vista, no un audit log.
package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity es el tope del feed cuando no se configura otro.
const DefaultCapacity = 50

// Entry es una acción registrada en el feed.
type Entry struct {
	ID      string    `json:"id"`
	ActorID string    `json:"actor_id"`
	Action  string    `json:"action"`
	TaskID  string    `json:"task_id,omitempty"`
	At      time.Time `json:"at"`
}

// Feed es un buffer circular de entradas. Seguro para uso concurrente.
type Feed struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// New crea un Feed con la capacidad dada; cap<=0 usa DefaultCapacity.
func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{entries: make([]Entry, capacity)}
}

// Record agrega una entrada, desplazando la más vieja si el feed está lleno.
func (f *Feed) Record(actorID, action, taskID string) Entry {
	e := Entry{
		ID:      uuid.NewString(),
		ActorID: actorID,
		Action:  action,
		TaskID:  taskID,
		At:      time.Now().UTC(),
	}

	f.mu.Lock()
	f.entries[f.next] = e
	f.next++
	if f.next == len(f.entries) {
		f.next = 0
		f.full = true
	}
	f.mu.Unlock()
	return e
}

// Recent retorna las entradas vigentes, más recientes primero.
func (f *Feed) Recent() []Entry {
	f.mu.Lock()
	n := f.next
	if f.full {
		n = len(f.entries)
	}
	out := make([]Entry, n)
	if f.full {
		copy(out, f.entries[f.next:])
		copy(out[len(f.entries)-f.next:], f.entries[:f.next])
	} else {
		copy(out, f.entries[:n])
	}
	f.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	return out
}
