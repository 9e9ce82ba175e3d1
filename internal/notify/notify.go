// Package notify mantiene las notificaciones del tablero. Cada notificación
// lleva un Kind etiquetado serializable; el render es problema de la vista.
// Los recordatorios de deadline expiran solos por TTL: un recordatorio que
// nadie leyó a tiempo ya no informa nada.
package notify

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// Kind clasifica la notificación. Mismo vocabulario que expone la API.
type Kind string

const (
	KindTaskAssigned Kind = "task_assigned"
	KindDeadline     Kind = "deadline"
	KindStatusUpdate Kind = "status_update"
)

// Valid reporta si k es un kind conocido.
func (k Kind) Valid() bool {
	switch k {
	case KindTaskAssigned, KindDeadline, KindStatusUpdate:
		return true
	}
	return false
}

var (
	ErrNotFound    = errors.New("notification not found")
	ErrInvalidKind = errors.New("invalid notification kind")
)

// Notification es un aviso dirigido a un usuario, opcionalmente anclado a
// una tarea.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Kind        Kind      `json:"kind"`
	Message     string    `json:"message"`
	TaskID      string    `json:"task_id,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store guarda notificaciones sobre go-cache: las de deadline con TTL, el
// resto sin expiración. El janitor purga las vencidas.
type Store struct {
	mu          sync.Mutex
	c           *gocache.Cache
	reminderTTL time.Duration
}

// New crea un Store. reminderTTL gobierna la vida de los recordatorios de
// deadline; cero desactiva la expiración.
func New(reminderTTL time.Duration) *Store {
	return &Store{
		c:           gocache.New(gocache.NoExpiration, time.Minute),
		reminderTTL: reminderTTL,
	}
}

// Publish emite una notificación para recipientID.
func (s *Store) Publish(recipientID string, k Kind, message, taskID string) (Notification, error) {
	if !k.Valid() {
		return Notification{}, ErrInvalidKind
	}

	n := Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Kind:        k,
		Message:     message,
		TaskID:      taskID,
		CreatedAt:   time.Now().UTC(),
	}

	ttl := gocache.NoExpiration
	if k == KindDeadline && s.reminderTTL > 0 {
		ttl = s.reminderTTL
	}
	s.c.Set(n.ID, n, ttl)
	return n, nil
}

// ListFor retorna las notificaciones vigentes del usuario, más recientes
// primero.
func (s *Store) ListFor(recipientID string) []Notification {
	var out []Notification
	for _, item := range s.c.Items() {
		n, ok := item.Object.(Notification)
		if !ok || n.RecipientID != recipientID {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Unread cuenta las no leídas del usuario. Alimenta el badge del dashboard.
func (s *Store) Unread(recipientID string) int {
	count := 0
	for _, n := range s.ListFor(recipientID) {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marca como leída una notificación del usuario. Conserva el TTL
// restante de los recordatorios.
func (s *Store) MarkRead(id, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.c.Items()[id]
	if !ok {
		return ErrNotFound
	}
	n, ok := item.Object.(Notification)
	if !ok || n.RecipientID != recipientID {
		return ErrNotFound
	}

	n.Read = true
	ttl := gocache.NoExpiration
	if item.Expiration > 0 {
		remaining := time.Until(time.Unix(0, item.Expiration))
		if remaining <= 0 {
			return ErrNotFound
		}
		ttl = remaining
	}
	s.c.Set(id, n, ttl)
	return nil
}
