// Package team mantiene el roster del equipo. Solo lectura para members;
// la mutación es admin-only, aplicada por el guard en la capa HTTP.
package team

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/fieldtask/internal/role"
)

var (
	ErrNotFound       = errors.New("member not found")
	ErrDuplicateEmail = errors.New("member email already registered")
	ErrInvalidMember  = errors.New("member name and email required")
)

// Member es una persona del roster. Role acá es el rol que el admin declara
// para el tablero; el rol efectivo de sesión siempre sale de los claims del
// token.
type Member struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    role.Role `json:"role"`
	Phone   string    `json:"phone,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Store es el repositorio en memoria del roster.
type Store struct {
	mu   sync.RWMutex
	byID map[string]Member
}

// New crea un Store vacío.
func New() *Store {
	return &Store{byID: make(map[string]Member)}
}

// Add incorpora un miembro. El email es único dentro del roster; un rol no
// reconocido cae a member.
func (s *Store) Add(name, email, phone string, r role.Role) (Member, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return Member{}, ErrInvalidMember
	}
	if !r.Valid() {
		r = role.RoleMember
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.byID {
		if m.Email == email {
			return Member{}, ErrDuplicateEmail
		}
	}

	m := Member{
		ID:      uuid.NewString(),
		Name:    name,
		Email:   email,
		Role:    r,
		Phone:   strings.TrimSpace(phone),
		AddedAt: time.Now().UTC(),
	}
	s.byID[m.ID] = m
	return m, nil
}

// Get retorna el miembro por id.
func (s *Store) Get(id string) (Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return m, nil
}

// List retorna el roster ordenado por nombre.
func (s *Store) List() []Member {
	s.mu.RLock()
	out := make([]Member, 0, len(s.byID))
	for _, m := range s.byID {
		out = append(out, m)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove saca un miembro del roster.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// Size retorna el tamaño del roster. Alimenta el dashboard.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
