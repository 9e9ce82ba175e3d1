// Package tasks mantiene las tareas del equipo de campo: alta, listado con
// filtros, transición de estado y baja. El store no autoriza: las reglas de
// rol (solo admin crea/borra, un member solo actualiza lo asignado a él) se
// aplican en la capa HTTP con el snapshot de sesión.
package tasks

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status es el estado de una tarea. Mismo vocabulario que expone la API.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reporta si s es un estado conocido.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

var (
	ErrNotFound      = errors.New("task not found")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrEmptyTitle    = errors.New("task title required")
)

// Task es una tarea asignable con deadline.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	AssigneeID  string    `json:"assignee_id,omitempty"`
	CreatorID   string    `json:"creator_id"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Filter acota List. Campos vacíos no filtran.
type Filter struct {
	AssigneeID string
	Status     Status
}

// Store es el repositorio en memoria de tareas. Seguro para uso concurrente.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]Task
	clock func() time.Time
}

// New crea un Store vacío.
func New() *Store {
	return &Store{byID: make(map[string]Task), clock: time.Now}
}

// Create da de alta una tarea. El estado inicial es siempre "new".
func (s *Store) Create(title, description, assigneeID, creatorID string, deadline time.Time) (Task, error) {
	if strings.TrimSpace(title) == "" {
		return Task{}, ErrEmptyTitle
	}

	now := s.clock().UTC()
	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Status:      StatusNew,
		AssigneeID:  assigneeID,
		CreatorID:   creatorID,
		Deadline:    deadline,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.byID[t.ID] = t
	s.mu.Unlock()
	return t, nil
}

// Get retorna la tarea por id.
func (s *Store) Get(id string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

// List retorna las tareas que matchean f, más recientes primero.
func (s *Store) List(f Filter) []Task {
	s.mu.RLock()
	out := make([]Task, 0, len(s.byID))
	for _, t := range s.byID {
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpdateStatus transiciona la tarea al estado dado y retorna la versión
// actualizada.
func (s *Store) UpdateStatus(id string, st Status) (Task, error) {
	if !st.Valid() {
		return Task{}, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Status = st
	t.UpdatedAt = s.clock().UTC()
	s.byID[id] = t
	return t, nil
}

// Delete elimina la tarea.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

// CountByStatus retorna cuántas tareas hay en cada estado. Alimenta las
// cards del dashboard.
func (s *Store) CountByStatus() map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := map[Status]int{StatusNew: 0, StatusInProgress: 0, StatusCompleted: 0}
	for _, t := range s.byID {
		counts[t.Status]++
	}
	return counts
}

// DueWithin retorna las tareas no completadas con deadline dentro de la
// ventana dada. Alimenta los recordatorios de vencimiento.
func (s *Store) DueWithin(window time.Duration) []Task {
	now := s.clock().UTC()
	limit := now.Add(window)

	s.mu.RLock()
	var out []Task
	for _, t := range s.byID {
		if t.Status == StatusCompleted || t.Deadline.IsZero() {
			continue
		}
		if t.Deadline.After(now) && !t.Deadline.After(limit) {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out
}
