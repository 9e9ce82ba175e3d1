package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
)

// TaskSource provee las tareas próximas a vencer. *tasks.Store la satisface.
type TaskSource interface {
	DueWithin(window time.Duration) []tasks.Task
}

// Reminder barre periódicamente las tareas con deadline dentro de la
// ventana y emite un recordatorio al asignado. Cada (tarea, deadline) se
// avisa una sola vez; si el deadline cambia se vuelve a avisar.
type Reminder struct {
	store    *Store
	src      TaskSource
	window   time.Duration
	interval time.Duration

	mu   sync.Mutex
	seen map[string]time.Time
}

// NewReminder crea un Reminder. window es cuánto antes del deadline se
// avisa; interval, cada cuánto se barre.
func NewReminder(store *Store, src TaskSource, window, interval time.Duration) *Reminder {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reminder{
		store:    store,
		src:      src,
		window:   window,
		interval: interval,
		seen:     make(map[string]time.Time),
	}
}

// Run barre hasta que el contexto se cancele. Pensado para correr en su
// propia goroutine.
func (r *Reminder) Run(ctx context.Context) {
	log := logger.From(ctx).With(logger.Layer("worker"), logger.Component("reminder"))

	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug("reminder detenido")
			return
		case <-t.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep emite los recordatorios pendientes de esta pasada.
func (r *Reminder) Sweep(ctx context.Context) {
	log := logger.From(ctx).With(logger.Layer("worker"), logger.Component("reminder"))

	for _, t := range r.src.DueWithin(r.window) {
		if t.AssigneeID == "" {
			continue
		}

		r.mu.Lock()
		already := r.seen[t.ID].Equal(t.Deadline)
		if !already {
			r.seen[t.ID] = t.Deadline
		}
		r.mu.Unlock()
		if already {
			continue
		}

		msg := fmt.Sprintf("La tarea %q vence %s", t.Title, t.Deadline.Format("02 Jan 15:04"))
		if _, err := r.store.Publish(t.AssigneeID, KindDeadline, msg, t.ID); err != nil {
			log.Warn("no se pudo emitir el recordatorio", logger.TaskID(t.ID), logger.Err(err))
		}
	}
}
