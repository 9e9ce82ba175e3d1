package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/http/dto"
	httperrors "github.com/dropDatabas3/fieldtask/internal/http/errors"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
)

// TasksController maneja el CRUD de tareas. El alta y la baja son admin-only
// (aplicado por el guard en el router); la transición de estado permite a un
// member operar solo sobre sus propias asignaciones.
type TasksController struct {
	sessions      *session.Store
	tasks         *tasks.Store
	notifications *notify.Store
	activity      *activity.Feed
}

// List maneja GET /api/tasks?assignee=&status=
func (c *TasksController) List(w http.ResponseWriter, r *http.Request) {
	f := tasks.Filter{
		AssigneeID: r.URL.Query().Get("assignee"),
		Status:     tasks.Status(r.URL.Query().Get("status")),
	}
	if f.Status != "" && !f.Status.Valid() {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("status desconocido"))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.TaskListResponse{Tasks: c.tasks.List(f)})
}

// Create maneja POST /api/tasks (admin).
func (c *TasksController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("tasks.create"))

	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 16<<10)
	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	t, err := c.tasks.Create(req.Title, req.Description, req.AssigneeID, actor.User.ID, req.Deadline)
	if err != nil {
		if errors.Is(err, tasks.ErrEmptyTitle) {
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("title es requerido"))
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	c.activity.Record(actor.User.ID, "task_created", t.ID)
	if t.AssigneeID != "" && t.AssigneeID != actor.User.ID {
		if _, err := c.notifications.Publish(t.AssigneeID, notify.KindTaskAssigned,
			fmt.Sprintf("Nueva tarea asignada: %s", t.Title), t.ID); err != nil {
			log.Warn("no se pudo notificar la asignación", logger.TaskID(t.ID), logger.Err(err))
		}
	}

	log.Info("tarea creada", logger.TaskID(t.ID), logger.UserID(actor.User.ID))
	httperrors.WriteJSON(w, http.StatusCreated, t)
}

// UpdateStatus maneja PATCH /api/tasks/{id}/status. Un member solo puede
// transicionar tareas asignadas a él; admin puede cualquiera.
func (c *TasksController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("tasks.update_status"))

	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	current, err := c.tasks.Get(id)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	if actor.User.Role != role.RoleAdmin && current.AssigneeID != actor.User.ID {
		httperrors.WriteError(w, httperrors.ErrForbidden.WithDetail("solo el asignado puede actualizar esta tarea"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req dto.UpdateTaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	updated, err := c.tasks.UpdateStatus(id, tasks.Status(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, tasks.ErrInvalidStatus):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("status desconocido"))
		case errors.Is(err, tasks.ErrNotFound):
			httperrors.WriteError(w, httperrors.ErrNotFound)
		default:
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		}
		return
	}

	c.activity.Record(actor.User.ID, "status_updated", updated.ID)
	if updated.CreatorID != "" && updated.CreatorID != actor.User.ID {
		if _, err := c.notifications.Publish(updated.CreatorID, notify.KindStatusUpdate,
			fmt.Sprintf("La tarea %q pasó a %s", updated.Title, updated.Status), updated.ID); err != nil {
			log.Warn("no se pudo notificar el cambio de estado", logger.TaskID(updated.ID), logger.Err(err))
		}
	}

	httperrors.WriteJSON(w, http.StatusOK, updated)
}

// Delete maneja DELETE /api/tasks/{id} (admin).
func (c *TasksController) Delete(w http.ResponseWriter, r *http.Request) {
	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	if err := c.tasks.Delete(id); err != nil {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}

	c.activity.Record(actor.User.ID, "task_deleted", id)
	w.WriteHeader(http.StatusNoContent)
}
