package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/fieldtask/internal/http/dto"
	httperrors "github.com/dropDatabas3/fieldtask/internal/http/errors"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/session"
)

// NotificationsController maneja las notificaciones del usuario vigente.
type NotificationsController struct {
	sessions      *session.Store
	notifications *notify.Store
}

// List maneja GET /api/notifications.
func (c *NotificationsController) List(w http.ResponseWriter, r *http.Request) {
	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	httperrors.WriteJSON(w, http.StatusOK, dto.NotificationListResponse{
		Notifications: c.notifications.ListFor(actor.User.ID),
		Unread:        c.notifications.Unread(actor.User.ID),
	})
}

// MarkRead maneja POST /api/notifications/{id}/read.
func (c *NotificationsController) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	if err := c.notifications.MarkRead(chi.URLParam(r, "id"), actor.User.ID); err != nil {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
