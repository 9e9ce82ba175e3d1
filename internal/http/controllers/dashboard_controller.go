package controllers

import (
	"net/http"

	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/http/dto"
	httperrors "github.com/dropDatabas3/fieldtask/internal/http/errors"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
	"github.com/dropDatabas3/fieldtask/internal/team"
)

// DashboardController agrega los números que renderiza la pantalla
// principal: tareas por estado, tamaño del equipo, no leídas y actividad
// reciente.
type DashboardController struct {
	sessions      *session.Store
	tasks         *tasks.Store
	team          *team.Store
	notifications *notify.Store
	activity      *activity.Feed
}

// Stats maneja GET /api/dashboard.
func (c *DashboardController) Stats(w http.ResponseWriter, r *http.Request) {
	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	counts := c.tasks.CountByStatus()
	recent := c.activity.Recent()
	if len(recent) > 10 {
		recent = recent[:10]
	}

	httperrors.WriteJSON(w, http.StatusOK, dto.DashboardResponse{
		TasksNew:            counts[tasks.StatusNew],
		TasksInProgress:     counts[tasks.StatusInProgress],
		TasksCompleted:      counts[tasks.StatusCompleted],
		TeamSize:            c.team.Size(),
		UnreadNotifications: c.notifications.Unread(actor.User.ID),
		RecentActivity:      recent,
	})
}
