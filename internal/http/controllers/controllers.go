// Package controllers contiene los controllers HTTP del tablero. Cada uno
// traduce requests a operaciones de los stores y errores de dominio a la
// taxonomía de la API; la autorización por rol vive en el router (guard).
package controllers

import (
	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/notify"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/tasks"
	"github.com/dropDatabas3/fieldtask/internal/team"
)

// Deps contiene las dependencias compartidas por los controllers.
type Deps struct {
	Sessions      *session.Store
	Tasks         *tasks.Store
	Team          *team.Store
	Notifications *notify.Store
	Activity      *activity.Feed
}

// Controllers agrupa todos los controllers ya construidos.
type Controllers struct {
	Auth          *AuthController
	Tasks         *TasksController
	Team          *TeamController
	Notifications *NotificationsController
	Dashboard     *DashboardController
}

// New construye los controllers sobre las dependencias dadas.
func New(d Deps) *Controllers {
	return &Controllers{
		Auth:          &AuthController{sessions: d.Sessions},
		Tasks:         &TasksController{sessions: d.Sessions, tasks: d.Tasks, notifications: d.Notifications, activity: d.Activity},
		Team:          &TeamController{team: d.Team, activity: d.Activity, sessions: d.Sessions},
		Notifications: &NotificationsController{sessions: d.Sessions, notifications: d.Notifications},
		Dashboard:     &DashboardController{sessions: d.Sessions, tasks: d.Tasks, team: d.Team, notifications: d.Notifications, activity: d.Activity},
	}
}
