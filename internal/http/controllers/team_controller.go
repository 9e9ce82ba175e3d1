package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/fieldtask/internal/activity"
	"github.com/dropDatabas3/fieldtask/internal/http/dto"
	httperrors "github.com/dropDatabas3/fieldtask/internal/http/errors"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/session"
	"github.com/dropDatabas3/fieldtask/internal/team"
)

// TeamController maneja el roster. La mutación es admin-only vía guard.
type TeamController struct {
	sessions *session.Store
	team     *team.Store
	activity *activity.Feed
}

// List maneja GET /api/team.
func (c *TeamController) List(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, dto.TeamListResponse{Members: c.team.List()})
}

// Add maneja POST /api/team (admin).
func (c *TeamController) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("team.add"))

	actor := c.sessions.View()
	if !actor.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req dto.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	m, err := c.team.Add(req.Name, req.Email, req.Phone, role.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, team.ErrInvalidMember):
			httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name y email son requeridos"))
		case errors.Is(err, team.ErrDuplicateEmail):
			httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("el email ya está en el roster"))
		default:
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		}
		return
	}

	c.activity.Record(actor.User.ID, "member_added", "")
	log.Info("miembro agregado", logger.ID(m.ID), logger.UserID(actor.User.ID))
	httperrors.WriteJSON(w, http.StatusCreated, m)
}
