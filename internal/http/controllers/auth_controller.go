package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dropDatabas3/fieldtask/internal/http/dto"
	httperrors "github.com/dropDatabas3/fieldtask/internal/http/errors"
	"github.com/dropDatabas3/fieldtask/internal/idp"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/session"
)

// AuthController maneja el ciclo de vida de la sesión sobre el session
// store.
type AuthController struct {
	sessions *session.Store
}

// Login maneja POST /login.
// 200 con el usuario admitido; 409 PASSWORD_CHANGE_REQUIRED cuando el
// provider exige cambio de password.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.login"))

	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email y password son requeridos"))
		return
	}

	challenged, err := c.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalidCredentials):
			httperrors.WriteError(w, httperrors.ErrInvalidCredentials)
		case errors.Is(err, session.ErrLoginInFlight):
			httperrors.WriteError(w, httperrors.ErrLoginInFlight)
		case errors.Is(err, session.ErrProfileFetchFailed):
			log.Warn("login sin perfil", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrProviderUnavailable.WithDetail("no se pudo obtener el perfil, reintente"))
		default:
			log.Warn("login falló", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrProviderUnavailable.WithCause(err))
		}
		return
	}
	if challenged {
		httperrors.WriteError(w, httperrors.ErrPasswordChangeRequired)
		return
	}

	v := c.sessions.View()
	if !v.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.NewUserResponse(*v.User))
}

// Logout maneja POST /logout. Idempotente: siempre 204.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	c.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// CompletePassword maneja POST /password/complete: consume el challenge
// pendiente con la nueva password. Tras el éxito el cliente debe volver a
// POST /login con sus credenciales nuevas.
func (c *AuthController) CompletePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("auth.complete_password"))

	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req dto.CompletePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if req.NewPassword == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("new_password es requerido"))
		return
	}

	if err := c.sessions.ResolveChallenge(ctx, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, session.ErrNoPendingChallenge):
			httperrors.WriteError(w, httperrors.ErrNoPendingChallenge)
		case errors.Is(err, idp.ErrChallengeRejected):
			httperrors.WriteError(w, httperrors.ErrPasswordRejected)
		default:
			log.Warn("no se pudo completar el challenge", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrProviderUnavailable.WithCause(err))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me maneja GET /api/me.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	v := c.sessions.View()
	if !v.Authenticated() {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, dto.NewUserResponse(*v.User))
}

// UpdateProfile maneja PUT /api/me. Actualización local de atributos de
// display; el provider no se entera hasta el próximo login/restore.
func (c *AuthController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	var req dto.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("name y email son requeridos"))
		return
	}

	err := c.sessions.UpdateProfile(session.User{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		if errors.Is(err, session.ErrNotAuthenticated) {
			httperrors.WriteError(w, httperrors.ErrUnauthorized)
			return
		}
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	v := c.sessions.View()
	httperrors.WriteJSON(w, http.StatusOK, dto.NewUserResponse(*v.User))
}
