// Package guard decide el acceso a rutas protegidas a partir de un snapshot
// de sesión. La política distingue dos fallos con destinos distintos: sin
// sesión se redirige al login; con sesión pero sin privilegio se redirige al
// home. Un usuario autenticado nunca rebota al login.
package guard

import (
	"net/http"

	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/session"
)

// SessionSource provee el snapshot vigente. *session.Store la satisface.
type SessionSource interface {
	View() session.View
}

// Decision es el resultado de evaluar una ruta protegida.
type Decision struct {
	Allow bool
	// RedirectTo es la ruta destino cuando Allow es false.
	RedirectTo string
}

// Guard evalúa navegaciones contra el estado de sesión. Stateless: toma un
// snapshot fresco por request, nunca cachea decisiones.
type Guard struct {
	sessions  SessionSource
	loginPath string
	homePath  string
}

// New crea un Guard con las rutas de redirect configuradas.
func New(sessions SessionSource, loginPath, homePath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	if homePath == "" {
		homePath = "/"
	}
	return &Guard{sessions: sessions, loginPath: loginPath, homePath: homePath}
}

// Authorize evalúa un snapshot contra el rol requerido. required vacío
// significa "cualquier usuario autenticado". Una operación de auth en vuelo
// cuenta como no autenticado: el guard no concede acceso sobre estado stale.
func (g *Guard) Authorize(v session.View, required role.Role) Decision {
	if !v.Authenticated() {
		return Decision{RedirectTo: g.loginPath}
	}
	if required != "" && !allows(v.User.Role, required) {
		// Autenticado pero bajo de privilegio: al home, nunca al login.
		return Decision{RedirectTo: g.homePath}
	}
	return Decision{Allow: true}
}

// allows reporta si have satisface required. Admin satisface todo; el resto
// exige coincidencia exacta.
func allows(have, required role.Role) bool {
	if have == role.RoleAdmin {
		return true
	}
	return have == required
}

// RequireAuth exige sesión admitida para continuar.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return g.require("", next)
}

// RequireRole exige sesión admitida con el rol dado (o admin).
func (g *Guard) RequireRole(required role.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.require(required, next)
	}
}

func (g *Guard) require(required role.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := g.sessions.View()
		d := g.Authorize(v, required)
		if d.Allow {
			next.ServeHTTP(w, r)
			return
		}
		log := logger.From(r.Context()).With(logger.Layer("http"), logger.Component("guard"))
		if v.Authenticated() {
			log.Debug("acceso denegado por rol",
				logger.Path(r.URL.Path),
				logger.UserID(v.User.ID),
				logger.Role(v.User.Role.String()))
		} else {
			log.Debug("acceso sin sesión", logger.Path(r.URL.Path))
		}
		http.Redirect(w, r, d.RedirectTo, http.StatusFound)
	})
}
