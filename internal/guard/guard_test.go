package guard_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/fieldtask/internal/guard"
	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/session"
)

type staticSource struct{ v session.View }

func (s staticSource) View() session.View { return s.v }

func authed(r role.Role) session.View {
	return session.View{
		State: session.StateAuthenticated,
		User:  &session.User{ID: "u-1", Role: r},
	}
}

func TestAuthorize(t *testing.T) {
	g := guard.New(nil, "/login", "/dashboard")

	tests := []struct {
		name     string
		view     session.View
		required role.Role
		allow    bool
		redirect string
	}{
		{"sin sesión va al login", session.View{State: session.StateUnauthenticated}, "", false, "/login"},
		{"en vuelo cuenta como no autenticado", session.View{State: session.StateAuthenticating}, "", false, "/login"},
		{"challenge pendiente no concede acceso", session.View{State: session.StateChallengePending}, "", false, "/login"},
		{"member en ruta sin rol requerido", authed(role.RoleMember), "", true, ""},
		{"member en ruta member", authed(role.RoleMember), role.RoleMember, true, ""},
		{"member en ruta admin va al home, no al login", authed(role.RoleMember), role.RoleAdmin, false, "/dashboard"},
		{"admin satisface ruta member", authed(role.RoleAdmin), role.RoleMember, true, ""},
		{"admin satisface ruta admin", authed(role.RoleAdmin), role.RoleAdmin, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Authorize(tt.view, tt.required)
			if d.Allow != tt.allow {
				t.Fatalf("Allow = %v, want %v", d.Allow, tt.allow)
			}
			if d.RedirectTo != tt.redirect {
				t.Errorf("RedirectTo = %q, want %q", d.RedirectTo, tt.redirect)
			}
		})
	}
}

func TestMiddleware_RedirectsByCause(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("RequireAuth sin sesión", func(t *testing.T) {
		g := guard.New(staticSource{session.View{State: session.StateUnauthenticated}}, "/login", "/dashboard")
		rr := httptest.NewRecorder()
		g.RequireAuth(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/tasks", nil))

		if rr.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/login" {
			t.Errorf("Location = %q, want /login", loc)
		}
	})

	t.Run("RequireRole bajo de privilegio", func(t *testing.T) {
		g := guard.New(staticSource{authed(role.RoleMember)}, "/login", "/dashboard")
		rr := httptest.NewRecorder()
		g.RequireRole(role.RoleAdmin)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/team", nil))

		if rr.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/dashboard" {
			t.Errorf("Location = %q, want /dashboard (nunca /login)", loc)
		}
	})

	t.Run("RequireRole concede con rol suficiente", func(t *testing.T) {
		g := guard.New(staticSource{authed(role.RoleAdmin)}, "/login", "/dashboard")
		rr := httptest.NewRecorder()
		g.RequireRole(role.RoleAdmin)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/team", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
	})
}
