// Package http arma el router del tablero y expone el server.
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/fieldtask/internal/guard"
	"github.com/dropDatabas3/fieldtask/internal/http/controllers"
	"github.com/dropDatabas3/fieldtask/internal/http/middlewares"
	"github.com/dropDatabas3/fieldtask/internal/metrics"
	"github.com/dropDatabas3/fieldtask/internal/role"
)

// RouterDeps contiene todo lo que el router necesita ya construido.
type RouterDeps struct {
	Controllers *controllers.Controllers
	Guard       *guard.Guard
}

// NewRouter arma el árbol de rutas completo: endpoints de auth sin guard
// (con no-store), /api guardado, mutaciones admin-only, métricas y liveness.
func NewRouter(d RouterDeps) stdhttp.Handler {
	_ = metrics.Register(nil)

	r := chi.NewRouter()
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithLogging())
	r.Use(middlewares.WithRecover())

	// Liveness y métricas, sin guard.
	r.Get("/healthz", func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(stdhttp.MethodGet, "/metrics", promhttp.Handler())

	// Ciclo de vida de sesión: accesible sin sesión, nunca cacheable.
	r.Group(func(r chi.Router) {
		r.Use(middlewares.WithNoStore())
		r.Post("/login", d.Controllers.Auth.Login)
		r.Post("/logout", d.Controllers.Auth.Logout)
		r.Post("/password/complete", d.Controllers.Auth.CompletePassword)
	})

	// Superficie guardada.
	r.Route("/api", func(r chi.Router) {
		r.Use(d.Guard.RequireAuth)

		r.Get("/me", d.Controllers.Auth.Me)
		r.Put("/me", d.Controllers.Auth.UpdateProfile)

		r.Get("/tasks", d.Controllers.Tasks.List)
		r.Patch("/tasks/{id}/status", d.Controllers.Tasks.UpdateStatus)

		r.Get("/team", d.Controllers.Team.List)

		r.Get("/notifications", d.Controllers.Notifications.List)
		r.Post("/notifications/{id}/read", d.Controllers.Notifications.MarkRead)

		r.Get("/dashboard", d.Controllers.Dashboard.Stats)

		// Mutaciones admin-only.
		r.Group(func(r chi.Router) {
			r.Use(d.Guard.RequireRole(role.RoleAdmin))
			r.Post("/tasks", d.Controllers.Tasks.Create)
			r.Delete("/tasks/{id}", d.Controllers.Tasks.Delete)
			r.Post("/team", d.Controllers.Team.Add)
		})
	})

	return r
}

// Start levanta el server y bloquea hasta que ctx se cancele o el listener
// falle. Al cancelar, drena con un shutdown de hasta 10s.
func Start(ctx context.Context, addr string, handler stdhttp.Handler) error {
	srv := &stdhttp.Server{Addr: addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
