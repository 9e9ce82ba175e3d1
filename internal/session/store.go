package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dropDatabas3/fieldtask/internal/challenge"
	"github.com/dropDatabas3/fieldtask/internal/idp"
	"github.com/dropDatabas3/fieldtask/internal/metrics"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/role"
	"github.com/dropDatabas3/fieldtask/internal/session/mirror"
	"github.com/dropDatabas3/fieldtask/internal/token"
	"golang.org/x/sync/singleflight"
)

// fallbackRole se aplica cuando los grupos del token no resuelven a ningún
// rol. Decisión de política explícita: admitir con el menor privilegio en
// vez de rechazar una sesión que el provider considera válida. Se aplica
// idéntico en login y en restore.
const fallbackRole = role.RoleMember

// Provider abstrae el credential provider. *idp.Client la satisface; los
// tests inyectan un fake.
type Provider interface {
	Authenticate(ctx context.Context, email, password string) (*idp.ProviderSession, *idp.Challenge, error)
	CurrentSession(ctx context.Context) (*idp.ProviderSession, error)
	SignOut(ctx context.Context)
	FetchProfile(ctx context.Context, ps *idp.ProviderSession) (idp.Profile, error)
	CompleteChallenge(ctx context.Context, ch *idp.Challenge, newPassword string) error
}

// Deps contiene las dependencias del Store.
type Deps struct {
	Provider   Provider
	Challenges *challenge.Holder
	Mirror     *mirror.Store
}

// Store es el dueño exclusivo del Session y del mirror durable. Se construye
// una vez al arrancar el proceso; Reset() existe solo para tests.
type Store struct {
	deps Deps

	mu    sync.RWMutex
	state State
	user  *User

	// restore coalesce llamadas concurrentes: restaurar es idempotente,
	// así que todas comparten el mismo round-trip.
	restore singleflight.Group
}

// New crea un Store en estado UNAUTHENTICATED.
func New(deps Deps) *Store {
	if deps.Challenges == nil {
		deps.Challenges = challenge.NewHolder()
	}
	return &Store{deps: deps, state: StateUnauthenticated}
}

// Login autentica contra el provider. Retorna challenged=true cuando el
// provider exige cambio de password: no es un error, la sesión queda sin
// admitir y el challenge disponible en el holder.
//
// Garantías:
//   - commit atómico: no hay ventana observable con Authenticated()==true y
//     rol sin setear
//   - el mirror se escribe estrictamente después del commit en memoria
//   - un segundo Login concurrente se rechaza con ErrLoginInFlight
func (s *Store) Login(ctx context.Context, email, password string) (challenged bool, err error) {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Component("session"), logger.Op("Login"))

	// Paso 1: guard de vuelo único
	s.mu.Lock()
	if s.state == StateAuthenticating {
		s.mu.Unlock()
		metrics.LoginOutcomes.WithLabelValues("rejected_inflight").Inc()
		return false, ErrLoginInFlight
	}
	prevState, prevUser := s.state, s.user
	s.state = StateAuthenticating
	s.user = nil // la ventana en vuelo cuenta como no autenticado para el guard
	s.mu.Unlock()

	// Paso 2: autenticar
	ps, ch, err := s.deps.Provider.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidCredentials) {
			// Corregible por el usuario; una sesión previa válida se conserva.
			s.mu.Lock()
			s.state, s.user = prevState, prevUser
			s.mu.Unlock()
			log.Debug("credenciales inválidas", logger.Email(email))
			metrics.LoginOutcomes.WithLabelValues("invalid_credentials").Inc()
			return false, ErrInvalidCredentials
		}
		s.toUnauthenticated(true)
		log.Warn("login falló contra el provider", logger.Err(err))
		metrics.LoginOutcomes.WithLabelValues("provider_unavailable").Inc()
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	// Paso 3: branch de challenge — sin mutación del Session ni del mirror
	if ch != nil {
		s.deps.Challenges.Set(ch)
		s.mu.Lock()
		s.state = StateChallengePending
		s.user = nil
		s.mu.Unlock()
		log.Info("login requiere cambio de password", logger.Email(email))
		metrics.LoginOutcomes.WithLabelValues("challenge").Inc()
		return true, nil
	}

	// Paso 4: admitir (atributos + rol + commit + mirror)
	if err := s.admit(ctx, ps); err != nil {
		s.toUnauthenticated(true)
		metrics.LoginOutcomes.WithLabelValues("profile_fetch_failed").Inc()
		return false, err
	}

	// Un login resuelto sin challenge invalida cualquier challenge viejo.
	s.deps.Challenges.Clear()
	metrics.LoginOutcomes.WithLabelValues("success").Inc()
	return false, nil
}

// Logout cierra la sesión. Idempotente: sin sesión es un no-op, nunca un
// error. El signout remoto es best-effort.
func (s *Store) Logout(ctx context.Context) {
	s.deps.Provider.SignOut(ctx)
	s.toUnauthenticated(true)
}

// Restore intenta restaurar sesión al arrancar, sin re-login interactivo.
// Fail-closed: cualquier fallo resuelve a "no autenticado" sin error visible
// (el caso normal de primer uso). El store no reintenta internamente;
// llamadas concurrentes comparten un único round-trip.
func (s *Store) Restore(ctx context.Context) bool {
	v, _, _ := s.restore.Do("restore", func() (any, error) {
		return s.restoreOnce(ctx), nil
	})
	ok, _ := v.(bool)
	return ok
}

func (s *Store) restoreOnce(ctx context.Context) bool {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Component("session"), logger.Op("Restore"))

	ps, err := s.deps.Provider.CurrentSession(ctx)
	if err != nil {
		switch {
		case errors.Is(err, idp.ErrNoSession):
			s.toUnauthenticated(true)
			metrics.RestoreOutcomes.WithLabelValues("no_session").Inc()
		case errors.Is(err, idp.ErrSessionInvalid):
			s.toUnauthenticated(true)
			log.Info("sesión local expirada")
			metrics.RestoreOutcomes.WithLabelValues("invalid").Inc()
		default:
			// Transitorio: se mantiene el mirror como hint; el caller puede
			// reintentar el restore completo.
			s.toUnauthenticated(false)
			log.Warn("restore falló por provider", logger.Err(err))
			metrics.RestoreOutcomes.WithLabelValues("unavailable").Inc()
		}
		return false
	}

	if err := s.admit(ctx, ps); err != nil {
		s.toUnauthenticated(true)
		log.Warn("restore no pudo admitir la sesión", logger.Err(err))
		metrics.RestoreOutcomes.WithLabelValues("profile_fetch_failed").Inc()
		return false
	}

	metrics.RestoreOutcomes.WithLabelValues("restored").Inc()
	return true
}

// UpdateProfile actualiza SOLO atributos de display (name, email, phone) en
// el estado local y su mirror. NO llama al provider: es una actualización de
// cache local, no un cambio de cuenta — los atributos mostrados pueden
// divergir de los del provider hasta el próximo login/restore. Role, token e
// id se preservan siempre.
func (s *Store) UpdateProfile(u User) error {
	s.mu.Lock()
	if s.state != StateAuthenticated || s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	updated := *s.user
	updated.Name = u.Name
	updated.Email = u.Email
	updated.Phone = u.Phone
	s.user = &updated
	snapshot := updated
	s.mu.Unlock()

	// Mirror después del commit en memoria, como siempre.
	if err := s.deps.Mirror.Write(snapshot); err != nil {
		return fmt.Errorf("persistir mirror: %w", err)
	}
	return nil
}

// ResolveChallenge completa el challenge pendiente con la nueva password.
// Éxito o fallo, el challenge se consume y el estado queda UNAUTHENTICATED:
// el usuario debe re-loguearse con sus credenciales nuevas.
func (s *Store) ResolveChallenge(ctx context.Context, newPassword string) error {
	ch := s.deps.Challenges.Get()
	if ch == nil {
		return ErrNoPendingChallenge
	}

	err := s.deps.Provider.CompleteChallenge(ctx, ch, newPassword)

	s.deps.Challenges.Clear()
	s.mu.Lock()
	if s.state == StateChallengePending {
		s.state = StateUnauthenticated
	}
	s.mu.Unlock()

	if err != nil {
		if errors.Is(err, idp.ErrProviderUnavailable) {
			return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return err
	}
	return nil
}

// View retorna un snapshot del estado. Tomar uno nuevo por navegación.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{State: s.state}
	if s.user != nil {
		u := *s.user
		v.User = &u
	}
	return v
}

// Authenticated es un shortcut de View().Authenticated().
func (s *Store) Authenticated() bool {
	return s.View().Authenticated()
}

// MirrorHint lee el mirror durable como hint optimista previo al Restore
// (render instantáneo). Nunca admite sesión por sí solo.
func (s *Store) MirrorHint() (User, bool) {
	if s.deps.Mirror == nil {
		return User{}, false
	}
	var u User
	if err := s.deps.Mirror.Read(&u); err != nil {
		return User{}, false
	}
	return u, true
}

// Reset limpia el estado en memoria y el challenge pendiente. Solo para
// tests: en producción el store vive tanto como el proceso.
func (s *Store) Reset() {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()
	s.deps.Challenges.Clear()
}

// ───────── internos ─────────

// admit ejecuta la secuencia atributos → rol → commit → mirror, idéntica
// para login y restore.
func (s *Store) admit(ctx context.Context, ps *idp.ProviderSession) error {
	log := logger.From(ctx).With(logger.Layer("store"), logger.Component("session"))

	// Atributos: cualquier fallo acá es fallo total, la sesión no se admite
	// a medio formar.
	profile, err := s.deps.Provider.FetchProfile(ctx, ps)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProfileFetchFailed, err)
	}

	// Rol: proyección de los grupos del token vigente. El decode puede
	// fallar (claims no disponibles); en ese caso aplica el fallback.
	r := role.RoleUnknown
	if cs, err := token.Decode(ps.IDToken); err == nil {
		r = role.Resolve(cs)
	}
	if !r.Valid() {
		log.Warn("rol no resuelto desde claims, aplicando fallback",
			logger.UserID(profile.Subject), logger.Role(fallbackRole.String()))
		r = fallbackRole
	}

	u := User{
		ID:    profile.Subject,
		Name:  profile.Name,
		Email: profile.Email,
		Role:  r,
		Token: ps.IDToken,
	}

	// Commit atómico: user y rol aparecen juntos o no aparecen.
	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = &u
	s.mu.Unlock()

	// Mirror estrictamente después del commit. Un fallo acá no degrada la
	// sesión: el mirror es solo un cache de restore.
	if s.deps.Mirror != nil {
		if err := s.deps.Mirror.Write(u); err != nil {
			log.Warn("no se pudo escribir el mirror de sesión", logger.Err(err))
		}
	}

	log.Info("sesión admitida", logger.UserID(u.ID), logger.Role(u.Role.String()))
	return nil
}

// toUnauthenticated limpia memoria primero y después (opcionalmente) el
// mirror durable.
func (s *Store) toUnauthenticated(clearMirror bool) {
	s.mu.Lock()
	s.state = StateUnauthenticated
	s.user = nil
	s.mu.Unlock()

	if clearMirror && s.deps.Mirror != nil {
		if err := s.deps.Mirror.Clear(); err != nil {
			logger.L().Warn("no se pudo limpiar el mirror de sesión", logger.Err(err))
		}
	}
}
