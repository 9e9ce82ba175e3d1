// Package session mantiene el estado de autenticación process-wide: el
// usuario vigente, su rol derivado y el ciclo de vida login / logout /
// restore. Es el único dueño del Session y del mirror durable; el guard y
// las vistas solo leen snapshots.
package session

import "github.com/dropDatabas3/fieldtask/internal/role"

// User es la identidad autenticada que el core expone al resto de la
// aplicación (stores de tareas/equipo/notificaciones leen Token y Role para
// autorizar sus propios calls).
type User struct {
	// ID es el sub del token; cae al login name solo en modo degradado.
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Phone string    `json:"phone,omitempty"`
	Role  role.Role `json:"role"`
	// Token es el ID token vigente, tratado como capability.
	Token string `json:"token"`
}

// State es el estado del ciclo de vida de la sesión.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticating
	StateAuthenticated
	StateChallengePending
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateChallengePending:
		return "challenge_pending"
	default:
		return "unauthenticated"
	}
}

// View es un snapshot inmutable del estado para el guard y las vistas.
// Se toma por navegación, nunca se cachea: el estado puede cambiar entre
// navegaciones.
type View struct {
	State State
	User  *User // copia; nil si no hay sesión
}

// Authenticated reporta si hay sesión admitida. Una operación en vuelo
// cuenta como NO autenticado: el guard no debe conceder acceso sobre estado
// stale.
func (v View) Authenticated() bool {
	return v.State == StateAuthenticated && v.User != nil
}
