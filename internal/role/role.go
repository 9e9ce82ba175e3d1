// Package role deriva el rol de aplicación a partir de los claims del token.
// El rol nunca se almacena de forma independiente: es siempre una proyección
// de los grupos del token vigente.
package role

import "github.com/dropDatabas3/fieldtask/internal/token"

// Role es el nivel de privilegio de la aplicación.
type Role string

const (
	RoleAdmin  Role = "admin"  // crea/asigna/borra tareas, gestiona el roster
	RoleMember Role = "member" // actualiza el estado de sus tareas asignadas

	// RoleUnknown indica que los grupos del token no mapean a ningún rol.
	// La política de fallback (admitir como member) vive en el session
	// store, no acá.
	RoleUnknown Role = ""
)

// Valid reporta si r es un rol asignable a una sesión.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Parse convierte un string a Role. Cualquier valor no reconocido es Unknown.
func Parse(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "member":
		return RoleMember
	default:
		return RoleUnknown
	}
}

// Resolve deriva el rol desde los grupos del ClaimSet.
// Precedencia: "admin" gana sobre "member"; sin match => Unknown.
// Es determinística: mismos claims, mismo rol.
func Resolve(cs token.ClaimSet) Role {
	if cs.HasGroup("admin") {
		return RoleAdmin
	}
	if cs.HasGroup("member") {
		return RoleMember
	}
	return RoleUnknown
}
