package idp

import (
	"errors"
	"time"
)

// ProviderSession is a live session issued by the credential provider.
type ProviderSession struct {
	// IDToken is the signed token carrying {sub, groups} claims. Opaque to
	// the application beyond claim extraction; every authorized request
	// must carry it.
	IDToken string
	// RefreshToken is the provider-side continuation used to restore the
	// session without interactive re-login. Never exposed outside idp.
	RefreshToken string
	// ExpiresAt is the IDToken expiry as reported by the provider.
	ExpiresAt time.Time
}

// Challenge is an opaque continuation issued when a login attempt demands a
// mandatory password change before a session can be granted. Token carries
// provider-internal state and cannot be reconstructed; it must be passed
// back verbatim to CompleteChallenge.
type Challenge struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

// Profile holds the display attributes fetched from the provider's
// attribute store plus the stable subject identifier.
type Profile struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}

// Errores del provider. El session store los traduce a su propia taxonomía;
// ningún shape de error del wire cruza esta frontera.
var (
	// ErrInvalidCredentials: usuario/password incorrectos.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNoSession: no existe handle local de sesión (primer uso o post-logout).
	ErrNoSession = errors.New("no local session")

	// ErrSessionInvalid: había handle local pero el provider lo rechazó
	// (refresh token expirado o revocado).
	ErrSessionInvalid = errors.New("session invalid")

	// ErrProviderUnavailable: fallo de red o 5xx. Transitorio: NO debe
	// confundirse con ausencia de sesión.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrChallengeRejected: el provider rechazó la resolución del challenge
	// (password nueva inválida o challenge vencido).
	ErrChallengeRejected = errors.New("challenge rejected")

	// ErrProfileIncomplete: no hay identificador estable (ni sub en el
	// token ni login name del provider). La sesión no puede admitirse.
	ErrProfileIncomplete = errors.New("profile missing stable identifier")
)

// ───────── wire DTOs (protocolo v2 del provider) ─────────

type loginRequest struct {
	ClientID string `json:"client_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	ClientID     string `json:"client_id"`
	RefreshToken string `json:"refresh_token"`
}

type completeChallengeRequest struct {
	ChallengeToken string `json:"challenge_token"`
	NewPassword    string `json:"new_password"`
}

// tokenResponse covers both outcomes of login: issued tokens, or a
// password-change challenge.
type tokenResponse struct {
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`

	Challenge      string `json:"challenge,omitempty"` // "PASSWORD_CHANGE_REQUIRED"
	ChallengeToken string `json:"challenge_token,omitempty"`
}

type userinfoResponse struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

const challengePasswordChange = "PASSWORD_CHANGE_REQUIRED"
