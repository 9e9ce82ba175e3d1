package session

import "errors"

// Taxonomía de errores del store. Todo fallo del provider se traduce acá;
// ninguno es fatal para el proceso: cada uno degrada a UNAUTHENTICATED.
var (
	// ErrInvalidCredentials: usuario/password incorrectos. Corregible por el
	// usuario; no invalida una sesión previa válida.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrProfileFetchFailed: la autenticación fue nominalmente exitosa pero
	// los atributos o claims no pudieron obtenerse. Se trata como fallo
	// total de login: la sesión no se admite a medio formar.
	ErrProfileFetchFailed = errors.New("profile fetch failed")

	// ErrProviderUnavailable: red o provider caído. Se distingue de
	// ErrInvalidCredentials para que la UI sugiera "reintentá" en vez de
	// "revisá tu password".
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrLoginInFlight: ya hay un login() en curso. No se encola: un login
	// con otras credenciales detrás de otro no tiene semántica sana.
	ErrLoginInFlight = errors.New("login already in flight")

	// ErrNotAuthenticated: la operación requiere sesión admitida.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoPendingChallenge: no hay challenge pendiente que resolver.
	ErrNoPendingChallenge = errors.New("no pending challenge")
)
