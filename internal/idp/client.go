// Package idp implementa el cliente del protocolo de autenticación del
// credential provider externo (hellojohn u otro compatible con su API v2).
//
// El provider es una caja negra alcanzable solo por estas cinco operaciones:
// Authenticate, CurrentSession, SignOut, FetchProfile y CompleteChallenge.
// Este paquete traduce cada fallo del wire a sentinels propios; ningún shape
// de error HTTP cruza hacia el session store.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/cache"
	"github.com/dropDatabas3/fieldtask/internal/metrics"
	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/token"
)

const maxResponseSize = 1 << 20 // 1MB

// Config configura el Client.
type Config struct {
	// BaseURL del provider, ej: https://id.example.com
	BaseURL string
	// ClientID registrado en el provider para este dashboard.
	ClientID string
	// HandlePath es el archivo del handle local de sesión.
	HandlePath string
	// HTTP permite inyectar un *http.Client (tests). Default: timeout 10s.
	HTTP *http.Client
	// Attrs es el cache de atributos de perfil. Opcional.
	Attrs cache.Client
	// AttrTTL es el TTL del cache de atributos. Default: 5m.
	AttrTTL time.Duration
}

// Client habla el protocolo v2 del provider.
type Client struct {
	baseURL  string
	clientID string
	http     *http.Client
	handles  *handleStore
	attrs    cache.Client
	attrTTL  time.Duration
}

// New crea un Client con defaults razonables.
func New(cfg Config) *Client {
	h := cfg.HTTP
	if h == nil {
		h = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := cfg.AttrTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		clientID: cfg.ClientID,
		http:     h,
		handles:  newHandleStore(cfg.HandlePath),
		attrs:    cfg.Attrs,
		attrTTL:  ttl,
	}
}

// Authenticate ejecuta el login con password. Tres outcomes:
//   - sesión emitida (persiste el handle local antes de retornar)
//   - challenge de cambio de password (NO es un error)
//   - error (credenciales, provider caído, ...)
func (c *Client) Authenticate(ctx context.Context, email, password string) (*ProviderSession, *Challenge, error) {
	log := logger.From(ctx).With(logger.Layer("client"), logger.Component("idp"), logger.Op("Authenticate"))

	status, body, err := c.do(ctx, http.MethodPost, "/v2/auth/login", loginRequest{
		ClientID: c.clientID,
		Email:    email,
		Password: password,
	}, "")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	switch {
	case status == http.StatusOK:
		var tr tokenResponse
		if err := json.Unmarshal(body, &tr); err != nil {
			return nil, nil, fmt.Errorf("%w: respuesta inválida", ErrProviderUnavailable)
		}

		// Branch de protocolo: el provider exige cambio de password antes
		// de emitir sesión. El token del challenge se preserva verbatim.
		if tr.Challenge == challengePasswordChange {
			log.Info("login requiere cambio de password")
			return nil, &Challenge{
				Token:     tr.ChallengeToken,
				Email:     email,
				ExpiresAt: expiryFrom(tr.ExpiresIn),
			}, nil
		}

		if tr.IDToken == "" {
			return nil, nil, fmt.Errorf("%w: respuesta sin id_token", ErrProviderUnavailable)
		}

		ps := &ProviderSession{
			IDToken:      tr.IDToken,
			RefreshToken: tr.RefreshToken,
			ExpiresAt:    expiryFrom(tr.ExpiresIn),
		}
		if err := c.handles.Save(&sessionHandle{
			RefreshToken: ps.RefreshToken,
			ClientID:     c.clientID,
			IssuedAt:     time.Now().UTC(),
		}); err != nil {
			// La sesión sigue siendo válida; solo no va a sobrevivir un restart.
			log.Warn("no se pudo persistir el handle local", logger.Err(err))
		}
		return ps, nil, nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, nil, ErrInvalidCredentials

	case status >= 500:
		return nil, nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)

	default:
		ae := decodeAPIError(body)
		return nil, nil, fmt.Errorf("%w: login rechazado (%s)", ErrProviderUnavailable, ae.Code)
	}
}

// CurrentSession pregunta al provider si existe una sesión local todavía
// válida (via refresh token), sin re-login interactivo. Distingue tres
// situaciones que el caller NO debe confundir:
//   - ErrNoSession: no hay handle local
//   - ErrSessionInvalid: había handle pero el provider lo rechazó
//   - ErrProviderUnavailable: error transitorio de lookup (el handle se conserva)
func (c *Client) CurrentSession(ctx context.Context) (*ProviderSession, error) {
	h, err := c.handles.Load()
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, http.MethodPost, "/v2/auth/refresh", refreshRequest{
		ClientID:     h.ClientID,
		RefreshToken: h.RefreshToken,
	}, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	switch {
	case status == http.StatusOK:
		var tr tokenResponse
		if err := json.Unmarshal(body, &tr); err != nil || tr.IDToken == "" {
			return nil, fmt.Errorf("%w: respuesta inválida", ErrProviderUnavailable)
		}
		ps := &ProviderSession{
			IDToken:      tr.IDToken,
			RefreshToken: tr.RefreshToken,
			ExpiresAt:    expiryFrom(tr.ExpiresIn),
		}
		// Rotación de refresh token: si el provider no emitió uno nuevo,
		// se conserva el vigente.
		if ps.RefreshToken == "" {
			ps.RefreshToken = h.RefreshToken
		}
		if err := c.handles.Save(&sessionHandle{
			RefreshToken: ps.RefreshToken,
			ClientID:     h.ClientID,
			IssuedAt:     time.Now().UTC(),
		}); err != nil {
			logger.From(ctx).Warn("no se pudo actualizar el handle local", logger.Err(err))
		}
		return ps, nil

	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		// Handle muerto: se descarta para no reintentar un refresh inútil.
		_ = c.handles.Clear()
		return nil, ErrSessionInvalid

	default:
		return nil, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	}
}

// SignOut invalida el handle local y notifica al provider best-effort.
// Siempre "funciona" desde la perspectiva del caller: el estado local se
// limpia aunque la red falle.
func (c *Client) SignOut(ctx context.Context) {
	log := logger.From(ctx).With(logger.Layer("client"), logger.Component("idp"), logger.Op("SignOut"))

	h, err := c.handles.Load()
	if err == nil && h != nil {
		if status, _, err := c.do(ctx, http.MethodPost, "/v2/auth/logout", logoutRequest{
			ClientID:     h.ClientID,
			RefreshToken: h.RefreshToken,
		}, ""); err != nil || status >= 400 {
			log.Debug("logout remoto falló, se ignora", logger.Err(err), logger.Status(status))
		}
	}
	if err := c.handles.Clear(); err != nil {
		log.Warn("no se pudo eliminar el handle local", logger.Err(err))
	}
}

// FetchProfile obtiene {subject, name, email}. El subject sale del claim sub
// del token cuando es decodificable; si no, cae al login name del provider.
// Sin ninguno de los dos, la sesión no puede admitirse (hard failure).
func (c *Client) FetchProfile(ctx context.Context, ps *ProviderSession) (Profile, error) {
	var p Profile

	// El decode puede fallar (claims no disponibles); no es fatal acá.
	cs, decodeErr := token.Decode(ps.IDToken)
	if decodeErr == nil && cs.Subject != "" {
		if cached, ok := c.cachedProfile(ctx, cs.Subject); ok {
			return cached, nil
		}
	}

	status, body, err := c.do(ctx, http.MethodGet, "/v2/me", nil, ps.IDToken)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if status != http.StatusOK {
		if status >= 500 {
			return p, fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
		}
		return p, fmt.Errorf("userinfo rechazado: status %d", status)
	}

	var ui userinfoResponse
	if err := json.Unmarshal(body, &ui); err != nil {
		return p, fmt.Errorf("%w: userinfo inválido", ErrProviderUnavailable)
	}

	// Precedencia del identificador: sub del token validado > sub del
	// userinfo > login name. El fallback es un modo degradado explícito.
	switch {
	case decodeErr == nil && cs.Subject != "":
		p.Subject = cs.Subject
	case ui.Sub != "":
		p.Subject = ui.Sub
	case ui.Username != "":
		logger.From(ctx).Warn("sub no disponible, usando login name como id",
			logger.Component("idp"))
		p.Subject = ui.Username
	default:
		return Profile{}, ErrProfileIncomplete
	}

	p.Name = ui.Name
	p.Email = ui.Email

	c.storeProfile(ctx, p)
	return p, nil
}

// CompleteChallenge resuelve un challenge de cambio de password.
func (c *Client) CompleteChallenge(ctx context.Context, ch *Challenge, newPassword string) error {
	status, body, err := c.do(ctx, http.MethodPost, "/v2/auth/password/complete", completeChallengeRequest{
		ChallengeToken: ch.Token,
		NewPassword:    newPassword,
	}, "")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	switch {
	case status == http.StatusNoContent || status == http.StatusOK:
		return nil
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrProviderUnavailable, status)
	default:
		ae := decodeAPIError(body)
		return fmt.Errorf("%w: %s", ErrChallengeRejected, ae.Code)
	}
}

// HasLocalHandle reporta si existe un handle local (hint barato para la CLI;
// CurrentSession sigue siendo la verdad).
func (c *Client) HasLocalHandle() bool {
	_, err := c.handles.Load()
	return err == nil
}

// ───────── helpers ─────────

// do ejecuta un request JSON contra el provider y observa la latencia.
func (c *Client) do(ctx context.Context, method, path string, payload any, bearer string) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(method + " " + path).
		Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, b, nil
}

func (c *Client) cachedProfile(ctx context.Context, subject string) (Profile, bool) {
	if c.attrs == nil {
		return Profile{}, false
	}
	v, err := c.attrs.Get(ctx, "attrs:"+subject)
	if err != nil {
		return Profile{}, false
	}
	var p Profile
	if json.Unmarshal([]byte(v), &p) != nil {
		return Profile{}, false
	}
	return p, true
}

func (c *Client) storeProfile(ctx context.Context, p Profile) {
	if c.attrs == nil || p.Subject == "" {
		return
	}
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := c.attrs.Set(ctx, "attrs:"+p.Subject, string(b), c.attrTTL); err != nil {
		logger.From(ctx).Debug("attr cache set falló", logger.Err(err))
	}
}

func decodeAPIError(body []byte) apiError {
	var ae apiError
	if json.Unmarshal(body, &ae) != nil || ae.Code == "" {
		ae.Code = "unknown_error"
	}
	return ae
}

func expiryFrom(expiresIn int64) time.Time {
	if expiresIn <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().Add(time.Duration(expiresIn) * time.Second)
}
