package idp

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/observability/logger"
	"github.com/dropDatabas3/fieldtask/internal/security/secretbox"
)

// sessionHandle es el estado local que permite restaurar sesión sin re-login
// interactivo. Es propiedad del idp client; el resto de la app nunca lo ve.
type sessionHandle struct {
	RefreshToken string    `json:"refresh_token"`
	ClientID     string    `json:"client_id"`
	IssuedAt     time.Time `json:"issued_at"`
}

// handleStore persiste el sessionHandle en un archivo, cifrado en reposo
// cuando la vault key está configurada.
type handleStore struct {
	path string
}

func newHandleStore(path string) *handleStore {
	return &handleStore{path: path}
}

// Load lee el handle local. Retorna ErrNoSession si no existe o si el
// contenido no es recuperable (un handle ilegible equivale a no tener sesión:
// el provider sigue siendo la fuente de verdad).
func (s *handleStore) Load() (*sessionHandle, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	content := string(b)
	if secretbox.IsSealed(content) {
		content, err = secretbox.Decrypt(content)
		if err != nil {
			logger.L().Warn("handle local ilegible, se descarta", logger.Err(err))
			_ = s.Clear()
			return nil, ErrNoSession
		}
	}

	var h sessionHandle
	if err := json.Unmarshal([]byte(content), &h); err != nil || h.RefreshToken == "" {
		_ = s.Clear()
		return nil, ErrNoSession
	}
	return &h, nil
}

// Save escribe el handle con permisos restrictivos.
func (s *handleStore) Save(h *sessionHandle) error {
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}

	content := string(b)
	if secretbox.IsReady() {
		if content, err = secretbox.Encrypt(content); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(content), 0o600)
}

// Clear elimina el handle. No es error si no existe.
func (s *handleStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
