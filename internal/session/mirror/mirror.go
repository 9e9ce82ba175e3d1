// Package mirror persiste una copia durable de la sesión vigente para
// restore instantáneo al arrancar. Es SOLO un cache: la sesión viva del
// provider es la fuente de verdad y el restore la sobreescribe siempre.
package mirror

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/dropDatabas3/fieldtask/internal/security/secretbox"
)

// ErrNoMirror indica que no hay registro persistido.
var ErrNoMirror = errors.New("no session mirror")

// Store es un registro único serializado en un archivo, cifrado en reposo
// cuando la vault key está configurada.
type Store struct {
	path string
}

// New crea un Store sobre la ruta dada.
func New(path string) *Store {
	return &Store{path: path}
}

// Read deserializa el registro en v. Un mirror ilegible o corrupto equivale
// a no tener mirror (se descarta): nunca es fuente de verdad.
func (s *Store) Read(v any) error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNoMirror
		}
		return err
	}

	content := string(b)
	if secretbox.IsSealed(content) {
		content, err = secretbox.Decrypt(content)
		if err != nil {
			_ = s.Clear()
			return ErrNoMirror
		}
	}

	if err := json.Unmarshal([]byte(content), v); err != nil {
		_ = s.Clear()
		return ErrNoMirror
	}
	return nil
}

// Write serializa v. El caller debe invocarlo estrictamente DESPUÉS de
// commitear en memoria: un crash a mitad de escritura no puede dejar el
// estado durable por delante del de memoria.
func (s *Store) Write(v any) error {
	b, err := json.Marshal(v)
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

// Clear elimina el registro. No es error si no existe.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
