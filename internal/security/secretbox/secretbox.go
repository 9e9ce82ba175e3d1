// Package secretbox cifra en reposo los archivos locales sensibles (mirror de
// sesión y handle del provider) con XChaCha20-Poly1305 y una clave maestra
// tomada del entorno.
package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	vaultEnvVar       = "FIELDTASK_VAULT_KEY"
	requiredKeyLength = chacha20poly1305.KeySize // 32 bytes
	sep               = "|"                      // nonce|ciphertext (ambos en base64)
)

var (
	masterKey     []byte
	masterKeyOnce sync.Once
	loadErr       error
	mu            sync.RWMutex
)

// ErrNoKey indica que la clave maestra no está configurada.
var ErrNoKey = errors.New("vault key not configured")

// ensureLoaded carga la clave maestra desde FIELDTASK_VAULT_KEY (base64) una sola vez.
func ensureLoaded() error {
	masterKeyOnce.Do(func() {
		kb64 := strings.TrimSpace(os.Getenv(vaultEnvVar))
		if kb64 == "" {
			loadErr = ErrNoKey
			return
		}
		k, err := base64.StdEncoding.DecodeString(kb64)
		if err != nil {
			loadErr = fmt.Errorf("decode %s: %w", vaultEnvVar, err)
			return
		}
		if len(k) != requiredKeyLength {
			loadErr = fmt.Errorf("%s debe decodificar a %d bytes, obtuvo %d", vaultEnvVar, requiredKeyLength, len(k))
			return
		}
		mu.Lock()
		masterKey = make([]byte, len(k))
		copy(masterKey, k)
		mu.Unlock()
	})
	return loadErr
}

// IsReady expone si la clave está cargada. Cuando no lo está, los archivos
// locales se escriben en claro (modo dev) y el caller decide si loguear un warn.
func IsReady() bool {
	return ensureLoaded() == nil
}

// Encrypt cifra plainText y devuelve base64(nonce)|base64(ciphertext).
func Encrypt(plainText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}

	mu.RLock()
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	mu.RUnlock()

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("chacha20poly1305: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("nonce random: %w", err)
	}

	ct := aead.Seal(nil, nonce, []byte(plainText), nil)

	nonceB64 := base64.StdEncoding.EncodeToString(nonce)
	ctB64 := base64.StdEncoding.EncodeToString(ct)
	return nonceB64 + sep + ctB64, nil
}

// Decrypt descifra un valor producido por Encrypt.
func Decrypt(cipherText string) (string, error) {
	if err := ensureLoaded(); err != nil {
		return "", err
	}

	mu.RLock()
	key := make([]byte, len(masterKey))
	copy(key, masterKey)
	mu.RUnlock()

	parts := strings.SplitN(cipherText, sep, 2)
	if len(parts) != 2 {
		return "", errors.New("formato inválido: se espera nonce|ciphertext")
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode ciphertext: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("chacha20poly1305: %w", err)
	}
	if len(nonce) != aead.NonceSize() {
		return "", errors.New("nonce de tamaño inválido")
	}

	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errors.New("ciphertext inválido o clave incorrecta")
	}
	return string(pt), nil
}

// IsSealed reporta si un contenido parece producido por Encrypt.
// Permite leer archivos escritos en claro por instalaciones sin clave.
func IsSealed(content string) bool {
	i := strings.Index(content, sep)
	if i <= 0 {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(content[:i])
	return err == nil
}

// resetForTests limpia el estado global para poder probar distintos valores
// de la variable de entorno en un mismo proceso.
func resetForTests() {
	mu.Lock()
	defer mu.Unlock()
	masterKey = nil
	loadErr = nil
	masterKeyOnce = sync.Once{}
}
