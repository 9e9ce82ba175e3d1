package secretbox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func setKey(t *testing.T) string {
	t.Helper()
	raw := make([]byte, requiredKeyLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("rand: %v", err)
	}
	k := base64.StdEncoding.EncodeToString(raw)
	t.Setenv(vaultEnvVar, k)
	resetForTests()
	t.Cleanup(resetForTests)
	return k
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	setKey(t)

	const msg = `{"refresh_token":"rt-123","client_id":"dashboard"}`
	sealed, err := Encrypt(msg)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.Contains(sealed, sep) {
		t.Fatalf("sealed sin separador: %q", sealed)
	}
	if strings.Contains(sealed, "rt-123") {
		t.Fatal("el ciphertext expone el plaintext")
	}

	got, err := Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if got != msg {
		t.Errorf("round trip = %q, want %q", got, msg)
	}
}

func TestEncrypt_NoKey(t *testing.T) {
	t.Setenv(vaultEnvVar, "")
	resetForTests()
	t.Cleanup(resetForTests)

	if _, err := Encrypt("x"); !errors.Is(err, ErrNoKey) {
		t.Errorf("err = %v, want ErrNoKey", err)
	}
	if IsReady() {
		t.Error("IsReady() = true sin clave")
	}
}

func TestDecrypt_Tampered(t *testing.T) {
	setKey(t)

	sealed, err := Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Flip a byte of the ciphertext portion.
	parts := strings.SplitN(sealed, sep, 2)
	ct, _ := base64.StdEncoding.DecodeString(parts[1])
	ct[0] ^= 0xff
	tampered := parts[0] + sep + base64.StdEncoding.EncodeToString(ct)

	if _, err := Decrypt(tampered); err == nil {
		t.Error("decrypt de ciphertext adulterado debe fallar")
	}
}

func TestIsSealed(t *testing.T) {
	setKey(t)

	sealed, err := Encrypt("payload")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !IsSealed(sealed) {
		t.Error("IsSealed(sealed) = false")
	}
	if IsSealed(`{"plain":"json"}`) {
		t.Error("IsSealed(json) = true")
	}
}

func TestBadKeyLength(t *testing.T) {
	t.Setenv(vaultEnvVar, base64.StdEncoding.EncodeToString([]byte("short")))
	resetForTests()
	t.Cleanup(resetForTests)

	if _, err := Encrypt("x"); err == nil {
		t.Error("clave corta debe fallar")
	}
}
