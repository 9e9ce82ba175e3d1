// Package token decodifica claims de un ID token emitido por el credential
// provider. El decode es SOLO estructural: la firma ya fue validada por el
// provider al emitir el token sobre el canal autenticado, y este cliente no
// posee las claves públicas para re-verificarla. Un fallo de decode significa
// "claims no disponibles", nunca "autenticación fallida".
package token

import (
	"errors"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken indica que el token no tiene estructura JWT decodificable.
var ErrMalformedToken = errors.New("malformed token")

// ClaimSet contiene los claims que este cliente consume. Cualquier otro claim
// del token se ignora.
type ClaimSet struct {
	// Subject es el claim "sub" (identificador estable del usuario).
	// Vacío si el claim no está presente.
	Subject string

	// Groups es el claim "groups" (membresías usadas para derivar el rol).
	// Nil si el claim no está presente.
	Groups []string
}

// HasGroup reporta si el ClaimSet contiene el grupo dado.
func (cs ClaimSet) HasGroup(name string) bool {
	for _, g := range cs.Groups {
		if g == name {
			return true
		}
	}
	return false
}

// Decode extrae {sub, groups} de un JWT sin verificar firma.
// Retorna ErrMalformedToken si el token no es base64/JSON decodificable.
func Decode(raw string) (ClaimSet, error) {
	var cs ClaimSet

	claims := jwtv5.MapClaims{}
	parser := jwtv5.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return cs, ErrMalformedToken
	}

	if sub, ok := claims["sub"].(string); ok {
		cs.Subject = sub
	}
	cs.Groups = stringSlice(claims["groups"])

	return cs, nil
}

// stringSlice tolera los dos shapes que produce json.Unmarshal para listas
// de strings ([]any y []string).
func stringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
