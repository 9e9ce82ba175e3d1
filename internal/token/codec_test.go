package token_test

import (
	"errors"
	"testing"

	"github.com/dropDatabas3/fieldtask/internal/token"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// mintToken builds a syntactically valid JWT. The signature is irrelevant for
// these tests: the codec never verifies it.
func mintToken(t *testing.T, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestDecode_SubjectAndGroups(t *testing.T) {
	raw := mintToken(t, jwtv5.MapClaims{
		"sub":    "u1",
		"groups": []string{"admin", "member"},
		"email":  "a@x.com", // ignorado
	})

	cs, err := token.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cs.Subject != "u1" {
		t.Errorf("subject = %q, want u1", cs.Subject)
	}
	if !cs.HasGroup("admin") || !cs.HasGroup("member") {
		t.Errorf("groups = %v, want admin y member", cs.Groups)
	}
	if cs.HasGroup("other") {
		t.Errorf("HasGroup(other) = true")
	}
}

func TestDecode_MissingClaims(t *testing.T) {
	raw := mintToken(t, jwtv5.MapClaims{"aud": "dashboard"})

	cs, err := token.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cs.Subject != "" {
		t.Errorf("subject = %q, want empty", cs.Subject)
	}
	if cs.Groups != nil {
		t.Errorf("groups = %v, want nil", cs.Groups)
	}
}

func TestDecode_GroupsAsAnySlice(t *testing.T) {
	// json.Unmarshal produce []any; el codec debe tolerarlo.
	raw := mintToken(t, jwtv5.MapClaims{"groups": []any{"member", 42, "admin"}})

	cs, err := token.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cs.Groups) != 2 || cs.Groups[0] != "member" || cs.Groups[1] != "admin" {
		t.Errorf("groups = %v, want [member admin]", cs.Groups)
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, raw := range []string{"", "garbage", "a.b", "!!!.@@@.###"} {
		if _, err := token.Decode(raw); !errors.Is(err, token.ErrMalformedToken) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformedToken", raw, err)
		}
	}
}
