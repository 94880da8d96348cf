package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

func newTestProvider(t *testing.T) *JWTProvider {
	t.Helper()
	priv, pub, err := GenerateKeyPair(2048)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewJWTProvider(priv, pub)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestJWTProvider_IssueValidate(t *testing.T) {
	p := newTestProvider(t)

	token, err := p.Issue(domain.User{ID: "u-1", Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	sub, err := p.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if sub != "u-1" {
		t.Errorf("subject = %q, want u-1", sub)
	}
}

func TestJWTProvider_Rejects(t *testing.T) {
	p := newTestProvider(t)
	other := newTestProvider(t)

	foreign, err := other.Issue(domain.User{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1", Issuer: issuer},
	}).SignedString([]byte("shared"))
	if err != nil {
		t.Fatal(err)
	}

	past := newTestProvider(t)
	past.now = func() time.Time { return time.Now().Add(-30 * 24 * time.Hour) }
	expired, err := past.Issue(domain.User{ID: "u-1"})
	if err != nil {
		t.Fatal(err)
	}
	past.now = time.Now

	tests := []struct {
		name     string
		provider *JWTProvider
		token    string
	}{
		{name: "Garbage", provider: p, token: "not-a-jwt"},
		{name: "ForeignKey", provider: p, token: foreign},
		{name: "WrongAlgorithm", provider: p, token: hs},
		{name: "Expired", provider: past, token: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if sub, err := tt.provider.Validate(tt.token); err == nil {
				t.Errorf("Validate accepted token, subject %q", sub)
			}
		})
	}
}

func TestNewJWTProvider_BadPEM(t *testing.T) {
	if _, err := NewJWTProvider([]byte("nope"), []byte("nope")); err == nil {
		t.Error("expected an error for invalid PEM")
	}
}
