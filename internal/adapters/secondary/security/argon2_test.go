package security

import (
	"errors"
	"strings"
	"testing"
)

// Paramètres réduits : les tests n'ont pas besoin de 64 MB par hash.
var testParams = &Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestArgon2Hasher(t *testing.T) {
	h := NewArgon2Hasher(testParams)

	hash, err := h.Hash("open sesame")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected hash format: %s", hash)
	}

	if err := h.Compare(hash, "open sesame"); err != nil {
		t.Errorf("Compare with the right secret: %v", err)
	}
	if err := h.Compare(hash, "open sesame!"); !errors.Is(err, ErrSecretMismatch) {
		t.Errorf("Compare with a wrong secret = %v, want ErrSecretMismatch", err)
	}

	other, err := h.Hash("open sesame")
	if err != nil {
		t.Fatal(err)
	}
	if other == hash {
		t.Error("two hashes of the same secret must use different salts")
	}
}

func TestArgon2Hasher_UsesStoredParams(t *testing.T) {
	hash, err := NewArgon2Hasher(testParams).Hash("s3cret")
	if err != nil {
		t.Fatal(err)
	}
	// Un hasher configuré autrement doit quand même valider l'ancien hash
	stronger := NewArgon2Hasher(&Argon2Params{Memory: 2048, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err := stronger.Compare(hash, "s3cret"); err != nil {
		t.Errorf("Compare: %v", err)
	}
}

func TestArgon2Hasher_BadFormat(t *testing.T) {
	h := NewArgon2Hasher(testParams)

	tests := []struct {
		name    string
		encoded string
		want    error
	}{
		{name: "Empty", encoded: "", want: ErrInvalidHash},
		{name: "WrongAlgorithm", encoded: "$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", want: ErrInvalidHash},
		{name: "BadVersion", encoded: "$argon2id$v=16$m=1,t=1,p=1$c2FsdA$aGFzaA", want: ErrIncompatibleVer},
		{name: "BadParams", encoded: "$argon2id$v=19$garbage$c2FsdA$aGFzaA", want: ErrInvalidHash},
		{name: "BadSalt", encoded: "$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA", want: ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := h.Compare(tt.encoded, "x"); !errors.Is(err, tt.want) {
				t.Errorf("Compare(%q) = %v, want %v", tt.encoded, err, tt.want)
			}
		})
	}
}
