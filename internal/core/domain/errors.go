package domain

import (
	"errors"
	"fmt"
)

// --- ERREURS DU DOMAINE ---
var (
	ErrHandleTaken          = errors.New("handle already taken")
	ErrInvalidHandle        = errors.New("handle is empty after normalization")
	ErrUserNotFound         = errors.New("user not found")
	ErrPostNotFound         = errors.New("post not found")
	ErrStoryNotFound        = errors.New("story not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrAlreadyResonated     = errors.New("post already resonated")
	ErrNotOwner             = errors.New("only the author can edit this post")
	ErrNotParticipant       = errors.New("sender is not a participant of this conversation")
	ErrEmptyMessage         = errors.New("message text is empty")
	ErrNotLoggedIn          = errors.New("no active session")
)

// Erreurs d'authentification (AuthError::NotFound / SecretMismatch)
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrSecretMismatch  = errors.New("secret does not match")
	ErrInvalidToken    = errors.New("invalid token")
)

// PersistenceError signale un échec du stockage durable.
// Le store ne retente jamais : l'appelant décide.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsAuthError regroupe les deux variantes d'échec de login.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, ErrSecretMismatch)
}
