package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- SESSION ---

// SignUp crée l'identité. Ne démarre PAS de session : il faut un LogIn ensuite.
func (s *Store) SignUp(ctx context.Context, cmd ports.SignUpCmd) (domain.User, error) {
	var hash string
	if cmd.Secret != "" {
		h, err := s.deps.Hasher.Hash(cmd.Secret)
		if err != nil {
			return domain.User{}, fmt.Errorf("hashing failed: %w", err)
		}
		hash = h
	}

	return s.register(ctx, cmd.Handle, domain.Profile{DisplayName: cmd.DisplayName}, hash)
}

// LogIn vérifie le secret s'il en existe un. Un compte sans secret est ouvert.
// Se connecter sous un autre user remet à zéro les données de session.
func (s *Store) LogIn(ctx context.Context, cmd ports.LoginCmd) (domain.User, error) {
	handle := domain.NormalizeHandle(cmd.Handle)

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Récupération
	acc := s.accountByHandleLocked(handle)
	if acc == nil {
		return domain.User{}, domain.ErrAccountNotFound
	}

	// 2. Vérification du secret
	if acc.secretHash != "" {
		if err := s.deps.Hasher.Compare(acc.secretHash, cmd.Secret); err != nil {
			return domain.User{}, domain.ErrSecretMismatch
		}
	}

	// 3. Jeton + persistance, puis seulement bascule en LoggedIn
	token, err := s.deps.Tokens.Issue(acc.user)
	if err != nil {
		return domain.User{}, fmt.Errorf("token generation failed: %w", err)
	}
	if err := s.writeSession(ctx, token, acc.user); err != nil {
		return domain.User{}, err
	}

	// Changement de user : rien de la session précédente ne doit rester visible
	if s.sessionUser != nil && s.sessionUser.ID != acc.user.ID {
		s.log.Info("Switching session user", "from", s.sessionUser.ID, "to", acc.user.ID)
		s.resetSessionData()
	}

	user := acc.user
	s.sessionUser = &user
	s.log.Info("🔑 Session started", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// LogOut efface la session durable et remet à zéro toutes les collections
// de session (feed, stories, notifications, follows, conversations).
// L'état mémoire est réinitialisé même si l'effacement durable échoue.
func (s *Store) LogOut(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.clearSession(ctx)

	s.sessionUser = nil
	s.resetSessionData()
	s.log.Info("🚪 Session closed")
	return err
}

// RestoreSession relit token + user au démarrage. Le secret n'est pas revérifié ;
// seule la signature du jeton l'est. Un jeton invalide efface la session.
func (s *Store) RestoreSession(ctx context.Context) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.deps.KV.Get(ctx, keySessionToken)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, &domain.PersistenceError{Op: "load session token", Err: err}
	}

	raw, err := s.deps.KV.Get(ctx, keySessionUser)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return domain.User{}, false, s.dropSessionLocked(ctx, "missing session user")
	}
	if err != nil {
		return domain.User{}, false, &domain.PersistenceError{Op: "load session user", Err: err}
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return domain.User{}, false, s.dropSessionLocked(ctx, "corrupted session user")
	}

	subject, err := s.deps.Tokens.Validate(string(token))
	if err != nil || subject != user.ID {
		return domain.User{}, false, s.dropSessionLocked(ctx, "invalid session token")
	}

	s.sessionUser = &user
	s.log.Info("♻️ Session restored", "user_id", user.ID, "username", user.Username)
	return user, true, nil
}

func (s *Store) dropSessionLocked(ctx context.Context, reason string) error {
	s.log.Warn("Discarding stored session", "reason", reason)
	return s.clearSession(ctx)
}

func (s *Store) CurrentUser() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionUser == nil {
		return domain.User{}, false
	}
	return *s.sessionUser, true
}

func (s *Store) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessionUser == nil {
		return domain.LoggedOut
	}
	return domain.LoggedIn
}
