package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// directoryRecord est le format persisté sous "user_directory".
// Le champ secret contient un hash argon2id, jamais le secret en clair.
type directoryRecord struct {
	domain.User
	Secret string `json:"secret,omitempty"`
}

// LoadDirectory recharge l'annuaire depuis le stockage durable.
// Une clé absente = annuaire vide.
func (s *Store) LoadDirectory(ctx context.Context) error {
	raw, err := s.deps.KV.Get(ctx, keyUserDirectory)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return &domain.PersistenceError{Op: "load directory", Err: err}
	}

	var records []directoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return &domain.PersistenceError{Op: "decode directory", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*account, len(records))
	s.order = s.order[:0]
	for _, r := range records {
		if _, dup := s.accounts[r.ID]; dup {
			continue
		}
		s.accounts[r.ID] = &account{user: r.User, secretHash: r.Secret}
		s.order = append(s.order, r.ID)
	}

	s.log.Info("📒 Directory loaded", "users", len(s.order))
	return nil
}

// snapshotDirectory construit la liste persistée en remplaçant (ou ajoutant)
// candidate, sans toucher à l'état courant. Appelé sous verrou.
func (s *Store) snapshotDirectory(candidate *account) []directoryRecord {
	records := make([]directoryRecord, 0, len(s.order)+1)
	replaced := false
	for _, id := range s.order {
		acc := s.accounts[id]
		if candidate != nil && id == candidate.user.ID {
			acc = candidate
			replaced = true
		}
		records = append(records, directoryRecord{User: acc.user, Secret: acc.secretHash})
	}
	if candidate != nil && !replaced {
		records = append(records, directoryRecord{User: candidate.user, Secret: candidate.secretHash})
	}
	return records
}

// writeDirectory fait UNE écriture synchrone de l'annuaire complet.
func (s *Store) writeDirectory(ctx context.Context, records []directoryRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return &domain.PersistenceError{Op: "encode directory", Err: err}
	}
	if err := s.deps.KV.Set(ctx, keyUserDirectory, data); err != nil {
		return &domain.PersistenceError{Op: "save directory", Err: err}
	}
	return nil
}

func (s *Store) writeSession(ctx context.Context, token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &domain.PersistenceError{Op: "encode session user", Err: err}
	}
	if err := s.deps.KV.Set(ctx, keySessionToken, []byte(token)); err != nil {
		return &domain.PersistenceError{Op: "save session token", Err: err}
	}
	if err := s.deps.KV.Set(ctx, keySessionUser, data); err != nil {
		return &domain.PersistenceError{Op: "save session user", Err: err}
	}
	return nil
}

func (s *Store) clearSession(ctx context.Context) error {
	var errs []error
	for _, key := range []string{keySessionToken, keySessionUser} {
		if err := s.deps.KV.Delete(ctx, key); err != nil && !errors.Is(err, ports.ErrKeyNotFound) {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return &domain.PersistenceError{Op: "clear session", Err: errors.Join(errs...)}
	}
	return nil
}
