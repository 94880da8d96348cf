package services

import (
	"context"
	"log/slog"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- ANNUAIRE ---

// RegisterUser inscrit un user sans secret (compte "ouvert").
func (s *Store) RegisterUser(ctx context.Context, handle string, profile domain.Profile) (domain.User, error) {
	return s.register(ctx, handle, profile, "")
}

func (s *Store) register(ctx context.Context, rawHandle string, profile domain.Profile, secretHash string) (domain.User, error) {
	// 1. Domaine : normalisation + invariants
	user, err := domain.NewUser(s.newID(), rawHandle, profile)
	if err != nil {
		return domain.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 2. Unicité (aucune exclusion pour une inscription)
	if s.handleTakenLocked(user.Username, "") {
		return domain.User{}, domain.ErrHandleTaken
	}

	// 3. Persistance AVANT commit : en cas d'échec, rien ne bouge
	acc := &account{user: *user, secretHash: secretHash}
	if err := s.writeDirectory(ctx, s.snapshotDirectory(acc)); err != nil {
		return domain.User{}, err
	}

	s.accounts[user.ID] = acc
	s.order = append(s.order, user.ID)

	s.log.Info("👤 User registered", "user_id", user.ID, "username", user.Username)
	s.publish("user.registered", func(p ports.EventPublisher) error {
		return p.PublishUserRegistered(ctx, *user)
	})

	return *user, nil
}

// UpdateHandle renomme un user et propage le nouveau snapshot sur tout son contenu.
// Le user lui-même est exclu du test de collision.
func (s *Store) UpdateHandle(ctx context.Context, cmd ports.UpdateProfileCmd) (domain.User, error) {
	handle := domain.NormalizeHandle(cmd.Handle)
	if handle == "" {
		return domain.User{}, domain.ErrInvalidHandle
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[cmd.UserID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if s.handleTakenLocked(handle, cmd.UserID) {
		return domain.User{}, domain.ErrHandleTaken
	}

	// On travaille sur une copie jusqu'à ce que l'écriture réussisse
	updated := *acc
	updated.user.Username = handle
	updated.user.Apply(cmd.Changes)

	if err := s.writeDirectory(ctx, s.snapshotDirectory(&updated)); err != nil {
		return domain.User{}, err
	}

	previous := acc.user.Username
	acc.user = updated.user
	s.propagateLocked(acc.user)
	s.syncSessionUserLocked(ctx, acc.user)

	s.log.Info("✏️ Profile updated", "user_id", acc.user.ID, "from", previous, "to", acc.user.Username)
	return acc.user, nil
}

// SetPrivacy : seul le propriétaire bascule sa visibilité.
func (s *Store) SetPrivacy(ctx context.Context, userID string, isPrivate bool) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	if acc.user.IsPrivate == isPrivate {
		return acc.user, nil
	}

	updated := *acc
	updated.user.IsPrivate = isPrivate
	if err := s.writeDirectory(ctx, s.snapshotDirectory(&updated)); err != nil {
		return domain.User{}, err
	}

	acc.user = updated.user
	s.syncSessionUserLocked(ctx, acc.user)
	return acc.user, nil
}

func (s *Store) FindByHandle(handle string) (domain.User, bool) {
	normalized := domain.NormalizeHandle(handle)

	s.mu.Lock()
	defer s.mu.Unlock()

	if acc := s.accountByHandleLocked(normalized); acc != nil {
		return acc.user, true
	}
	return domain.User{}, false
}

func (s *Store) FindByID(id string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acc, ok := s.accounts[id]; ok {
		return acc.user, true
	}
	return domain.User{}, false
}

// --- HELPERS (sous verrou) ---

func (s *Store) accountByHandleLocked(handle string) *account {
	for _, id := range s.order {
		if acc := s.accounts[id]; acc.user.Username == handle {
			return acc
		}
	}
	return nil
}

func (s *Store) handleTakenLocked(handle, excludeID string) bool {
	acc := s.accountByHandleLocked(handle)
	return acc != nil && acc.user.ID != excludeID
}

// propagateLocked réécrit les snapshots d'auteur dénormalisés.
func (s *Store) propagateLocked(u domain.User) {
	for i := range s.feed {
		renameInPost(&s.feed[i], u)
	}

	for i := range s.stories {
		if s.stories[i].UserID == u.ID {
			s.stories[i].Author.Rename(u)
		}
	}

	for _, c := range s.conversations {
		for i := range c.Participants {
			if c.Participants[i].ID == u.ID {
				c.Participants[i] = u
			}
		}
	}
}

// refreshSnapshotsLocked aligne les snapshots d'un post venu de l'archive
// sur les users connus de l'annuaire.
func (s *Store) refreshSnapshotsLocked(p *domain.Post) {
	ids := []string{p.UserID, p.OriginalCreatorID}
	for _, c := range p.Comments {
		ids = append(ids, c.UserID)
	}
	for _, id := range ids {
		if acc, ok := s.accounts[id]; ok {
			renameInPost(p, acc.user)
		}
	}
}

func renameInPost(p *domain.Post, u domain.User) {
	if p.UserID == u.ID {
		p.Author.Rename(u)
	}
	if p.OriginalCreatorID == u.ID {
		p.OriginalCreator = u.Username
	}
	for j := range p.Comments {
		if p.Comments[j].UserID == u.ID {
			p.Comments[j].Author.Rename(u)
		}
	}
}

// syncSessionUserLocked garde "session_user" aligné quand le user connecté change.
// Un échec ici n'annule pas la mise à jour de l'annuaire déjà persistée.
func (s *Store) syncSessionUserLocked(ctx context.Context, u domain.User) {
	if s.sessionUser == nil || s.sessionUser.ID != u.ID {
		return
	}
	copied := u
	s.sessionUser = &copied

	token, err := s.deps.KV.Get(ctx, keySessionToken)
	if err != nil {
		s.log.Warn("Could not read session token", "error", err)
		return
	}
	if err := s.writeSession(ctx, string(token), u); err != nil {
		s.log.Warn("Could not refresh session user", "error", err)
	}
}

// discoverLocked synthétise un record minimal pour un auteur inconnu.
// Ignoré si le handle est déjà porté par un autre id. Le record est
// persisté avec la prochaine écriture de l'annuaire.
func (s *Store) discoverLocked(a domain.Author) {
	if a.UserID == "" {
		return
	}
	if _, ok := s.accounts[a.UserID]; ok {
		return
	}
	handle := domain.NormalizeHandle(a.Username)
	if handle == "" || s.handleTakenLocked(handle, a.UserID) {
		return
	}

	s.accounts[a.UserID] = &account{user: domain.User{
		ID:          a.UserID,
		Username:    handle,
		DisplayName: a.DisplayName,
		Avatar:      a.Avatar,
	}}
	s.order = append(s.order, a.UserID)
	s.log.Debug("Discovered user", "user_id", a.UserID, "username", handle)
}

// publish envoie un événement en best effort : on logue et on continue.
func (s *Store) publish(event string, fn func(ports.EventPublisher) error) {
	if s.deps.Events == nil {
		return
	}
	if err := fn(s.deps.Events); err != nil {
		s.log.Warn("Event publish failed", slog.String("event", event), slog.Any("error", err))
	}
}
