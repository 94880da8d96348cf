package services

import (
	"context"
	"slices"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

// --- GRAPHE SOCIAL ---
// Aucune intégrité référentielle : les ids inconnus sont acceptés.

// Follow est idempotent. La notification ne part que si l'arête est créée.
func (s *Store) Follow(ctx context.Context, viewerID, targetID string) {
	s.mu.Lock()
	set, ok := s.follows[viewerID]
	if !ok {
		set = make(map[string]struct{})
		s.follows[viewerID] = set
	}
	_, exists := set[targetID]
	if !exists {
		set[targetID] = struct{}{}
		s.notifyLocked(ctx, targetID, s.senderFor(viewerID), domain.NotificationFollow, "", "")
	}
	s.mu.Unlock()

	if exists || s.deps.Graph == nil {
		return
	}
	// Miroir Neo4j hors verrou (I/O réseau)
	if err := s.deps.Graph.CreateRelation(ctx, viewerID, targetID); err != nil {
		s.log.Warn("Graph mirror: create relation failed", "actor", viewerID, "target", targetID, "error", err)
	}
}

func (s *Store) Unfollow(ctx context.Context, viewerID, targetID string) {
	s.mu.Lock()
	_, existed := s.follows[viewerID][targetID]
	delete(s.follows[viewerID], targetID)
	s.mu.Unlock()

	if !existed || s.deps.Graph == nil {
		return
	}
	if err := s.deps.Graph.DeleteRelation(ctx, viewerID, targetID); err != nil {
		s.log.Warn("Graph mirror: delete relation failed", "actor", viewerID, "target", targetID, "error", err)
	}
}

func (s *Store) IsFollowing(viewerID, targetID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.follows[viewerID][targetID]
	return ok
}

// Following retourne les ids suivis, triés pour une sortie stable.
func (s *Store) Following(viewerID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.follows[viewerID]))
	for id := range s.follows[viewerID] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
