package services

import (
	"context"
	"strings"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

const defaultSearchLimit = 20

// SearchUsers : recherche immédiate sur le handle et le nom affiché.
// Un "@" en tête est ignoré.
func (s *Store) SearchUsers(query string, limit int) []domain.User {
	q := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(query), "@"))
	if q == "" {
		return []domain.User{}
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.User{}
	for _, id := range s.order {
		u := s.accounts[id].user
		if strings.Contains(u.Username, q) || strings.Contains(strings.ToLower(u.DisplayName), q) {
			out = append(out, u)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// QueueSearch : recherche "as-you-type". Chaque appel remplace le précédent
// encore en attente ; deliver n'est jamais appelé pour une requête remplacée.
func (s *Store) QueueSearch(ctx context.Context, query string, limit int, deliver func([]domain.User)) {
	s.deps.Debouncer.Schedule(ctx, func(ctx context.Context) {
		results := s.SearchUsers(query, limit)
		if ctx.Err() != nil {
			return
		}
		deliver(results)
	})
}
