package services

import (
	"context"
	"slices"
	"strings"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- MESSAGES DIRECTS ---

// OpenConversation : un seul autre participant = fil direct (réutilisé s'il existe),
// plusieurs = groupe. Sans nom, le groupe prend les handles des autres participants.
func (s *Store) OpenConversation(_ context.Context, cmd ports.OpenConversationCmd) (domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.accounts[cmd.OwnerID]
	if !ok {
		return domain.Conversation{}, domain.ErrUserNotFound
	}

	// 1. Résolution des participants (dédoublonnés, owner exclu)
	var others []domain.User
	seen := map[string]bool{cmd.OwnerID: true}
	for _, id := range cmd.ParticipantIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		acc, ok := s.accounts[id]
		if !ok {
			return domain.Conversation{}, domain.ErrUserNotFound
		}
		others = append(others, acc.user)
	}
	if len(others) == 0 {
		return domain.Conversation{}, domain.ErrUserNotFound
	}

	// 2. Fil direct existant ?
	if len(others) == 1 {
		for _, c := range s.conversations {
			if !c.IsGroup && c.HasParticipant(cmd.OwnerID) && c.HasParticipant(others[0].ID) {
				return cloneConversation(c), nil
			}
		}
	}

	conv := &domain.Conversation{
		ID:           s.newID(),
		Participants: append([]domain.User{owner.user}, others...),
		IsGroup:      len(others) > 1,
		IsRead:       true,
	}
	if conv.IsGroup {
		conv.Name = strings.TrimSpace(cmd.Name)
		if conv.Name == "" {
			names := make([]string, len(others))
			for i, u := range others {
				names[i] = u.Username
			}
			conv.Name = strings.Join(names, ", ")
		}
	}

	s.conversations = slices.Insert(s.conversations, 0, conv)
	return cloneConversation(conv), nil
}

// SendMessage ajoute en fin de fil et remonte la conversation en tête.
// Seul un participant peut écrire.
func (s *Store) SendMessage(_ context.Context, conversationID, senderID, text string) (domain.ChatMessage, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, domain.ErrEmptyMessage
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findConversation(conversationID)
	if i < 0 {
		return domain.ChatMessage{}, domain.ErrConversationNotFound
	}
	conv := s.conversations[i]
	if !conv.HasParticipant(senderID) {
		return domain.ChatMessage{}, domain.ErrNotParticipant
	}

	msg := domain.ChatMessage{
		ID:             s.newID(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		IsRead:         true,
		CreatedAt:      s.now(),
	}
	s.messages[conv.ID] = append(s.messages[conv.ID], msg)

	conv.LastMessage = text
	conv.LastMessageAt = msg.CreatedAt

	// Plus récent d'abord
	s.conversations = slices.Delete(s.conversations, i, i+1)
	s.conversations = slices.Insert(s.conversations, 0, conv)

	return msg, nil
}

// ReadConversation marque le fil comme lu et retourne ses messages dans l'ordre.
func (s *Store) ReadConversation(_ context.Context, conversationID string) (domain.Conversation, []domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findConversation(conversationID)
	if i < 0 {
		return domain.Conversation{}, nil, domain.ErrConversationNotFound
	}

	conv := s.conversations[i]
	conv.IsRead = true
	msgs := s.messages[conv.ID]
	for j := range msgs {
		msgs[j].IsRead = true
	}
	return cloneConversation(conv), slices.Clone(msgs), nil
}

func (s *Store) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Conversation, len(s.conversations))
	for i, c := range s.conversations {
		out[i] = cloneConversation(c)
	}
	return out
}

func (s *Store) findConversation(id string) int {
	for i, c := range s.conversations {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func cloneConversation(c *domain.Conversation) domain.Conversation {
	cp := *c
	cp.Participants = slices.Clone(c.Participants)
	return cp
}
