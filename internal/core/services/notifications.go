package services

import (
	"context"
	"slices"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- FAN-OUT DES NOTIFICATIONS ---

// notifyLocked est le seul point de création d'une notification.
// Jamais d'auto-notification. Appelé sous verrou.
func (s *Store) notifyLocked(ctx context.Context, recipientID string, sender domain.Author, kind domain.NotificationType, postID, customText string) {
	if recipientID == sender.UserID {
		return
	}

	text := customText
	if text == "" {
		text = kind.DefaultText()
	}

	n := domain.Notification{
		ID:             s.newID(),
		RecipientID:    recipientID,
		SenderID:       sender.UserID,
		SenderUsername: sender.Username,
		SenderAvatar:   sender.Avatar,
		Type:           kind,
		PostID:         postID,
		Text:           text,
		CreatedAt:      s.now(),
	}

	// Une seule séquence globale : il n'y a qu'une session active
	s.notifications = slices.Insert(s.notifications, 0, n)

	s.publish("notification.created", func(p ports.EventPublisher) error {
		return p.PublishNotification(ctx, n)
	})
}

func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.notifications)
}

func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (s *Store) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notifications {
		s.notifications[i].IsRead = true
	}
}

// UnreadCount = nombre de notifications avec IsRead == false.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, n := range s.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// UnreadMentions alimente le badge de la messagerie.
func (s *Store) UnreadMentions() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Notification{}
	for _, n := range s.notifications {
		if n.Type == domain.NotificationMention && !n.IsRead {
			out = append(out, n)
		}
	}
	return out
}
