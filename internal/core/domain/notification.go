package domain

import "time"

type NotificationType string

const (
	NotificationPulse    NotificationType = "pulse"
	NotificationResonate NotificationType = "resonate"
	NotificationFollow   NotificationType = "follow"
	NotificationMention  NotificationType = "mention"
)

// DefaultText retourne le texte affiché quand aucun texte custom n'est fourni.
func (t NotificationType) DefaultText() string {
	switch t {
	case NotificationPulse:
		return "pulsed your echo"
	case NotificationResonate:
		return "resonated your transmission"
	default:
		return "established a node link"
	}
}

type Notification struct {
	ID             string           `json:"id"`
	RecipientID    string           `json:"recipientId"`
	SenderID       string           `json:"senderId"`
	SenderUsername string           `json:"senderUsername"`
	SenderAvatar   string           `json:"senderAvatar"`
	Type           NotificationType `json:"type"`
	PostID         string           `json:"postId,omitempty"`
	Text           string           `json:"text"`
	IsRead         bool             `json:"isRead"`
	CreatedAt      time.Time        `json:"createdAt"`
}
