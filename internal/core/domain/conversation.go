package domain

import "time"

// Conversation : fil de messages directs ou de groupe.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  []User    `json:"participants"`
	Name          string    `json:"name,omitempty"`
	IsGroup       bool      `json:"isGroup"`
	LastMessage   string    `json:"last_message,omitempty"`
	LastMessageAt time.Time `json:"last_message_time,omitzero"`
	IsRead        bool      `json:"is_read"`
}

type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"message_text"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasParticipant teste l'appartenance d'un user au fil.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
