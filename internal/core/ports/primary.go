package ports

import (
	"context"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---

type SignUpCmd struct {
	Handle      string
	Secret      string
	DisplayName string
}

type LoginCmd struct {
	Handle string
	Secret string
}

type UpdateProfileCmd struct {
	UserID  string
	Handle  string
	Changes domain.ProfileChanges
}

type OpenConversationCmd struct {
	OwnerID        string
	ParticipantIDs []string
	Name           string
}

// --- PORTS PRIMAIRES (Driving) ---

type IdentityDirectory interface {
	RegisterUser(ctx context.Context, handle string, profile domain.Profile) (domain.User, error)
	UpdateHandle(ctx context.Context, cmd UpdateProfileCmd) (domain.User, error)
	SetPrivacy(ctx context.Context, userID string, isPrivate bool) (domain.User, error)
	FindByHandle(handle string) (domain.User, bool)
	FindByID(id string) (domain.User, bool)
	SearchUsers(query string, limit int) []domain.User
	QueueSearch(ctx context.Context, query string, limit int, deliver func([]domain.User))
}

type SessionManager interface {
	SignUp(ctx context.Context, cmd SignUpCmd) (domain.User, error)
	LogIn(ctx context.Context, cmd LoginCmd) (domain.User, error)
	LogOut(ctx context.Context) error
	RestoreSession(ctx context.Context) (domain.User, bool, error)
	CurrentUser() (domain.User, bool)
	State() domain.SessionState
}

type SocialGraph interface {
	Follow(ctx context.Context, viewerID, targetID string)
	Unfollow(ctx context.Context, viewerID, targetID string)
	IsFollowing(viewerID, targetID string) bool
	Following(viewerID string) []string
}

type ContentStore interface {
	PublishPost(ctx context.Context, author domain.Author, caption, media string) domain.Post
	TogglePulse(ctx context.Context, postID, viewerID string) (domain.Post, error)
	Resonate(ctx context.Context, postID string, resonator domain.Author) (domain.Post, error)
	EditCaption(ctx context.Context, postID, editorID, caption string) (domain.Post, error)
	AddComment(ctx context.Context, postID string, author domain.Author, text string) (domain.Comment, error)
	PublishStory(ctx context.Context, author domain.Author, media string) domain.Story
	ViewStory(ctx context.Context, storyID, viewerID string) (domain.Story, error)
	LoadMoreFeed(ctx context.Context) ([]domain.Post, error)
	Feed() []domain.Post
	Stories() []domain.Story
	Post(id string) (domain.Post, bool)
	PostsBy(userID string) []domain.Post
}

type NotificationCenter interface {
	Notifications() []domain.Notification
	MarkRead(id string) error
	MarkAllRead()
	UnreadCount() int
	UnreadMentions() []domain.Notification
}

type Messenger interface {
	OpenConversation(ctx context.Context, cmd OpenConversationCmd) (domain.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID, text string) (domain.ChatMessage, error)
	ReadConversation(ctx context.Context, conversationID string) (domain.Conversation, []domain.ChatMessage, error)
	Conversations() []domain.Conversation
}

// EchoService est la surface complète exposée à l'UI (HTTP local).
type EchoService interface {
	IdentityDirectory
	SessionManager
	SocialGraph
	ContentStore
	NotificationCenter
	Messenger
}
