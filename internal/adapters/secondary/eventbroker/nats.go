package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

const (
	StreamName     = "ECHO"
	SubjectPattern = "echo.>"

	SubjectUserRegistered      = "echo.user.registered"
	SubjectPostPublished       = "echo.post.published"
	SubjectNotificationCreated = "echo.notification.created"
)

type NatsBroker struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// NewNatsBroker se connecte et s'assure que le Stream existe (idempotent).
func NewNatsBroker(url string) (*NatsBroker, error) {
	nc, err := nats.Connect(url, nats.Name("echo"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: []string{SubjectPattern},
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create stream: %w", err)
	}

	return &NatsBroker{nc: nc, js: js}, nil
}

// Close vide le buffer d'envoi avant de fermer la connexion.
func (n *NatsBroker) Close() {
	if err := n.nc.Drain(); err != nil {
		slog.Warn("NATS drain failed", "error", err)
	}
}

// --- PAYLOADS ---

type UserRegisteredEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type PostPublishedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Caption   string    `json:"caption"`
	Media     string    `json:"media"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationCreatedEvent struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipient_id"`
	SenderID    string `json:"sender_id"`
	Type        string `json:"type"`
	PostID      string `json:"post_id,omitempty"`
	Text        string `json:"text"`
}

func (n *NatsBroker) PublishUserRegistered(ctx context.Context, user domain.User) error {
	return n.publish(ctx, SubjectUserRegistered, UserRegisteredEvent{
		UserID:   user.ID,
		Username: user.Username,
	})
}

func (n *NatsBroker) PublishPostPublished(ctx context.Context, post domain.Post) error {
	return n.publish(ctx, SubjectPostPublished, PostPublishedEvent{
		ID:        post.ID,
		AuthorID:  post.UserID,
		Caption:   post.Caption,
		Media:     post.Media,
		CreatedAt: post.CreatedAt,
	})
}

func (n *NatsBroker) PublishNotification(ctx context.Context, notif domain.Notification) error {
	return n.publish(ctx, SubjectNotificationCreated, NotificationCreatedEvent{
		ID:          notif.ID,
		RecipientID: notif.RecipientID,
		SenderID:    notif.SenderID,
		Type:        string(notif.Type),
		PostID:      notif.PostID,
		Text:        notif.Text,
	})
}

// publish est asynchrone : le store appelle sous verrou, on n'attend pas l'ACK.
func (n *NatsBroker) publish(ctx context.Context, subject string, event any) error {
	msg, err := newMessage(ctx, subject, event)
	if err != nil {
		return err
	}

	if _, err := n.js.PublishMsgAsync(msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}

	slog.Debug("📢 Event published", "subject", subject)
	return nil
}

// newMessage encode l'événement et injecte le trace context dans les headers NATS.
func newMessage(ctx context.Context, subject string, event any) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))
	return msg, nil
}
