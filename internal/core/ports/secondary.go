package ports

import (
	"context"
	"errors"
	"time"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

// --- PERSISTANCE ---

// ErrKeyNotFound est retourné par KeyValueStore.Get quand la clé est absente.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore est le stockage durable clé/valeur (session + annuaire).
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// FeedArchive est la source dont LoadMoreFeed dérive les pages suivantes.
// Page retourne, du plus récent au plus ancien, les posts situés après
// l'entrée after ("" = depuis la tête). Un after inconnu donne une page vide.
type FeedArchive interface {
	Append(ctx context.Context, post domain.Post) error
	Page(ctx context.Context, after string, limit int) (ArchivePage, error)
}

// ArchivePage : Next est l'id de la dernière entrée d'index lue, à repasser
// tel quel comme after. Vide quand rien n'a été lu (archive épuisée).
// Posts peut être plus court que la page si des corps ont disparu.
type ArchivePage struct {
	Posts []domain.Post
	Next  string
}

// --- SÉCURITÉ ---

type SecretHasher interface {
	Hash(secret string) (string, error)
	Compare(hash, secret string) error
}

// TokenIssuer signe le jeton de session et le revérifie au redémarrage.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
	Validate(token string) (userID string, err error)
}

// --- RUNTIME ---

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID() string
}

// Delayer simule la latence. Wait rend la main dès que ctx est annulé.
type Delayer interface {
	Wait(ctx context.Context, d time.Duration) error
}

// Debouncer planifie fn après un délai ; un nouvel appel à Schedule annule
// le précédent (dernier appel gagnant). Le ctx passé à fn est annulé
// quand l'appel est remplacé.
type Debouncer interface {
	Schedule(ctx context.Context, fn func(ctx context.Context))
	Stop()
}

// --- EFFETS DE BORD (best effort) ---

// EventPublisher notifie l'extérieur (NATS). Optionnel.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, user domain.User) error
	PublishPostPublished(ctx context.Context, post domain.Post) error
	PublishNotification(ctx context.Context, n domain.Notification) error
}

// GraphMirror recopie les arêtes de follow dans un graphe externe (Neo4j). Optionnel.
type GraphMirror interface {
	CreateRelation(ctx context.Context, actorID, targetID string) error
	DeleteRelation(ctx context.Context, actorID, targetID string) error
}
