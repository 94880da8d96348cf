package services

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// Clés du stockage durable.
const (
	keySessionToken  = "session_token"
	keySessionUser   = "session_user"
	keyUserDirectory = "user_directory"
)

// Dependencies regroupe les ports secondaires injectés dans le Store.
// Events et Graph sont optionnels (nil = désactivé).
type Dependencies struct {
	KV        ports.KeyValueStore
	Archive   ports.FeedArchive
	Hasher    ports.SecretHasher
	Tokens    ports.TokenIssuer
	Clock     ports.Clock
	IDs       ports.IDGenerator
	Delayer   ports.Delayer
	Debouncer ports.Debouncer
	Events    ports.EventPublisher
	Graph     ports.GraphMirror
	Logger    *slog.Logger
}

type Options struct {
	PageDelay     time.Duration // latence artificielle de LoadMoreFeed
	PageSize      int
	PreviewLength int // longueur de l'aperçu d'un commentaire dans la notif
}

// DefaultOptions reprend les valeurs de l'app d'origine.
var DefaultOptions = Options{
	PageDelay:     1500 * time.Millisecond,
	PageSize:      10,
	PreviewLength: 20,
}

// account est l'entrée d'annuaire : le user + le hash du secret (optionnel).
type account struct {
	user       domain.User
	secretHash string
}

// Store implémente ports.EchoService.
// Toutes les mutations passent par mu : une seule s'exécute à la fois,
// comme dans la boucle d'événements de l'UI.
type Store struct {
	deps Dependencies
	opts Options
	log  *slog.Logger

	mu sync.Mutex
	// pageMu sérialise LoadMoreFeed, dont la lecture d'archive se fait hors de mu
	pageMu sync.Mutex

	// Annuaire
	accounts map[string]*account // par id
	order    []string            // ordre d'inscription (persisté tel quel)

	// Session
	sessionUser *domain.User

	// Données de session (remises à zéro au logout)
	feed          []domain.Post
	stories       []domain.Story
	notifications []domain.Notification
	follows       map[string]map[string]struct{}
	conversations []*domain.Conversation
	messages      map[string][]domain.ChatMessage
	feedCursor    string // id de la dernière entrée d'archive lue
	sessionGen    uint64 // incrémenté à chaque remise à zéro
}

var _ ports.EchoService = (*Store)(nil)

// NewStore est le constructeur avec injection de dépendances.
func NewStore(deps Dependencies, opts Options) *Store {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultOptions.PageSize
	}
	if opts.PreviewLength <= 0 {
		opts.PreviewLength = DefaultOptions.PreviewLength
	}

	s := &Store{
		deps:     deps,
		opts:     opts,
		log:      deps.Logger,
		accounts: make(map[string]*account),
	}
	s.resetSessionData()
	return s
}

func (s *Store) resetSessionData() {
	s.feed = []domain.Post{}
	s.stories = []domain.Story{}
	s.notifications = []domain.Notification{}
	s.follows = make(map[string]map[string]struct{})
	s.conversations = nil
	s.messages = make(map[string][]domain.ChatMessage)
	s.feedCursor = ""
	s.sessionGen++
}

// --- HELPERS ---

func (s *Store) now() time.Time {
	return s.deps.Clock.Now().UTC()
}

func (s *Store) newID() string {
	return s.deps.IDs.NewID()
}

// senderFor retourne le snapshot d'un user connu, ou un snapshot minimal.
// Appelé sous verrou.
func (s *Store) senderFor(userID string) domain.Author {
	if acc, ok := s.accounts[userID]; ok {
		return acc.user.Snapshot()
	}
	return domain.Author{UserID: userID}
}

func (s *Store) findPost(id string) int {
	for i := range s.feed {
		if s.feed[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findStory(id string) int {
	for i := range s.stories {
		if s.stories[i].ID == id {
			return i
		}
	}
	return -1
}
