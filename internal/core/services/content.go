package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- POSTS ---

// PublishPost insère en tête du feed. Ne peut pas échouer : l'archivage
// et l'événement sont en best effort.
func (s *Store) PublishPost(ctx context.Context, author domain.Author, caption, media string) domain.Post {
	post := domain.NewPost(s.newID(), author, caption, media, s.now())

	s.mu.Lock()
	s.discoverLocked(author)
	s.feed = slices.Insert(s.feed, 0, post)
	s.mu.Unlock()

	s.archive(ctx, post)
	s.publish("post.published", func(p ports.EventPublisher) error {
		return p.PublishPostPublished(ctx, post)
	})

	return post.Clone()
}

// TogglePulse bascule le like. Notification uniquement sur 0 -> 1.
func (s *Store) TogglePulse(ctx context.Context, postID, viewerID string) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPost(postID)
	if i < 0 {
		return domain.Post{}, domain.ErrPostNotFound
	}

	post := &s.feed[i]
	if post.TogglePulse() {
		s.notifyLocked(ctx, post.UserID, s.senderFor(viewerID), domain.NotificationPulse, post.ID, "")
	}
	return post.Clone(), nil
}

// Resonate crée une NOUVELLE entité en tête du feed ; l'original ne voit
// changer que son compteur et son flag.
func (s *Store) Resonate(ctx context.Context, postID string, resonator domain.Author) (domain.Post, error) {
	s.mu.Lock()
	i := s.findPost(postID)
	if i < 0 {
		s.mu.Unlock()
		return domain.Post{}, domain.ErrPostNotFound
	}
	if s.feed[i].HasResonated {
		s.mu.Unlock()
		return domain.Post{}, domain.ErrAlreadyResonated
	}

	original := &s.feed[i]
	resonation := original.ResonateAs(s.newID(), resonator, s.now())
	s.notifyLocked(ctx, original.UserID, resonator, domain.NotificationResonate, original.ID, "")

	s.discoverLocked(resonator)
	s.feed = slices.Insert(s.feed, 0, resonation)
	s.mu.Unlock()

	s.archive(ctx, resonation)
	return resonation.Clone(), nil
}

// EditCaption : seul l'auteur peut modifier. Réactions, commentaires et date inchangés.
func (s *Store) EditCaption(_ context.Context, postID, editorID, caption string) (domain.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPost(postID)
	if i < 0 {
		return domain.Post{}, domain.ErrPostNotFound
	}
	if s.feed[i].UserID != editorID {
		return domain.Post{}, domain.ErrNotOwner
	}

	s.feed[i].Caption = caption
	return s.feed[i].Clone(), nil
}

// AddComment ajoute en fin de liste et mentionne l'auteur du post
// avec un aperçu tronqué du texte.
func (s *Store) AddComment(ctx context.Context, postID string, author domain.Author, text string) (domain.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findPost(postID)
	if i < 0 {
		return domain.Comment{}, domain.ErrPostNotFound
	}

	comment := domain.Comment{
		ID:        s.newID(),
		Author:    author,
		Text:      text,
		Timestamp: s.now(),
	}
	post := &s.feed[i]
	post.Comments = append(post.Comments, comment)

	s.discoverLocked(author)
	preview := fmt.Sprintf("commented: \"%s\"", truncate(text, s.opts.PreviewLength))
	s.notifyLocked(ctx, post.UserID, author, domain.NotificationMention, post.ID, preview)

	return comment, nil
}

// --- STORIES ---

func (s *Store) PublishStory(_ context.Context, author domain.Author, media string) domain.Story {
	story := domain.NewStory(s.newID(), author, media, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.discoverLocked(author)
	s.stories = slices.Insert(s.stories, 0, story)
	return story.Clone()
}

// ViewStory est idempotent : HasSeen passe à true et le viewer est ajouté une fois.
func (s *Store) ViewStory(_ context.Context, storyID, viewerID string) (domain.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.findStory(storyID)
	if i < 0 {
		return domain.Story{}, domain.ErrStoryNotFound
	}
	s.stories[i].MarkSeen(viewerID)
	return s.stories[i].Clone(), nil
}

// --- PAGINATION ---

// LoadMoreFeed attend la latence configurée (annulable via ctx), puis ajoute
// en fin de feed des copies fraîches de la page suivante de l'archive.
// Arrivée au bout, l'archive repart du début (scroll infini).
// L'attente et la lecture d'archive se font hors verrou.
func (s *Store) LoadMoreFeed(ctx context.Context) ([]domain.Post, error) {
	s.pageMu.Lock()
	defer s.pageMu.Unlock()

	s.mu.Lock()
	empty := len(s.feed) == 0
	cursor, gen := s.feedCursor, s.sessionGen
	s.mu.Unlock()
	if empty || s.deps.Archive == nil {
		return nil, nil
	}

	// 1. Latence artificielle
	if err := s.deps.Delayer.Wait(ctx, s.opts.PageDelay); err != nil {
		return nil, err
	}

	// 2. Lecture de la page suivante
	page, err := s.deps.Archive.Page(ctx, cursor, s.opts.PageSize)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "read archive", Err: err}
	}
	if page.Next == "" && cursor != "" {
		page, err = s.deps.Archive.Page(ctx, "", s.opts.PageSize)
		if err != nil {
			return nil, &domain.PersistenceError{Op: "read archive", Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// La session a pu être fermée (ou changer de user) pendant la lecture
	if s.sessionGen != gen || len(s.feed) == 0 {
		return nil, nil
	}
	s.feedCursor = page.Next

	// 3. Dérivation : nouveaux ids, réactions du viewer remises à zéro,
	// snapshots d'auteur alignés sur l'annuaire (l'archive garde les anciens)
	more := make([]domain.Post, 0, len(page.Posts))
	for _, p := range page.Posts {
		derived := p.Derive(s.newID())
		s.refreshSnapshotsLocked(&derived)
		more = append(more, derived)
		s.feed = append(s.feed, derived)
	}

	s.log.Debug("Feed page loaded", "count", len(more), "cursor", s.feedCursor)
	return clonePosts(more), nil
}

// --- LECTURES ---

func (s *Store) Feed() []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	return clonePosts(s.feed)
}

func (s *Store) Stories() []domain.Story {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Story, len(s.stories))
	for i, st := range s.stories {
		out[i] = st.Clone()
	}
	return out
}

func (s *Store) Post(id string) (domain.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.findPost(id); i >= 0 {
		return s.feed[i].Clone(), true
	}
	return domain.Post{}, false
}

// PostsBy liste les posts (y compris résonances) publiés par userID.
func (s *Store) PostsBy(userID string) []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Post{}
	for _, p := range s.feed {
		if p.UserID == userID {
			out = append(out, p.Clone())
		}
	}
	return out
}

// --- HELPERS ---

func (s *Store) archive(ctx context.Context, post domain.Post) {
	if s.deps.Archive == nil {
		return
	}
	if err := s.deps.Archive.Append(ctx, post); err != nil {
		s.log.Warn("Archive append failed", "post_id", post.ID, "error", err)
	}
}

func clonePosts(posts []domain.Post) []domain.Post {
	out := make([]domain.Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// truncate coupe sur les runes, "..." seulement si le texte dépasse.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
