package domain

import (
	"slices"
	"time"
)

// Post = "echo" dans l'app.
type Post struct {
	ID string `json:"id"`
	Author
	Media        string    `json:"media"`
	Caption      string    `json:"caption"`
	Pulses       int       `json:"pulses"`
	Resonations  int       `json:"resonations"`
	HasPulsed    bool      `json:"hasPulsed"`
	HasResonated bool      `json:"hasResonated"`
	Comments     []Comment `json:"comments"`
	CreatedAt    time.Time `json:"createdAt"`

	// Renseignés uniquement sur une copie issue d'une résonance.
	OriginalCreator   string `json:"originalCreator,omitempty"`
	OriginalCreatorID string `json:"originalCreatorId,omitempty"`
	OriginalPostID    string `json:"originalPostId,omitempty"`
}

// Comment est immuable une fois créé.
type Comment struct {
	ID string `json:"id"`
	Author
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Story = "wave".
type Story struct {
	ID string `json:"id"`
	Author
	Media     string    `json:"media"`
	Timestamp time.Time `json:"timestamp"`
	Viewers   []string  `json:"viewers"`
	HasSeen   bool      `json:"hasSeen"`
}

// NewPost crée un post sans réaction.
func NewPost(id string, author Author, caption, media string, now time.Time) Post {
	return Post{
		ID:        id,
		Author:    author,
		Media:     media,
		Caption:   caption,
		Comments:  []Comment{},
		CreatedAt: now,
	}
}

// IsResonation indique si le post est une copie.
func (p *Post) IsResonation() bool {
	return p.OriginalPostID != ""
}

// TogglePulse bascule la réaction du viewer.
// Retourne true uniquement sur la transition 0 -> 1.
func (p *Post) TogglePulse() bool {
	if p.HasPulsed {
		p.HasPulsed = false
		if p.Pulses > 0 {
			p.Pulses--
		}
		return false
	}
	p.HasPulsed = true
	p.Pulses++
	return true
}

// ResonateAs produit la copie et met à jour le compteur de l'original.
// L'appelant vérifie HasResonated avant.
func (p *Post) ResonateAs(id string, resonator Author, now time.Time) Post {
	p.Resonations++
	p.HasResonated = true

	return Post{
		ID:                id,
		Author:            resonator,
		Media:             p.Media,
		Caption:           p.Caption,
		HasResonated:      true,
		Comments:          []Comment{},
		CreatedAt:         now,
		OriginalCreator:   p.Username,
		OriginalCreatorID: p.UserID,
		OriginalPostID:    p.ID,
	}
}

// Derive copie le post sous un nouvel id, réactions du viewer remises à zéro.
func (p Post) Derive(id string) Post {
	cp := p
	cp.ID = id
	cp.HasPulsed = false
	cp.HasResonated = false
	cp.Comments = slices.Clone(p.Comments)
	if cp.Comments == nil {
		cp.Comments = []Comment{}
	}
	return cp
}

// Clone évite que l'appelant modifie l'état interne via les slices.
func (p Post) Clone() Post {
	p.Comments = slices.Clone(p.Comments)
	return p
}

// NewStory : viewers vide, non vue.
func NewStory(id string, author Author, media string, now time.Time) Story {
	return Story{
		ID:        id,
		Author:    author,
		Media:     media,
		Timestamp: now,
		Viewers:   []string{},
	}
}

// MarkSeen est idempotent : le viewer n'est ajouté qu'une fois.
func (s *Story) MarkSeen(viewerID string) {
	s.HasSeen = true
	if !slices.Contains(s.Viewers, viewerID) {
		s.Viewers = append(s.Viewers, viewerID)
	}
}

func (s Story) Clone() Story {
	s.Viewers = slices.Clone(s.Viewers)
	return s
}

// Rename propage la nouvelle identité sur un snapshot.
func (a *Author) Rename(u User) {
	a.Username = u.Username
	a.DisplayName = u.DisplayName
	a.Avatar = u.Avatar
}
