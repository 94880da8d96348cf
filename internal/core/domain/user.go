package domain

import "strings"

// --- ENTITÉ ---

// User est un "node" de l'annuaire. Les tags JSON suivent le format
// déjà persisté côté client (camelCase).
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
	Bio         string `json:"bio"`
	IsPrivate   bool   `json:"isPrivate"`
	Followers   int    `json:"followers"`
	Following   int    `json:"following"`
}

// Author est la copie dénormalisée d'un User posée sur le contenu.
// Ce n'est PAS une jointure : un renommage doit être propagé explicitement.
type Author struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// Snapshot fige l'identité d'affichage du user à l'instant t.
func (u User) Snapshot() Author {
	return Author{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
	}
}

// Profile regroupe les champs libres fournis à l'inscription.
type Profile struct {
	DisplayName string
	Avatar      string
	Bio         string
	IsPrivate   bool
}

// ProfileChanges : nil = pas de changement.
type ProfileChanges struct {
	DisplayName *string
	Avatar      *string
	Bio         *string
}

// NewUser construit un user valide à partir d'un handle brut.
func NewUser(id, rawHandle string, p Profile) (*User, error) {
	handle := NormalizeHandle(rawHandle)
	if handle == "" {
		return nil, ErrInvalidHandle
	}

	displayName := strings.TrimSpace(p.DisplayName)
	if displayName == "" {
		displayName = handle
	}

	return &User{
		ID:          id,
		Username:    handle,
		DisplayName: displayName,
		Avatar:      p.Avatar,
		Bio:         p.Bio,
		IsPrivate:   p.IsPrivate,
	}, nil
}

// Apply applique les champs non-nil.
func (u *User) Apply(c ProfileChanges) {
	if c.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*c.DisplayName)
	}
	if c.Avatar != nil {
		u.Avatar = *c.Avatar
	}
	if c.Bio != nil {
		u.Bio = *c.Bio
	}
}

// --- HANDLE ---

// NormalizeHandle met en minuscules, remplace chaque suite d'espaces par
// un "_" puis supprime tout caractère hors [a-z0-9_].
// Fonction pure et idempotente : "New User!" -> "new_user".
func NormalizeHandle(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inSpace := false
	for _, r := range strings.ToLower(raw) {
		if isSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false

		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isSpace reprend la classe \s des regex JavaScript : U+FEFF en fait
// partie, U+0085 non (contrairement à unicode.IsSpace).
func isSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680',
		'\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
