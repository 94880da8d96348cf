package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// MemoryKV est le driver par défaut (dev local) : rien ne survit au redémarrage.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return slices.Clone(v), nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

// MemoryArchive garde les posts du plus récent au plus ancien.
type MemoryArchive struct {
	mu    sync.RWMutex
	posts []domain.Post
}

func NewMemoryArchive(seed ...domain.Post) *MemoryArchive {
	a := &MemoryArchive{}
	for _, p := range seed {
		a.posts = slices.Insert(a.posts, 0, p.Clone())
	}
	return a
}

func (a *MemoryArchive) Append(_ context.Context, post domain.Post) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.posts = slices.Insert(a.posts, 0, post.Clone())
	return nil
}

func (a *MemoryArchive) Page(_ context.Context, after string, limit int) (ports.ArchivePage, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	start := 0
	if after != "" {
		i := slices.IndexFunc(a.posts, func(p domain.Post) bool { return p.ID == after })
		if i < 0 {
			return ports.ArchivePage{}, nil
		}
		start = i + 1
	}
	if start >= len(a.posts) || limit <= 0 {
		return ports.ArchivePage{}, nil
	}
	end := min(start+limit, len(a.posts))

	page := ports.ArchivePage{Posts: make([]domain.Post, 0, end-start)}
	for _, p := range a.posts[start:end] {
		page.Posts = append(page.Posts, p.Clone())
	}
	page.Next = a.posts[end-1].ID
	return page, nil
}
