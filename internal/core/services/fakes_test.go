package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/neilotoole/slogt"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

var testNow = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// testkv est un KeyValueStore en mémoire ; set permet d'injecter une panne.
type testkv struct {
	mu     sync.Mutex
	data   map[string][]byte
	sets   int
	set    func(key string) error
	delete func(key string) error
}

func newTestKV() *testkv {
	return &testkv{data: make(map[string][]byte)}
}

func (kv *testkv) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return v, nil
}

func (kv *testkv) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.set != nil {
		if err := kv.set(key); err != nil {
			return err
		}
	}
	kv.sets++
	kv.data[key] = value
	return nil
}

func (kv *testkv) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.delete != nil {
		if err := kv.delete(key); err != nil {
			return err
		}
	}
	delete(kv.data, key)
	return nil
}

func (kv *testkv) has(key string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	_, ok := kv.data[key]
	return ok
}

type testarchive struct {
	posts []domain.Post // plus récent d'abord
	page  func(after string, limit int) (ports.ArchivePage, error)
}

func (a *testarchive) Append(_ context.Context, post domain.Post) error {
	a.posts = append([]domain.Post{post}, a.posts...)
	return nil
}

func (a *testarchive) Page(_ context.Context, after string, limit int) (ports.ArchivePage, error) {
	if a.page != nil {
		return a.page(after, limit)
	}
	start := 0
	if after != "" {
		start = len(a.posts)
		for i, p := range a.posts {
			if p.ID == after {
				start = i + 1
			}
		}
	}
	if start >= len(a.posts) {
		return ports.ArchivePage{}, nil
	}
	end := min(start+limit, len(a.posts))
	return ports.ArchivePage{
		Posts: append([]domain.Post(nil), a.posts[start:end]...),
		Next:  a.posts[end-1].ID,
	}, nil
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// plainHasher : pas de crypto dans les tests du cœur.
type plainHasher struct{}

func (plainHasher) Hash(secret string) (string, error) { return "hashed:" + secret, nil }

func (plainHasher) Compare(hash, secret string) error {
	if hash != "hashed:"+secret {
		return errors.New("mismatch")
	}
	return nil
}

type testtokens struct{}

func (testtokens) Issue(u domain.User) (string, error) { return "token:" + u.ID, nil }

func (testtokens) Validate(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "token:")
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return id, nil
}

// testdelayer n'attend pas, mais respecte l'annulation et note les délais demandés.
type testdelayer struct {
	waits []time.Duration
}

func (d *testdelayer) Wait(ctx context.Context, dur time.Duration) error {
	d.waits = append(d.waits, dur)
	return ctx.Err()
}

// manualDebouncer garde le dernier appel planifié ; flush l'exécute.
type manualDebouncer struct {
	fn     func(context.Context)
	ctx    context.Context
	cancel context.CancelFunc
}

func (d *manualDebouncer) Schedule(ctx context.Context, fn func(context.Context)) {
	if d.cancel != nil {
		d.cancel()
	}
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.fn = fn
}

func (d *manualDebouncer) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *manualDebouncer) flush() {
	if d.fn != nil {
		d.fn(d.ctx)
		d.fn = nil
	}
}

type testevents struct {
	mu            sync.Mutex
	registered    []string
	published     []string
	notifications []string
}

func (e *testevents) PublishUserRegistered(_ context.Context, u domain.User) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registered = append(e.registered, u.ID)
	return nil
}

func (e *testevents) PublishPostPublished(_ context.Context, p domain.Post) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.published = append(e.published, p.ID)
	return nil
}

func (e *testevents) PublishNotification(_ context.Context, n domain.Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifications = append(e.notifications, n.ID)
	return nil
}

type testgraph struct {
	created []string
	deleted []string
	err     error
}

func (g *testgraph) CreateRelation(_ context.Context, actorID, targetID string) error {
	g.created = append(g.created, actorID+"->"+targetID)
	return g.err
}

func (g *testgraph) DeleteRelation(_ context.Context, actorID, targetID string) error {
	g.deleted = append(g.deleted, actorID+"->"+targetID)
	return g.err
}

type fixture struct {
	store     *Store
	kv        *testkv
	archive   *testarchive
	delayer   *testdelayer
	debouncer *manualDebouncer
	events    *testevents
	graph     *testgraph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithKV(t, newTestKV())
}

func newFixtureWithKV(t *testing.T, kv *testkv) *fixture {
	t.Helper()
	f := &fixture{
		kv:        kv,
		archive:   &testarchive{},
		delayer:   &testdelayer{},
		debouncer: &manualDebouncer{},
		events:    &testevents{},
		graph:     &testgraph{},
	}
	f.store = NewStore(Dependencies{
		KV:        f.kv,
		Archive:   f.archive,
		Hasher:    plainHasher{},
		Tokens:    testtokens{},
		Clock:     fixedClock{t: testNow},
		IDs:       &seqIDs{},
		Delayer:   f.delayer,
		Debouncer: f.debouncer,
		Events:    f.events,
		Graph:     f.graph,
		Logger:    slogt.New(t),
	}, DefaultOptions)
	return f
}

// mustRegister inscrit un user ou fait échouer le test.
func (f *fixture) mustRegister(t *testing.T, handle string) domain.User {
	t.Helper()
	u, err := f.store.RegisterUser(context.Background(), handle, domain.Profile{DisplayName: handle})
	if err != nil {
		t.Fatalf("RegisterUser(%q): %v", handle, err)
	}
	return u
}

func (f *fixture) countNotifications(kind domain.NotificationType, recipientID string) int {
	n := 0
	for _, notif := range f.store.Notifications() {
		if notif.Type == kind && notif.RecipientID == recipientID {
			n++
		}
	}
	return n
}
