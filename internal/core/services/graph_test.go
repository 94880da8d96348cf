package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

func TestStore_Follow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.mustRegister(t, "a")
	b := f.mustRegister(t, "b")

	f.store.Follow(ctx, a.ID, b.ID)
	f.store.Follow(ctx, a.ID, b.ID)

	if !f.store.IsFollowing(a.ID, b.ID) {
		t.Fatal("IsFollowing = false")
	}
	if f.store.IsFollowing(b.ID, a.ID) {
		t.Error("edge is not directed")
	}
	if diff := cmp.Diff([]string{b.ID}, f.store.Following(a.ID)); diff != "" {
		t.Errorf("Following (-want +got):\n%s", diff)
	}
	if n := f.countNotifications(domain.NotificationFollow, b.ID); n != 1 {
		t.Errorf("follow notifications = %d, want 1", n)
	}
	n := f.store.Notifications()[0]
	if n.SenderID != a.ID || n.SenderUsername != "a" || n.Text != "established a node link" {
		t.Errorf("notification = %+v", n)
	}
	if diff := cmp.Diff([]string{a.ID + "->" + b.ID}, f.graph.created); diff != "" {
		t.Errorf("mirror creates (-want +got):\n%s", diff)
	}
}

func TestStore_Follow_self(t *testing.T) {
	f := newFixture(t)
	a := f.mustRegister(t, "a")

	f.store.Follow(context.Background(), a.ID, a.ID)
	if n := len(f.store.Notifications()); n != 0 {
		t.Errorf("self follow created %d notifications", n)
	}
}

func TestStore_Follow_unknownIDs(t *testing.T) {
	f := newFixture(t)
	f.store.Follow(context.Background(), "ghost-1", "ghost-2")

	if !f.store.IsFollowing("ghost-1", "ghost-2") {
		t.Error("edge between unknown ids not recorded")
	}
}

func TestStore_Unfollow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.Unfollow(ctx, "a", "b")
	if len(f.graph.deleted) != 0 {
		t.Error("mirror called for a missing edge")
	}

	f.store.Follow(ctx, "a", "b")
	f.store.Unfollow(ctx, "a", "b")
	f.store.Unfollow(ctx, "a", "b")

	if f.store.IsFollowing("a", "b") {
		t.Error("edge still present")
	}
	if diff := cmp.Diff([]string{"a->b"}, f.graph.deleted); diff != "" {
		t.Errorf("mirror deletes (-want +got):\n%s", diff)
	}
}

func TestStore_Follow_mirrorFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.graph.err = errors.New("neo4j down")

	f.store.Follow(context.Background(), "a", "b")
	if !f.store.IsFollowing("a", "b") {
		t.Error("mirror failure rolled back the edge")
	}
}
