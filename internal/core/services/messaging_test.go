package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

func TestStore_OpenConversation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.mustRegister(t, "me")
	ana := f.mustRegister(t, "ana")
	bo := f.mustRegister(t, "bo")

	direct, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{ana.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if direct.IsGroup || len(direct.Participants) != 2 || direct.Name != "" {
		t.Errorf("direct = %+v", direct)
	}

	again, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{ana.ID, me.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != direct.ID {
		t.Error("direct conversation not reused")
	}

	group, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{ana.ID, bo.ID}})
	if err != nil {
		t.Fatal(err)
	}
	if !group.IsGroup || group.Name != "ana, bo" {
		t.Errorf("group = %+v", group)
	}

	named, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{ana.ID, bo.ID}, Name: " Nodes "})
	if err != nil {
		t.Fatal(err)
	}
	if named.Name != "Nodes" || named.ID == group.ID {
		t.Errorf("named = %+v", named)
	}

	if _, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{"ghost"}}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
	if _, err := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestStore_SendMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := f.mustRegister(t, "me")
	ana := f.mustRegister(t, "ana")
	bo := f.mustRegister(t, "bo")

	first, _ := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{ana.ID}})
	second, _ := f.store.OpenConversation(ctx, ports.OpenConversationCmd{OwnerID: me.ID, ParticipantIDs: []string{bo.ID}})

	for _, text := range []string{"hi", "still there?"} {
		if _, err := f.store.SendMessage(ctx, first.ID, me.ID, text); err != nil {
			t.Fatal(err)
		}
	}

	convs := f.store.Conversations()
	if convs[0].ID != first.ID || convs[1].ID != second.ID {
		t.Error("conversation with the latest message not first")
	}
	if convs[0].LastMessage != "still there?" || !convs[0].LastMessageAt.Equal(testNow) {
		t.Errorf("last message = %q at %v", convs[0].LastMessage, convs[0].LastMessageAt)
	}

	conv, msgs, err := f.store.ReadConversation(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !conv.IsRead || len(msgs) != 2 || msgs[0].Text != "hi" || msgs[1].Text != "still there?" {
		t.Errorf("ReadConversation = %+v, %+v", conv, msgs)
	}

	if _, err := f.store.SendMessage(ctx, first.ID, me.ID, "   "); !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
	if _, err := f.store.SendMessage(ctx, first.ID, bo.ID, "let me in"); !errors.Is(err, domain.ErrNotParticipant) {
		t.Errorf("err = %v, want ErrNotParticipant", err)
	}
	if c := f.store.Conversations()[0]; c.LastMessage != "still there?" {
		t.Errorf("rejected message changed the thread: %q", c.LastMessage)
	}
	if _, err := f.store.SendMessage(ctx, "missing", me.ID, "x"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
	if _, _, err := f.store.ReadConversation(ctx, "missing"); !errors.Is(err, domain.ErrConversationNotFound) {
		t.Errorf("err = %v, want ErrConversationNotFound", err)
	}
}
