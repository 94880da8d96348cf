package httpapi

import (
	"net/http"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// --- NOTIFICATIONS ---

type unreadResponse struct {
	Unread int `json:"unread"`
}

func (a *API) notifications(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Notifications []domain.Notification `json:"notifications"`
		Unread        int                   `json:"unread"`
		Mentions      []domain.Notification `json:"mentions"`
	}

	if _, ok := a.sessionUser(w); !ok {
		return
	}
	a.respond(w, http.StatusOK, response{
		Notifications: a.Service.Notifications(),
		Unread:        a.Service.UnreadCount(),
		Mentions:      a.Service.UnreadMentions(),
	})
}

func (a *API) markRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessionUser(w); !ok {
		return
	}

	if err := a.Service.MarkRead(r.PathValue("id")); err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, unreadResponse{Unread: a.Service.UnreadCount()})
}

func (a *API) markAllRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessionUser(w); !ok {
		return
	}

	a.Service.MarkAllRead()
	a.respond(w, http.StatusOK, unreadResponse{Unread: a.Service.UnreadCount()})
}

// --- MESSAGES DIRECTS ---

func (a *API) conversations(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Conversations []domain.Conversation `json:"conversations"`
	}

	if _, ok := a.sessionUser(w); !ok {
		return
	}

	convs := a.Service.Conversations()
	if convs == nil {
		convs = []domain.Conversation{}
	}
	a.respond(w, http.StatusOK, response{Conversations: convs})
}

func (a *API) openConversation(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		ParticipantIDs []string `json:"participantIds" validate:"min=1,dive,required"`
		Name           string   `json:"name" validate:"max=128"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	conv, err := a.Service.OpenConversation(r.Context(), ports.OpenConversationCmd{
		OwnerID:        user.ID,
		ParticipantIDs: body.ParticipantIDs,
		Name:           body.Name,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusCreated, conv)
}

func (a *API) readConversation(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Conversation domain.Conversation  `json:"conversation"`
		Messages     []domain.ChatMessage `json:"messages"`
	}

	if _, ok := a.sessionUser(w); !ok {
		return
	}

	conv, msgs, err := a.Service.ReadConversation(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	a.respond(w, http.StatusOK, response{Conversation: conv, Messages: msgs})
}

func (a *API) sendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text" validate:"max=4000"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	msg, err := a.Service.SendMessage(r.Context(), r.PathValue("id"), user.ID, body.Text)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusCreated, msg)
}
