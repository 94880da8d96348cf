package httpapi

import (
	"net/http"

	"github.com/jupiterclapton/echo/internal/core/domain"
)

type postsResponse struct {
	Posts []domain.Post `json:"posts"`
}

func (a *API) feed(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessionUser(w); !ok {
		return
	}
	a.respond(w, http.StatusOK, postsResponse{Posts: a.Service.Feed()})
}

// loadMore bloque pendant la latence simulée ; une requête annulée l'interrompt.
func (a *API) loadMore(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.sessionUser(w); !ok {
		return
	}

	more, err := a.Service.LoadMoreFeed(r.Context())
	if err != nil {
		a.fail(w, err)
		return
	}
	if more == nil {
		more = []domain.Post{}
	}
	a.respond(w, http.StatusOK, postsResponse{Posts: more})
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Caption string `json:"caption" validate:"max=2200"`
		Media   string `json:"media" validate:"required"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	post := a.Service.PublishPost(r.Context(), user.Snapshot(), body.Caption, body.Media)
	a.respond(w, http.StatusCreated, post)
}

func (a *API) editCaption(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Caption string `json:"caption" validate:"max=2200"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	post, err := a.Service.EditCaption(r.Context(), r.PathValue("id"), user.ID, body.Caption)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, post)
}

func (a *API) pulse(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	post, err := a.Service.TogglePulse(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, post)
}

func (a *API) resonate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	post, err := a.Service.Resonate(r.Context(), r.PathValue("id"), user.Snapshot())
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusCreated, post)
}

func (a *API) comment(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Text string `json:"text" validate:"required,max=2200"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	c, err := a.Service.AddComment(r.Context(), r.PathValue("id"), user.Snapshot(), body.Text)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusCreated, c)
}

// --- WAVES (stories) ---

func (a *API) stories(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Stories []domain.Story `json:"stories"`
	}

	if _, ok := a.sessionUser(w); !ok {
		return
	}
	a.respond(w, http.StatusOK, response{Stories: a.Service.Stories()})
}

func (a *API) createStory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Media string `json:"media" validate:"required"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	a.respond(w, http.StatusCreated, a.Service.PublishStory(r.Context(), user.Snapshot(), body.Media))
}

func (a *API) viewStory(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	story, err := a.Service.ViewStory(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, story)
}
