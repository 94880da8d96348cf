package httpapi

import (
	"net/http"
	"strconv"

	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

type sessionResponse struct {
	User  domain.User `json:"user"`
	State string      `json:"state"`
}

func (a *API) signUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username    string `json:"username" validate:"required,max=64"`
		Password    string `json:"password" validate:"max=256"`
		DisplayName string `json:"displayName" validate:"max=128"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	user, err := a.Service.SignUp(r.Context(), ports.SignUpCmd{
		Handle:      body.Username,
		Secret:      body.Password,
		DisplayName: body.DisplayName,
	})
	if err != nil {
		a.fail(w, err)
		return
	}

	// Pas de session ouverte : le client doit se connecter ensuite
	a.respond(w, http.StatusCreated, sessionResponse{User: user, State: a.Service.State().String()})
}

func (a *API) logIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	user, err := a.Service.LogIn(r.Context(), ports.LoginCmd{Handle: body.Username, Secret: body.Password})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, sessionResponse{User: user, State: a.Service.State().String()})
}

func (a *API) logOut(w http.ResponseWriter, r *http.Request) {
	if err := a.Service.LogOut(r.Context()); err != nil {
		// La session mémoire est fermée quoi qu'il arrive ; seul l'effacement a échoué
		a.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}
	a.respond(w, http.StatusOK, sessionResponse{User: user, State: a.Service.State().String()})
}

func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		Username    string  `json:"username" validate:"required,max=64"`
		DisplayName *string `json:"displayName" validate:"omitnil,max=128"`
		Avatar      *string `json:"avatar" validate:"omitnil,max=2048"`
		Bio         *string `json:"bio" validate:"omitnil,max=512"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	updated, err := a.Service.UpdateHandle(r.Context(), ports.UpdateProfileCmd{
		UserID: user.ID,
		Handle: body.Username,
		Changes: domain.ProfileChanges{
			DisplayName: body.DisplayName,
			Avatar:      body.Avatar,
			Bio:         body.Bio,
		},
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, updated)
}

func (a *API) setPrivacy(w http.ResponseWriter, r *http.Request) {
	user, ok := a.sessionUser(w)
	if !ok {
		return
	}

	var body struct {
		IsPrivate *bool `json:"isPrivate" validate:"required"`
	}
	if !a.decode(w, r, &body) {
		return
	}

	updated, err := a.Service.SetPrivacy(r.Context(), user.ID, *body.IsPrivate)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.respond(w, http.StatusOK, updated)
}

// --- ANNUAIRE ---

func (a *API) searchUsers(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Users []domain.User `json:"users"`
	}

	q := r.URL.Query().Get("q")
	if errs := a.Val.Validate(q, "max=64"); errs != nil {
		for i := range errs {
			errs[i].Field = "q"
		}
		a.respondInvalid(w, errs)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	a.respond(w, http.StatusOK, response{Users: a.Service.SearchUsers(q, limit)})
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	type response struct {
		User        domain.User   `json:"user"`
		Posts       []domain.Post `json:"posts"`
		IsFollowing bool          `json:"isFollowing"`
	}

	user, ok := a.Service.FindByHandle(r.PathValue("handle"))
	if !ok {
		a.fail(w, domain.ErrUserNotFound)
		return
	}

	res := response{User: user, Posts: a.Service.PostsBy(user.ID)}
	if viewer, ok := a.Service.CurrentUser(); ok {
		res.IsFollowing = a.Service.IsFollowing(viewer.ID, user.ID)
	}
	a.respond(w, http.StatusOK, res)
}

type followResponse struct {
	Following bool `json:"following"`
}

func (a *API) follow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := a.sessionUser(w)
	if !ok {
		return
	}

	target, ok := a.Service.FindByID(r.PathValue("id"))
	if !ok {
		a.fail(w, domain.ErrUserNotFound)
		return
	}

	a.Service.Follow(r.Context(), viewer.ID, target.ID)
	a.respond(w, http.StatusOK, followResponse{Following: true})
}

func (a *API) unfollow(w http.ResponseWriter, r *http.Request) {
	viewer, ok := a.sessionUser(w)
	if !ok {
		return
	}

	a.Service.Unfollow(r.Context(), viewer.ID, r.PathValue("id"))
	a.respond(w, http.StatusOK, followResponse{Following: false})
}
