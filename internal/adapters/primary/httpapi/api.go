package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jupiterclapton/echo/internal/adapters/primary/httpapi/validator"
	"github.com/jupiterclapton/echo/internal/core/domain"
	"github.com/jupiterclapton/echo/internal/core/ports"
)

// API expose le store de session en JSON pour le shell UI local.
// Le store ne porte qu'une session : toutes les routes agissent pour son user.
type API struct {
	Logger  *slog.Logger
	Service ports.EchoService
	Val     *validator.Validator

	once sync.Once
	mux  *http.ServeMux
}

func (a *API) setupRoutes() {
	mux := http.NewServeMux()

	// Session
	mux.HandleFunc("POST /auth/signup", a.signUp)
	mux.HandleFunc("POST /auth/login", a.logIn)
	mux.HandleFunc("POST /auth/logout", a.logOut)
	mux.HandleFunc("GET /me", a.me)
	mux.HandleFunc("PUT /me/profile", a.updateProfile)
	mux.HandleFunc("PUT /me/privacy", a.setPrivacy)

	// Annuaire + graphe
	mux.HandleFunc("GET /users/search", a.searchUsers)
	mux.HandleFunc("GET /users/{handle}", a.getUser)
	mux.HandleFunc("POST /users/{id}/follow", a.follow)
	mux.HandleFunc("DELETE /users/{id}/follow", a.unfollow)

	// Contenu
	mux.HandleFunc("GET /feed", a.feed)
	mux.HandleFunc("GET /feed/more", a.loadMore)
	mux.HandleFunc("POST /posts", a.createPost)
	mux.HandleFunc("PATCH /posts/{id}", a.editCaption)
	mux.HandleFunc("POST /posts/{id}/pulse", a.pulse)
	mux.HandleFunc("POST /posts/{id}/resonate", a.resonate)
	mux.HandleFunc("POST /posts/{id}/comments", a.comment)
	mux.HandleFunc("GET /waves", a.stories)
	mux.HandleFunc("POST /waves", a.createStory)
	mux.HandleFunc("POST /waves/{id}/view", a.viewStory)

	// Notifications
	mux.HandleFunc("GET /notifications", a.notifications)
	mux.HandleFunc("POST /notifications/{id}/read", a.markRead)
	mux.HandleFunc("POST /notifications/read-all", a.markAllRead)

	// Messages directs
	mux.HandleFunc("GET /conversations", a.conversations)
	mux.HandleFunc("POST /conversations", a.openConversation)
	mux.HandleFunc("GET /conversations/{id}/messages", a.readConversation)
	mux.HandleFunc("POST /conversations/{id}/messages", a.sendMessage)

	a.mux = mux
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.once.Do(a.setupRoutes)
	a.Logger.Info("Request received", "method", r.Method, "path", r.URL.Path)
	a.mux.ServeHTTP(w, r)
}

func (a *API) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		a.Logger.Error("Could not encode JSON body", "error", err.Error())
	}
}

func (a *API) respondError(w http.ResponseWriter, status int, err error, msg string) {
	type response struct {
		Error string `json:"error"`
	}
	if status >= http.StatusInternalServerError {
		a.Logger.Error("Request failed", "error", err.Error())
	} else {
		a.Logger.Debug("Request rejected", "status", status, "error", err.Error())
	}
	a.respond(w, status, response{Error: msg})
}

// fail traduit une erreur du store en statut HTTP.
func (a *API) fail(w http.ResponseWriter, err error) {
	var perr *domain.PersistenceError
	switch {
	case errors.Is(err, domain.ErrHandleTaken), errors.Is(err, domain.ErrAlreadyResonated):
		a.respondError(w, http.StatusConflict, err, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPostNotFound),
		errors.Is(err, domain.ErrStoryNotFound),
		errors.Is(err, domain.ErrNotificationNotFound),
		errors.Is(err, domain.ErrConversationNotFound):
		a.respondError(w, http.StatusNotFound, err, err.Error())
	case domain.IsAuthError(err):
		// Même message pour les deux cas : on ne révèle pas si le handle existe
		a.respondError(w, http.StatusUnauthorized, err, "Invalid handle or secret")
	case errors.Is(err, domain.ErrNotLoggedIn), errors.Is(err, domain.ErrInvalidToken):
		a.respondError(w, http.StatusUnauthorized, err, err.Error())
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrNotParticipant):
		a.respondError(w, http.StatusForbidden, err, err.Error())
	case errors.Is(err, domain.ErrInvalidHandle), errors.Is(err, domain.ErrEmptyMessage):
		a.respondError(w, http.StatusBadRequest, err, err.Error())
	case errors.As(err, &perr):
		a.respondError(w, http.StatusInternalServerError, err, "Could not persist changes")
	default:
		a.respondError(w, http.StatusInternalServerError, err, "Internal error")
	}
}

// decode lit et valide le corps. Retourne false si une réponse a déjà été écrite.
func (a *API) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.respondError(w, http.StatusBadRequest, err, "Could not decode request body")
		return false
	}
	return a.validateBody(w, dst)
}

func (a *API) validateBody(w http.ResponseWriter, s any) bool {
	if errs := a.Val.ValidateStruct(s); len(errs) > 0 {
		a.respondInvalid(w, errs)
		return false
	}
	return true
}

func (a *API) respondInvalid(w http.ResponseWriter, errs []validator.ValidationError) {
	type response struct {
		Errors []validator.ValidationError `json:"errors"`
	}
	a.respond(w, http.StatusBadRequest, response{Errors: errs})
}

// sessionUser retourne le user connecté, ou répond 401.
func (a *API) sessionUser(w http.ResponseWriter) (domain.User, bool) {
	user, ok := a.Service.CurrentUser()
	if !ok {
		a.fail(w, domain.ErrNotLoggedIn)
		return domain.User{}, false
	}
	return user, true
}
