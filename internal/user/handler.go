// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/", h.CreateUser)

		r.With(optionalAuth).Get("/{userID}", h.GetUser)
		r.Get("/{userID}/likes", h.ListLikes)
		r.Get("/{userID}/roles", h.ListRoles)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Put("/{userID}", h.UpdateUser)
			r.Delete("/{userID}", h.DeleteUser)
		})
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToUserResponseList(users))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		msgs := validationMessages(err)
		core.JSONError(w, core.ValidationError(msgs[0], msgs...))
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, ToUserResponse(user, false))
}

// GetUser resolves a numeric path segment as a user id and anything else as
// a username. The email is only included for the user themself.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	ident := chi.URLParam(r, "userID")

	var (
		user *User
		err  error
	)
	if id, parseErr := strconv.ParseInt(ident, 10, 64); parseErr == nil {
		user, err = h.service.GetUser(r.Context(), id)
	} else {
		user, err = h.service.GetUserByUsername(r.Context(), ident)
	}
	if err != nil {
		core.Error(w, err)
		return
	}

	callerID, _ := middleware.GetUserID(r.Context())
	core.OK(w, ToUserResponse(user, callerID == user.ID))
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		msgs := validationMessages(err)
		core.JSONError(w, core.ValidationError(msgs[0], msgs...))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToUserResponse(user, true))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListLikes(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	likes, err := h.service.ListLikedEntities(r.Context(), id)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToLikedEntityResponseList(likes))
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	roles, err := h.service.ListRoles(r.Context(), id)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToRoleResponseList(roles))
}

// ownUserID parses the path id and requires it to be the caller's own.
// Acting on another account is an authentication failure, not a 403.
func (h *Handler) ownUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := parseUserID(w, r)
	if !ok {
		return 0, false
	}

	callerID, authed := middleware.GetUserID(r.Context())
	if !authed || callerID != id {
		core.Unauthorized(w, "")
		return 0, false
	}

	return id, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		core.BadRequest(w, "invalid user id")
		return 0, false
	}
	return id, true
}
