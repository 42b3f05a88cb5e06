// AngelaMos | 2026
// handler.go

package entity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts interaction routes on r, which the caller has already
// scoped to the content prefix (for example /advice).
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/views", h.AddView)
	r.Delete("/views", h.RemoveView)
	r.Post("/likes", h.AddLike)
	r.Delete("/likes", h.RemoveLike)
	r.Post("/comment", h.AddComment)
	r.Delete("/comment", h.RemoveComment)
	r.Post("/comment/like", h.AddCommentLike)
	r.Delete("/comment/like", h.RemoveCommentLike)
	r.Post("/tag", h.AddTagging)
	r.Delete("/tag", h.RemoveTagging)
	r.Get("/{entityID}/comments", h.ListComments)

	r.Get("/tags", h.ListTags)
	r.With(authenticator).Post("/tags", h.CreateTag)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return false
	}

	return true
}

func (h *Handler) AddView(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	view, err := h.service.AddView(r.Context(), req.UserID, req.EntityID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, InteractionResponse(*view))
}

func (h *Handler) RemoveView(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RemoveView(r.Context(), req.UserID, req.EntityID); err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddLike(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	like, err := h.service.AddLike(r.Context(), req.UserID, req.EntityID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, InteractionResponse(*like))
}

func (h *Handler) RemoveLike(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RemoveLike(r.Context(), req.UserID, req.EntityID); err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if !h.decode(w, r, &req) {
		return
	}

	comment, err := h.service.AddComment(r.Context(), req.UserID, req.EntityID, req.Content)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, CommentResponse(*comment))
}

func (h *Handler) RemoveComment(w http.ResponseWriter, r *http.Request) {
	var req CommentRefRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.RemoveComment(r.Context(), req.UserID, req.EntityID, req.CommentID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	entityID, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || entityID <= 0 {
		core.BadRequest(w, "invalid entity id")
		return
	}

	comments, err := h.service.ListComments(r.Context(), entityID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToCommentResponseList(comments))
}

func (h *Handler) AddCommentLike(w http.ResponseWriter, r *http.Request) {
	var req CommentRefRequest
	if !h.decode(w, r, &req) {
		return
	}

	like, err := h.service.AddCommentLike(r.Context(), req.UserID, req.EntityID, req.CommentID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, CommentLikeResponse(*like))
}

func (h *Handler) RemoveCommentLike(w http.ResponseWriter, r *http.Request) {
	var req CommentRefRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.RemoveCommentLike(r.Context(), req.UserID, req.EntityID, req.CommentID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddTagging(w http.ResponseWriter, r *http.Request) {
	var req TaggingRequest
	if !h.decode(w, r, &req) {
		return
	}

	tagging, err := h.service.AddTagging(r.Context(), req.UserID, req.EntityID, req.TagID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, TaggingResponse(*tagging))
}

func (h *Handler) RemoveTagging(w http.ResponseWriter, r *http.Request) {
	var req TaggingRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.RemoveTagging(r.Context(), req.UserID, req.EntityID, req.TagID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.service.ListTags(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToTagResponseList(tags))
}

func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if !h.decode(w, r, &req) {
		return
	}

	tag, err := h.service.CreateTag(r.Context(), req.Name, req.Description)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, TagResponse(*tag))
}
