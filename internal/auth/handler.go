// AngelaMos | 2026
// handler.go

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/auth", func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/", h.CreateToken)
	})
}

// CreateToken exchanges already-verified credentials for a fresh token.
func (h *Handler) CreateToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		core.Unauthorized(w, "")
		return
	}

	resp, err := h.service.IssueToken(userID)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, resp)
}
