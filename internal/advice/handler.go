// AngelaMos | 2026
// handler.go

package advice

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Handler struct {
	service       *Service
	pagination    config.PaginationConfig
	validator     *validator.Validate
	generateLimit func(http.Handler) http.Handler
}

func NewHandler(service *Service, pagination config.PaginationConfig) *Handler {
	return &Handler{
		service:    service,
		pagination: pagination,
		validator:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// LimitGeneration wraps only the generate route, which is the one that
// spends upstream completion calls.
func (h *Handler) LimitGeneration(mw func(http.Handler) http.Handler) *Handler {
	h.generateLimit = mw
	return h
}

// RegisterRoutes mounts advice routes on a router already scoped to /advice.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Get("/", h.List)
	if h.generateLimit != nil {
		r.With(h.generateLimit).Post("/", h.Generate)
	} else {
		r.Post("/", h.Generate)
	}

	r.Get("/personas", h.ListPersonas)
	r.With(authenticator).Post("/personas", h.CreatePersona)

	r.Get("/{entityID}", h.Get)
	r.With(authenticator).Delete("/{entityID}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParseListParams(r.URL.Query(), h.pagination)
	if err != nil {
		core.Error(w, err)
		return
	}

	items, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.Error(w, err)
		return
	}

	meta := core.NewPaginationMeta(params.Page, params.PerPage, total)
	core.Paginated(w, ToAdviceResponseList(items), meta, pageLinks(r.URL, meta))
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	created, err := h.service.Generate(r.Context(), req)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, ToAdviceResponse(created))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), entityID)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToAdviceResponse(a))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	entityID, ok := parseEntityID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), entityID); err != nil {
		core.Error(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListPersonas(w http.ResponseWriter, r *http.Request) {
	personas, err := h.service.ListPersonas(r.Context())
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, ToPersonaResponseList(personas))
}

func (h *Handler) CreatePersona(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.CreatePersona(r.Context(), req.Name)
	if err != nil {
		core.Error(w, err)
		return
	}

	core.Created(w, PersonaResponse(*p))
}

func parseEntityID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "entityID"), 10, 64)
	if err != nil || id < 1 {
		core.BadRequest(w, "invalid entity id")
		return 0, false
	}
	return id, true
}

// pageLinks rewrites only the page parameter so every filter carries over.
func pageLinks(u *url.URL, meta core.PaginationMeta) *core.PaginationLinks {
	at := func(page int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(meta.PerPage))
		return u.Path + "?" + q.Encode()
	}

	links := &core.PaginationLinks{Self: at(meta.Page)}
	if meta.Page < meta.TotalPages {
		next := at(meta.Page + 1)
		links.Next = &next
	}
	if meta.Page > 1 {
		prev := at(meta.Page - 1)
		links.Prev = &prev
	}
	return links
}
