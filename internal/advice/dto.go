// AngelaMos | 2026
// dto.go

package advice

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/carterperez-dev/persona-advice/internal/config"
	"github.com/carterperez-dev/persona-advice/internal/core"
)

const dateLayout = "2006-01-02"

type GenerateRequest struct {
	PersonaID    int64 `json:"persona_id"     validate:"required,gt=0"`
	GetNewAdvice bool  `json:"get_new_advice"`
}

type CreatePersonaRequest struct {
	Name string `json:"name" validate:"required,min=1,max=64"`
}

type AdviceResponse struct {
	EntityID     int64     `json:"entity_id"`
	PersonaID    int64     `json:"persona_id"`
	PersonaName  string    `json:"persona_name,omitempty"`
	Content      string    `json:"content"`
	AdviceSlipID int       `json:"adviceslip_id"`
	CreatedOn    time.Time `json:"created_on"`
}

type PersonaResponse struct {
	ID        int64     `json:"persona_id"`
	Name      string    `json:"name"`
	CreatedOn time.Time `json:"created_on"`
}

func ToAdviceResponse(a *Advice) AdviceResponse {
	return AdviceResponse{
		EntityID:     a.EntityID,
		PersonaID:    a.PersonaID,
		PersonaName:  a.PersonaName,
		Content:      a.Content,
		AdviceSlipID: a.AdviceSlipID,
		CreatedOn:    a.CreatedOn,
	}
}

func ToAdviceResponseList(items []Advice) []AdviceResponse {
	out := make([]AdviceResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ToAdviceResponse(&a))
	}
	return out
}

func ToPersonaResponseList(personas []Persona) []PersonaResponse {
	out := make([]PersonaResponse, 0, len(personas))
	for _, p := range personas {
		out = append(out, PersonaResponse(p))
	}
	return out
}

// ListParams is an AND of every filter that is set. Date selects the
// half-open day [Date, Date+24h).
type ListParams struct {
	Date           *time.Time
	PersonaID      *int64
	ViewedByUserID *int64
	TaggedWithTag  *int64
	TaggedByUserID *int64
	Page           int
	PerPage        int
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParseListParams reads the listing query string. Malformed values are a
// validation error rather than being ignored.
func ParseListParams(q url.Values, cfg config.PaginationConfig) (ListParams, error) {
	params := ListParams{Page: 1, PerPage: cfg.PerPage}

	if raw := q.Get("date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			return params, core.ValidationError("Invalid date format.",
				"date must be YYYY-MM-DD")
		}
		params.Date = &day
	}

	ids := []struct {
		key string
		dst **int64
	}{
		{"filter_by_persona_id", &params.PersonaID},
		{"viewed_by_user_id", &params.ViewedByUserID},
		{"tagged_with_tag_id", &params.TaggedWithTag},
		{"tagged_by_user_id", &params.TaggedByUserID},
	}
	for _, f := range ids {
		raw := q.Get(f.key)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return params, core.ValidationError("Invalid " + f.key + ".")
		}
		*f.dst = &id
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, core.ValidationError("Invalid page.")
		}
		params.Page = page
	}

	if raw := q.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 {
			return params, core.ValidationError("Invalid per_page.")
		}
		params.PerPage = perPage
	}
	if params.PerPage > cfg.MaxPerPage {
		params.PerPage = cfg.MaxPerPage
	}

	// OFFSET (page-1)*per_page must stay a positive int32.
	if params.Page > math.MaxInt32/params.PerPage {
		return params, core.ValidationError("Invalid page.")
	}

	return params, nil
}
