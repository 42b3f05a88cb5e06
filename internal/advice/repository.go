// AngelaMos | 2026
// repository.go

package advice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Repository interface {
	PersistedSlipIDs(ctx context.Context) ([]int, error)
	SlipIDsVoicedBy(ctx context.Context, personaID int64) ([]int, error)
	SlipContent(ctx context.Context, slipID int, defaultPersonaID int64) (string, error)
	Create(ctx context.Context, a *Advice) error
	GetByID(ctx context.Context, entityID int64) (*Advice, error)
	List(ctx context.Context, params ListParams) ([]Advice, int, error)

	ListPersonas(ctx context.Context) ([]Persona, error)
	GetPersona(ctx context.Context, id int64) (*Persona, error)
	GetPersonaByName(ctx context.Context, name string) (*Persona, error)
	CreatePersona(ctx context.Context, p *Persona) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) PersistedSlipIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT DISTINCT adviceslip_id FROM advice ORDER BY adviceslip_id`)
	if err != nil {
		return nil, fmt.Errorf("list persisted slip ids: %w", err)
	}
	return ids, nil
}

func (r *repository) SlipIDsVoicedBy(ctx context.Context, personaID int64) ([]int, error) {
	query := `
		SELECT DISTINCT adviceslip_id
		FROM advice
		WHERE persona_id = $1
		ORDER BY adviceslip_id`

	var ids []int
	if err := r.db.SelectContext(ctx, &ids, query, personaID); err != nil {
		return nil, fmt.Errorf("list voiced slip ids: %w", err)
	}
	return ids, nil
}

// SlipContent returns the raw text for a slip, preferring the sourced row,
// then the default persona, over any voiced rewrite.
func (r *repository) SlipContent(
	ctx context.Context,
	slipID int,
	defaultPersonaID int64,
) (string, error) {
	query := `
		SELECT content
		FROM advice
		WHERE adviceslip_id = $1
		ORDER BY sourced DESC, (persona_id = $2) DESC, created_on, entity_id
		LIMIT 1`

	var content string
	err := r.db.GetContext(ctx, &content, query, slipID, defaultPersonaID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get slip content: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get slip content: %w", err)
	}
	return content, nil
}

func (r *repository) Create(ctx context.Context, a *Advice) error {
	query := `
		INSERT INTO advice (entity_id, persona_id, content, adviceslip_id, sourced)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_on`

	err := r.db.QueryRowxContext(ctx, query,
		a.EntityID, a.PersonaID, a.Content, a.AdviceSlipID, a.Sourced,
	).Scan(&a.CreatedOn)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create advice: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create advice: %w", err)
	}
	return nil
}

const selectAdvice = `
	SELECT a.entity_id, a.persona_id, p.name AS persona_name,
	       a.content, a.adviceslip_id, a.created_on
	FROM advice a
	JOIN personas p ON p.persona_id = a.persona_id`

func (r *repository) GetByID(ctx context.Context, entityID int64) (*Advice, error) {
	var a Advice
	err := r.db.GetContext(ctx, &a, selectAdvice+` WHERE a.entity_id = $1`, entityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get advice: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get advice: %w", err)
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, params ListParams) ([]Advice, int, error) {
	conditions := []string{"TRUE"}
	var args []any
	argIdx := 1

	if params.Date != nil {
		conditions = append(conditions, fmt.Sprintf(
			"a.created_on >= $%d AND a.created_on < $%d", argIdx, argIdx+1))
		args = append(args, *params.Date, params.Date.Add(24*time.Hour))
		argIdx += 2
	}

	if params.PersonaID != nil {
		conditions = append(conditions, fmt.Sprintf("a.persona_id = $%d", argIdx))
		args = append(args, *params.PersonaID)
		argIdx++
	}

	if params.ViewedByUserID != nil {
		conditions = append(conditions, fmt.Sprintf(
			"a.entity_id IN (SELECT DISTINCT entity_id FROM entity_views WHERE user_id = $%d)",
			argIdx))
		args = append(args, *params.ViewedByUserID)
		argIdx++
	}

	if params.TaggedWithTag != nil || params.TaggedByUserID != nil {
		var tagged []string
		if params.TaggedWithTag != nil {
			tagged = append(tagged, fmt.Sprintf("tag_id = $%d", argIdx))
			args = append(args, *params.TaggedWithTag)
			argIdx++
		}
		if params.TaggedByUserID != nil {
			tagged = append(tagged, fmt.Sprintf("user_id = $%d", argIdx))
			args = append(args, *params.TaggedByUserID)
			argIdx++
		}
		conditions = append(conditions, fmt.Sprintf(
			"a.entity_id IN (SELECT entity_id FROM entity_tags WHERE %s)",
			strings.Join(tagged, " AND ")))
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM advice a WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count advice: %w", err)
	}

	query := fmt.Sprintf(`%s
		WHERE %s
		ORDER BY a.created_on DESC, a.entity_id DESC
		LIMIT $%d OFFSET $%d`,
		selectAdvice, whereClause, argIdx, argIdx+1)

	args = append(args, params.PerPage, params.Offset())

	var items []Advice
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list advice: %w", err)
	}

	return items, total, nil
}

func (r *repository) ListPersonas(ctx context.Context) ([]Persona, error) {
	var personas []Persona
	err := r.db.SelectContext(ctx, &personas,
		`SELECT persona_id, name, created_on FROM personas ORDER BY persona_id`)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	return personas, nil
}

func (r *repository) GetPersona(ctx context.Context, id int64) (*Persona, error) {
	return r.getPersona(ctx, `WHERE persona_id = $1`, id)
}

func (r *repository) GetPersonaByName(ctx context.Context, name string) (*Persona, error) {
	return r.getPersona(ctx, `WHERE name = $1`, name)
}

func (r *repository) getPersona(ctx context.Context, where string, arg any) (*Persona, error) {
	var p Persona
	err := r.db.GetContext(ctx, &p,
		`SELECT persona_id, name, created_on FROM personas `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get persona: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get persona: %w", err)
	}
	return &p, nil
}

func (r *repository) CreatePersona(ctx context.Context, p *Persona) error {
	query := `
		INSERT INTO personas (name)
		VALUES ($1)
		RETURNING persona_id, created_on`

	err := r.db.QueryRowxContext(ctx, query, p.Name).Scan(&p.ID, &p.CreatedOn)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create persona: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create persona: %w", err)
	}
	return nil
}
