// AngelaMos | 2026
// repository.go

package admin

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Repository interface {
	ContentStats(ctx context.Context) (*ContentStats, error)
	PersonaUsage(ctx context.Context) ([]PersonaUsage, error)
	TopAdvice(ctx context.Context, limit int) ([]TopAdvice, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) ContentStats(ctx context.Context) (*ContentStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users)                          AS users,
			(SELECT COUNT(*) FROM personas)                       AS personas,
			(SELECT COUNT(*) FROM advice)                         AS advice,
			(SELECT COUNT(DISTINCT adviceslip_id) FROM advice)    AS advice_slips,
			(SELECT COUNT(*) FROM tags)                           AS tags,
			(SELECT COUNT(*) FROM entity_views)                   AS views,
			(SELECT COUNT(*) FROM entity_likes)                   AS likes,
			(SELECT COUNT(*) FROM entity_comments)                AS comments,
			(SELECT COUNT(*) FROM entity_comment_likes)           AS comment_likes,
			(SELECT COUNT(*) FROM entity_tags)                    AS taggings`

	var stats ContentStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("content stats: %w", err)
	}
	return &stats, nil
}

func (r *repository) PersonaUsage(ctx context.Context) ([]PersonaUsage, error) {
	query := `
		SELECT p.persona_id, p.name,
		       COUNT(a.entity_id)                AS advice_count,
		       COUNT(DISTINCT a.adviceslip_id)   AS slip_count,
		       COALESCE(SUM(l.likes), 0)         AS likes
		FROM personas p
		LEFT JOIN advice a ON a.persona_id = p.persona_id
		LEFT JOIN (
			SELECT entity_id, COUNT(*) AS likes
			FROM entity_likes
			GROUP BY entity_id
		) l ON l.entity_id = a.entity_id
		GROUP BY p.persona_id, p.name
		ORDER BY advice_count DESC, p.persona_id`

	var usage []PersonaUsage
	if err := r.db.SelectContext(ctx, &usage, query); err != nil {
		return nil, fmt.Errorf("persona usage: %w", err)
	}
	return usage, nil
}

func (r *repository) TopAdvice(ctx context.Context, limit int) ([]TopAdvice, error) {
	query := `
		SELECT a.entity_id, p.name AS persona_name, a.content,
		       (SELECT COUNT(*) FROM entity_likes l WHERE l.entity_id = a.entity_id) AS likes,
		       (SELECT COUNT(*) FROM entity_views v WHERE v.entity_id = a.entity_id) AS views
		FROM advice a
		JOIN personas p ON p.persona_id = a.persona_id
		ORDER BY likes DESC, views DESC, a.entity_id DESC
		LIMIT $1`

	var top []TopAdvice
	if err := r.db.SelectContext(ctx, &top, query, limit); err != nil {
		return nil, fmt.Errorf("top advice: %w", err)
	}
	return top, nil
}
