// AngelaMos | 2026
// repository.go

package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Repository interface {
	CreateEntity(ctx context.Context, kind Kind) (*Entity, error)
	GetEntity(ctx context.Context, id int64) (*Entity, error)
	DeleteEntity(ctx context.Context, id int64) error
	UserExists(ctx context.Context, userID int64) (bool, error)

	ViewExists(ctx context.Context, userID, entityID int64) (bool, error)
	CreateView(ctx context.Context, userID, entityID int64) (*View, error)
	DeleteView(ctx context.Context, userID, entityID int64) error

	LikeExists(ctx context.Context, userID, entityID int64) (bool, error)
	CreateLike(ctx context.Context, userID, entityID int64) (*Like, error)
	DeleteLike(ctx context.Context, userID, entityID int64) error

	CreateComment(ctx context.Context, c *Comment) error
	CommentExists(ctx context.Context, commentID, entityID int64) (bool, error)
	DeleteComment(ctx context.Context, commentID, entityID int64) error
	ListComments(ctx context.Context, entityID int64) ([]Comment, error)

	CommentLikeExists(ctx context.Context, userID, commentID, entityID int64) (bool, error)
	CreateCommentLike(ctx context.Context, userID, commentID, entityID int64) (*CommentLike, error)
	DeleteCommentLike(ctx context.Context, userID, commentID, entityID int64) error

	TagExists(ctx context.Context, tagID int64) (bool, error)
	TaggingExists(ctx context.Context, tagID, entityID int64) (bool, error)
	CreateTagging(ctx context.Context, tagID, entityID, userID int64) (*Tagging, error)
	DeleteTagging(ctx context.Context, tagID, entityID int64) error

	ListTags(ctx context.Context) ([]Tag, error)
	CreateTag(ctx context.Context, tag *Tag) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) exists(ctx context.Context, op, query string, args ...any) (bool, error) {
	var found bool
	if err := r.db.GetContext(ctx, &found, query, args...); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return found, nil
}

func (r *repository) exec(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return core.RequireAffected(result, op)
}

func insertErr(op string, err error) error {
	if core.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *repository) CreateEntity(ctx context.Context, kind Kind) (*Entity, error) {
	query := `
		INSERT INTO entities (type)
		VALUES ($1)
		RETURNING entity_id, type, created_on`

	var e Entity
	if err := r.db.GetContext(ctx, &e, query, kind); err != nil {
		return nil, fmt.Errorf("create entity: %w", err)
	}
	return &e, nil
}

func (r *repository) GetEntity(ctx context.Context, id int64) (*Entity, error) {
	query := `SELECT entity_id, type, created_on FROM entities WHERE entity_id = $1`

	var e Entity
	err := r.db.GetContext(ctx, &e, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get entity: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entity: %w", err)
	}
	return &e, nil
}

// DeleteEntity cascades to the payload row and every interaction.
func (r *repository) DeleteEntity(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete entity", `DELETE FROM entities WHERE entity_id = $1`, id)
}

func (r *repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	return r.exists(ctx, "check user",
		`SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`, userID)
}

func (r *repository) ViewExists(ctx context.Context, userID, entityID int64) (bool, error) {
	return r.exists(ctx, "check view",
		`SELECT EXISTS(SELECT 1 FROM entity_views WHERE user_id = $1 AND entity_id = $2)`,
		userID, entityID)
}

func (r *repository) CreateView(ctx context.Context, userID, entityID int64) (*View, error) {
	query := `
		INSERT INTO entity_views (user_id, entity_id)
		VALUES ($1, $2)
		RETURNING user_id, entity_id, created_on`

	var v View
	if err := r.db.GetContext(ctx, &v, query, userID, entityID); err != nil {
		return nil, insertErr("create view", err)
	}
	return &v, nil
}

func (r *repository) DeleteView(ctx context.Context, userID, entityID int64) error {
	return r.exec(ctx, "delete view",
		`DELETE FROM entity_views WHERE user_id = $1 AND entity_id = $2`,
		userID, entityID)
}

func (r *repository) LikeExists(ctx context.Context, userID, entityID int64) (bool, error) {
	return r.exists(ctx, "check like",
		`SELECT EXISTS(SELECT 1 FROM entity_likes WHERE user_id = $1 AND entity_id = $2)`,
		userID, entityID)
}

func (r *repository) CreateLike(ctx context.Context, userID, entityID int64) (*Like, error) {
	query := `
		INSERT INTO entity_likes (user_id, entity_id)
		VALUES ($1, $2)
		RETURNING user_id, entity_id, created_on`

	var l Like
	if err := r.db.GetContext(ctx, &l, query, userID, entityID); err != nil {
		return nil, insertErr("create like", err)
	}
	return &l, nil
}

func (r *repository) DeleteLike(ctx context.Context, userID, entityID int64) error {
	return r.exec(ctx, "delete like",
		`DELETE FROM entity_likes WHERE user_id = $1 AND entity_id = $2`,
		userID, entityID)
}

func (r *repository) CreateComment(ctx context.Context, c *Comment) error {
	query := `
		INSERT INTO entity_comments (entity_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING comment_id, created_on`

	err := r.db.QueryRowxContext(ctx, query, c.EntityID, c.UserID, c.Content).
		Scan(&c.ID, &c.CreatedOn)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *repository) CommentExists(ctx context.Context, commentID, entityID int64) (bool, error) {
	return r.exists(ctx, "check comment",
		`SELECT EXISTS(SELECT 1 FROM entity_comments WHERE comment_id = $1 AND entity_id = $2)`,
		commentID, entityID)
}

func (r *repository) DeleteComment(ctx context.Context, commentID, entityID int64) error {
	return r.exec(ctx, "delete comment",
		`DELETE FROM entity_comments WHERE comment_id = $1 AND entity_id = $2`,
		commentID, entityID)
}

func (r *repository) ListComments(ctx context.Context, entityID int64) ([]Comment, error) {
	query := `
		SELECT comment_id, entity_id, user_id, content, created_on
		FROM entity_comments
		WHERE entity_id = $1
		ORDER BY created_on, comment_id`

	var comments []Comment
	if err := r.db.SelectContext(ctx, &comments, query, entityID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (r *repository) CommentLikeExists(
	ctx context.Context,
	userID, commentID, entityID int64,
) (bool, error) {
	return r.exists(ctx, "check comment like",
		`SELECT EXISTS(
			SELECT 1 FROM entity_comment_likes
			WHERE user_id = $1 AND comment_id = $2 AND entity_id = $3
		)`,
		userID, commentID, entityID)
}

func (r *repository) CreateCommentLike(
	ctx context.Context,
	userID, commentID, entityID int64,
) (*CommentLike, error) {
	query := `
		INSERT INTO entity_comment_likes (user_id, comment_id, entity_id)
		VALUES ($1, $2, $3)
		RETURNING user_id, comment_id, entity_id, created_on`

	var cl CommentLike
	if err := r.db.GetContext(ctx, &cl, query, userID, commentID, entityID); err != nil {
		return nil, insertErr("create comment like", err)
	}
	return &cl, nil
}

func (r *repository) DeleteCommentLike(
	ctx context.Context,
	userID, commentID, entityID int64,
) error {
	return r.exec(ctx, "delete comment like",
		`DELETE FROM entity_comment_likes
		WHERE user_id = $1 AND comment_id = $2 AND entity_id = $3`,
		userID, commentID, entityID)
}

func (r *repository) TagExists(ctx context.Context, tagID int64) (bool, error) {
	return r.exists(ctx, "check tag",
		`SELECT EXISTS(SELECT 1 FROM tags WHERE tag_id = $1)`, tagID)
}

func (r *repository) TaggingExists(ctx context.Context, tagID, entityID int64) (bool, error) {
	return r.exists(ctx, "check tagging",
		`SELECT EXISTS(SELECT 1 FROM entity_tags WHERE tag_id = $1 AND entity_id = $2)`,
		tagID, entityID)
}

func (r *repository) CreateTagging(
	ctx context.Context,
	tagID, entityID, userID int64,
) (*Tagging, error) {
	query := `
		INSERT INTO entity_tags (tag_id, entity_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING tag_id, entity_id, user_id, created_on`

	var t Tagging
	if err := r.db.GetContext(ctx, &t, query, tagID, entityID, userID); err != nil {
		return nil, insertErr("create tagging", err)
	}
	return &t, nil
}

func (r *repository) DeleteTagging(ctx context.Context, tagID, entityID int64) error {
	return r.exec(ctx, "delete tagging",
		`DELETE FROM entity_tags WHERE tag_id = $1 AND entity_id = $2`,
		tagID, entityID)
}

func (r *repository) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := r.db.SelectContext(ctx, &tags,
		`SELECT tag_id, name, description FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *repository) CreateTag(ctx context.Context, tag *Tag) error {
	query := `
		INSERT INTO tags (name, description)
		VALUES ($1, $2)
		RETURNING tag_id`

	if err := r.db.GetContext(ctx, &tag.ID, query, tag.Name, tag.Description); err != nil {
		return insertErr("create tag", err)
	}
	return nil
}
