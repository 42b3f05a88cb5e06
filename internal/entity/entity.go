// AngelaMos | 2026
// entity.go

package entity

import (
	"time"
)

// Kind discriminates the payload table that extends an entity row.
type Kind string

const (
	KindAdvice Kind = "advice"
)

// Entity is the generic subject of views, likes, comments and tags. Each
// concrete payload shares its entity_id as primary key.
type Entity struct {
	ID        int64     `db:"entity_id"`
	Kind      Kind      `db:"type"`
	CreatedOn time.Time `db:"created_on"`
}

type View struct {
	UserID    int64     `db:"user_id"`
	EntityID  int64     `db:"entity_id"`
	CreatedOn time.Time `db:"created_on"`
}

type Like struct {
	UserID    int64     `db:"user_id"`
	EntityID  int64     `db:"entity_id"`
	CreatedOn time.Time `db:"created_on"`
}

type Comment struct {
	ID        int64     `db:"comment_id"`
	EntityID  int64     `db:"entity_id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedOn time.Time `db:"created_on"`
}

type CommentLike struct {
	UserID    int64     `db:"user_id"`
	CommentID int64     `db:"comment_id"`
	EntityID  int64     `db:"entity_id"`
	CreatedOn time.Time `db:"created_on"`
}

type Tag struct {
	ID          int64  `db:"tag_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

// Tagging records which user applied a tag to an entity.
type Tagging struct {
	TagID     int64     `db:"tag_id"`
	EntityID  int64     `db:"entity_id"`
	UserID    int64     `db:"user_id"`
	CreatedOn time.Time `db:"created_on"`
}
