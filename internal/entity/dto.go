// AngelaMos | 2026
// dto.go

package entity

import (
	"time"
)

type InteractionRequest struct {
	UserID   int64 `json:"user_id"   validate:"required,gt=0"`
	EntityID int64 `json:"entity_id" validate:"required,gt=0"`
}

type CreateCommentRequest struct {
	UserID   int64  `json:"user_id"   validate:"required,gt=0"`
	EntityID int64  `json:"entity_id" validate:"required,gt=0"`
	Content  string `json:"content"   validate:"required,max=2000"`
}

type CommentRefRequest struct {
	UserID    int64 `json:"user_id"    validate:"required,gt=0"`
	EntityID  int64 `json:"entity_id"  validate:"required,gt=0"`
	CommentID int64 `json:"comment_id" validate:"required,gt=0"`
}

type TaggingRequest struct {
	UserID   int64 `json:"user_id"   validate:"required,gt=0"`
	EntityID int64 `json:"entity_id" validate:"required,gt=0"`
	TagID    int64 `json:"tag_id"    validate:"required,gt=0"`
}

type CreateTagRequest struct {
	Name        string `json:"name"        validate:"required,min=1,max=64"`
	Description string `json:"description" validate:"max=500"`
}

type InteractionResponse struct {
	UserID    int64     `json:"user_id"`
	EntityID  int64     `json:"entity_id"`
	CreatedOn time.Time `json:"created_on"`
}

type CommentResponse struct {
	ID        int64     `json:"comment_id"`
	EntityID  int64     `json:"entity_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedOn time.Time `json:"created_on"`
}

type CommentLikeResponse struct {
	UserID    int64     `json:"user_id"`
	CommentID int64     `json:"comment_id"`
	EntityID  int64     `json:"entity_id"`
	CreatedOn time.Time `json:"created_on"`
}

type TagResponse struct {
	ID          int64  `json:"tag_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type TaggingResponse struct {
	TagID     int64     `json:"tag_id"`
	EntityID  int64     `json:"entity_id"`
	UserID    int64     `json:"user_id"`
	CreatedOn time.Time `json:"created_on"`
}

func ToCommentResponseList(comments []Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse(c))
	}
	return out
}

func ToTagResponseList(tags []Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagResponse(t))
	}
	return out
}
