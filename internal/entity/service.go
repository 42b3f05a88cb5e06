// AngelaMos | 2026
// service.go

package entity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

// Service records interactions. Every operation resolves the acting user and
// the target entity first and runs its checks and writes in one transaction.
type Service struct {
	db       core.Transactor
	repo     Repository
	bind     func(core.DBTX) Repository
	cache    *core.Cache
	cacheTTL time.Duration
}

const tagsCacheKey = "tags"

func NewService(db *core.Database) *Service {
	return newService(db, NewRepository(db.DB), NewRepository)
}

func newService(
	db core.Transactor,
	repo Repository,
	bind func(core.DBTX) Repository,
) *Service {
	return &Service{db: db, repo: repo, bind: bind}
}

// WithCache serves the tag catalogue from cache. A nil cache disables it.
func (s *Service) WithCache(cache *core.Cache, ttl time.Duration) *Service {
	s.cache = cache
	s.cacheTTL = ttl
	return s
}

func (s *Service) inTx(ctx context.Context, fn func(repo Repository) error) error {
	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		return fn(s.bind(tx))
	})
	if err == nil || core.IsAppError(err) {
		return err
	}
	if errors.Is(err, core.ErrDuplicateKey) {
		return core.ConflictError("record already exists")
	}
	return core.PersistenceError(err)
}

func resolve(ctx context.Context, repo Repository, userID, entityID int64) error {
	found, err := repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !found {
		return core.NotFoundError(fmt.Sprintf("user %d", userID))
	}

	if _, err := repo.GetEntity(ctx, entityID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError(fmt.Sprintf("entity %d", entityID))
		}
		return err
	}

	return nil
}

func (s *Service) AddView(ctx context.Context, userID, entityID int64) (*View, error) {
	var view *View
	err := s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		seen, err := repo.ViewExists(ctx, userID, entityID)
		if err != nil {
			return err
		}
		if seen {
			return core.ConflictError(fmt.Sprintf(
				"user %d already viewed entity %d", userID, entityID))
		}

		view, err = repo.CreateView(ctx, userID, entityID)
		return err
	})
	return view, err
}

func (s *Service) RemoveView(ctx context.Context, userID, entityID int64) error {
	return s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		if err := repo.DeleteView(ctx, userID, entityID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError(fmt.Sprintf(
					"view of entity %d by user %d", entityID, userID))
			}
			return err
		}
		return nil
	})
}

func (s *Service) AddLike(ctx context.Context, userID, entityID int64) (*Like, error) {
	var like *Like
	err := s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		liked, err := repo.LikeExists(ctx, userID, entityID)
		if err != nil {
			return err
		}
		if liked {
			return core.ConflictError(fmt.Sprintf(
				"user %d already liked entity %d", userID, entityID))
		}

		like, err = repo.CreateLike(ctx, userID, entityID)
		return err
	})
	return like, err
}

func (s *Service) RemoveLike(ctx context.Context, userID, entityID int64) error {
	return s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		if err := repo.DeleteLike(ctx, userID, entityID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError(fmt.Sprintf(
					"like of entity %d by user %d", entityID, userID))
			}
			return err
		}
		return nil
	})
}

func (s *Service) AddComment(
	ctx context.Context,
	userID, entityID int64,
	content string,
) (*Comment, error) {
	comment := &Comment{EntityID: entityID, UserID: userID, Content: content}
	err := s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}
		return repo.CreateComment(ctx, comment)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Service) RemoveComment(ctx context.Context, userID, entityID, commentID int64) error {
	return s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		if err := repo.DeleteComment(ctx, commentID, entityID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError(fmt.Sprintf(
					"comment %d on entity %d", commentID, entityID))
			}
			return err
		}
		return nil
	})
}

func (s *Service) ListComments(ctx context.Context, entityID int64) ([]Comment, error) {
	if _, err := s.repo.GetEntity(ctx, entityID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError(fmt.Sprintf("entity %d", entityID))
		}
		return nil, err
	}
	return s.repo.ListComments(ctx, entityID)
}

func (s *Service) AddCommentLike(
	ctx context.Context,
	userID, entityID, commentID int64,
) (*CommentLike, error) {
	var like *CommentLike
	err := s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		found, err := repo.CommentExists(ctx, commentID, entityID)
		if err != nil {
			return err
		}
		if !found {
			return core.NotFoundError(fmt.Sprintf(
				"comment %d on entity %d", commentID, entityID))
		}

		liked, err := repo.CommentLikeExists(ctx, userID, commentID, entityID)
		if err != nil {
			return err
		}
		if liked {
			return core.ConflictError(fmt.Sprintf(
				"user %d already liked comment %d", userID, commentID))
		}

		like, err = repo.CreateCommentLike(ctx, userID, commentID, entityID)
		return err
	})
	return like, err
}

func (s *Service) RemoveCommentLike(ctx context.Context, userID, entityID, commentID int64) error {
	return s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		if err := repo.DeleteCommentLike(ctx, userID, commentID, entityID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError(fmt.Sprintf(
					"like of comment %d by user %d", commentID, userID))
			}
			return err
		}
		return nil
	})
}

func (s *Service) AddTagging(
	ctx context.Context,
	userID, entityID, tagID int64,
) (*Tagging, error) {
	var tagging *Tagging
	err := s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		found, err := repo.TagExists(ctx, tagID)
		if err != nil {
			return err
		}
		if !found {
			return core.NotFoundError(fmt.Sprintf("tag %d", tagID))
		}

		tagged, err := repo.TaggingExists(ctx, tagID, entityID)
		if err != nil {
			return err
		}
		if tagged {
			return core.ConflictError(fmt.Sprintf(
				"entity %d already tagged with tag %d", entityID, tagID))
		}

		tagging, err = repo.CreateTagging(ctx, tagID, entityID, userID)
		return err
	})
	return tagging, err
}

func (s *Service) RemoveTagging(ctx context.Context, userID, entityID, tagID int64) error {
	return s.inTx(ctx, func(repo Repository) error {
		if err := resolve(ctx, repo, userID, entityID); err != nil {
			return err
		}

		if err := repo.DeleteTagging(ctx, tagID, entityID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.NotFoundError(fmt.Sprintf(
					"tag %d on entity %d", tagID, entityID))
			}
			return err
		}
		return nil
	})
}

func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := s.cache.Remember(ctx, tagsCacheKey, s.cacheTTL, &tags, func() error {
		var err error
		tags, err = s.repo.ListTags(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *Service) CreateTag(ctx context.Context, name, description string) (*Tag, error) {
	tag := &Tag{Name: name, Description: description}
	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		return s.bind(tx).CreateTag(ctx, tag)
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, core.DuplicateError("tag " + name)
		}
		return nil, core.PersistenceError(err)
	}
	s.cache.Invalidate(ctx, tagsCacheKey)
	return tag, nil
}
