// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/carterperez-dev/persona-advice/internal/auth"
	"github.com/carterperez-dev/persona-advice/internal/core"
	"github.com/carterperez-dev/persona-advice/internal/middleware"
)

type Service struct {
	db   core.Transactor
	repo Repository
	bind func(core.DBTX) Repository
}

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

// Attributes are the user fields subject to the uniqueness check. A nil
// field was not supplied and is skipped.
type Attributes struct {
	Username *string
	Email    *string
	Password *string
}

type ValidationResult struct {
	Valid    bool
	Status   int
	Messages []string
}

func (v ValidationResult) Err() error {
	if v.Valid {
		return nil
	}

	e := core.NewAppError(
		core.ErrInvalidInput,
		strings.Join(v.Messages, " "),
		v.Status,
		"VALIDATION_ERROR",
	)
	if v.Status == http.StatusConflict {
		e.Err = core.ErrDuplicateKey
		e.Code = "DUPLICATE"
	}
	e.Details = v.Messages
	return e
}

// CheckUniqueness rejects empty supplied fields with 400, then username or
// email collisions with any user other than excluding with 409. Every
// violation of the failing kind is reported.
func (s *Service) CheckUniqueness(
	ctx context.Context,
	attrs Attributes,
	excluding *User,
) (ValidationResult, error) {
	fields := []struct {
		name  string
		value *string
	}{
		{"username", attrs.Username},
		{"email", attrs.Email},
		{"password", attrs.Password},
	}

	var empty []string
	for _, f := range fields {
		if f.value != nil && strings.TrimSpace(*f.value) == "" {
			empty = append(empty, fmt.Sprintf("%s must not be empty.", f.name))
		}
	}
	if len(empty) > 0 {
		return ValidationResult{Status: http.StatusBadRequest, Messages: empty}, nil
	}

	var excludeID int64
	if excluding != nil {
		excludeID = excluding.ID
	}

	var taken []string
	if attrs.Username != nil {
		exists, err := s.repo.UsernameTaken(ctx, *attrs.Username, excludeID)
		if err != nil {
			return ValidationResult{}, err
		}
		if exists {
			taken = append(taken, fmt.Sprintf("Username %s already exists.", *attrs.Username))
		}
	}
	if attrs.Email != nil {
		exists, err := s.repo.EmailTaken(ctx, *attrs.Email, excludeID)
		if err != nil {
			return ValidationResult{}, err
		}
		if exists {
			taken = append(taken, fmt.Sprintf("Email %s already exists.", *attrs.Email))
		}
	}
	if len(taken) > 0 {
		return ValidationResult{Status: http.StatusConflict, Messages: taken}, nil
	}

	return ValidationResult{Valid: true, Status: http.StatusOK}, nil
}

func (s *Service) Register(ctx context.Context, req CreateUserRequest) (*User, error) {
	check, err := s.CheckUniqueness(ctx, Attributes{
		Username: &req.Username,
		Email:    &req.Email,
		Password: &req.Password,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("check uniqueness: %w", err)
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}

	err = s.db.InTx(ctx, func(tx core.DBTX) error {
		repo := s.bind(tx)
		if err := repo.Create(ctx, user); err != nil {
			return err
		}
		return repo.AssignRole(ctx, user.ID, RoleUser)
	})
	if err != nil {
		return nil, persistError(err)
	}

	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError(fmt.Sprintf("user %d", id))
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.NotFoundError(fmt.Sprintf("user %s", username))
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id int64,
	req UpdateUserRequest,
) (*User, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	check, err := s.CheckUniqueness(ctx, Attributes(req), user)
	if err != nil {
		return nil, fmt.Errorf("check uniqueness: %w", err)
	}
	if err := check.Err(); err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := core.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	err = s.db.InTx(ctx, func(tx core.DBTX) error {
		return s.bind(tx).Update(ctx, user)
	})
	if err != nil {
		return nil, persistError(err)
	}

	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	err := s.db.InTx(ctx, func(tx core.DBTX) error {
		return s.bind(tx).Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NotFoundError(fmt.Sprintf("user %d", id))
		}
		return persistError(err)
	}
	return nil
}

func (s *Service) ListRoles(ctx context.Context, id int64) ([]Role, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListRoles(ctx, id)
}

func (s *Service) ListLikedEntities(ctx context.Context, id int64) ([]LikedEntity, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListLikedEntities(ctx, id)
}

func (s *Service) HasRole(ctx context.Context, userID int64, role string) (bool, error) {
	return s.repo.HasRole(ctx, userID, role)
}

func (s *Service) GetByID(ctx context.Context, id int64) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *Service) GetByUsername(
	ctx context.Context,
	username string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID int64,
	passwordHash string,
) error {
	return s.db.InTx(ctx, func(tx core.DBTX) error {
		return s.bind(tx).UpdatePassword(ctx, userID, passwordHash)
	})
}

// persistError maps a failed write: a unique violation that slipped past the
// pre-check is still a conflict, anything else surfaces as a server error.
func persistError(err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return core.DuplicateError("username or email")
	}
	return core.PersistenceError(err)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
	}
}

var (
	_ auth.UserProvider      = (*Service)(nil)
	_ middleware.RoleChecker = (*Service)(nil)
)
