// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]User, error)
	UsernameTaken(ctx context.Context, username string, excludeID int64) (bool, error)
	EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error)
	AssignRole(ctx context.Context, userID int64, role string) error
	ListRoles(ctx context.Context, userID int64) ([]Role, error)
	HasRole(ctx context.Context, userID int64, role string) (bool, error)
	ListLikedEntities(ctx context.Context, userID int64) ([]LikedEntity, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING user_id, created_on`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
	).Scan(&user.ID, &user.CreatedOn)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `
		SELECT user_id, username, email, password_hash, created_on
		FROM users
		WHERE user_id = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}

func (r *repository) GetByUsername(
	ctx context.Context,
	username string,
) (*User, error) {
	query := `
		SELECT user_id, username, email, password_hash, created_on
		FROM users
		WHERE username = $1`

	var user User
	err := r.db.GetContext(ctx, &user, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user by username: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4
		WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
	)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update user: %w", err)
	}

	return core.RequireAffected(result, "update user")
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id int64,
	passwordHash string,
) error {
	query := `UPDATE users SET password_hash = $2 WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return core.RequireAffected(result, "update password")
}

// Delete removes the user; roles and interactions go with it through
// ON DELETE CASCADE. Entities are not owned by users and survive.
func (r *repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	return core.RequireAffected(result, "delete user")
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	query := `
		SELECT user_id, username, email, password_hash, created_on
		FROM users
		ORDER BY user_id`

	var users []User
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *repository) UsernameTaken(
	ctx context.Context,
	username string,
	excludeID int64,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND user_id <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, username, excludeID); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}

	return exists, nil
}

func (r *repository) EmailTaken(
	ctx context.Context,
	email string,
	excludeID int64,
) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND user_id <> $2)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}

	return exists, nil
}

// AssignRole is a no-op when the named role is not defined.
func (r *repository) AssignRole(
	ctx context.Context,
	userID int64,
	role string,
) error {
	query := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT $1, role_id FROM roles WHERE name = $2
		ON CONFLICT (user_id, role_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, role); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}

	return nil
}

func (r *repository) ListRoles(ctx context.Context, userID int64) ([]Role, error) {
	query := `
		SELECT r.role_id, r.name, r.description, ur.created_on AS assigned_on
		FROM user_roles ur
		JOIN roles r ON r.role_id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.role_id`

	var roles []Role
	if err := r.db.SelectContext(ctx, &roles, query, userID); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	return roles, nil
}

func (r *repository) HasRole(
	ctx context.Context,
	userID int64,
	role string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM user_roles ur
			JOIN roles r ON r.role_id = ur.role_id
			WHERE ur.user_id = $1 AND r.name = $2
		)`

	var has bool
	if err := r.db.GetContext(ctx, &has, query, userID, role); err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}

	return has, nil
}

func (r *repository) ListLikedEntities(
	ctx context.Context,
	userID int64,
) ([]LikedEntity, error) {
	query := `
		SELECT e.entity_id, e.type, e.created_on, l.created_on AS liked_on
		FROM entity_likes l
		JOIN entities e ON e.entity_id = l.entity_id
		WHERE l.user_id = $1
		ORDER BY l.created_on DESC`

	var likes []LikedEntity
	if err := r.db.SelectContext(ctx, &likes, query, userID); err != nil {
		return nil, fmt.Errorf("list liked entities: %w", err)
	}

	return likes, nil
}
