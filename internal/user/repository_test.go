// AngelaMos | 2026
// repository_test.go

package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("jane_doe", "jane@example.com", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_on"}).AddRow(int64(5), now))

	u := &User{Username: "jane_doe", Email: "jane@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, int64(5), u.ID)
	assert.Equal(t, now, u.CreatedOn)
}

func TestRepositoryCreateDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Create(context.Background(), &User{Username: "a", Email: "b", PasswordHash: "c"})
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT user_id, username, email, password_hash, created_on\s+FROM users\s+WHERE user_id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryGetByUsername(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`WHERE username = \$1`).
		WithArgs("jane_doe").
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "username", "email", "password_hash", "created_on",
		}).AddRow(int64(1), "jane_doe", "jane@example.com", "hash", now))

	u, err := repo.GetByUsername(context.Background(), "jane_doe")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "jane@example.com", u.Email)
}

func TestRepositoryTakenChecksExcludeRecord(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE username = \$1 AND user_id <> \$2\)`).
		WithArgs("jane_doe", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1 AND user_id <> \$2\)`).
		WithArgs("jane@example.com", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.UsernameTaken(context.Background(), "jane_doe", 3)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = repo.EmailTaken(context.Background(), "jane@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM users WHERE user_id = \$1`).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 2))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), core.ErrNotFound)
}

func TestRepositoryRoles(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectExec(`INSERT INTO user_roles \(user_id, role_id\)\s+SELECT \$1, role_id FROM roles WHERE name = \$2`).
		WithArgs(int64(4), RoleUser).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`FROM user_roles ur\s+JOIN roles r`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"role_id", "name", "description", "assigned_on"}).
			AddRow(int64(1), "user", "Registered user", now))
	mock.ExpectQuery(`SELECT EXISTS\(`).
		WithArgs(int64(4), RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	ctx := context.Background()
	require.NoError(t, repo.AssignRole(ctx, 4, RoleUser))

	roles, err := repo.ListRoles(ctx, 4)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "user", roles[0].Name)

	isAdmin, err := repo.HasRole(ctx, 4, RoleAdmin)
	require.NoError(t, err)
	assert.False(t, isAdmin)
}

func TestRepositoryListLikedEntities(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM entity_likes l\s+JOIN entities e`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id", "type", "created_on", "liked_on"}).
			AddRow(int64(10), "advice", now, now).
			AddRow(int64(11), "advice", now, now))

	likes, err := repo.ListLikedEntities(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, likes, 2)
	assert.Equal(t, "advice", likes[0].EntityType)
}
