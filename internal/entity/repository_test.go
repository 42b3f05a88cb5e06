// AngelaMos | 2026
// repository_test.go

package entity

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

func TestRepositoryCreateEntity(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO entities \(type\)`).
		WithArgs(KindAdvice).
		WillReturnRows(sqlmock.NewRows([]string{"entity_id", "type", "created_on"}).
			AddRow(int64(3), "advice", now))

	e, err := repo.CreateEntity(context.Background(), KindAdvice)
	require.NoError(t, err)
	assert.Equal(t, int64(3), e.ID)
	assert.Equal(t, KindAdvice, e.Kind)
}

func TestRepositoryGetEntityNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`FROM entities WHERE entity_id = \$1`).
		WithArgs(int64(42)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetEntity(context.Background(), 42)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryDeleteEntityMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM entities WHERE entity_id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteEntity(context.Background(), 7)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryViewExists(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM entity_views`).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	seen, err := repo.ViewExists(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestRepositoryCreateLikeDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO entity_likes`).
		WithArgs(int64(1), int64(2)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.CreateLike(context.Background(), 1, 2)
	assert.ErrorIs(t, err, core.ErrDuplicateKey)
}

func TestRepositoryCreateComment(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO entity_comments`).
		WithArgs(int64(2), int64(1), "sound advice").
		WillReturnRows(sqlmock.NewRows([]string{"comment_id", "created_on"}).
			AddRow(int64(11), now))

	c := &Comment{EntityID: 2, UserID: 1, Content: "sound advice"}
	require.NoError(t, repo.CreateComment(context.Background(), c))
	assert.Equal(t, int64(11), c.ID)
	assert.Equal(t, now, c.CreatedOn)
}

func TestRepositoryListComments(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM entity_comments\s+WHERE entity_id = \$1\s+ORDER BY created_on`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{
			"comment_id", "entity_id", "user_id", "content", "created_on",
		}).
			AddRow(int64(1), int64(2), int64(5), "first", now).
			AddRow(int64(2), int64(2), int64(6), "second", now))

	comments, err := repo.ListComments(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[1].Content)
}

func TestRepositoryDeleteTaggingMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`DELETE FROM entity_tags WHERE tag_id = \$1 AND entity_id = \$2`).
		WithArgs(int64(4), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteTagging(context.Background(), 4, 2)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryCreateTag(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO tags \(name, description\)`).
		WithArgs("wholesome", "Kind words").
		WillReturnRows(sqlmock.NewRows([]string{"tag_id"}).AddRow(int64(8)))

	tag := &Tag{Name: "wholesome", Description: "Kind words"}
	require.NoError(t, repo.CreateTag(context.Background(), tag))
	assert.Equal(t, int64(8), tag.ID)
}
