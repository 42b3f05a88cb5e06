// AngelaMos | 2026
// migrations_test.go

package migrations

import (
	"context"
	"database/sql/driver"
	"io/fs"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/persona-advice/internal/core"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(Source(), "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}

	assert.Equal(t, ups, downs)
}

func TestInitialSchema(t *testing.T) {
	raw, err := fs.ReadFile(Source(), "sql/000001_init.up.sql")
	require.NoError(t, err)
	schema := string(raw)

	for _, table := range []string{
		"users", "roles", "user_roles", "personas", "entities", "advice",
		"tags", "entity_views", "entity_likes", "entity_comments",
		"entity_comment_likes", "entity_tags",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}

	assert.Contains(t, schema, "INSERT INTO personas (name) VALUES ('Unknown')")
	assert.Contains(t, schema, "PRIMARY KEY (user_id, entity_id)")
}

var createTable = regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS (\w+) \((.*?)\n\);`)

func upSchema(t *testing.T) string {
	t.Helper()
	entries, err := fs.ReadDir(Source(), "sql")
	require.NoError(t, err)

	var b strings.Builder
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		raw, err := fs.ReadFile(Source(), "sql/"+e.Name())
		require.NoError(t, err)
		b.Write(raw)
		b.WriteByte('\n')
	}
	return b.String()
}

func TestDeletingUserCascadesToTheirRows(t *testing.T) {
	schema := upSchema(t)

	tables := map[string]string{}
	for _, m := range createTable.FindAllStringSubmatch(schema, -1) {
		tables[m[1]] = m[2]
	}

	var owning []string
	for name, body := range tables {
		if strings.Contains(body, "REFERENCES users") {
			owning = append(owning, name)
		}
	}
	assert.ElementsMatch(t, []string{
		"user_roles", "entity_views", "entity_likes", "entity_comments",
		"entity_comment_likes", "entity_tags",
	}, owning)

	for _, name := range owning {
		assert.Regexp(t,
			`(?m)^\s*user_id\s+BIGINT\s+NOT NULL REFERENCES users \(user_id\) ON DELETE CASCADE,?$`,
			tables[name], name)
	}

	refs := regexp.MustCompile(`REFERENCES users \(user_id\)( ON DELETE CASCADE)?`).
		FindAllStringSubmatch(schema, -1)
	require.Len(t, refs, len(owning))
	for _, ref := range refs {
		assert.NotEmpty(t, ref[1], "user reference without cascade")
	}
}

func TestContentSurvivesUserDeletion(t *testing.T) {
	schema := upSchema(t)

	for _, m := range createTable.FindAllStringSubmatch(schema, -1) {
		if m[1] == "entities" || m[1] == "advice" {
			assert.NotContains(t, m[2], "REFERENCES users", m[1])
			assert.NotContains(t, m[2], "user_id", m[1])
		}
	}
	assert.NotRegexp(t, `ALTER TABLE (entities|advice)\b[^;]*REFERENCES users`, schema)
}

func TestSourcedSlipIsUnique(t *testing.T) {
	raw, err := fs.ReadFile(Source(), "sql/000002_advice_sourced.up.sql")
	require.NoError(t, err)

	assert.Contains(t, string(raw),
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_advice_sourced_slip\n    ON advice (adviceslip_id) WHERE sourced;")
}

// connector reopens the sqlmock connection registered under dsn, so a second
// pool shares the first one's expectations.
type connector struct {
	dsn string
	drv driver.Driver
}

func (c connector) Connect(context.Context) (driver.Conn, error) {
	return c.drv.Open(c.dsn)
}

func (c connector) Driver() driver.Driver {
	return c.drv
}

func TestCloseLeavesApplicationPoolOpen(t *testing.T) {
	const dsn = "migrations_close_test"
	appDB, mock, err := sqlmock.NewWithDSN(dsn,
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = appDB.Close() })

	db := core.NewDatabaseFromConnector(connector{dsn: dsn, drv: appDB.Driver()}, "pgx")

	mock.ExpectQuery(`SELECT CURRENT_DATABASE()`).
		WillReturnRows(sqlmock.NewRows([]string{"current_database"}).AddRow("advice"))
	mock.ExpectQuery(`SELECT CURRENT_SCHEMA()`).
		WillReturnRows(sqlmock.NewRows([]string{"current_schema"}).AddRow("public"))
	mock.ExpectExec(`SELECT pg_advisory_lock($1)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2 LIMIT 1`).
		WithArgs("public", "schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`SELECT pg_advisory_unlock($1)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	m, err := Open(db)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	require.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, db.DB.Ping())
	assert.NoError(t, appDB.Ping())
}
