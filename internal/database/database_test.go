package database_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/blogstack/internal/database"
	"github.com/isdelr/blogstack/internal/database/dbtest"
)

func TestMigrateRunsStatementsInOrder(t *testing.T) {
	for _, driver := range []string{database.DriverSQLite, database.DriverMySQL} {
		t.Run(driver, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
			require.NoError(t, err)
			defer db.Close()

			stmts, err := database.Statements(driver)
			require.NoError(t, err)
			for _, stmt := range stmts {
				mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
			}

			require.NoError(t, database.Migrate(context.Background(), db, driver))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMigrateStopsOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(".*").WillReturnError(errors.New("disk full"))

	err = database.Migrate(context.Background(), db, database.DriverSQLite)
	assert.ErrorContains(t, err, "migration step 1 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, database.Migrate(context.Background(), db, "oracle"))
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	assert.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
}

func TestForeignKeysCascade(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now().UTC()

	_, err := db.Exec(`INSERT INTO users (username, email, password_hash, created_at) VALUES ('ann', 'ann@x.io', 'h', ?)`, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO posts (title, content, user_id, created_at, updated_at) VALUES ('t', 'c', 1, ?, ?)`, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO comments (content, post_id, user_id, created_at) VALUES ('hi', 1, 1, ?)`, now)
	require.NoError(t, err)

	_, err = db.Exec(`DELETE FROM posts WHERE id = 1`)
	require.NoError(t, err)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM comments`).Scan(&n))
	assert.Zero(t, n)
}

func TestIsUniqueViolation(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now().UTC()

	insert := `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, 'h', ?)`
	_, err := db.Exec(insert, "ann", "ann@x.io", now)
	require.NoError(t, err)
	_, err = db.Exec(insert, "ann", "other@x.io", now)
	require.Error(t, err)

	assert.True(t, database.IsUniqueViolation(err))
	assert.True(t, database.IsUniqueViolation(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
	assert.False(t, database.IsUniqueViolation(&mysql.MySQLError{Number: 1146}))
	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
	assert.False(t, database.IsUniqueViolation(nil))
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%go!_lang%", database.LikePattern("Go_Lang"))
	assert.Equal(t, "%100!%%", database.LikePattern("100%"))
	assert.Equal(t, "%a!!b%", database.LikePattern("a!b"))
}

func TestLowerFoldsUnicodeOnSQLite(t *testing.T) {
	db := dbtest.Open(t)

	var folded string
	require.NoError(t, db.QueryRow(`SELECT LOWER(?)`, "ÜBER Kyiv Привіт").Scan(&folded))
	assert.Equal(t, "über kyiv привіт", folded)

	var matched bool
	require.NoError(t, db.QueryRow(`SELECT LOWER(?) LIKE ? ESCAPE '!'`, "Привіт світ", database.LikePattern("ПРИВІТ")).Scan(&matched))
	assert.True(t, matched)

	var null sql.NullString
	require.NoError(t, db.QueryRow(`SELECT LOWER(NULL)`).Scan(&null))
	assert.False(t, null.Valid)
}
