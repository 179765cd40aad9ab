package database_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-zelasli/framework/config"
	"github.com/km-arc/go-zelasli/framework/database"
)

type post struct {
	ID    int64  `db:"id"`
	Title string `db:"title"`
}

func memoryDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Connect(context.Background(), config.DBConfig{Driver: "sqlite", Database: database.Memory}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(context.Background(), `CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func TestConnect_NoDriver(t *testing.T) {
	_, err := database.Connect(context.Background(), config.DBConfig{}, nil)
	assert.ErrorIs(t, err, database.ErrNoDriver)
}

func TestConnect_SqliteFileCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "datastore", "database")
	db, err := database.Connect(context.Background(), config.DBConfig{Driver: "sqlite", Database: "app.db", Path: dir}, nil)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(context.Background(), `CREATE TABLE t (x INTEGER)`)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "app.db"))
	assert.Equal(t, "sqlite", db.DriverName())
	assert.NoError(t, db.Ping(context.Background()))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := database.Connect(context.Background(), config.DBConfig{Driver: "nosuchdriver"}, nil)
	assert.Error(t, err)
}

func TestExecQuerySelectGet(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)

	res, err := db.Exec(ctx, `INSERT INTO posts (title) VALUES (?), (?)`, "first", "second")
	require.NoError(t, err)
	n, _ := res.RowsAffected()
	assert.EqualValues(t, 2, n)

	rows, err := db.Query(ctx, `SELECT id, title FROM posts WHERE title = :title`, map[string]any{"title": "second"})
	require.NoError(t, err)
	var got []post
	for rows.Next() {
		var p post
		require.NoError(t, rows.StructScan(&p))
		got = append(got, p)
	}
	require.NoError(t, rows.Close())
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Title)

	var all []post
	require.NoError(t, db.Select(ctx, &all, `SELECT id, title FROM posts ORDER BY id`, nil))
	assert.Len(t, all, 2)

	var one post
	require.NoError(t, db.Get(ctx, &one, `SELECT id, title FROM posts WHERE id = :id`, map[string]any{"id": all[0].ID}))
	assert.Equal(t, "first", one.Title)
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()
	db := memoryDB(t)

	require.NoError(t, db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO posts (title) VALUES ('kept')`)
		return err
	}))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO posts (title) VALUES ('dropped')`); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var titles []string
	require.NoError(t, db.Select(ctx, &titles, `SELECT title FROM posts`, nil))
	assert.Equal(t, []string{"kept"}, titles)
}

func TestClosed(t *testing.T) {
	db := memoryDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.Exec(context.Background(), `SELECT 1`)
	assert.ErrorIs(t, err, database.ErrNotConnected)
	assert.ErrorIs(t, db.Ping(context.Background()), database.ErrNotConnected)
}
