package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runForAllEngines runs fn against every registered engine. An engine that
// cannot open an empty database fails the subtest before fn runs.
func runForAllEngines(t *testing.T, fn func(t *testing.T, e Engine)) {
	require.ElementsMatch(t, []string{NcrucesName, ModerncName}, Names())
	for _, name := range Names() {
		e, err := Lookup(name)
		require.NoError(t, err)
		t.Run(name, func(t *testing.T) {
			db, err := e.Open(context.Background(), nil)
			require.NoError(t, err, "engine %s cannot open a database", name)
			require.NoError(t, db.Close())
			fn(t, e)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		ctx := context.Background()

		db, err := e.Open(ctx, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec(ctx, `CREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`)
		require.NoError(t, err)
		_, err = db.Exec(ctx, `INSERT INTO t (name) VALUES (?), (?)`, "satu", "dua")
		require.NoError(t, err)

		snap, err := db.Snapshot(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, snap)
		assert.Equal(t, "SQLite format 3\x00", string(snap[:16]))

		restored, err := e.Open(ctx, snap)
		require.NoError(t, err)
		defer restored.Close()

		rows, err := restored.Query(ctx, `SELECT id, name FROM t ORDER BY id`)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.EqualValues(t, 1, rows[0]["id"])
		assert.Equal(t, "satu", rows[0]["name"])
		assert.Equal(t, "dua", rows[1]["name"])
	})
}

func TestOpenRejectsGarbage(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		_, err := e.Open(context.Background(), []byte("definitely not a database file"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidSnapshot)
	})
}

func TestQueryEmptyResultIsNotNil(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		ctx := context.Background()
		db, err := e.Open(ctx, nil)
		require.NoError(t, err)
		defer db.Close()

		rows, err := db.Query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})
}

func TestTotalChanges(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		ctx := context.Background()
		db, err := e.Open(ctx, nil)
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec(ctx, `CREATE TABLE t (v TEXT)`)
		require.NoError(t, err)
		before, err := db.TotalChanges(ctx)
		require.NoError(t, err)

		_, err = db.Exec(ctx, `INSERT INTO t (v) VALUES ('x')`)
		require.NoError(t, err)
		after, err := db.TotalChanges(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})
}

func TestOpenSnapshotThenClose(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		ctx := context.Background()

		db, err := e.Open(ctx, nil)
		require.NoError(t, err)
		_, err = db.Exec(ctx, `CREATE TABLE t (v TEXT)`)
		require.NoError(t, err)
		_, err = db.Exec(ctx, `INSERT INTO t (v) VALUES ('a')`)
		require.NoError(t, err)
		snap, err := db.Snapshot(ctx)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		// Restored handles must survive writes, another snapshot and Close.
		for i := 0; i < 3; i++ {
			restored, err := e.Open(ctx, snap)
			require.NoError(t, err)
			_, err = restored.Exec(ctx, `INSERT INTO t (v) VALUES ('b')`)
			require.NoError(t, err)

			var n int
			require.NoError(t, restored.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
			assert.Equal(t, 2, n)

			snap2, err := restored.Snapshot(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, snap2)
			require.NoError(t, restored.Close())
		}
	})
}

func TestMarkTracksWrites(t *testing.T) {
	runForAllEngines(t, func(t *testing.T, e Engine) {
		ctx := context.Background()
		db, err := e.Open(ctx, nil)
		require.NoError(t, err)
		defer db.Close()

		step := func(query string) (before, after Mark) {
			t.Helper()
			before, err := db.Mark(ctx)
			require.NoError(t, err)
			_, err = db.Exec(ctx, query)
			require.NoError(t, err)
			after, err = db.Mark(ctx)
			require.NoError(t, err)
			return before, after
		}

		before, after := step(`CREATE TABLE t (v TEXT)`)
		assert.NotEqual(t, before, after, "DDL")

		before, after = step(`PRAGMA user_version = 7`)
		assert.NotEqual(t, before, after, "user_version")
		assert.EqualValues(t, 7, after.UserVersion)

		before, after = step(`INSERT INTO t (v) VALUES ('x')`)
		assert.NotEqual(t, before, after, "insert")

		before, after = step(`SELECT * FROM t`)
		assert.Equal(t, before, after, "read")

		before, after = step(`DROP TABLE t`)
		assert.NotEqual(t, before, after, "drop")
	})
}
