package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCreateAndGetSession(t *testing.T) {
	db := openTestDB(t)

	s, err := db.CreateSession("morning work")
	require.NoError(t, err)
	require.NotEmpty(t, s.ID)

	got, err := db.GetSession(s.ID)
	require.NoError(t, err)
	require.Equal(t, "morning work", got.Name)

	_, err = db.GetSession("missing")
	require.ErrorContains(t, err, "not found")
}

func TestRecordAndLoadTurns(t *testing.T) {
	db := openTestDB(t)
	s, err := db.CreateSession("s")
	require.NoError(t, err)

	started := time.Now().Add(-time.Minute)
	completed := time.Now()
	_, err = db.RecordTurn(s.ID, "what is go", "parallel",
		map[string]string{"anthropic": "a language"}, started, &completed)
	require.NoError(t, err)
	_, err = db.RecordTurn(s.ID, "and rust", "consensus",
		map[string]string{"openai": "also a language"}, time.Now(), nil)
	require.NoError(t, err)

	turns, err := db.Turns(s.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)

	require.Equal(t, "what is go", turns[0].Prompt)
	require.Equal(t, "parallel", turns[0].Strategy)
	require.Equal(t, "a language", turns[0].Responses["anthropic"])
	require.NotNil(t, turns[0].CompletedAt)
	require.Nil(t, turns[1].CompletedAt)
}

func TestListSessionsNewestFirst(t *testing.T) {
	db := openTestDB(t)
	first, err := db.CreateSession("first")
	require.NoError(t, err)
	// created_at has nanosecond resolution; a small sleep keeps ordering
	// unambiguous.
	time.Sleep(5 * time.Millisecond)
	second, err := db.CreateSession("second")
	require.NoError(t, err)

	sessions, err := db.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, second.ID, sessions[0].ID)
	require.Equal(t, first.ID, sessions[1].ID)
}

func TestClearSession(t *testing.T) {
	db := openTestDB(t)
	s, err := db.CreateSession("doomed")
	require.NoError(t, err)
	_, err = db.RecordTurn(s.ID, "p", "parallel", nil, time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, db.ClearSession(s.ID))

	_, err = db.GetSession(s.ID)
	require.Error(t, err)
	turns, err := db.Turns(s.ID)
	require.NoError(t, err)
	require.Empty(t, turns)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db1, err := Open(path)
	require.NoError(t, err)
	_, err = db1.CreateSession("keep")
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	// Reopening migrates nothing new and keeps existing data.
	db2, err := Open(path)
	require.NoError(t, err)
	defer db2.Close()
	sessions, err := db2.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
}
