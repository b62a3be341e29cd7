package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one named conversation.
type Session struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Turn is one coordination exchange inside a session.
type Turn struct {
	ID          int64
	SessionID   string
	Prompt      string
	Strategy    string
	Responses   map[string]string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// CreateSession inserts a new session and returns it.
func (db *DB) CreateSession(name string) (*Session, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	s := &Session{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}
	_, err := db.conn.Exec(
		"INSERT INTO sessions (id, name, created_at) VALUES (?, ?, ?)",
		s.ID, s.Name, formatTime(s.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// GetSession loads a session by ID.
func (db *DB) GetSession(id string) (*Session, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var s Session
	var created string
	err := db.conn.QueryRow(
		"SELECT id, name, created_at FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.Name, &created)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %q not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.CreatedAt, _ = parseTime(created)
	return &s, nil
}

// ListSessions returns all sessions, newest first.
func (db *DB) ListSessions() ([]Session, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query("SELECT id, name, created_at FROM sessions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var created string
		if err := rows.Scan(&s.ID, &s.Name, &created); err != nil {
			return nil, err
		}
		s.CreatedAt, _ = parseTime(created)
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// RecordTurn appends one exchange to a session. History is append-only;
// turns are never updated after completion.
func (db *DB) RecordTurn(sessionID, prompt, strategy string, responses map[string]string, startedAt time.Time, completedAt *time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	encoded, err := json.Marshal(responses)
	if err != nil {
		return 0, fmt.Errorf("encode responses: %w", err)
	}

	var completed any
	if completedAt != nil {
		completed = formatTime(*completedAt)
	}

	res, err := db.conn.Exec(
		"INSERT INTO turns (session_id, prompt, strategy, responses, started_at, completed_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, prompt, strategy, string(encoded), formatTime(startedAt), completed,
	)
	if err != nil {
		return 0, fmt.Errorf("record turn: %w", err)
	}
	return res.LastInsertId()
}

// Turns returns a session's exchanges in insertion order.
func (db *DB) Turns(sessionID string) ([]Turn, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.Query(
		"SELECT id, session_id, prompt, strategy, responses, started_at, completed_at FROM turns WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var responses, started string
		var completed sql.NullString
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Prompt, &t.Strategy, &responses, &started, &completed); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(responses), &t.Responses); err != nil {
			return nil, fmt.Errorf("decode responses for turn %d: %w", t.ID, err)
		}
		t.StartedAt, _ = parseTime(started)
		if completed.Valid {
			if ts, err := parseTime(completed.String); err == nil {
				t.CompletedAt = &ts
			}
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// ClearSession removes a session and its turns. This is the only delete in
// the store.
func (db *DB) ClearSession(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, err := db.conn.Exec("DELETE FROM turns WHERE session_id = ?", id); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}
	if _, err := db.conn.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
