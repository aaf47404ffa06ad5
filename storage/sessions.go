// Package storage persists conversation sessions so a continuation id
// and its transcript survive process restarts.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"relay/model"
)

// ErrSessionNotFound is returned when a session id has no row.
var ErrSessionNotFound = errors.New("session not found")

// Session is a persisted conversation: the transcript plus whatever the
// provider needs to resume it.
type Session struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Model          string          `json:"model"`
	ContinuationID string          `json:"continuation_id,omitempty"`
	Messages       []model.Message `json:"messages"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SessionMetadata is a lightweight version of Session for listing
type SessionMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionStorage handles session persistence
type SessionStorage struct {
	db *sql.DB
}

// NewSessionStorage opens (creating if needed) the session database
// under dataDir.
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	dbPath := filepath.Join(dataDir, "sessions.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &SessionStorage{db: db}

	if err := storage.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return storage, nil
}

func (s *SessionStorage) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		model TEXT NOT NULL,
		continuation_id TEXT,
		messages TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save inserts or updates a session. A missing ID gets a fresh one.
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	session.UpdatedAt = time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}

	messages, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (id, name, model, continuation_id, messages, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			model = excluded.model,
			continuation_id = excluded.continuation_id,
			messages = excluded.messages,
			updated_at = excluded.updated_at`,
		session.ID, session.Name, session.Model, session.ContinuationID,
		string(messages), session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load returns the session with the given id.
func (s *SessionStorage) Load(id string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT id, name, model, continuation_id, messages, created_at, updated_at
		FROM sessions WHERE id = ?`, id)

	var session Session
	var messages string
	err := row.Scan(&session.ID, &session.Name, &session.Model,
		&session.ContinuationID, &messages, &session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}

	return &session, nil
}

// List returns metadata for all sessions, sorted by update time (newest first)
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	rows, err := s.db.Query(`
		SELECT id, name, model, messages, created_at, updated_at
		FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionMetadata
	for rows.Next() {
		var meta SessionMetadata
		var messages string
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Model, &messages,
			&meta.CreatedAt, &meta.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		var msgs []model.Message
		if err := json.Unmarshal([]byte(messages), &msgs); err == nil {
			meta.MessageCount = len(msgs)
		}
		sessions = append(sessions, meta)
	}

	return sessions, rows.Err()
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SessionStorage) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SessionStorage) Close() error {
	return s.db.Close()
}
