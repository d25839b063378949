package db

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a session id is unknown
var ErrSessionNotFound = errors.New("session not found")

// Session is a signed-in browser session and its display profile
type Session struct {
	ID         string
	SubjectID  string
	Name       string
	Email      string
	PictureURL string
	SortOrder  string
	CreatedAt  NullTime
}

// CreateSession stores a new session and returns it with a fresh id
func (db *DB) CreateSession(s *Session) (*Session, error) {
	if s.SubjectID == "" {
		return nil, fmt.Errorf("session subject id is required")
	}

	created := *s
	created.ID = uuid.NewString()
	if created.SortOrder == "" {
		created.SortOrder = "newest"
	}

	_, err := db.Exec(`
		INSERT INTO sessions (id, subject_id, name, email, picture_url, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)
	`, created.ID, created.SubjectID, created.Name, created.Email, created.PictureURL, created.SortOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return db.GetSession(created.ID)
}

// GetSession loads a session by id
func (db *DB) GetSession(id string) (*Session, error) {
	s := &Session{}
	err := db.QueryRow(`
		SELECT id, subject_id, name, email, picture_url, sort_order, created_at
		FROM sessions WHERE id = ?
	`, id).Scan(&s.ID, &s.SubjectID, &s.Name, &s.Email, &s.PictureURL, &s.SortOrder, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// SetSortOrder stores the display order chosen for a session
func (db *DB) SetSortOrder(id, order string) error {
	res, err := db.Exec("UPDATE sessions SET sort_order = ? WHERE id = ?", order, id)
	if err != nil {
		return fmt.Errorf("failed to set sort order: %w", err)
	}
	return requireRow(res)
}

// DeleteSession removes the session; its query goes with it
func (db *DB) DeleteSession(id string) error {
	if _, err := db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CountSessions returns the number of live sessions
func (db *DB) CountSessions() (int, error) {
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
