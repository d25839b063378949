package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/felo/email-organizer/internal/organizer"
)

// Query is the stored lifecycle state of a session's extraction.
// Result is nil when no result is present.
type Query struct {
	SessionID    string
	State        string
	Result       organizer.Result
	ErrorMessage string
	UpdatedAt    NullTime
}

// SaveQuery replaces the stored query of a session
func (db *DB) SaveQuery(q *Query) error {
	var resultJSON sql.NullString
	if q.Result != nil {
		data, err := json.Marshal(q.Result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		resultJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO queries (session_id, state, result_json, error_message, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			result_json = excluded.result_json,
			error_message = excluded.error_message,
			updated_at = CURRENT_TIMESTAMP
	`, q.SessionID, q.State, resultJSON, q.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to save query: %w", err)
	}
	return nil
}

// GetQuery returns the stored query, or nil when the session has none
func (db *DB) GetQuery(sessionID string) (*Query, error) {
	q := &Query{}
	var resultJSON, errorMessage sql.NullString
	err := db.QueryRow(`
		SELECT session_id, state, result_json, error_message, updated_at
		FROM queries WHERE session_id = ?
	`, sessionID).Scan(&q.SessionID, &q.State, &resultJSON, &errorMessage, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	q.ErrorMessage = errorMessage.String
	if resultJSON.Valid {
		q.Result = organizer.Result{}
		if err := json.Unmarshal([]byte(resultJSON.String), &q.Result); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
	}
	return q, nil
}
