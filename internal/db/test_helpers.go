package db

import (
	"testing"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database
func CleanupTestDB(t *testing.T, db *DB) {
	t.Helper()

	if err := db.Close(); err != nil {
		t.Errorf("Failed to close test database: %v", err)
	}
}

// CreateTestSession inserts a session for a fake signed-in user
func CreateTestSession(t *testing.T, db *DB, email string) *Session {
	t.Helper()

	s, err := db.CreateSession(&Session{
		SubjectID:  "sub-" + email,
		Name:       "Test User",
		Email:      email,
		PictureURL: "https://example.com/avatar.png",
	})
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return s
}
