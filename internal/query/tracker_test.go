package query

import (
	"context"
	"errors"
	"testing"

	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/organizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTracker(t *testing.T) (*Tracker, string) {
	t.Helper()

	database := db.SetupTestDB(t)
	t.Cleanup(func() { db.CleanupTestDB(t, database) })
	s := db.CreateTestSession(t, database, "user@example.com")

	return NewTracker(database), s.ID
}

func staticResult() organizer.Result {
	return organizer.Result{
		{SenderEmail: "b@y.com", Emails: []organizer.Email{{Subject: "b", Date: "2024-07-10"}}},
		{SenderEmail: "a@x.com", Emails: []organizer.Email{
			{Subject: "a-early", Date: "2024-07-01"},
			{Subject: "a-late", Date: "2024-07-15"},
		}},
	}
}

func returning(result organizer.Result, err error) ExtractFunc {
	return func(context.Context, string) (organizer.Result, error) {
		return result, err
	}
}

// TestSnapshotIdle tests the initial state
func TestSnapshotIdle(t *testing.T) {
	tr, id := setupTracker(t)

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Idle, snap.State)
	assert.Nil(t, snap.Result)
}

// TestRunSucceeded tests Idle → Running → Succeeded
func TestRunSucceeded(t *testing.T) {
	tr, id := setupTracker(t)

	var during Snapshot
	err := tr.Run(context.Background(), id, "emails", func(context.Context, string) (organizer.Result, error) {
		var err error
		during, err = tr.Snapshot(id)
		require.NoError(t, err)
		return staticResult(), nil
	})

	require.NoError(t, err)
	assert.Equal(t, Running, during.State)

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, snap.State)
	assert.Equal(t, staticResult(), snap.Result)
	assert.Empty(t, snap.Error)
}

// TestRunClearsPreviousResult tests that Running starts with nothing
func TestRunClearsPreviousResult(t *testing.T) {
	tr, id := setupTracker(t)
	require.NoError(t, tr.Run(context.Background(), id, "first", returning(staticResult(), nil)))

	var during Snapshot
	failure := organizer.ExtractionFailure(errors.New("response is a JSON object"))
	err := tr.Run(context.Background(), id, "second", func(context.Context, string) (organizer.Result, error) {
		during, _ = tr.Snapshot(id)
		return nil, failure
	})

	assert.ErrorIs(t, err, failure)
	assert.Nil(t, during.Result, "prior result is cleared when a run starts")

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Failed, snap.State)
	assert.Nil(t, snap.Result)
	assert.Equal(t, organizer.MsgCouldNotOrganize, snap.Error)
}

// TestRunEmptyInput tests that validation does not change state
func TestRunEmptyInput(t *testing.T) {
	tr, id := setupTracker(t)
	require.NoError(t, tr.Run(context.Background(), id, "first", returning(staticResult(), nil)))

	called := false
	err := tr.Run(context.Background(), id, "   ", func(context.Context, string) (organizer.Result, error) {
		called = true
		return nil, nil
	})

	assert.Equal(t, organizer.KindValidation, organizer.KindOf(err))
	assert.False(t, called)

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, snap.State)
	assert.NotNil(t, snap.Result)
}

// TestRunBusy tests that a second run is rejected while one is in flight
func TestRunBusy(t *testing.T) {
	tr, id := setupTracker(t)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- tr.Run(context.Background(), id, "slow", func(context.Context, string) (organizer.Result, error) {
			close(started)
			<-release
			return staticResult(), nil
		})
	}()

	<-started
	err := tr.Run(context.Background(), id, "again", returning(nil, nil))
	assert.ErrorIs(t, err, ErrBusy)

	_, err = tr.Delete(id, "a@x.com", 0, organizer.Newest)
	assert.ErrorIs(t, err, ErrNotSucceeded, "no deletion while running")

	close(release)
	require.NoError(t, <-done)

	require.NoError(t, tr.Run(context.Background(), id, "again", returning(organizer.Result{}, nil)))
}

// heldStore pauses the Running save until release is closed
type heldStore struct {
	*db.DB
	saving  chan struct{}
	release chan struct{}
}

func (s *heldStore) SaveQuery(q *db.Query) error {
	if q.State == string(Running) {
		close(s.saving)
		<-s.release
	}
	return s.DB.SaveQuery(q)
}

// TestDeleteRefusedBeforeRunningStored tests the window between claiming a
// run and storing its Running state
func TestDeleteRefusedBeforeRunningStored(t *testing.T) {
	database := db.SetupTestDB(t)
	defer db.CleanupTestDB(t, database)
	s := db.CreateTestSession(t, database, "user@example.com")

	require.NoError(t, NewTracker(database).Run(context.Background(), s.ID, "first", returning(staticResult(), nil)))

	store := &heldStore{DB: database, saving: make(chan struct{}), release: make(chan struct{})}
	tr := NewTracker(store)

	done := make(chan error, 1)
	go func() {
		done <- tr.Run(context.Background(), s.ID, "second", returning(organizer.Result{}, nil))
	}()

	<-store.saving
	_, err := tr.Delete(s.ID, "a@x.com", 0, organizer.Newest)
	assert.ErrorIs(t, err, ErrNotSucceeded)

	close(store.release)
	require.NoError(t, <-done)

	snap, err := tr.Snapshot(s.ID)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, snap.State)
	assert.Empty(t, snap.Result, "second run replaced the result untouched")
}

// TestRunNilResult stores an empty result rather than none
func TestRunNilResult(t *testing.T) {
	tr, id := setupTracker(t)

	require.NoError(t, tr.Run(context.Background(), id, "text", returning(nil, nil)))

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, snap.State)
	assert.NotNil(t, snap.Result)
}

// TestDeleteUsesDisplayOrder tests that the index follows the sorted view
func TestDeleteUsesDisplayOrder(t *testing.T) {
	tr, id := setupTracker(t)
	require.NoError(t, tr.Run(context.Background(), id, "text", returning(staticResult(), nil)))

	next, err := tr.Delete(id, "a@x.com", 0, organizer.Newest)
	require.NoError(t, err)
	require.Len(t, next, 2)
	assert.Equal(t, "a@x.com", next[0].SenderEmail)
	require.Len(t, next[0].Emails, 1)
	assert.Equal(t, "a-early", next[0].Emails[0].Subject, "newest email was at index 0")

	next, err = tr.Delete(id, "b@y.com", 0, organizer.Oldest)
	require.NoError(t, err)
	require.Len(t, next, 1, "empty group is dropped")

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, Succeeded, snap.State)
	assert.Equal(t, next, snap.Result)
}

// TestDeleteErrors covers deleting without a result and out-of-range indexes
func TestDeleteErrors(t *testing.T) {
	tr, id := setupTracker(t)

	_, err := tr.Delete(id, "a@x.com", 0, organizer.Newest)
	assert.ErrorIs(t, err, ErrNotSucceeded)

	require.NoError(t, tr.Run(context.Background(), id, "text", returning(staticResult(), nil)))

	_, err = tr.Delete(id, "a@x.com", 5, organizer.Newest)
	assert.ErrorIs(t, err, organizer.ErrIndexOutOfRange)

	snap, err := tr.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Result.EmailCount(), "failed delete leaves the result alone")
}
