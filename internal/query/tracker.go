// Package query runs the Idle → Running → Succeeded/Failed lifecycle of a
// session's extraction and applies deletions to a succeeded result.
package query

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/organizer"
)

// State of a session's query
type State string

const (
	Idle      State = "idle"
	Running   State = "running"
	Succeeded State = "succeeded"
	Failed    State = "failed"
)

var (
	// ErrBusy is returned when a run is requested while one is in flight
	ErrBusy = errors.New("an extraction is already running")
	// ErrNotSucceeded is returned when deleting without a result
	ErrNotSucceeded = errors.New("no organized result to modify")
)

// ExtractFunc is the extraction contract invoked once per Run
type ExtractFunc func(ctx context.Context, text string) (organizer.Result, error)

// Snapshot is the view of a session's query at one point in time
type Snapshot struct {
	State  State
	Result organizer.Result
	Error  string
}

type store interface {
	GetQuery(sessionID string) (*db.Query, error)
	SaveQuery(q *db.Query) error
}

// Tracker serializes state transitions per session
type Tracker struct {
	mu      sync.Mutex
	store   store
	running map[string]bool
}

// NewTracker creates a Tracker backed by store
func NewTracker(store store) *Tracker {
	return &Tracker{
		store:   store,
		running: make(map[string]bool),
	}
}

// Snapshot returns the current query of a session, Idle when it has none
func (t *Tracker) Snapshot(sessionID string) (Snapshot, error) {
	q, err := t.store.GetQuery(sessionID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load query: %w", err)
	}
	if q == nil {
		return Snapshot{State: Idle}, nil
	}
	return Snapshot{State: State(q.State), Result: q.Result, Error: q.ErrorMessage}, nil
}

// Run moves the session to Running, clears the previous result and error,
// invokes extract exactly once and stores the outcome. Empty input is
// rejected before any transition. The returned error is the extraction
// error, if any.
func (t *Tracker) Run(ctx context.Context, sessionID, text string, extract ExtractFunc) error {
	if strings.TrimSpace(text) == "" {
		return organizer.ValidationError(organizer.MsgEmptyInput)
	}

	t.mu.Lock()
	if t.running[sessionID] {
		t.mu.Unlock()
		return ErrBusy
	}
	t.running[sessionID] = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.running, sessionID)
		t.mu.Unlock()
	}()

	if err := t.save(sessionID, Snapshot{State: Running}); err != nil {
		return err
	}

	result, extractErr := extract(ctx, text)
	if extractErr != nil {
		if err := t.save(sessionID, Snapshot{State: Failed, Error: organizer.UserMessage(extractErr)}); err != nil {
			return err
		}
		return extractErr
	}

	if result == nil {
		result = organizer.Result{}
	}
	return t.save(sessionID, Snapshot{State: Succeeded, Result: result})
}

// Delete removes the email displayed at index within the sender's group,
// where display order is the result sorted by order. It is refused while a
// run is in flight, even before Running has been stored.
func (t *Tracker) Delete(sessionID, senderEmail string, index int, order organizer.SortOrder) (organizer.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running[sessionID] {
		return nil, ErrNotSucceeded
	}

	snap, err := t.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}
	if snap.State != Succeeded || snap.Result == nil {
		return nil, ErrNotSucceeded
	}

	next, err := organizer.Delete(organizer.Sort(snap.Result, order), senderEmail, index)
	if err != nil {
		return nil, err
	}
	if err := t.save(sessionID, Snapshot{State: Succeeded, Result: next}); err != nil {
		return nil, err
	}
	return next, nil
}

func (t *Tracker) save(sessionID string, s Snapshot) error {
	err := t.store.SaveQuery(&db.Query{
		SessionID:    sessionID,
		State:        string(s.State),
		Result:       s.Result,
		ErrorMessage: s.Error,
	})
	if err != nil {
		log.Printf("Failed to store query state %s for session: %v", s.State, err)
		return fmt.Errorf("failed to store query state: %w", err)
	}
	return nil
}
