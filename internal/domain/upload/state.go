// Package upload tracks the lifecycle of a single in-flight document upload.
package upload

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clauselens/clauselens/pkg/errors"
)

// Status is the lifecycle state of an upload.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// terminal reports whether a status admits no further transitions.
func (s Status) terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// State is the mutable per-upload record.  It is owned exclusively by the
// analysis service for the file's lifetime and never reused across files.
type State struct {
	mu sync.RWMutex

	id        string
	fileName  string
	status    Status
	progress  int
	errMsg    string
	resultRef string
	createdAt time.Time
	updatedAt time.Time
}

// NewState creates a State in the uploading status with a locally generated
// random identifier.
func NewState(fileName string) *State {
	now := time.Now().UTC()
	return &State{
		id:        uuid.NewString(),
		fileName:  fileName,
		status:    StatusUploading,
		createdAt: now,
		updatedAt: now,
	}
}

// ID returns the upload identifier.
func (s *State) ID() string { return s.id }

// FileName returns the original file name.
func (s *State) FileName() string { return s.fileName }

// Snapshot is an immutable copy of the state for rendering.
type Snapshot struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	ResultRef string    `json:"result_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:        s.id,
		FileName:  s.fileName,
		Status:    s.status,
		Progress:  s.progress,
		Error:     s.errMsg,
		ResultRef: s.resultRef,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

// validNext enumerates the legal transitions: uploading to processing to
// (completed | error); uploading may also fail directly.
var validNext = map[Status][]Status{
	StatusUploading:  {StatusProcessing, StatusError},
	StatusProcessing: {StatusCompleted, StatusError},
}

// transition moves the state to next, or returns a conflict error for an
// illegal move.  Terminal states are final.
func (s *State) transition(next Status) error {
	if s.status.terminal() {
		return errors.Conflict("upload already finished").
			WithDetail("id=" + s.id + " status=" + string(s.status))
	}
	for _, allowed := range validNext[s.status] {
		if next == allowed {
			s.status = next
			s.updatedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.Conflict("illegal upload status transition").
		WithDetail("from=" + string(s.status) + " to=" + string(next))
}

// MarkProcessing transitions uploading to processing.
func (s *State) MarkProcessing() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StatusProcessing); err != nil {
		return err
	}
	s.progress = 50
	return nil
}

// MarkCompleted transitions to completed and records the opaque analysis
// identifier the caller can fetch the result by.
func (s *State) MarkCompleted(resultRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StatusCompleted); err != nil {
		return err
	}
	s.progress = 100
	s.resultRef = resultRef
	return nil
}

// MarkError transitions to error with a user-presentable message.
func (s *State) MarkError(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StatusError); err != nil {
		return err
	}
	s.errMsg = msg
	return nil
}

// SetProgress updates the progress percentage, clamped to [0,100].
// Progress on a terminal state is ignored.
func (s *State) SetProgress(pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.terminal() {
		return
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	s.progress = pct
	s.updatedAt = time.Now().UTC()
}

// Tracker is a concurrency-safe registry of in-flight upload states, keyed by
// upload ID.  Completed and failed states stay queryable until evicted.
type Tracker struct {
	mu     sync.RWMutex
	states map[string]*State
}

// NewTracker constructs an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[string]*State)}
}

// Add registers a state.
func (t *Tracker) Add(s *State) {
	t.mu.Lock()
	t.states[s.ID()] = s
	t.mu.Unlock()
}

// Get returns the state for id, or a not-found error.
func (t *Tracker) Get(id string) (*State, error) {
	t.mu.RLock()
	s, ok := t.states[id]
	t.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("upload not found").WithDetail("id=" + id)
	}
	return s, nil
}

// Evict removes a state from the registry.
func (t *Tracker) Evict(id string) {
	t.mu.Lock()
	delete(t.states, id)
	t.mu.Unlock()
}
