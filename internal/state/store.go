package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/obcdbg/internal/telemetry"
)

// Snapshot represents the latest session status available to the UI.
type Snapshot struct {
	Session             telemetry.SessionInfo
	Open                bool
	Admitted            uint64 // parsed and queued
	Filtered            uint64 // parsed but below the verbosity threshold
	Malformed           uint64 // lines that did not match the wire format
	ReadErrors          uint64
	LastError           error
	LastUpdated         time.Time
	ConsecutiveFailures int // read failures since the last good line
}

// Failing returns true when reads have failed repeatedly without a good line
// in between.
func (s Snapshot) Failing() bool {
	return s.ConsecutiveFailures >= 2
}

// Lines returns the total number of complete lines seen this session.
func (s Snapshot) Lines() uint64 {
	return s.Admitted + s.Filtered + s.Malformed
}

// Store coordinates concurrent updates to the snapshot. The reader goroutine
// writes; the UI tick reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// SessionOpened resets the counters for a new session.
func (s *Store) SessionOpened(info telemetry.SessionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = Snapshot{
		Session:     info,
		Open:        true,
		LastUpdated: time.Now(),
	}
}

// SessionClosed marks the session closed. A non-nil err records why the
// session ended on its own; counters are kept for display.
func (s *Store) SessionClosed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Open = false
	if err != nil {
		s.snapshot.LastError = err
	}
	s.snapshot.LastUpdated = time.Now()
}

// OpenFailed records a failed open attempt without touching counters.
func (s *Store) OpenFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Open = false
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
}

// LineParsed counts a well-formed line.
func (s *Store) LineParsed(admitted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if admitted {
		s.snapshot.Admitted++
	} else {
		s.snapshot.Filtered++
	}
	s.snapshot.ConsecutiveFailures = 0
	s.snapshot.LastUpdated = time.Now()
}

// LineRejected counts a line that did not match the wire format.
func (s *Store) LineRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Malformed++
	s.snapshot.LastUpdated = time.Now()
}

// ReadFailed records a recoverable read error.
func (s *Store) ReadFailed(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.ReadErrors++
	s.snapshot.ConsecutiveFailures++
	s.snapshot.LastError = err
	s.snapshot.LastUpdated = time.Now()
}

// ClearError drops the last recorded error once the user has seen it.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastError = nil
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

var _ telemetry.StatusSink = (*Store)(nil)
