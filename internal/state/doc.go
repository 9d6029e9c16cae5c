// Package state holds the session status shared by the serial reader and the
// UI.
//
// # Overview
//
// The reader goroutine reports lifecycle events and per-line counters through
// the telemetry.StatusSink interface, which Store implements. The UI tick and
// the header read copies with Snapshot.
//
//	Producer (reader loop):         Consumer (UI tick):
//	┌──────────────────────┐       ┌──────────────────┐
//	│ SessionOpened(info)  │       │                  │
//	│ LineParsed(admitted) │──────→│ store.Snapshot() │
//	│ LineRejected()       │(mutex)│       ↓          │
//	│ ReadFailed(err)      │       │ render header    │
//	│ SessionClosed(err)   │       │                  │
//	└──────────────────────┘       └──────────────────┘
//
// # Concurrency Model
//
// Store uses a readers-writer lock. Writers hold it only to bump a counter or
// swap the snapshot; Snapshot holds the read lock for a struct copy.
//
// # Counters
//
//   - Admitted: parsed and queued for display
//   - Filtered: parsed but below the verbosity threshold
//   - Malformed: complete lines that did not match LEVEL,field,...
//   - ReadErrors: recoverable read failures
//
// SessionOpened zeroes every counter. SessionClosed keeps them so the header
// can still show what the last session saw.
//
// # Errors
//
// LastError holds the most recent failure: a failed open, a read error or the
// cause of a session ending on its own. A clean Close leaves it nil. Snapshot
// wraps the error rather than sharing it, and errors.Is still matches the
// original sentinel.
//
// ConsecutiveFailures counts read errors since the last good line; Failing
// reports two or more, which the header shows as FAILING.
//
// # Testing Considerations
//
// The zero value is ready to use:
//
//	store := &state.Store{}
package state
