// Package storage defines the persistence ports for turn briefs and their
// event journal. Adapters live in the sqlite and memory subpackages.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/event"
)

var (
	// ErrNotFound indicates no turn brief matches the lookup.
	ErrNotFound = errors.New("turn brief not found")
	// ErrVersionConflict indicates the stored version advanced since the
	// aggregate was loaded. The caller must reload, recompute, and retry;
	// conflicting saves are never merged.
	ErrVersionConflict = errors.New("turn brief version conflict")
)

// TurnBriefStore loads and saves turn brief aggregates with optimistic
// concurrency. Save compares the brief's loaded version against storage: a
// brief that has never been persisted is inserted, otherwise the update
// applies only when the stored version still matches, failing with
// ErrVersionConflict when it does not. Successful saves mark the brief as
// persisted at its current version.
type TurnBriefStore interface {
	// Get loads a brief by its identity.
	Get(ctx context.Context, id string) (*domain.TurnBrief, error)
	// GetByEntity loads the brief owned by an entity.
	GetByEntity(ctx context.Context, entityID string) (*domain.TurnBrief, error)
	// Save persists the brief, enforcing the version check described above.
	Save(ctx context.Context, brief *domain.TurnBrief) error
	// Delete removes a brief, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteStale removes briefs not updated since the cutoff, returning
	// how many were removed. Used for batch cleanup of expired briefs.
	DeleteStale(ctx context.Context, updatedBefore time.Time) (int, error)
}

// EventJournal appends drained domain events and reads them back per
// entity. Events read from a journal carry their payload as raw JSON
// (json.RawMessage) rather than the typed payload struct.
type EventJournal interface {
	// Append records events in order. Called after a successful save with
	// the events drained from the aggregate.
	Append(ctx context.Context, events []event.Event) error
	// EventsSince returns an entity's events with aggregate version greater
	// than afterVersion, oldest first.
	EventsSince(ctx context.Context, entityID string, afterVersion uint64) ([]event.Event, error)
}
