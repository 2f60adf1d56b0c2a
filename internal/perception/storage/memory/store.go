// Package memory provides an in-memory turn brief store and event journal
// with the same optimistic concurrency contract as the sqlite adapter. It is
// intended for tests and ephemeral sessions.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/event"
	"github.com/emberfall/veil/internal/perception/storage"
)

// Store holds turn brief snapshots and journal events behind a mutex.
type Store struct {
	mu       sync.Mutex
	briefs   map[string]domain.TurnBriefSnapshot
	byEntity map[string]string
	events   map[string][]event.Event
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		briefs:   make(map[string]domain.TurnBriefSnapshot),
		byEntity: make(map[string]string),
		events:   make(map[string][]event.Event),
	}
}

// Get loads a turn brief by id.
func (s *Store) Get(_ context.Context, id string) (*domain.TurnBrief, error) {
	s.mu.Lock()
	snapshot, ok := s.briefs[id]
	s.mu.Unlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return domain.RehydrateTurnBrief(snapshot, nil, nil)
}

// GetByEntity loads the turn brief owned by an entity.
func (s *Store) GetByEntity(_ context.Context, entityID string) (*domain.TurnBrief, error) {
	s.mu.Lock()
	id, ok := s.byEntity[entityID]
	var snapshot domain.TurnBriefSnapshot
	if ok {
		snapshot, ok = s.briefs[id]
	}
	s.mu.Unlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return domain.RehydrateTurnBrief(snapshot, nil, nil)
}

// Save persists the brief, inserting when it was never persisted and
// otherwise requiring the stored version to match the loaded version.
func (s *Store) Save(_ context.Context, brief *domain.TurnBrief) error {
	snapshot := brief.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.briefs[snapshot.ID]
	if brief.LoadedVersion() == 0 {
		if exists {
			return storage.ErrVersionConflict
		}
		if _, taken := s.byEntity[snapshot.EntityID]; taken {
			return fmt.Errorf("entity %s already has a turn brief", snapshot.EntityID)
		}
	} else {
		if !exists {
			return storage.ErrNotFound
		}
		if stored.Version != brief.LoadedVersion() {
			return storage.ErrVersionConflict
		}
	}

	s.briefs[snapshot.ID] = snapshot
	s.byEntity[snapshot.EntityID] = snapshot.ID
	brief.MarkSaved()
	return nil
}

// Delete removes a brief and its journal, reporting whether it existed.
func (s *Store) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.briefs[id]
	if !ok {
		return false, nil
	}
	delete(s.briefs, id)
	delete(s.byEntity, snapshot.EntityID)
	delete(s.events, snapshot.EntityID)
	return true, nil
}

// DeleteStale removes briefs not updated since the cutoff.
func (s *Store) DeleteStale(_ context.Context, updatedBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, snapshot := range s.briefs {
		if snapshot.UpdatedAt.Before(updatedBefore) {
			delete(s.briefs, id)
			delete(s.byEntity, snapshot.EntityID)
			delete(s.events, snapshot.EntityID)
			removed++
		}
	}
	return removed, nil
}

// Append records events per entity, normalizing payloads to raw JSON so
// reads behave like the sqlite journal.
func (s *Store) Append(_ context.Context, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}
	normalized := make([]event.Event, 0, len(events))
	for _, evt := range events {
		payloadJSON, err := json.Marshal(evt.Payload)
		if err != nil {
			return fmt.Errorf("marshal event payload %s: %w", evt.Type, err)
		}
		evt.Payload = json.RawMessage(payloadJSON)
		normalized = append(normalized, evt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range normalized {
		s.events[evt.EntityID] = append(s.events[evt.EntityID], evt)
	}
	return nil
}

// EventsSince returns an entity's events with version greater than
// afterVersion, oldest first.
func (s *Store) EventsSince(_ context.Context, entityID string, afterVersion uint64) ([]event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []event.Event
	for _, evt := range s.events[entityID] {
		if evt.Version > afterVersion {
			matched = append(matched, evt)
		}
	}
	return matched, nil
}
