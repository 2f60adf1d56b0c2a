package domain

import (
	"fmt"
	"strings"
	"time"
)

// TurnBriefSnapshot is the flat persistence shape of a turn brief. Stores
// serialize snapshots and rehydrate aggregates from them; pending events are
// never part of a snapshot.
type TurnBriefSnapshot struct {
	ID                string
	EntityID          string
	WorldStateVersion uint64

	Capabilities PerceptionCapabilities
	Awareness    AwarenessState
	Knowledge    []KnowledgeItem

	VisibleSubjects map[string]VisibilityLevel
	KnownThreats    []ThreatRecord

	CreatedAt            time.Time
	UpdatedAt            time.Time
	LastPerceptionUpdate time.Time
	LastWorldUpdate      time.Time

	Version uint64
}

// Snapshot returns the persistence shape of the brief.
func (b *TurnBrief) Snapshot() TurnBriefSnapshot {
	threats := make([]ThreatRecord, 0, len(b.knownThreats))
	for _, record := range b.KnownThreats() {
		threats = append(threats, record)
	}
	return TurnBriefSnapshot{
		ID:                   b.id,
		EntityID:             b.entityID,
		WorldStateVersion:    b.worldStateVersion,
		Capabilities:         b.capabilities,
		Awareness:            b.awareness,
		Knowledge:            b.knowledge.Items(),
		VisibleSubjects:      b.VisibleSubjects(),
		KnownThreats:         threats,
		CreatedAt:            b.createdAt,
		UpdatedAt:            b.updatedAt,
		LastPerceptionUpdate: b.lastPerceptionUpdate,
		LastWorldUpdate:      b.lastWorldUpdate,
		Version:              b.version,
	}
}

// RehydrateTurnBrief rebuilds an aggregate from a persisted snapshot,
// revalidating the aggregate invariants. The rebuilt brief records the
// snapshot version as its loaded version for the concurrency check on save.
func RehydrateTurnBrief(snapshot TurnBriefSnapshot, now func() time.Time, idGenerator func() (string, error)) (*TurnBrief, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = NewID
	}

	if strings.TrimSpace(snapshot.ID) == "" {
		return nil, ErrEmptyTurnBriefID
	}
	if strings.TrimSpace(snapshot.EntityID) == "" {
		return nil, ErrEmptyEntityID
	}
	if len(snapshot.Capabilities.ranges) == 0 {
		return nil, ErrNoPerceptionRanges
	}
	if !snapshot.Awareness.Focus().Mode.IsValid() || !snapshot.Awareness.CurrentAlertness().IsValid() {
		return nil, ErrInvalidAwarenessState
	}
	if snapshot.Version < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, snapshot.Version)
	}
	if snapshot.UpdatedAt.Before(snapshot.CreatedAt) || snapshot.LastWorldUpdate.Before(snapshot.CreatedAt) {
		return nil, ErrInvalidTimestamps
	}

	visible := make(map[string]VisibilityLevel, len(snapshot.VisibleSubjects))
	for subject, level := range snapshot.VisibleSubjects {
		if !level.IsValid() || level == VisibilityInvisible {
			return nil, fmt.Errorf("%w: %s=%d", ErrInvalidVisibility, subject, level)
		}
		visible[subject] = level
	}
	threats := make(map[string]ThreatRecord, len(snapshot.KnownThreats))
	for _, record := range snapshot.KnownThreats {
		threats[record.Subject] = record
	}

	return &TurnBrief{
		id:                   snapshot.ID,
		entityID:             snapshot.EntityID,
		worldStateVersion:    snapshot.WorldStateVersion,
		capabilities:         snapshot.Capabilities,
		awareness:            snapshot.Awareness,
		knowledge:            KnowledgeBaseFromItems(snapshot.Knowledge),
		visibleSubjects:      visible,
		knownThreats:         threats,
		createdAt:            snapshot.CreatedAt.UTC(),
		updatedAt:            snapshot.UpdatedAt.UTC(),
		lastPerceptionUpdate: snapshot.LastPerceptionUpdate.UTC(),
		lastWorldUpdate:      snapshot.LastWorldUpdate.UTC(),
		version:              snapshot.Version,
		persistedVersion:     snapshot.Version,
		clock:                now,
		newID:                idGenerator,
	}, nil
}
