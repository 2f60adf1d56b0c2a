// Package event defines the domain events a turn brief emits when it
// mutates. Events accumulate on the aggregate and are drained by the caller
// after a successful save, then forwarded to the event sink.
package event

import (
	"strings"
	"time"
)

// Type identifies the kind of a perception domain event.
type Type string

// Turn brief lifecycle events.
const (
	// TypeTurnBriefCreated records the creation of a turn brief.
	TypeTurnBriefCreated Type = "turnbrief.created"
	// TypeTurnBriefUpdated records any mutation of a turn brief.
	TypeTurnBriefUpdated Type = "turnbrief.updated"
)

// Perception events.
const (
	// TypePerceptionRangeUpdated records a change to one sense's range.
	TypePerceptionRangeUpdated Type = "perception.range_updated"
	// TypeNewPerceptionAcquired records a subject newly perceived.
	TypeNewPerceptionAcquired Type = "perception.acquired"
	// TypeFogOfWarUpdated records a batch visibility update.
	TypeFogOfWarUpdated Type = "perception.fog_updated"
)

// Awareness events.
const (
	// TypeAlertnessChanged records a change in current alertness.
	TypeAlertnessChanged Type = "awareness.alertness_changed"
	// TypeAttentionFocusChanged records a change in attention focus.
	TypeAttentionFocusChanged Type = "awareness.focus_changed"
)

// Knowledge events.
const (
	// TypeKnowledgeRevealed records a subject's first piece of knowledge.
	TypeKnowledgeRevealed Type = "knowledge.revealed"
	// TypeKnowledgeUpdated records knowledge added about a known subject.
	TypeKnowledgeUpdated Type = "knowledge.updated"
)

// Threat events.
const (
	// TypeThreatDetected records a threat entering tracking.
	TypeThreatDetected Type = "threat.detected"
	// TypeThreatLost records tracking on a threat lapsing.
	TypeThreatLost Type = "threat.lost"
)

// Event is one immutable domain event emitted by a turn brief mutation.
type Event struct {
	// ID uniquely identifies the event.
	ID string
	// Type identifies the kind of event.
	Type Type
	// Timestamp is when the event occurred.
	Timestamp time.Time
	// EntityID is the entity whose turn brief emitted the event.
	EntityID string
	// TurnBriefID is the aggregate that emitted the event.
	TurnBriefID string
	// Version is the aggregate version after the mutation, so the journal
	// is totally ordered per brief without a separate sequence.
	Version uint64
	// Payload holds the type-specific payload struct from payload.go.
	Payload any
}

// IsValid reports whether the event type is usable.
func (t Type) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}

// Domain returns the domain prefix of the event type (e.g. "perception").
func (t Type) Domain() string {
	for i, c := range t {
		if c == '.' {
			return string(t[:i])
		}
	}
	return string(t)
}
