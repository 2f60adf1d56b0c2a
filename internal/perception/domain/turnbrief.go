package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emberfall/veil/internal/perception/event"
)

var (
	// ErrEmptyEntityID indicates a turn brief without an owning entity.
	ErrEmptyEntityID = errors.New("entity id is required")
	// ErrEmptyTurnBriefID indicates a turn brief without an identity.
	ErrEmptyTurnBriefID = errors.New("turn brief id is required")
	// ErrInvalidAwarenessState indicates an awareness value that was never
	// built through NewAwarenessState.
	ErrInvalidAwarenessState = errors.New("awareness state is not valid")
	// ErrInvalidTimestamps indicates snapshot timestamps that violate the
	// aggregate's ordering invariants.
	ErrInvalidTimestamps = errors.New("turn brief timestamps are inconsistent")
	// ErrInvalidVersion indicates a snapshot version below one.
	ErrInvalidVersion = errors.New("turn brief version must be at least 1")
	// ErrNegativeDistance indicates a negative perception distance.
	ErrNegativeDistance = errors.New("perception distance must be non-negative")
	// ErrPerceptionInvisible indicates an attempt to record a perception at
	// invisible level; absence from the visible set already means invisible.
	ErrPerceptionInvisible = errors.New("cannot record a perception at invisible level")
	// ErrNilDecayFunc indicates a knowledge decay call without a decay
	// function.
	ErrNilDecayFunc = errors.New("decay function is required")
)

// TurnBrief is the aggregate root holding one entity's subjective view of
// the world: what it can perceive, what it knows, and how alert it is.
//
// A TurnBrief is mutated exclusively through its own methods. Every mutator
// validates first, applies atomically, bumps the version by exactly one, and
// appends the domain events describing the change. A single instance is
// single-writer: load it, operate, save, discard.
type TurnBrief struct {
	id                string
	entityID          string
	worldStateVersion uint64

	capabilities PerceptionCapabilities
	awareness    AwarenessState
	knowledge    KnowledgeBase

	visibleSubjects map[string]VisibilityLevel
	knownThreats    map[string]ThreatRecord

	createdAt            time.Time
	updatedAt            time.Time
	lastPerceptionUpdate time.Time
	lastWorldUpdate      time.Time

	version          uint64
	persistedVersion uint64
	pending          []event.Event

	clock func() time.Time
	newID func() (string, error)
}

// CreateTurnBriefInput describes the fields for creating a turn brief.
type CreateTurnBriefInput struct {
	EntityID          string
	Capabilities      PerceptionCapabilities
	WorldStateVersion uint64
	InitialAlertness  AlertnessLevel
}

// CreateTurnBrief creates a fresh turn brief for an entity, seeding a default
// unfocused awareness state and an empty knowledge base. It emits a
// turnbrief.created event.
func CreateTurnBrief(input CreateTurnBriefInput, now func() time.Time, idGenerator func() (string, error)) (*TurnBrief, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = NewID
	}

	entityID := strings.TrimSpace(input.EntityID)
	if entityID == "" {
		return nil, ErrEmptyEntityID
	}
	if len(input.Capabilities.ranges) == 0 {
		return nil, ErrNoPerceptionRanges
	}
	if !input.InitialAlertness.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAlertness, input.InitialAlertness)
	}
	awareness, err := DefaultAwarenessState(input.InitialAlertness)
	if err != nil {
		return nil, err
	}

	briefID, err := idGenerator()
	if err != nil {
		return nil, fmt.Errorf("generate turn brief id: %w", err)
	}

	createdAt := now().UTC()
	brief := &TurnBrief{
		id:                   briefID,
		entityID:             entityID,
		worldStateVersion:    input.WorldStateVersion,
		capabilities:         input.Capabilities,
		awareness:            awareness,
		knowledge:            NewKnowledgeBase(),
		visibleSubjects:      map[string]VisibilityLevel{},
		knownThreats:         map[string]ThreatRecord{},
		createdAt:            createdAt,
		updatedAt:            createdAt,
		lastPerceptionUpdate: createdAt,
		lastWorldUpdate:      createdAt,
		version:              1,
		clock:                now,
		newID:                idGenerator,
	}

	types := make([]string, 0, len(input.Capabilities.ranges))
	for _, t := range input.Capabilities.PerceptionTypes() {
		types = append(types, string(t))
	}
	created, err := brief.buildEvent(event.TypeTurnBriefCreated, createdAt, 1, event.TurnBriefCreatedPayload{
		EntityID:          entityID,
		WorldStateVersion: input.WorldStateVersion,
		InitialAlertness:  input.InitialAlertness.String(),
		PerceptionTypes:   types,
	})
	if err != nil {
		return nil, err
	}
	brief.pending = append(brief.pending, created)
	return brief, nil
}

// ID returns the turn brief identity.
func (b *TurnBrief) ID() string { return b.id }

// EntityID returns the owning entity.
func (b *TurnBrief) EntityID() string { return b.entityID }

// WorldStateVersion returns the last world snapshot the brief is synced to.
func (b *TurnBrief) WorldStateVersion() uint64 { return b.worldStateVersion }

// Capabilities returns the entity's perception capabilities.
func (b *TurnBrief) Capabilities() PerceptionCapabilities { return b.capabilities }

// Awareness returns the entity's awareness state.
func (b *TurnBrief) Awareness() AwarenessState { return b.awareness }

// Knowledge returns the entity's knowledge base.
func (b *TurnBrief) Knowledge() KnowledgeBase { return b.knowledge }

// Version returns the aggregate version. It increases by exactly one on
// every successful mutation.
func (b *TurnBrief) Version() uint64 { return b.version }

// LoadedVersion returns the version the brief held when loaded from storage,
// or zero for a brief that has never been persisted. The repository uses it
// for the optimistic-concurrency check on save.
func (b *TurnBrief) LoadedVersion() uint64 { return b.persistedVersion }

// MarkSaved records that the current version has been persisted. Called by
// the repository after a successful save.
func (b *TurnBrief) MarkSaved() { b.persistedVersion = b.version }

// CreatedAt returns when the brief was created.
func (b *TurnBrief) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns when the brief last mutated.
func (b *TurnBrief) UpdatedAt() time.Time { return b.updatedAt }

// LastPerceptionUpdate returns when visibility last changed.
func (b *TurnBrief) LastPerceptionUpdate() time.Time { return b.lastPerceptionUpdate }

// LastWorldUpdate returns when the world state version last advanced.
func (b *TurnBrief) LastWorldUpdate() time.Time { return b.lastWorldUpdate }

// VisibleSubjects returns a copy of the subjects the entity can currently
// perceive, keyed by visibility level. Absence means invisible.
func (b *TurnBrief) VisibleSubjects() map[string]VisibilityLevel {
	out := make(map[string]VisibilityLevel, len(b.visibleSubjects))
	for subject, level := range b.visibleSubjects {
		out[subject] = level
	}
	return out
}

// KnownThreats returns a copy of every tracked threat record.
func (b *TurnBrief) KnownThreats() map[string]ThreatRecord {
	out := make(map[string]ThreatRecord, len(b.knownThreats))
	for subject, record := range b.knownThreats {
		out[subject] = record
	}
	return out
}

// UpdatePerceptionCapabilities replaces the entity's perception capabilities.
// A perception.range_updated event is emitted for each sense whose range or
// accuracy changed, including senses gained or lost.
func (b *TurnBrief) UpdatePerceptionCapabilities(capabilities PerceptionCapabilities, reason string) error {
	if len(capabilities.ranges) == 0 {
		return ErrNoPerceptionRanges
	}

	now := b.clock().UTC()
	next := b.version + 1

	union := make(map[PerceptionType]bool, len(b.capabilities.ranges)+len(capabilities.ranges))
	for t := range b.capabilities.ranges {
		union[t] = true
	}
	for t := range capabilities.ranges {
		union[t] = true
	}
	types := make([]PerceptionType, 0, len(union))
	for t := range union {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	var events []event.Event
	for _, t := range types {
		old, hadOld := b.capabilities.ranges[t]
		updated, hasNew := capabilities.ranges[t]
		if hadOld && hasNew && old.EffectiveRange() == updated.EffectiveRange() && old.Accuracy() == updated.Accuracy() {
			continue
		}
		payload := event.PerceptionRangeUpdatedPayload{
			PerceptionType: string(t),
			Reason:         reason,
		}
		if hadOld {
			payload.OldEffectiveRange = old.EffectiveRange()
			payload.OldAccuracy = old.Accuracy()
		}
		if hasNew {
			payload.NewEffectiveRange = updated.EffectiveRange()
			payload.NewAccuracy = updated.Accuracy()
		}
		evt, err := b.buildEvent(event.TypePerceptionRangeUpdated, now, next, payload)
		if err != nil {
			return err
		}
		events = append(events, evt)
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: reason})
	if err != nil {
		return err
	}
	events = append(events, updated)

	b.capabilities = capabilities
	b.commit(now, events)
	return nil
}

// UpdateAwareness replaces the entity's awareness state, emitting
// awareness.alertness_changed and awareness.focus_changed events when those
// aspects actually differ.
func (b *TurnBrief) UpdateAwareness(state AwarenessState) error {
	if !state.Focus().Mode.IsValid() || !state.CurrentAlertness().IsValid() {
		return ErrInvalidAwarenessState
	}

	now := b.clock().UTC()
	next := b.version + 1

	var events []event.Event
	if state.CurrentAlertness() != b.awareness.CurrentAlertness() {
		evt, err := b.buildEvent(event.TypeAlertnessChanged, now, next, event.AlertnessChangedPayload{
			OldAlertness: b.awareness.CurrentAlertness().String(),
			NewAlertness: state.CurrentAlertness().String(),
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
	}
	if state.Focus() != b.awareness.Focus() {
		evt, err := b.buildEvent(event.TypeAttentionFocusChanged, now, next, event.AttentionFocusChangedPayload{
			OldFocus:  string(b.awareness.Focus().Mode),
			NewFocus:  string(state.Focus().Mode),
			OldTarget: b.awareness.Focus().Target,
			NewTarget: state.Focus().Target,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "awareness updated"})
	if err != nil {
		return err
	}
	events = append(events, updated)

	b.awareness = state
	b.commit(now, events)
	return nil
}

// AddPerception records that a subject was perceived through one sense.
// Stored visibility only ever improves: when the subject is already visible,
// the better of the stored and new level is kept.
func (b *TurnBrief) AddPerception(subject string, perceptionType PerceptionType, level VisibilityLevel, distance float64, details string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return ErrEmptySubject
	}
	if !perceptionType.IsValid() {
		return ErrInvalidPerceptionType
	}
	if !level.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidVisibility, level)
	}
	if level == VisibilityInvisible {
		return ErrPerceptionInvisible
	}
	if distance < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDistance, distance)
	}

	now := b.clock().UTC()
	next := b.version + 1

	stored := level
	if existing, ok := b.visibleSubjects[subject]; ok {
		stored = BestVisibility(existing, level)
	}

	acquired, err := b.buildEvent(event.TypeNewPerceptionAcquired, now, next, event.NewPerceptionAcquiredPayload{
		Subject:         subject,
		PerceptionType:  string(perceptionType),
		VisibilityLevel: level.String(),
		Distance:        distance,
		Details:         details,
	})
	if err != nil {
		return err
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "perception acquired"})
	if err != nil {
		return err
	}

	b.visibleSubjects[subject] = stored
	b.lastPerceptionUpdate = now
	b.commit(now, []event.Event{acquired, updated})
	return nil
}

// AddKnowledge appends a knowledge item to the entity's knowledge base. When
// the subject was already known, a knowledge.updated event compares the new
// item against the previously most reliable one; otherwise knowledge.revealed
// marks the subject's first fact.
func (b *TurnBrief) AddKnowledge(item KnowledgeItem, revelationMethod string) error {
	if item.Subject() == "" {
		return ErrEmptySubject
	}

	now := b.clock().UTC()
	next := b.version + 1

	var events []event.Event
	prior, known := b.knowledge.MostReliableKnowledge(item.Subject(), now)
	if known {
		evt, err := b.buildEvent(event.TypeKnowledgeUpdated, now, next, event.KnowledgeUpdatedPayload{
			Subject:          item.Subject(),
			OldInformation:   prior.Information(),
			NewInformation:   item.Information(),
			OldCertainty:     prior.Certainty().String(),
			NewCertainty:     item.Certainty().String(),
			OldReliability:   prior.ReliabilityScore(),
			NewReliability:   item.ReliabilityScore(),
			RevelationMethod: revelationMethod,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
	} else {
		evt, err := b.buildEvent(event.TypeKnowledgeRevealed, now, next, event.KnowledgeRevealedPayload{
			Subject:          item.Subject(),
			Information:      item.Information(),
			KnowledgeType:    string(item.Type()),
			Certainty:        item.Certainty().String(),
			Source:           string(item.Source()),
			Reliability:      item.ReliabilityScore(),
			RevelationMethod: revelationMethod,
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "knowledge added"})
	if err != nil {
		return err
	}
	events = append(events, updated)

	b.knowledge = b.knowledge.AddKnowledge(item)
	b.commit(now, events)
	return nil
}

// DecayKnowledge runs every held item through the decay function and
// replaces the ones it changes, emitting a knowledge.updated event per
// changed item. The decay function returns the decayed item and whether it
// differs from the original. No changed items means no version bump and no
// events.
func (b *TurnBrief) DecayKnowledge(decay func(KnowledgeItem) (KnowledgeItem, bool)) error {
	if decay == nil {
		return ErrNilDecayFunc
	}

	now := b.clock().UTC()
	next := b.version + 1

	items := b.knowledge.Items()
	replaced := make([]KnowledgeItem, 0, len(items))
	var events []event.Event
	changed := false
	for _, item := range items {
		decayed, dropped := decay(item)
		if !dropped {
			replaced = append(replaced, item)
			continue
		}
		evt, err := b.buildEvent(event.TypeKnowledgeUpdated, now, next, event.KnowledgeUpdatedPayload{
			Subject:          item.Subject(),
			OldInformation:   item.Information(),
			NewInformation:   decayed.Information(),
			OldCertainty:     item.Certainty().String(),
			NewCertainty:     decayed.Certainty().String(),
			OldReliability:   item.ReliabilityScore(),
			NewReliability:   decayed.ReliabilityScore(),
			RevelationMethod: "time_decay",
		})
		if err != nil {
			return err
		}
		events = append(events, evt)
		replaced = append(replaced, decayed)
		changed = true
	}
	if !changed {
		return nil
	}

	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "knowledge decayed"})
	if err != nil {
		return err
	}
	events = append(events, updated)

	b.knowledge = KnowledgeBaseFromItems(replaced)
	b.commit(now, events)
	return nil
}

// DetectThreatInput describes a threat detection.
type DetectThreatInput struct {
	Subject           string
	Type              string
	Level             ThreatLevel
	Confidence        float64
	Method            DetectionMethod
	EstimatedDistance *float64
}

// DetectThreat upserts an active threat record for a subject. Re-detecting a
// known threat refreshes its last-seen time and keeps its first-detected
// time.
func (b *TurnBrief) DetectThreat(input DetectThreatInput) error {
	subject := strings.TrimSpace(input.Subject)
	if err := validateThreatInput(subject, input.Type, input.Level, input.Confidence, input.Method, input.EstimatedDistance); err != nil {
		return err
	}

	now := b.clock().UTC()
	next := b.version + 1

	record := ThreatRecord{
		Subject:           subject,
		Type:              input.Type,
		Level:             input.Level,
		Confidence:        input.Confidence,
		Method:            input.Method,
		EstimatedDistance: input.EstimatedDistance,
		FirstDetected:     now,
		LastSeen:          now,
		Status:            ThreatActive,
	}
	if existing, ok := b.knownThreats[subject]; ok {
		record.FirstDetected = existing.FirstDetected
	}

	detected, err := b.buildEvent(event.TypeThreatDetected, now, next, event.ThreatDetectedPayload{
		Subject:           subject,
		ThreatType:        input.Type,
		Level:             string(input.Level),
		Confidence:        input.Confidence,
		DetectionMethod:   string(input.Method),
		EstimatedDistance: input.EstimatedDistance,
	})
	if err != nil {
		return err
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "threat detected"})
	if err != nil {
		return err
	}

	b.knownThreats[subject] = record
	b.commit(now, []event.Event{detected, updated})
	return nil
}

// LoseThreatTracking marks an active threat as lost. Subjects that are not
// tracked, or whose tracking has already lapsed, are a no-op: no version
// bump, no events.
func (b *TurnBrief) LoseThreatTracking(subject, reason string) error {
	record, ok := b.knownThreats[subject]
	if !ok || record.Status == ThreatStatusLost {
		return nil
	}

	now := b.clock().UTC()
	next := b.version + 1

	lost, err := b.buildEvent(event.TypeThreatLost, now, next, event.ThreatLostPayload{
		Subject:           subject,
		ThreatType:        record.Type,
		Reason:            reason,
		LastKnownDistance: record.EstimatedDistance,
	})
	if err != nil {
		return err
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "threat lost"})
	if err != nil {
		return err
	}

	record.Status = ThreatStatusLost
	record.LostAt = &now
	record.LossReason = reason
	b.knownThreats[subject] = record
	b.commit(now, []event.Event{lost, updated})
	return nil
}

// UpdateFogOfWar applies a batch visibility diff. Changes mapped to invisible
// remove the subject from the visible set; every subject in newlyConcealed is
// removed afterward. One perception.fog_updated event covers the union.
func (b *TurnBrief) UpdateFogOfWar(newlyRevealed, newlyConcealed []string, visibilityChanges map[string]VisibilityLevel, reason string) error {
	for subject, level := range visibilityChanges {
		if strings.TrimSpace(subject) == "" {
			return ErrEmptySubject
		}
		if !level.IsValid() {
			return fmt.Errorf("%w: %s=%d", ErrInvalidVisibility, subject, level)
		}
	}

	now := b.clock().UTC()
	next := b.version + 1

	union := make(map[string]bool, len(newlyRevealed)+len(newlyConcealed)+len(visibilityChanges))
	for _, subject := range newlyRevealed {
		union[subject] = true
	}
	for _, subject := range newlyConcealed {
		union[subject] = true
	}
	changes := make(map[string]string, len(visibilityChanges))
	for subject, level := range visibilityChanges {
		union[subject] = true
		changes[subject] = level.String()
	}
	subjects := make([]string, 0, len(union))
	for subject := range union {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	fogUpdated, err := b.buildEvent(event.TypeFogOfWarUpdated, now, next, event.FogOfWarUpdatedPayload{
		NewlyRevealed:     append([]string(nil), newlyRevealed...),
		NewlyConcealed:    append([]string(nil), newlyConcealed...),
		VisibilityChanges: changes,
		Subjects:          subjects,
		Reason:            reason,
	})
	if err != nil {
		return err
	}
	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: reason})
	if err != nil {
		return err
	}

	for subject, level := range visibilityChanges {
		if level == VisibilityInvisible {
			delete(b.visibleSubjects, subject)
			continue
		}
		b.visibleSubjects[subject] = level
	}
	for _, subject := range newlyConcealed {
		delete(b.visibleSubjects, subject)
	}
	b.lastPerceptionUpdate = now
	b.commit(now, []event.Event{fogUpdated, updated})
	return nil
}

// UpdateWorldStateVersion advances the world snapshot the brief is synced
// to. Versions at or below the current one are a no-op.
func (b *TurnBrief) UpdateWorldStateVersion(version uint64) error {
	if version <= b.worldStateVersion {
		return nil
	}

	now := b.clock().UTC()
	next := b.version + 1

	updated, err := b.buildEvent(event.TypeTurnBriefUpdated, now, next, event.TurnBriefUpdatedPayload{Reason: "world state advanced"})
	if err != nil {
		return err
	}

	b.worldStateVersion = version
	b.lastWorldUpdate = now
	b.commit(now, []event.Event{updated})
	return nil
}

// CanPerceiveAtDistance reports whether any sense reaches the given distance.
func (b *TurnBrief) CanPerceiveAtDistance(distance float64) bool {
	return distance <= b.capabilities.MaximumRange()
}

// IsSubjectVisible reports whether the subject is currently perceivable.
func (b *TurnBrief) IsSubjectVisible(subject string) bool {
	_, ok := b.visibleSubjects[subject]
	return ok
}

// SubjectVisibility returns the stored visibility for a subject. The second
// return is false when the subject is invisible to the entity.
func (b *TurnBrief) SubjectVisibility(subject string) (VisibilityLevel, bool) {
	level, ok := b.visibleSubjects[subject]
	return level, ok
}

// HasKnowledgeAbout reports whether the entity currently holds knowledge
// about a subject at or above the certainty threshold.
func (b *TurnBrief) HasKnowledgeAbout(subject string, minCertainty CertaintyLevel) bool {
	return b.knowledge.HasKnowledgeAbout(subject, minCertainty, b.clock().UTC())
}

// CurrentThreats returns the active threat records, most severe first.
func (b *TurnBrief) CurrentThreats() []ThreatRecord {
	var out []ThreatRecord
	for _, record := range b.knownThreats {
		if record.Status == ThreatActive {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		si, sj := out[i].Level.Severity(), out[j].Level.Severity()
		if si != sj {
			return si > sj
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// IsAlertToThreats reports whether the entity is in a state to notice
// danger: scanning for threats, or effectively alert or better.
func (b *TurnBrief) IsAlertToThreats() bool {
	if b.awareness.Focus().Mode == FocusThreatScanning {
		return true
	}
	return b.awareness.EffectiveAlertness().AtLeast(AlertnessAlert)
}

// ReactionTime returns the entity's current reaction-time multiplier.
func (b *TurnBrief) ReactionTime() float64 {
	return b.awareness.ReactionTimeModifier()
}

// Events returns a copy of the not-yet-published domain events.
func (b *TurnBrief) Events() []event.Event {
	out := make([]event.Event, len(b.pending))
	copy(out, b.pending)
	return out
}

// ClearEvents drops the pending events. Called after they have been handed
// to the event sink following a successful save.
func (b *TurnBrief) ClearEvents() {
	b.pending = nil
}

// buildEvent assembles one pending event at a future aggregate version.
// Events are built before any state changes so an id-generation failure
// leaves the aggregate untouched.
func (b *TurnBrief) buildEvent(eventType event.Type, now time.Time, version uint64, payload any) (event.Event, error) {
	id, err := b.newID()
	if err != nil {
		return event.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	return event.Event{
		ID:          id,
		Type:        eventType,
		Timestamp:   now,
		EntityID:    b.entityID,
		TurnBriefID: b.id,
		Version:     version,
		Payload:     payload,
	}, nil
}

// commit finalizes a mutation: stamps the update time, bumps the version by
// one, and appends the prepared events.
func (b *TurnBrief) commit(now time.Time, events []event.Event) {
	b.updatedAt = now
	b.version++
	b.pending = append(b.pending, events...)
}
