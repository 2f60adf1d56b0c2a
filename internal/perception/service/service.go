// Package service coordinates turn brief mutations: it loads aggregates from
// storage, applies fog-of-war computations, persists the result, and journals
// the drained events. Methods trace through OpenTelemetry when a provider is
// configured.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/event"
	"github.com/emberfall/veil/internal/perception/fog"
	"github.com/emberfall/veil/internal/perception/storage"
)

const tracerName = "veil/perception/service"

// Service is the application layer over turn brief storage and the
// fog-of-war computations.
type Service struct {
	store   storage.TurnBriefStore
	journal storage.EventJournal
	fog     *fog.Service
	clock   func() time.Time
	tracer  trace.Tracer
}

// New creates a service. The journal may be nil when event history is not
// wanted; store and fogService are required.
func New(store storage.TurnBriefStore, journal storage.EventJournal, fogService *fog.Service) (*Service, error) {
	if store == nil {
		return nil, errors.New("turn brief store is required")
	}
	if fogService == nil {
		return nil, errors.New("fog of war service is required")
	}
	return &Service{
		store:   store,
		journal: journal,
		fog:     fogService,
		clock:   time.Now,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// persist saves the brief and journals its pending events. Events are only
// drained after both steps succeed, so a failed save leaves them on the
// aggregate.
func (s *Service) persist(ctx context.Context, brief *domain.TurnBrief) error {
	events := brief.Events()
	if err := s.store.Save(ctx, brief); err != nil {
		return err
	}
	if s.journal != nil && len(events) > 0 {
		if err := s.journal.Append(ctx, events); err != nil {
			return fmt.Errorf("append events: %w", err)
		}
	}
	brief.ClearEvents()
	return nil
}

// CreateBriefInput describes a new turn brief for an entity.
type CreateBriefInput struct {
	EntityID          string
	Capabilities      domain.PerceptionCapabilities
	InitialAlertness  domain.AlertnessLevel
	WorldStateVersion uint64
}

// CreateBrief creates and persists a turn brief for an entity.
func (s *Service) CreateBrief(ctx context.Context, input CreateBriefInput) (*domain.TurnBrief, error) {
	ctx, span := s.tracer.Start(ctx, "CreateBrief",
		trace.WithAttributes(attribute.String("entity.id", input.EntityID)))
	defer span.End()

	brief, err := domain.CreateTurnBrief(domain.CreateTurnBriefInput{
		EntityID:          input.EntityID,
		Capabilities:      input.Capabilities,
		InitialAlertness:  input.InitialAlertness,
		WorldStateVersion: input.WorldStateVersion,
	}, s.clock, nil)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, brief); err != nil {
		return nil, err
	}
	return brief, nil
}

// Brief loads a turn brief by id.
func (s *Service) Brief(ctx context.Context, id string) (*domain.TurnBrief, error) {
	return s.store.Get(ctx, id)
}

// BriefForEntity loads the turn brief owned by an entity.
func (s *Service) BriefForEntity(ctx context.Context, entityID string) (*domain.TurnBrief, error) {
	return s.store.GetByEntity(ctx, entityID)
}

// RefreshFogOfWar recomputes an entity's visible subjects against a world
// position snapshot and applies the resulting diff. An empty diff leaves the
// brief untouched.
func (s *Service) RefreshFogOfWar(ctx context.Context, entityID string, worldPositions map[string]fog.Position, conditions fog.Conditions) (fog.Diff, error) {
	ctx, span := s.tracer.Start(ctx, "RefreshFogOfWar",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.Int("world.subjects", len(worldPositions)),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return fog.Diff{}, err
	}
	diff := s.fog.UpdateVisibleSubjects(brief, worldPositions, conditions)
	if diff.IsEmpty() {
		return diff, nil
	}
	if err := brief.UpdateFogOfWar(diff.NewlyRevealed, diff.NewlyConcealed, diff.VisibilityChanges, "world snapshot"); err != nil {
		return fog.Diff{}, err
	}
	if err := s.persist(ctx, brief); err != nil {
		return fog.Diff{}, err
	}
	return diff, nil
}

// RecordPerceptionInput describes a directly perceived subject.
type RecordPerceptionInput struct {
	EntityID       string
	Subject        string
	PerceptionType domain.PerceptionType
	Level          domain.VisibilityLevel
	Distance       float64
	Details        string
}

// RecordPerception records a perception of a subject on an entity's brief.
func (s *Service) RecordPerception(ctx context.Context, input RecordPerceptionInput) error {
	ctx, span := s.tracer.Start(ctx, "RecordPerception",
		trace.WithAttributes(
			attribute.String("entity.id", input.EntityID),
			attribute.String("perception.subject", input.Subject),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, input.EntityID)
	if err != nil {
		return err
	}
	if err := brief.AddPerception(input.Subject, input.PerceptionType, input.Level, input.Distance, input.Details); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// AddKnowledgeInput describes knowledge learned by an entity.
type AddKnowledgeInput struct {
	EntityID         string
	Item             domain.NewKnowledgeItemInput
	RevelationMethod string
}

// AddKnowledge records a knowledge item on an entity's brief. A zero
// acquisition time defaults to now.
func (s *Service) AddKnowledge(ctx context.Context, input AddKnowledgeInput) error {
	ctx, span := s.tracer.Start(ctx, "AddKnowledge",
		trace.WithAttributes(
			attribute.String("entity.id", input.EntityID),
			attribute.String("knowledge.subject", input.Item.Subject),
		))
	defer span.End()

	if input.Item.AcquiredAt.IsZero() {
		input.Item.AcquiredAt = s.clock().UTC()
	}
	item, err := domain.NewKnowledgeItem(input.Item)
	if err != nil {
		return err
	}
	brief, err := s.store.GetByEntity(ctx, input.EntityID)
	if err != nil {
		return err
	}
	if err := brief.AddKnowledge(item, input.RevelationMethod); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// RaiseAlertness moves an entity's current alertness to the given level.
func (s *Service) RaiseAlertness(ctx context.Context, entityID string, level domain.AlertnessLevel) error {
	ctx, span := s.tracer.Start(ctx, "RaiseAlertness",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.String("alertness.level", level.String()),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return err
	}
	state, err := brief.Awareness().WithAlertness(level)
	if err != nil {
		return err
	}
	if err := brief.UpdateAwareness(state); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// ChangeFocus redirects an entity's attention.
func (s *Service) ChangeFocus(ctx context.Context, entityID string, mode domain.FocusMode, target string) error {
	ctx, span := s.tracer.Start(ctx, "ChangeFocus",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.String("focus.mode", string(mode)),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return err
	}
	state, err := brief.Awareness().WithFocus(mode, target)
	if err != nil {
		return err
	}
	if err := brief.UpdateAwareness(state); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// DetectThreat records a threat on an entity's brief.
func (s *Service) DetectThreat(ctx context.Context, entityID string, input domain.DetectThreatInput) error {
	ctx, span := s.tracer.Start(ctx, "DetectThreat",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.String("threat.subject", input.Subject),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return err
	}
	if err := brief.DetectThreat(input); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// LoseThreatTracking lapses tracking on a threat. Unknown or already-lost
// subjects are a no-op.
func (s *Service) LoseThreatTracking(ctx context.Context, entityID, subject, reason string) error {
	ctx, span := s.tracer.Start(ctx, "LoseThreatTracking",
		trace.WithAttributes(
			attribute.String("entity.id", entityID),
			attribute.String("threat.subject", subject),
		))
	defer span.End()

	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return err
	}
	if err := brief.LoseThreatTracking(subject, reason); err != nil {
		return err
	}
	return s.persist(ctx, brief)
}

// ShareKnowledgeInput describes one entity reporting knowledge to others.
type ShareKnowledgeInput struct {
	SourceEntityID  string
	TargetEntityIDs []string
	Types           []domain.KnowledgeType
	// Distances maps target entity ids to their distance from the source.
	// Missing targets are treated as distance zero.
	Distances   map[string]float64
	MaxDistance float64
	// SourceReliabilityModifier scales the source's reliability before the
	// propagation threshold; zero or below means unmodified.
	SourceReliabilityModifier float64
}

// ShareResult reports the outcome of sharing with one target.
type ShareResult struct {
	TargetEntityID string
	ItemsShared    int
	Err            error
}

// ShareKnowledge propagates the source's qualifying knowledge to each
// target. A failing target does not stop the remaining targets; per-target
// outcomes come back in order.
func (s *Service) ShareKnowledge(ctx context.Context, input ShareKnowledgeInput) ([]ShareResult, error) {
	ctx, span := s.tracer.Start(ctx, "ShareKnowledge",
		trace.WithAttributes(
			attribute.String("entity.id", input.SourceEntityID),
			attribute.Int("share.targets", len(input.TargetEntityIDs)),
		))
	defer span.End()

	source, err := s.store.GetByEntity(ctx, input.SourceEntityID)
	if err != nil {
		return nil, err
	}

	results := make([]ShareResult, 0, len(input.TargetEntityIDs))
	for _, targetID := range input.TargetEntityIDs {
		results = append(results, s.shareWithTarget(ctx, source, targetID, input))
	}
	return results, nil
}

func (s *Service) shareWithTarget(ctx context.Context, source *domain.TurnBrief, targetID string, input ShareKnowledgeInput) ShareResult {
	result := ShareResult{TargetEntityID: targetID}

	target, err := s.store.GetByEntity(ctx, targetID)
	if err != nil {
		result.Err = err
		return result
	}
	shared := s.fog.PropagateKnowledge(fog.PropagateKnowledgeInput{
		Source:                    source,
		Target:                    target,
		Types:                     input.Types,
		Distance:                  input.Distances[targetID],
		MaxDistance:               input.MaxDistance,
		SourceReliabilityModifier: input.SourceReliabilityModifier,
	})
	if len(shared) == 0 {
		return result
	}
	for _, item := range shared {
		if err := target.AddKnowledge(item, "reported"); err != nil {
			result.Err = err
			return result
		}
	}
	if err := s.persist(ctx, target); err != nil {
		result.Err = err
		return result
	}
	result.ItemsShared = len(shared)
	return result
}

// DecayKnowledge lowers the certainty of an entity's aged knowledge at the
// given hourly rate (zero or below selects the default rate) and reports how
// many items decayed.
func (s *Service) DecayKnowledge(ctx context.Context, entityID string, ratePerHour float64) (int, error) {
	ctx, span := s.tracer.Start(ctx, "DecayKnowledge",
		trace.WithAttributes(attribute.String("entity.id", entityID)))
	defer span.End()

	if ratePerHour <= 0 {
		ratePerHour = fog.DefaultDecayRatePerHour
	}
	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return 0, err
	}

	now := s.clock().UTC()
	decayed := 0
	err = brief.DecayKnowledge(func(item domain.KnowledgeItem) (domain.KnowledgeItem, bool) {
		next, changed := s.fog.CalculateInformationDecay(item, now.Sub(item.AcquiredAt()), ratePerHour)
		if changed {
			decayed++
		}
		return next, changed
	})
	if err != nil {
		return 0, err
	}
	if decayed == 0 {
		return 0, nil
	}
	if err := s.persist(ctx, brief); err != nil {
		return 0, err
	}
	return decayed, nil
}

// AssessThreat scores a subject from an entity's accumulated knowledge.
func (s *Service) AssessThreat(ctx context.Context, entityID, subject string) (fog.ThreatAssessment, error) {
	brief, err := s.store.GetByEntity(ctx, entityID)
	if err != nil {
		return fog.ThreatAssessment{}, err
	}
	return s.fog.AssessThreatLevel(brief, subject), nil
}

// History returns an entity's journaled events after the given aggregate
// version. Without a journal the history is empty.
func (s *Service) History(ctx context.Context, entityID string, afterVersion uint64) ([]event.Event, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.EventsSince(ctx, entityID, afterVersion)
}

// CleanupStale removes briefs not updated since the cutoff.
func (s *Service) CleanupStale(ctx context.Context, updatedBefore time.Time) (int, error) {
	return s.store.DeleteStale(ctx, updatedBefore)
}
