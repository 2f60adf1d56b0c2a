package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/storage"
)

// Persistence documents. Domain values keep their fields unexported, so the
// store owns the JSON shape and rebuilds values through the validating
// constructors on read.

type awarenessDoc struct {
	BaseAlertness    string             `json:"base_alertness"`
	CurrentAlertness string             `json:"current_alertness"`
	FocusMode        string             `json:"focus_mode"`
	FocusTarget      string             `json:"focus_target,omitempty"`
	Modifiers        map[string]float64 `json:"modifiers,omitempty"`
	Fatigue          float64            `json:"fatigue"`
	Stress           float64            `json:"stress"`
}

type rangeDoc struct {
	Type           string             `json:"type"`
	BaseRange      float64            `json:"base_range"`
	EffectiveRange float64            `json:"effective_range"`
	Accuracy       float64            `json:"accuracy"`
	Environmental  map[string]float64 `json:"environmental_modifiers,omitempty"`
}

type capabilitiesDoc struct {
	Ranges                      map[string]rangeDoc `json:"ranges"`
	PassiveAwarenessBonus       float64             `json:"passive_awareness_bonus"`
	FocusedPerceptionMultiplier float64             `json:"focused_perception_multiplier"`
}

type knowledgeDoc struct {
	Subject     string   `json:"subject"`
	Information string   `json:"information"`
	Type        string   `json:"type"`
	Certainty   string   `json:"certainty"`
	Source      string   `json:"source"`
	AcquiredAt  int64    `json:"acquired_at"`
	ExpiresAt   *int64   `json:"expires_at,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type threatDoc struct {
	Subject           string   `json:"subject"`
	Type              string   `json:"type"`
	Level             string   `json:"level"`
	Confidence        float64  `json:"confidence"`
	Method            string   `json:"method"`
	EstimatedDistance *float64 `json:"estimated_distance,omitempty"`
	FirstDetected     int64    `json:"first_detected"`
	LastSeen          int64    `json:"last_seen"`
	Status            string   `json:"status"`
	LostAt            *int64   `json:"lost_at,omitempty"`
	LossReason        string   `json:"loss_reason,omitempty"`
}

const turnBriefColumns = `id, entity_id, world_state_version, version,
awareness, capabilities, knowledge, visible_subjects, known_threats,
created_at, updated_at, last_perception_update, last_world_update`

// Get loads a turn brief by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.TurnBrief, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+turnBriefColumns+" FROM turn_briefs WHERE id = ?", id)
	return scanTurnBrief(row)
}

// GetByEntity loads the turn brief owned by an entity.
func (s *Store) GetByEntity(ctx context.Context, entityID string) (*domain.TurnBrief, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+turnBriefColumns+" FROM turn_briefs WHERE entity_id = ?", entityID)
	return scanTurnBrief(row)
}

// Save inserts a never-persisted brief or updates an existing one with an
// optimistic version check. On conflict the stored row is left untouched and
// storage.ErrVersionConflict is returned.
func (s *Store) Save(ctx context.Context, brief *domain.TurnBrief) error {
	snapshot := brief.Snapshot()

	awarenessJSON, err := json.Marshal(awarenessToDoc(snapshot.Awareness))
	if err != nil {
		return fmt.Errorf("marshal awareness: %w", err)
	}
	capabilitiesJSON, err := json.Marshal(capabilitiesToDoc(snapshot.Capabilities))
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	knowledgeDocs := make([]knowledgeDoc, 0, len(snapshot.Knowledge))
	for _, item := range snapshot.Knowledge {
		knowledgeDocs = append(knowledgeDocs, knowledgeToDoc(item))
	}
	knowledgeJSON, err := json.Marshal(knowledgeDocs)
	if err != nil {
		return fmt.Errorf("marshal knowledge: %w", err)
	}
	visible := make(map[string]string, len(snapshot.VisibleSubjects))
	for subject, level := range snapshot.VisibleSubjects {
		visible[subject] = level.String()
	}
	visibleJSON, err := json.Marshal(visible)
	if err != nil {
		return fmt.Errorf("marshal visible subjects: %w", err)
	}
	threatDocs := make([]threatDoc, 0, len(snapshot.KnownThreats))
	for _, record := range snapshot.KnownThreats {
		threatDocs = append(threatDocs, threatToDoc(record))
	}
	threatsJSON, err := json.Marshal(threatDocs)
	if err != nil {
		return fmt.Errorf("marshal threats: %w", err)
	}

	if brief.LoadedVersion() == 0 {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO turn_briefs (`+turnBriefColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			snapshot.ID,
			snapshot.EntityID,
			snapshot.WorldStateVersion,
			snapshot.Version,
			string(awarenessJSON),
			string(capabilitiesJSON),
			string(knowledgeJSON),
			string(visibleJSON),
			string(threatsJSON),
			toMillis(snapshot.CreatedAt),
			toMillis(snapshot.UpdatedAt),
			toMillis(snapshot.LastPerceptionUpdate),
			toMillis(snapshot.LastWorldUpdate),
		)
		if err != nil {
			return fmt.Errorf("insert turn brief: %w", err)
		}
		brief.MarkSaved()
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
UPDATE turn_briefs SET
    world_state_version = ?,
    version = ?,
    awareness = ?,
    capabilities = ?,
    knowledge = ?,
    visible_subjects = ?,
    known_threats = ?,
    updated_at = ?,
    last_perception_update = ?,
    last_world_update = ?
WHERE id = ? AND version = ?`,
		snapshot.WorldStateVersion,
		snapshot.Version,
		string(awarenessJSON),
		string(capabilitiesJSON),
		string(knowledgeJSON),
		string(visibleJSON),
		string(threatsJSON),
		toMillis(snapshot.UpdatedAt),
		toMillis(snapshot.LastPerceptionUpdate),
		toMillis(snapshot.LastWorldUpdate),
		snapshot.ID,
		brief.LoadedVersion(),
	)
	if err != nil {
		return fmt.Errorf("update turn brief: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update turn brief: %w", err)
	}
	if affected == 0 {
		var exists int
		row := s.db.QueryRowContext(ctx, "SELECT 1 FROM turn_briefs WHERE id = ?", snapshot.ID)
		if scanErr := row.Scan(&exists); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return storage.ErrNotFound
			}
			return fmt.Errorf("update turn brief: %w", scanErr)
		}
		return storage.ErrVersionConflict
	}
	brief.MarkSaved()
	return nil
}

// Delete removes a turn brief and its journal, reporting whether the brief
// existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM turn_briefs WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete turn brief: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete turn brief: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM turn_brief_events WHERE turn_brief_id = ?", id); err != nil {
		return true, fmt.Errorf("delete turn brief events: %w", err)
	}
	return true, nil
}

// DeleteStale removes briefs whose updated_at is before the cutoff.
func (s *Store) DeleteStale(ctx context.Context, updatedBefore time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM turn_briefs WHERE updated_at < ?", toMillis(updatedBefore))
	if err != nil {
		return 0, fmt.Errorf("delete stale turn briefs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete stale turn briefs: %w", err)
	}
	return int(affected), nil
}

func scanTurnBrief(row *sql.Row) (*domain.TurnBrief, error) {
	var (
		id, entityID                                                string
		worldStateVersion, version                                  uint64
		awarenessJSON, capabilitiesJSON, knowledgeJSON              string
		visibleJSON, threatsJSON                                    string
		createdAt, updatedAt, lastPerceptionUpdate, lastWorldUpdate int64
	)
	err := row.Scan(
		&id, &entityID, &worldStateVersion, &version,
		&awarenessJSON, &capabilitiesJSON, &knowledgeJSON,
		&visibleJSON, &threatsJSON,
		&createdAt, &updatedAt, &lastPerceptionUpdate, &lastWorldUpdate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scan turn brief: %w", err)
	}

	var aDoc awarenessDoc
	if err := json.Unmarshal([]byte(awarenessJSON), &aDoc); err != nil {
		return nil, fmt.Errorf("unmarshal awareness: %w", err)
	}
	awareness, err := awarenessFromDoc(aDoc)
	if err != nil {
		return nil, fmt.Errorf("rebuild awareness: %w", err)
	}

	var cDoc capabilitiesDoc
	if err := json.Unmarshal([]byte(capabilitiesJSON), &cDoc); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}
	capabilities, err := capabilitiesFromDoc(cDoc)
	if err != nil {
		return nil, fmt.Errorf("rebuild capabilities: %w", err)
	}

	var kDocs []knowledgeDoc
	if err := json.Unmarshal([]byte(knowledgeJSON), &kDocs); err != nil {
		return nil, fmt.Errorf("unmarshal knowledge: %w", err)
	}
	knowledge := make([]domain.KnowledgeItem, 0, len(kDocs))
	for _, doc := range kDocs {
		item, err := knowledgeFromDoc(doc)
		if err != nil {
			return nil, fmt.Errorf("rebuild knowledge %q: %w", doc.Subject, err)
		}
		knowledge = append(knowledge, item)
	}

	var visibleRaw map[string]string
	if err := json.Unmarshal([]byte(visibleJSON), &visibleRaw); err != nil {
		return nil, fmt.Errorf("unmarshal visible subjects: %w", err)
	}
	visible := make(map[string]domain.VisibilityLevel, len(visibleRaw))
	for subject, value := range visibleRaw {
		level, err := domain.ParseVisibility(value)
		if err != nil {
			return nil, fmt.Errorf("rebuild visibility %q: %w", subject, err)
		}
		visible[subject] = level
	}

	var tDocs []threatDoc
	if err := json.Unmarshal([]byte(threatsJSON), &tDocs); err != nil {
		return nil, fmt.Errorf("unmarshal threats: %w", err)
	}
	threats := make([]domain.ThreatRecord, 0, len(tDocs))
	for _, doc := range tDocs {
		threats = append(threats, threatFromDoc(doc))
	}

	return domain.RehydrateTurnBrief(domain.TurnBriefSnapshot{
		ID:                   id,
		EntityID:             entityID,
		WorldStateVersion:    worldStateVersion,
		Capabilities:         capabilities,
		Awareness:            awareness,
		Knowledge:            knowledge,
		VisibleSubjects:      visible,
		KnownThreats:         threats,
		CreatedAt:            fromMillis(createdAt),
		UpdatedAt:            fromMillis(updatedAt),
		LastPerceptionUpdate: fromMillis(lastPerceptionUpdate),
		LastWorldUpdate:      fromMillis(lastWorldUpdate),
		Version:              version,
	}, nil, nil)
}

func awarenessToDoc(state domain.AwarenessState) awarenessDoc {
	modifiers := make(map[string]float64, len(state.Modifiers()))
	for kind, value := range state.Modifiers() {
		modifiers[string(kind)] = value
	}
	return awarenessDoc{
		BaseAlertness:    state.BaseAlertness().String(),
		CurrentAlertness: state.CurrentAlertness().String(),
		FocusMode:        string(state.Focus().Mode),
		FocusTarget:      state.Focus().Target,
		Modifiers:        modifiers,
		Fatigue:          state.Fatigue(),
		Stress:           state.Stress(),
	}
}

func awarenessFromDoc(doc awarenessDoc) (domain.AwarenessState, error) {
	base, err := domain.ParseAlertness(doc.BaseAlertness)
	if err != nil {
		return domain.AwarenessState{}, err
	}
	current, err := domain.ParseAlertness(doc.CurrentAlertness)
	if err != nil {
		return domain.AwarenessState{}, err
	}
	modifiers := make(map[domain.AwarenessModifier]float64, len(doc.Modifiers))
	for kind, value := range doc.Modifiers {
		modifiers[domain.AwarenessModifier(kind)] = value
	}
	return domain.NewAwarenessState(domain.NewAwarenessStateInput{
		BaseAlertness:    base,
		CurrentAlertness: current,
		Focus:            domain.AttentionFocus{Mode: domain.FocusMode(doc.FocusMode), Target: doc.FocusTarget},
		Modifiers:        modifiers,
		Fatigue:          doc.Fatigue,
		Stress:           doc.Stress,
	})
}

func capabilitiesToDoc(capabilities domain.PerceptionCapabilities) capabilitiesDoc {
	ranges := make(map[string]rangeDoc, len(capabilities.Ranges()))
	for perceptionType, r := range capabilities.Ranges() {
		ranges[string(perceptionType)] = rangeDoc{
			Type:           string(r.Type()),
			BaseRange:      r.BaseRange(),
			EffectiveRange: r.EffectiveRange(),
			Accuracy:       r.Accuracy(),
			Environmental:  r.EnvironmentalModifiers(),
		}
	}
	return capabilitiesDoc{
		Ranges:                      ranges,
		PassiveAwarenessBonus:       capabilities.PassiveAwarenessBonus(),
		FocusedPerceptionMultiplier: capabilities.FocusedPerceptionMultiplier(),
	}
}

func capabilitiesFromDoc(doc capabilitiesDoc) (domain.PerceptionCapabilities, error) {
	ranges := make(map[domain.PerceptionType]domain.PerceptionRange, len(doc.Ranges))
	for key, rDoc := range doc.Ranges {
		r, err := domain.NewPerceptionRange(domain.NewPerceptionRangeInput{
			Type:           domain.PerceptionType(rDoc.Type),
			BaseRange:      rDoc.BaseRange,
			EffectiveRange: rDoc.EffectiveRange,
			Accuracy:       rDoc.Accuracy,
			Environmental:  rDoc.Environmental,
		})
		if err != nil {
			return domain.PerceptionCapabilities{}, err
		}
		ranges[domain.PerceptionType(key)] = r
	}
	return domain.NewPerceptionCapabilities(domain.NewPerceptionCapabilitiesInput{
		Ranges:                      ranges,
		PassiveAwarenessBonus:       doc.PassiveAwarenessBonus,
		FocusedPerceptionMultiplier: doc.FocusedPerceptionMultiplier,
	})
}

func knowledgeToDoc(item domain.KnowledgeItem) knowledgeDoc {
	var expiresAt *int64
	if expiry := item.ExpiresAt(); expiry != nil {
		millis := toMillis(*expiry)
		expiresAt = &millis
	}
	return knowledgeDoc{
		Subject:     item.Subject(),
		Information: item.Information(),
		Type:        string(item.Type()),
		Certainty:   item.Certainty().String(),
		Source:      string(item.Source()),
		AcquiredAt:  toMillis(item.AcquiredAt()),
		ExpiresAt:   expiresAt,
		Tags:        item.Tags(),
	}
}

func knowledgeFromDoc(doc knowledgeDoc) (domain.KnowledgeItem, error) {
	certainty, err := domain.ParseCertainty(doc.Certainty)
	if err != nil {
		return domain.KnowledgeItem{}, err
	}
	var expiresAt *time.Time
	if doc.ExpiresAt != nil {
		expiry := fromMillis(*doc.ExpiresAt)
		expiresAt = &expiry
	}
	return domain.NewKnowledgeItem(domain.NewKnowledgeItemInput{
		Subject:     doc.Subject,
		Information: doc.Information,
		Type:        domain.KnowledgeType(doc.Type),
		Certainty:   certainty,
		Source:      domain.KnowledgeSource(doc.Source),
		AcquiredAt:  fromMillis(doc.AcquiredAt),
		ExpiresAt:   expiresAt,
		Tags:        doc.Tags,
	})
}

func threatToDoc(record domain.ThreatRecord) threatDoc {
	var lostAt *int64
	if record.LostAt != nil {
		millis := toMillis(*record.LostAt)
		lostAt = &millis
	}
	return threatDoc{
		Subject:           record.Subject,
		Type:              record.Type,
		Level:             string(record.Level),
		Confidence:        record.Confidence,
		Method:            string(record.Method),
		EstimatedDistance: record.EstimatedDistance,
		FirstDetected:     toMillis(record.FirstDetected),
		LastSeen:          toMillis(record.LastSeen),
		Status:            string(record.Status),
		LostAt:            lostAt,
		LossReason:        record.LossReason,
	}
}

func threatFromDoc(doc threatDoc) domain.ThreatRecord {
	var lostAt *time.Time
	if doc.LostAt != nil {
		at := fromMillis(*doc.LostAt)
		lostAt = &at
	}
	return domain.ThreatRecord{
		Subject:           doc.Subject,
		Type:              doc.Type,
		Level:             domain.ThreatLevel(doc.Level),
		Confidence:        doc.Confidence,
		Method:            domain.DetectionMethod(doc.Method),
		EstimatedDistance: doc.EstimatedDistance,
		FirstDetected:     fromMillis(doc.FirstDetected),
		LastSeen:          fromMillis(doc.LastSeen),
		Status:            domain.ThreatStatus(doc.Status),
		LostAt:            lostAt,
		LossReason:        doc.LossReason,
	}
}
