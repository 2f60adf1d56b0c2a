package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/event"
	"github.com/emberfall/veil/internal/perception/storage"
)

var testStart = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "veil.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newBrief(t *testing.T, entityID string, at time.Time) *domain.TurnBrief {
	t.Helper()
	visual, err := domain.NewPerceptionRange(domain.NewPerceptionRangeInput{
		Type:           domain.PerceptionVisual,
		EffectiveRange: 100,
		Accuracy:       0.9,
		Environmental:  map[string]float64{"light": 0.7},
	})
	if err != nil {
		t.Fatalf("NewPerceptionRange() error = %v", err)
	}
	auditory, err := domain.NewPerceptionRange(domain.NewPerceptionRangeInput{
		Type:           domain.PerceptionAuditory,
		EffectiveRange: 40,
		Accuracy:       0.6,
	})
	if err != nil {
		t.Fatalf("NewPerceptionRange() error = %v", err)
	}
	capabilities, err := domain.NewPerceptionCapabilities(domain.NewPerceptionCapabilitiesInput{
		Ranges: map[domain.PerceptionType]domain.PerceptionRange{
			domain.PerceptionVisual:   visual,
			domain.PerceptionAuditory: auditory,
		},
		PassiveAwarenessBonus:       0.1,
		FocusedPerceptionMultiplier: 1.5,
	})
	if err != nil {
		t.Fatalf("NewPerceptionCapabilities() error = %v", err)
	}
	brief, err := domain.CreateTurnBrief(domain.CreateTurnBriefInput{
		EntityID:          entityID,
		Capabilities:      capabilities,
		InitialAlertness:  domain.AlertnessAlert,
		WorldStateVersion: 3,
	}, func() time.Time { return at }, func() (string, error) { return "brief-" + entityID, nil })
	if err != nil {
		t.Fatalf("CreateTurnBrief() error = %v", err)
	}
	brief.ClearEvents()
	return brief
}

// populate layers knowledge, a perceived subject, and a tracked threat onto a
// fresh brief so a roundtrip exercises every persisted document.
func populate(t *testing.T, brief *domain.TurnBrief) {
	t.Helper()
	expiry := testStart.Add(2 * time.Hour)
	item, err := domain.NewKnowledgeItem(domain.NewKnowledgeItemInput{
		Subject:     "raider",
		Information: "hostile band camped north",
		Type:        domain.KnowledgeEntity,
		Certainty:   domain.CertaintyHigh,
		Source:      domain.SourceDirectObservation,
		AcquiredAt:  testStart,
		ExpiresAt:   &expiry,
		Tags:        []string{"hostile", "armed"},
	})
	if err != nil {
		t.Fatalf("NewKnowledgeItem() error = %v", err)
	}
	if err := brief.AddKnowledge(item, "observed"); err != nil {
		t.Fatalf("AddKnowledge() error = %v", err)
	}
	if err := brief.AddPerception("raider", domain.PerceptionVisual, domain.VisibilityPartial, 45, "silhouette on the ridge"); err != nil {
		t.Fatalf("AddPerception() error = %v", err)
	}
	distance := 45.0
	if err := brief.DetectThreat(domain.DetectThreatInput{
		Subject:           "raider",
		Type:              "humanoid",
		Level:             domain.ThreatHigh,
		Confidence:        0.8,
		Method:            domain.DetectionVisual,
		EstimatedDistance: &distance,
	}); err != nil {
		t.Fatalf("DetectThreat() error = %v", err)
	}
	brief.ClearEvents()
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") succeeded, want error")
	}
	if _, err := Open("   "); err == nil {
		t.Error("Open(blank) succeeded, want error")
	}
}

func TestRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	brief := newBrief(t, "scout", testStart)
	populate(t, brief)
	if err := store.Save(ctx, brief); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.GetByEntity(ctx, "scout")
	if err != nil {
		t.Fatalf("GetByEntity() error = %v", err)
	}
	if got.ID() != brief.ID() || got.Version() != brief.Version() {
		t.Errorf("loaded id %q version %d, want %q version %d", got.ID(), got.Version(), brief.ID(), brief.Version())
	}
	if got.WorldStateVersion() != 3 {
		t.Errorf("WorldStateVersion() = %d, want 3", got.WorldStateVersion())
	}
	if got.LoadedVersion() != got.Version() {
		t.Errorf("LoadedVersion() = %d, want %d on a loaded brief", got.LoadedVersion(), got.Version())
	}

	items := got.Knowledge().Items()
	if len(items) != 1 {
		t.Fatalf("knowledge len = %d, want 1", len(items))
	}
	item := items[0]
	if item.Subject() != "raider" || item.Certainty() != domain.CertaintyHigh || item.Source() != domain.SourceDirectObservation {
		t.Errorf("item = %s/%v/%v, want raider/high/direct observation", item.Subject(), item.Certainty(), item.Source())
	}
	if !item.AcquiredAt().Equal(testStart) {
		t.Errorf("AcquiredAt() = %v, want %v", item.AcquiredAt(), testStart)
	}
	if item.ExpiresAt() == nil || !item.ExpiresAt().Equal(testStart.Add(2*time.Hour)) {
		t.Errorf("ExpiresAt() = %v, want %v", item.ExpiresAt(), testStart.Add(2*time.Hour))
	}
	if tags := item.Tags(); len(tags) != 2 || tags[0] != "armed" || tags[1] != "hostile" {
		t.Errorf("Tags() = %v, want [armed hostile]", tags)
	}

	visible := got.VisibleSubjects()
	if visible["raider"] != domain.VisibilityPartial {
		t.Errorf("visible[raider] = %v, want %v", visible["raider"], domain.VisibilityPartial)
	}

	threats := got.KnownThreats()
	threat, ok := threats["raider"]
	if !ok {
		t.Fatal("threat record for raider missing after roundtrip")
	}
	if threat.Level != domain.ThreatHigh || threat.Method != domain.DetectionVisual || threat.Status != domain.ThreatActive {
		t.Errorf("threat = %v/%v/%v, want high/visual/active", threat.Level, threat.Method, threat.Status)
	}
	if threat.EstimatedDistance == nil || *threat.EstimatedDistance != 45 {
		t.Errorf("EstimatedDistance = %v, want 45", threat.EstimatedDistance)
	}
	if !threat.FirstDetected.Equal(testStart) {
		t.Errorf("FirstDetected = %v, want %v", threat.FirstDetected, testStart)
	}

	capabilities := got.Capabilities()
	visual, ok := capabilities.Ranges()[domain.PerceptionVisual]
	if !ok {
		t.Fatal("visual range missing after roundtrip")
	}
	if visual.EnvironmentalModifiers()["light"] != 0.7 {
		t.Errorf("environmental[light] = %v, want 0.7", visual.EnvironmentalModifiers()["light"])
	}
	if got.Awareness().CurrentAlertness() != domain.AlertnessAlert {
		t.Errorf("alertness = %v, want %v", got.Awareness().CurrentAlertness(), domain.AlertnessAlert)
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if _, err := store.Get(ctx, "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get() error = %v, want %v", err, storage.ErrNotFound)
	}
	if _, err := store.GetByEntity(ctx, "absent"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetByEntity() error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSaveVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	brief := newBrief(t, "scout", testStart)
	if err := store.Save(ctx, brief); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	first, err := store.Get(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := store.Get(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if err := first.UpdateWorldStateVersion(5); err != nil {
		t.Fatalf("UpdateWorldStateVersion() error = %v", err)
	}
	if err := second.UpdateWorldStateVersion(7); err != nil {
		t.Fatalf("UpdateWorldStateVersion() error = %v", err)
	}

	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save(first) error = %v", err)
	}
	if err := store.Save(ctx, second); !errors.Is(err, storage.ErrVersionConflict) {
		t.Errorf("Save(second) error = %v, want %v", err, storage.ErrVersionConflict)
	}

	// The stored row still carries the first writer's state.
	stored, err := store.Get(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Get() after conflict error = %v", err)
	}
	if stored.WorldStateVersion() != 5 {
		t.Errorf("WorldStateVersion() = %d, want 5", stored.WorldStateVersion())
	}
}

func TestSaveDeletedBrief(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	brief := newBrief(t, "scout", testStart)
	if err := store.Save(ctx, brief); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	loaded, err := store.Get(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := store.Delete(ctx, brief.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := loaded.UpdateWorldStateVersion(9); err != nil {
		t.Fatalf("UpdateWorldStateVersion() error = %v", err)
	}
	if err := store.Save(ctx, loaded); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Save() after delete error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	brief := newBrief(t, "scout", testStart)
	if err := store.Save(ctx, brief); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Append(ctx, []event.Event{{
		ID:          "evt-1",
		Type:        event.TypeTurnBriefCreated,
		Timestamp:   testStart,
		EntityID:    "scout",
		TurnBriefID: brief.ID(),
		Version:     1,
		Payload:     map[string]string{"reason": "created"},
	}}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	deleted, err := store.Delete(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("Delete() = false, want true")
	}
	deleted, err = store.Delete(ctx, brief.ID())
	if err != nil {
		t.Fatalf("Delete() second call error = %v", err)
	}
	if deleted {
		t.Error("Delete() on absent brief = true, want false")
	}
}

func TestDeleteStale(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if err := store.Save(ctx, newBrief(t, "old", testStart)); err != nil {
		t.Fatalf("Save(old) error = %v", err)
	}
	if err := store.Save(ctx, newBrief(t, "recent", testStart.Add(48*time.Hour))); err != nil {
		t.Fatalf("Save(recent) error = %v", err)
	}

	removed, err := store.DeleteStale(ctx, testStart.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteStale() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteStale() = %d, want 1", removed)
	}
	if _, err := store.GetByEntity(ctx, "old"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("stale brief still present, error = %v", err)
	}
	if _, err := store.GetByEntity(ctx, "recent"); err != nil {
		t.Errorf("recent brief missing, error = %v", err)
	}
}

func TestEventJournal(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	events := []event.Event{
		{
			ID:          "evt-1",
			Type:        event.TypeTurnBriefCreated,
			Timestamp:   testStart,
			EntityID:    "scout",
			TurnBriefID: "brief-scout",
			Version:     1,
			Payload:     map[string]string{"reason": "created"},
		},
		{
			ID:          "evt-2",
			Type:        event.TypeAlertnessChanged,
			Timestamp:   testStart.Add(time.Minute),
			EntityID:    "scout",
			TurnBriefID: "brief-scout",
			Version:     2,
			Payload:     map[string]string{"reason": "raised"},
		},
		{
			ID:          "evt-3",
			Type:        event.TypeTurnBriefCreated,
			Timestamp:   testStart,
			EntityID:    "sentry",
			TurnBriefID: "brief-sentry",
			Version:     1,
			Payload:     map[string]string{"reason": "created"},
		},
	}
	if err := store.Append(ctx, events); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	scout, err := store.EventsSince(ctx, "scout", 0)
	if err != nil {
		t.Fatalf("EventsSince() error = %v", err)
	}
	if len(scout) != 2 {
		t.Fatalf("EventsSince(scout, 0) len = %d, want 2", len(scout))
	}
	if scout[0].ID != "evt-1" || scout[1].ID != "evt-2" {
		t.Errorf("order = [%s %s], want [evt-1 evt-2]", scout[0].ID, scout[1].ID)
	}
	if !scout[1].Timestamp.Equal(testStart.Add(time.Minute)) {
		t.Errorf("Timestamp = %v, want %v", scout[1].Timestamp, testStart.Add(time.Minute))
	}

	raw, ok := scout[0].Payload.(json.RawMessage)
	if !ok {
		t.Fatalf("Payload type = %T, want json.RawMessage", scout[0].Payload)
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("Unmarshal payload: %v", err)
	}
	if decoded["reason"] != "created" {
		t.Errorf("payload reason = %q, want %q", decoded["reason"], "created")
	}

	tail, err := store.EventsSince(ctx, "scout", 1)
	if err != nil {
		t.Fatalf("EventsSince(1) error = %v", err)
	}
	if len(tail) != 1 || tail[0].ID != "evt-2" {
		t.Errorf("EventsSince(1) = %d events, want only evt-2", len(tail))
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "veil.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	brief := newBrief(t, "scout", testStart)
	populate(t, brief)
	if err := store.Save(ctx, brief); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after close error = %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.GetByEntity(ctx, "scout")
	if err != nil {
		t.Fatalf("GetByEntity() error = %v", err)
	}
	if got.Version() != brief.Version() || got.Knowledge().Len() != 1 {
		t.Errorf("reloaded version %d with %d items, want version %d with 1 item", got.Version(), got.Knowledge().Len(), brief.Version())
	}
}
