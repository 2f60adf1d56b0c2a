package domain

import (
	"errors"
	"testing"
	"time"
)

func TestReliabilityScoreBounds(t *testing.T) {
	levels := []CertaintyLevel{
		CertaintyUnknown, CertaintyMinimal, CertaintyLow,
		CertaintyMedium, CertaintyHigh, CertaintyAbsolute,
	}
	sources := []KnowledgeSource{
		SourceDirectObservation, SourceReportedByAlly, SourceReportedByNeutral,
		SourceReportedByEnemy, SourceSpeculation, SourceHistoricalRecord,
		SourceMagicalDivination, SourcePsychicReading,
	}
	for _, level := range levels {
		for _, source := range sources {
			item := KnowledgeItem{certainty: level, source: source}
			score := item.ReliabilityScore()
			if score < 0 || score > 1 {
				t.Errorf("ReliabilityScore(%v, %v) = %v, want within [0, 1]", level, source, score)
			}
		}
	}

	direct := testKnowledgeItem(t, "s", CertaintyAbsolute, SourceDirectObservation, "i")
	if got := direct.ReliabilityScore(); got != 1.0 {
		t.Errorf("absolute direct observation score = %v, want 1.0", got)
	}
	rumor := testKnowledgeItem(t, "s", CertaintyLow, SourceSpeculation, "i")
	if got, want := rumor.ReliabilityScore(), 0.4*0.3; got != want {
		t.Errorf("low speculation score = %v, want %v", got, want)
	}
}

func TestCertaintyFromWeight(t *testing.T) {
	tests := []struct {
		weight float64
		want   CertaintyLevel
	}{
		{0.0, CertaintyUnknown},
		{0.20, CertaintyMinimal},
		{0.35, CertaintyLow},
		{0.60, CertaintyMedium},
		{0.85, CertaintyHigh},
		{0.95, CertaintyAbsolute},
		// Half way between low (0.40) and medium (0.65): round down.
		{0.525, CertaintyLow},
	}
	for _, tt := range tests {
		if got := CertaintyFromWeight(tt.weight); got != tt.want {
			t.Errorf("CertaintyFromWeight(%v) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestNewKnowledgeItemValidation(t *testing.T) {
	expired := testStart.Add(-time.Hour)
	tests := []struct {
		name    string
		input   NewKnowledgeItemInput
		wantErr error
	}{
		{
			name:    "missing subject",
			input:   NewKnowledgeItemInput{Information: "i", Type: KnowledgeEntity, Certainty: CertaintyLow, Source: SourceSpeculation, AcquiredAt: testStart},
			wantErr: ErrEmptySubject,
		},
		{
			name:    "missing information",
			input:   NewKnowledgeItemInput{Subject: "s", Type: KnowledgeEntity, Certainty: CertaintyLow, Source: SourceSpeculation, AcquiredAt: testStart},
			wantErr: ErrEmptyInformation,
		},
		{
			name:    "unknown source",
			input:   NewKnowledgeItemInput{Subject: "s", Information: "i", Type: KnowledgeEntity, Certainty: CertaintyLow, Source: "gut_feeling", AcquiredAt: testStart},
			wantErr: ErrInvalidKnowledgeSource,
		},
		{
			name:    "expiry before acquisition",
			input:   NewKnowledgeItemInput{Subject: "s", Information: "i", Type: KnowledgeEntity, Certainty: CertaintyLow, Source: SourceSpeculation, AcquiredAt: testStart, ExpiresAt: &expired},
			wantErr: ErrExpiryBeforeAcquisition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKnowledgeItem(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewKnowledgeItem() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewKnowledgeItemNormalizesTags(t *testing.T) {
	item, err := NewKnowledgeItem(NewKnowledgeItemInput{
		Subject:     "wolf",
		Information: "seen near the bridge",
		Type:        KnowledgeLocation,
		Certainty:   CertaintyMedium,
		Source:      SourceDirectObservation,
		AcquiredAt:  testStart,
		Tags:        []string{"hostile", "beast", "hostile", " "},
	})
	if err != nil {
		t.Fatalf("NewKnowledgeItem() error = %v", err)
	}
	want := []string{"beast", "hostile"}
	tags := item.Tags()
	if len(tags) != len(want) {
		t.Fatalf("Tags() = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("Tags()[%d] = %q, want %q", i, tags[i], want[i])
		}
	}
	if !item.HasTag("beast") || item.HasTag("cute") {
		t.Error("HasTag() mismatch")
	}
}

func TestIsCurrent(t *testing.T) {
	expiry := testStart.Add(time.Hour)
	item, err := NewKnowledgeItem(NewKnowledgeItemInput{
		Subject:     "patrol",
		Information: "passes at dusk",
		Type:        KnowledgeEvent,
		Certainty:   CertaintyHigh,
		Source:      SourceDirectObservation,
		AcquiredAt:  testStart,
		ExpiresAt:   &expiry,
	})
	if err != nil {
		t.Fatalf("NewKnowledgeItem() error = %v", err)
	}
	if !item.IsCurrent(testStart.Add(30 * time.Minute)) {
		t.Error("IsCurrent() before expiry = false, want true")
	}
	if item.IsCurrent(testStart.Add(2 * time.Hour)) {
		t.Error("IsCurrent() after expiry = true, want false")
	}

	forever := testKnowledgeItem(t, "s", CertaintyLow, SourceSpeculation, "i")
	if !forever.IsCurrent(testStart.Add(1000 * time.Hour)) {
		t.Error("IsCurrent() without expiry = false, want true")
	}
}

func TestWithUpdatedCertainty(t *testing.T) {
	item := testKnowledgeItem(t, "wolf", CertaintyHigh, SourceDirectObservation, "dire wolf")

	lowered, err := item.WithUpdatedCertainty(CertaintyLow, "")
	if err != nil {
		t.Fatalf("WithUpdatedCertainty() error = %v", err)
	}
	if lowered.Certainty() != CertaintyLow {
		t.Errorf("Certainty() = %v, want %v", lowered.Certainty(), CertaintyLow)
	}
	if lowered.Source() != SourceDirectObservation {
		t.Errorf("Source() = %v, want unchanged", lowered.Source())
	}
	if item.Certainty() != CertaintyHigh {
		t.Errorf("original certainty = %v, want untouched", item.Certainty())
	}

	resourced, err := item.WithUpdatedCertainty(CertaintyMedium, SourceReportedByAlly)
	if err != nil {
		t.Fatalf("WithUpdatedCertainty() error = %v", err)
	}
	if resourced.Source() != SourceReportedByAlly {
		t.Errorf("Source() = %v, want %v", resourced.Source(), SourceReportedByAlly)
	}
}
