package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// CertaintyLevel describes how sure an entity is about a piece of knowledge.
// Levels are ordered from least to most certain.
type CertaintyLevel int

const (
	// CertaintyUnknown indicates no confidence at all.
	CertaintyUnknown CertaintyLevel = iota
	// CertaintyMinimal indicates a vague hunch.
	CertaintyMinimal
	// CertaintyLow indicates weak confidence.
	CertaintyLow
	// CertaintyMedium indicates moderate confidence.
	CertaintyMedium
	// CertaintyHigh indicates strong confidence.
	CertaintyHigh
	// CertaintyAbsolute indicates complete certainty.
	CertaintyAbsolute
)

// certaintyWeights maps each certainty level to its numeric weight. The table
// is explicit so decay and reliability math stay testable in isolation.
var certaintyWeights = map[CertaintyLevel]float64{
	CertaintyUnknown:  0.0,
	CertaintyMinimal:  0.20,
	CertaintyLow:      0.40,
	CertaintyMedium:   0.65,
	CertaintyHigh:     0.85,
	CertaintyAbsolute: 1.0,
}

// ErrInvalidCertainty indicates a certainty level outside the known scale.
var ErrInvalidCertainty = errors.New("certainty level is not on the known scale")

// IsValid reports whether the level is on the known scale.
func (c CertaintyLevel) IsValid() bool {
	_, ok := certaintyWeights[c]
	return ok
}

// Weight returns the numeric weight of the certainty level.
func (c CertaintyLevel) Weight() float64 {
	return certaintyWeights[c]
}

// AtLeast reports whether the level is equal to or above another on the scale.
func (c CertaintyLevel) AtLeast(other CertaintyLevel) bool {
	return certaintyWeights[c] >= certaintyWeights[other]
}

func (c CertaintyLevel) String() string {
	switch c {
	case CertaintyUnknown:
		return "unknown"
	case CertaintyMinimal:
		return "minimal"
	case CertaintyLow:
		return "low"
	case CertaintyMedium:
		return "medium"
	case CertaintyHigh:
		return "high"
	case CertaintyAbsolute:
		return "absolute"
	default:
		return "invalid"
	}
}

// ParseCertainty maps a stored certainty name back to its level.
func ParseCertainty(value string) (CertaintyLevel, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "unknown":
		return CertaintyUnknown, nil
	case "minimal":
		return CertaintyMinimal, nil
	case "low":
		return CertaintyLow, nil
	case "medium":
		return CertaintyMedium, nil
	case "high":
		return CertaintyHigh, nil
	case "absolute":
		return CertaintyAbsolute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCertainty, value)
	}
}

// CertaintyFromWeight maps a numeric weight back to the certainty level whose
// weight is numerically closest. Ties round toward the lower level so decay
// never flatters stale information.
func CertaintyFromWeight(weight float64) CertaintyLevel {
	nearest := CertaintyUnknown
	nearestDistance := math.Inf(1)
	for level := CertaintyUnknown; level <= CertaintyAbsolute; level++ {
		distance := math.Abs(certaintyWeights[level] - weight)
		if distance < nearestDistance {
			nearest = level
			nearestDistance = distance
		}
	}
	return nearest
}

// KnowledgeSource identifies where a piece of knowledge came from. Every
// source carries a reliability weight.
type KnowledgeSource string

const (
	// SourceDirectObservation is first-hand perception.
	SourceDirectObservation KnowledgeSource = "direct_observation"
	// SourceReportedByAlly is second-hand information from a trusted party.
	SourceReportedByAlly KnowledgeSource = "reported_by_ally"
	// SourceReportedByNeutral is second-hand information from a neutral party.
	SourceReportedByNeutral KnowledgeSource = "reported_by_neutral"
	// SourceReportedByEnemy is second-hand information from a hostile party.
	SourceReportedByEnemy KnowledgeSource = "reported_by_enemy"
	// SourceSpeculation is guesswork.
	SourceSpeculation KnowledgeSource = "speculation"
	// SourceHistoricalRecord is written or remembered history.
	SourceHistoricalRecord KnowledgeSource = "historical_record"
	// SourceMagicalDivination is supernatural scrying.
	SourceMagicalDivination KnowledgeSource = "magical_divination"
	// SourcePsychicReading is mind-to-mind perception.
	SourcePsychicReading KnowledgeSource = "psychic_reading"
)

// sourceReliability maps each source to its reliability weight.
var sourceReliability = map[KnowledgeSource]float64{
	SourceDirectObservation: 1.0,
	SourceReportedByAlly:    0.9,
	SourceReportedByNeutral: 0.7,
	SourceReportedByEnemy:   0.5,
	SourceSpeculation:       0.3,
	SourceHistoricalRecord:  0.75,
	SourceMagicalDivination: 0.85,
	SourcePsychicReading:    0.8,
}

// ErrInvalidKnowledgeSource indicates an unknown knowledge source.
var ErrInvalidKnowledgeSource = errors.New("knowledge source is not recognized")

// IsValid reports whether the source is one of the known kinds.
func (s KnowledgeSource) IsValid() bool {
	_, ok := sourceReliability[s]
	return ok
}

// ReliabilityWeight returns the reliability weight of the source.
func (s KnowledgeSource) ReliabilityWeight() float64 {
	return sourceReliability[s]
}

// KnowledgeType categorizes what a piece of knowledge is about.
type KnowledgeType string

const (
	// KnowledgeEntity covers facts about another entity.
	KnowledgeEntity KnowledgeType = "entity"
	// KnowledgeLocation covers facts about a place.
	KnowledgeLocation KnowledgeType = "location"
	// KnowledgeEvent covers facts about something that happened.
	KnowledgeEvent KnowledgeType = "event"
	// KnowledgeAbility covers facts about what a subject can do.
	KnowledgeAbility KnowledgeType = "ability"
	// KnowledgeIntention covers facts about what a subject plans to do.
	KnowledgeIntention KnowledgeType = "intention"
)

var (
	// ErrEmptySubject indicates knowledge without a subject.
	ErrEmptySubject = errors.New("knowledge subject is required")
	// ErrEmptyInformation indicates knowledge with no information text.
	ErrEmptyInformation = errors.New("knowledge information is required")
	// ErrEmptyKnowledgeType indicates knowledge without a type.
	ErrEmptyKnowledgeType = errors.New("knowledge type is required")
	// ErrExpiryBeforeAcquisition indicates an expiry at or before acquisition.
	ErrExpiryBeforeAcquisition = errors.New("knowledge expiry must be after acquisition")
)

// KnowledgeItem is one immutable fact an entity holds about a subject.
type KnowledgeItem struct {
	subject     string
	information string
	kind        KnowledgeType
	certainty   CertaintyLevel
	source      KnowledgeSource
	acquiredAt  time.Time
	expiresAt   *time.Time
	tags        []string
}

// NewKnowledgeItemInput describes the fields for building a knowledge item.
type NewKnowledgeItemInput struct {
	Subject     string
	Information string
	Type        KnowledgeType
	Certainty   CertaintyLevel
	Source      KnowledgeSource
	AcquiredAt  time.Time
	ExpiresAt   *time.Time
	Tags        []string
}

// NewKnowledgeItem validates and builds a knowledge item. Tags are
// deduplicated and sorted; the slice is copied.
func NewKnowledgeItem(input NewKnowledgeItemInput) (KnowledgeItem, error) {
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return KnowledgeItem{}, ErrEmptySubject
	}
	if strings.TrimSpace(input.Information) == "" {
		return KnowledgeItem{}, ErrEmptyInformation
	}
	if strings.TrimSpace(string(input.Type)) == "" {
		return KnowledgeItem{}, ErrEmptyKnowledgeType
	}
	if !input.Certainty.IsValid() {
		return KnowledgeItem{}, fmt.Errorf("%w: %d", ErrInvalidCertainty, input.Certainty)
	}
	if !input.Source.IsValid() {
		return KnowledgeItem{}, fmt.Errorf("%w: %q", ErrInvalidKnowledgeSource, input.Source)
	}
	var expiresAt *time.Time
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(input.AcquiredAt) {
			return KnowledgeItem{}, ErrExpiryBeforeAcquisition
		}
		expiry := input.ExpiresAt.UTC()
		expiresAt = &expiry
	}
	return KnowledgeItem{
		subject:     subject,
		information: input.Information,
		kind:        input.Type,
		certainty:   input.Certainty,
		source:      input.Source,
		acquiredAt:  input.AcquiredAt.UTC(),
		expiresAt:   expiresAt,
		tags:        normalizeTags(input.Tags),
	}, nil
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// Subject returns who or what the knowledge is about.
func (k KnowledgeItem) Subject() string { return k.subject }

// Information returns the knowledge text.
func (k KnowledgeItem) Information() string { return k.information }

// Type returns the knowledge category.
func (k KnowledgeItem) Type() KnowledgeType { return k.kind }

// Certainty returns how sure the holder is.
func (k KnowledgeItem) Certainty() CertaintyLevel { return k.certainty }

// Source returns where the knowledge came from.
func (k KnowledgeItem) Source() KnowledgeSource { return k.source }

// AcquiredAt returns when the knowledge was acquired.
func (k KnowledgeItem) AcquiredAt() time.Time { return k.acquiredAt }

// ExpiresAt returns when the knowledge lapses, or nil if it never does.
func (k KnowledgeItem) ExpiresAt() *time.Time {
	if k.expiresAt == nil {
		return nil
	}
	expiry := *k.expiresAt
	return &expiry
}

// Tags returns a copy of the item's tags in sorted order.
func (k KnowledgeItem) Tags() []string {
	if len(k.tags) == 0 {
		return nil
	}
	out := make([]string, len(k.tags))
	copy(out, k.tags)
	return out
}

// IsCurrent reports whether the knowledge is still valid at the given time.
// Knowledge with no expiry is always current.
func (k KnowledgeItem) IsCurrent(at time.Time) bool {
	if k.expiresAt == nil {
		return true
	}
	return at.Before(*k.expiresAt)
}

// ReliabilityScore returns certainty weight times source reliability, always
// in [0, 1]. Unknown certainty scores zero regardless of source.
func (k KnowledgeItem) ReliabilityScore() float64 {
	return k.certainty.Weight() * k.source.ReliabilityWeight()
}

// HasTag reports whether the item carries the given tag.
func (k KnowledgeItem) HasTag(tag string) bool {
	for _, t := range k.tags {
		if t == tag {
			return true
		}
	}
	return false
}

// WithUpdatedCertainty returns a copy of the item at a different certainty.
// An empty source keeps the original source; every other field is preserved.
func (k KnowledgeItem) WithUpdatedCertainty(certainty CertaintyLevel, source KnowledgeSource) (KnowledgeItem, error) {
	if !certainty.IsValid() {
		return KnowledgeItem{}, fmt.Errorf("%w: %d", ErrInvalidCertainty, certainty)
	}
	next := k
	next.certainty = certainty
	if source != "" {
		if !source.IsValid() {
			return KnowledgeItem{}, fmt.Errorf("%w: %q", ErrInvalidKnowledgeSource, source)
		}
		next.source = source
	}
	next.tags = k.Tags()
	next.expiresAt = k.ExpiresAt()
	return next, nil
}
