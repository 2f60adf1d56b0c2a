package domain

import (
	"errors"
	"fmt"
	"strings"
)

// VisibilityLevel describes how well a subject can be made out. Levels are
// ordered from best to worst: Clear < Partial < Obscured < Hidden < Invisible.
type VisibilityLevel int

const (
	// VisibilityClear indicates the subject is fully visible.
	VisibilityClear VisibilityLevel = iota
	// VisibilityPartial indicates the subject is mostly visible.
	VisibilityPartial
	// VisibilityObscured indicates the subject is hard to make out.
	VisibilityObscured
	// VisibilityHidden indicates the subject is barely detectable.
	VisibilityHidden
	// VisibilityInvisible indicates the subject cannot be perceived at all.
	VisibilityInvisible
)

// visibilityOrdinals keeps the ordering explicit. Lower index is better.
var visibilityOrdinals = map[VisibilityLevel]int{
	VisibilityClear:     0,
	VisibilityPartial:   1,
	VisibilityObscured:  2,
	VisibilityHidden:    3,
	VisibilityInvisible: 4,
}

// ErrInvalidVisibility indicates a visibility level outside the known scale.
var ErrInvalidVisibility = errors.New("visibility level is not on the known scale")

// IsValid reports whether the level is on the known scale.
func (v VisibilityLevel) IsValid() bool {
	_, ok := visibilityOrdinals[v]
	return ok
}

// BetterThan reports whether the level beats another on the ordered scale.
func (v VisibilityLevel) BetterThan(other VisibilityLevel) bool {
	return visibilityOrdinals[v] < visibilityOrdinals[other]
}

// BestVisibility returns whichever of the two levels is better.
func BestVisibility(a, b VisibilityLevel) VisibilityLevel {
	if b.BetterThan(a) {
		return b
	}
	return a
}

func (v VisibilityLevel) String() string {
	switch v {
	case VisibilityClear:
		return "clear"
	case VisibilityPartial:
		return "partial"
	case VisibilityObscured:
		return "obscured"
	case VisibilityHidden:
		return "hidden"
	case VisibilityInvisible:
		return "invisible"
	default:
		return "unknown"
	}
}

// ParseVisibility maps a stored visibility name back to its level.
func ParseVisibility(value string) (VisibilityLevel, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "clear":
		return VisibilityClear, nil
	case "partial":
		return VisibilityPartial, nil
	case "obscured":
		return VisibilityObscured, nil
	case "hidden":
		return VisibilityHidden, nil
	case "invisible":
		return VisibilityInvisible, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVisibility, value)
	}
}

// VisibilityFromScore maps a perception score in [0, 1] to a visibility level.
// The thresholds are the canonical scoring bands for the distance model.
func VisibilityFromScore(score float64) VisibilityLevel {
	switch {
	case score >= 0.7:
		return VisibilityClear
	case score >= 0.5:
		return VisibilityPartial
	case score >= 0.3:
		return VisibilityObscured
	case score > 0.0:
		return VisibilityHidden
	default:
		return VisibilityInvisible
	}
}

// PerceptionType identifies a sense an entity can perceive with.
type PerceptionType string

const (
	// PerceptionVisual is sight.
	PerceptionVisual PerceptionType = "visual"
	// PerceptionAuditory is hearing.
	PerceptionAuditory PerceptionType = "auditory"
	// PerceptionOlfactory is smell.
	PerceptionOlfactory PerceptionType = "olfactory"
	// PerceptionTactile is touch and vibration sense.
	PerceptionTactile PerceptionType = "tactile"
	// PerceptionMagical is supernatural detection.
	PerceptionMagical PerceptionType = "magical"
)

// ErrInvalidPerceptionType indicates an empty or unknown perception type.
var ErrInvalidPerceptionType = errors.New("perception type is required")

// IsValid reports whether the perception type names a usable sense.
func (t PerceptionType) IsValid() bool {
	return strings.TrimSpace(string(t)) != ""
}
