package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNegativeRange indicates a negative base or effective range.
	ErrNegativeRange = errors.New("perception range must be non-negative")
	// ErrAccuracyOutOfRange indicates an accuracy modifier outside [0, 1].
	ErrAccuracyOutOfRange = errors.New("accuracy modifier must be in range 0..1")
	// ErrEmptyModifierName indicates an environmental modifier with no name.
	ErrEmptyModifierName = errors.New("environmental modifier name is required")
)

// PerceptionRange models how far and how accurately one sense reaches.
// Values are immutable; WithEnvironmentalModifier returns a fresh range.
type PerceptionRange struct {
	perceptionType PerceptionType
	baseRange      float64
	effectiveRange float64
	accuracy       float64
	environmental  map[string]float64
}

// NewPerceptionRangeInput describes the fields for building a perception range.
type NewPerceptionRangeInput struct {
	Type           PerceptionType
	BaseRange      float64
	EffectiveRange float64
	Accuracy       float64
	Environmental  map[string]float64
}

// NewPerceptionRange validates and builds a perception range.
func NewPerceptionRange(input NewPerceptionRangeInput) (PerceptionRange, error) {
	if !input.Type.IsValid() {
		return PerceptionRange{}, ErrInvalidPerceptionType
	}
	if input.BaseRange < 0 || input.EffectiveRange < 0 {
		return PerceptionRange{}, fmt.Errorf("%w: base %v effective %v", ErrNegativeRange, input.BaseRange, input.EffectiveRange)
	}
	if input.Accuracy < 0 || input.Accuracy > 1 {
		return PerceptionRange{}, fmt.Errorf("%w: %v", ErrAccuracyOutOfRange, input.Accuracy)
	}
	environmental := make(map[string]float64, len(input.Environmental))
	for name, value := range input.Environmental {
		if strings.TrimSpace(name) == "" {
			return PerceptionRange{}, ErrEmptyModifierName
		}
		environmental[name] = value
	}
	return PerceptionRange{
		perceptionType: input.Type,
		baseRange:      input.BaseRange,
		effectiveRange: input.EffectiveRange,
		accuracy:       input.Accuracy,
		environmental:  environmental,
	}, nil
}

// Type returns the sense this range belongs to.
func (r PerceptionRange) Type() PerceptionType { return r.perceptionType }

// BaseRange returns the unmodified reach of the sense.
func (r PerceptionRange) BaseRange() float64 { return r.baseRange }

// EffectiveRange returns the reach of the sense after situational effects.
func (r PerceptionRange) EffectiveRange() float64 { return r.effectiveRange }

// Accuracy returns the accuracy modifier in [0, 1].
func (r PerceptionRange) Accuracy() float64 { return r.accuracy }

// EnvironmentalModifiers returns a copy of the active environmental modifiers.
func (r PerceptionRange) EnvironmentalModifiers() map[string]float64 {
	out := make(map[string]float64, len(r.environmental))
	for name, value := range r.environmental {
		out[name] = value
	}
	return out
}

// VisibilityAtDistance scores how well this sense makes out a subject at the
// given distance. Distance zero or less is always clear; anything beyond the
// effective range is invisible. In between, the score decays linearly with
// distance, scaled by accuracy and the product of environmental modifiers.
func (r PerceptionRange) VisibilityAtDistance(distance float64) VisibilityLevel {
	if distance <= 0 {
		return VisibilityClear
	}
	if distance > r.effectiveRange {
		return VisibilityInvisible
	}
	distanceFactor := distance / r.effectiveRange
	score := (1 - distanceFactor) * r.accuracy
	for _, value := range r.environmental {
		score *= value
	}
	return VisibilityFromScore(score)
}

// WithinRange reports whether a subject at the given distance is reachable.
func (r PerceptionRange) WithinRange(distance float64) bool {
	return distance <= r.effectiveRange
}

// WithEnvironmentalModifier returns a copy of the range with the named
// modifier inserted or overwritten.
func (r PerceptionRange) WithEnvironmentalModifier(name string, value float64) (PerceptionRange, error) {
	if strings.TrimSpace(name) == "" {
		return PerceptionRange{}, ErrEmptyModifierName
	}
	next := r
	next.environmental = make(map[string]float64, len(r.environmental)+1)
	for k, v := range r.environmental {
		next.environmental[k] = v
	}
	next.environmental[name] = value
	return next, nil
}

// WithEffectiveRange returns a copy of the range with a different effective
// reach. Used when awareness or focus stretches a sense.
func (r PerceptionRange) WithEffectiveRange(effective float64) (PerceptionRange, error) {
	if effective < 0 {
		return PerceptionRange{}, fmt.Errorf("%w: effective %v", ErrNegativeRange, effective)
	}
	next := r
	next.environmental = r.EnvironmentalModifiers()
	next.effectiveRange = effective
	return next, nil
}

// WithAccuracy returns a copy of the range with a different accuracy modifier.
func (r PerceptionRange) WithAccuracy(accuracy float64) (PerceptionRange, error) {
	if accuracy < 0 || accuracy > 1 {
		return PerceptionRange{}, fmt.Errorf("%w: %v", ErrAccuracyOutOfRange, accuracy)
	}
	next := r
	next.environmental = r.EnvironmentalModifiers()
	next.accuracy = accuracy
	return next, nil
}
