package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrModifierOutOfRange indicates a modifier weight outside [-1, 1].
	ErrModifierOutOfRange = errors.New("awareness modifier must be in range -1..1")
	// ErrEmptyModifierKind indicates a modifier with no kind.
	ErrEmptyModifierKind = errors.New("awareness modifier kind is required")
	// ErrFatigueOutOfRange indicates fatigue outside [0, 1].
	ErrFatigueOutOfRange = errors.New("fatigue level must be in range 0..1")
	// ErrStressOutOfRange indicates stress outside [0, 1].
	ErrStressOutOfRange = errors.New("stress level must be in range 0..1")
)

// AwarenessState is an immutable snapshot of how alert an entity is and what
// it is paying attention to. Mutation happens through the With* methods, which
// return fresh values and never touch the receiver.
type AwarenessState struct {
	baseAlertness    AlertnessLevel
	currentAlertness AlertnessLevel
	focus            AttentionFocus
	modifiers        map[AwarenessModifier]float64
	fatigue          float64
	stress           float64
}

// NewAwarenessStateInput describes the fields for building an awareness state.
type NewAwarenessStateInput struct {
	BaseAlertness    AlertnessLevel
	CurrentAlertness AlertnessLevel
	Focus            AttentionFocus
	Modifiers        map[AwarenessModifier]float64
	Fatigue          float64
	Stress           float64
}

// NewAwarenessState validates and builds an awareness state. The modifiers
// map is copied so the caller keeps no alias into the new value.
func NewAwarenessState(input NewAwarenessStateInput) (AwarenessState, error) {
	if !input.BaseAlertness.IsValid() {
		return AwarenessState{}, fmt.Errorf("%w: base %d", ErrInvalidAlertness, input.BaseAlertness)
	}
	if !input.CurrentAlertness.IsValid() {
		return AwarenessState{}, fmt.Errorf("%w: current %d", ErrInvalidAlertness, input.CurrentAlertness)
	}
	focus, err := NewAttentionFocus(input.Focus.Mode, input.Focus.Target)
	if err != nil {
		return AwarenessState{}, err
	}
	if input.Fatigue < 0 || input.Fatigue > 1 {
		return AwarenessState{}, fmt.Errorf("%w: %v", ErrFatigueOutOfRange, input.Fatigue)
	}
	if input.Stress < 0 || input.Stress > 1 {
		return AwarenessState{}, fmt.Errorf("%w: %v", ErrStressOutOfRange, input.Stress)
	}
	modifiers := make(map[AwarenessModifier]float64, len(input.Modifiers))
	for kind, value := range input.Modifiers {
		if strings.TrimSpace(string(kind)) == "" {
			return AwarenessState{}, ErrEmptyModifierKind
		}
		if value < -1 || value > 1 {
			return AwarenessState{}, fmt.Errorf("%w: %s=%v", ErrModifierOutOfRange, kind, value)
		}
		modifiers[kind] = value
	}
	return AwarenessState{
		baseAlertness:    input.BaseAlertness,
		currentAlertness: input.CurrentAlertness,
		focus:            focus,
		modifiers:        modifiers,
		fatigue:          input.Fatigue,
		stress:           input.Stress,
	}, nil
}

// DefaultAwarenessState returns a relaxed, unfocused, rested state at the
// given alertness. Used when a turn brief is first created for an entity.
func DefaultAwarenessState(alertness AlertnessLevel) (AwarenessState, error) {
	return NewAwarenessState(NewAwarenessStateInput{
		BaseAlertness:    alertness,
		CurrentAlertness: alertness,
		Focus:            AttentionFocus{Mode: FocusUnfocused},
	})
}

// BaseAlertness returns the entity's resting alertness level.
func (s AwarenessState) BaseAlertness() AlertnessLevel { return s.baseAlertness }

// CurrentAlertness returns the entity's present alertness level.
func (s AwarenessState) CurrentAlertness() AlertnessLevel { return s.currentAlertness }

// Focus returns what the entity is paying attention to.
func (s AwarenessState) Focus() AttentionFocus { return s.focus }

// Fatigue returns how tired the entity is, in [0, 1].
func (s AwarenessState) Fatigue() float64 { return s.fatigue }

// Stress returns how stressed the entity is, in [0, 1].
func (s AwarenessState) Stress() float64 { return s.stress }

// Modifiers returns a copy of the active awareness modifiers.
func (s AwarenessState) Modifiers() map[AwarenessModifier]float64 {
	out := make(map[AwarenessModifier]float64, len(s.modifiers))
	for kind, value := range s.modifiers {
		out[kind] = value
	}
	return out
}

// EffectiveAlertness folds fatigue, stress, and active modifiers into the
// current alertness and returns the nearest level on the scale.
//
// Heavy fatigue drags the level down hard; moderate stress sharpens attention
// slightly while extreme stress degrades it.
func (s AwarenessState) EffectiveAlertness() AlertnessLevel {
	effective := float64(s.currentAlertness.Ordinal())

	switch {
	case s.fatigue >= 0.8:
		effective -= 2
	case s.fatigue >= 0.6:
		effective -= 1
	}

	switch {
	case s.stress >= 0.8:
		effective -= 1.5
	case s.stress >= 0.2 && s.stress <= 0.5:
		effective += 0.5
	}

	for _, value := range s.modifiers {
		effective += value
	}

	ordinal := int(math.Round(effective))
	return alertnessFromOrdinal(ordinal)
}

// perceptionBonusByAlertness is the base perception bonus per alertness level.
var perceptionBonusByAlertness = map[AlertnessLevel]float64{
	AlertnessUnconscious: -1.0,
	AlertnessSleeping:    -0.9,
	AlertnessDrowsy:      -0.4,
	AlertnessRelaxed:     0.0,
	AlertnessAlert:       0.3,
	AlertnessVigilant:    0.6,
	AlertnessParanoid:    0.8,
}

// focusBonusByMode is the additional perception bonus per focus mode.
var focusBonusByMode = map[FocusMode]float64{
	FocusUnfocused:      0.0,
	FocusTaskFocused:    -0.2,
	FocusThreatScanning: 0.45,
	FocusEnvironmental:  0.31,
	FocusTargetSpecific: 0.5,
}

// PerceptionBonus returns the combined perception bonus from the current
// alertness level and focus mode.
func (s AwarenessState) PerceptionBonus() float64 {
	return perceptionBonusByAlertness[s.currentAlertness] + focusBonusByMode[s.focus.Mode]
}

// reactionBaseByAlertness is the base reaction-time multiplier per level.
// Larger is slower. Paranoid reacts slightly slower than vigilant: the entity
// is primed but second-guesses everything.
var reactionBaseByAlertness = map[AlertnessLevel]float64{
	AlertnessUnconscious: 10.0,
	AlertnessSleeping:    5.0,
	AlertnessDrowsy:      2.0,
	AlertnessRelaxed:     1.2,
	AlertnessAlert:       0.8,
	AlertnessVigilant:    0.6,
	AlertnessParanoid:    0.7,
}

// ReactionTimeModifier returns a multiplier on reaction time. Fatigue slows
// reactions linearly up to 2x; stress is at its best near 0.3 and slows
// reactions toward both extremes.
func (s AwarenessState) ReactionTimeModifier() float64 {
	base := reactionBaseByAlertness[s.currentAlertness]
	fatigueFactor := 1 + s.fatigue
	stressFactor := 1 + math.Abs(s.stress-0.3)
	return base * fatigueFactor * stressFactor
}

// CanDetectStealth reports whether the entity has any chance of noticing a
// hidden subject. Scanning focus always qualifies; otherwise the entity must
// be at least alert.
func (s AwarenessState) CanDetectStealth() bool {
	if s.focus.Mode == FocusThreatScanning || s.focus.Mode == FocusEnvironmental {
		return s.currentAlertness.AtLeast(AlertnessDrowsy)
	}
	return s.currentAlertness.AtLeast(AlertnessAlert)
}

// SurprisedByCombat reports whether sudden combat catches the entity off
// guard. Anything below relaxed is always surprised; relaxed entities are
// surprised only when absorbed in a task.
func (s AwarenessState) SurprisedByCombat() bool {
	switch s.currentAlertness {
	case AlertnessUnconscious, AlertnessSleeping, AlertnessDrowsy:
		return true
	case AlertnessRelaxed:
		return s.focus.Mode == FocusTaskFocused
	default:
		return false
	}
}

// WithAlertness returns a copy of the state at a different current alertness.
func (s AwarenessState) WithAlertness(level AlertnessLevel) (AwarenessState, error) {
	if !level.IsValid() {
		return AwarenessState{}, fmt.Errorf("%w: %d", ErrInvalidAlertness, level)
	}
	next := s.copy()
	next.currentAlertness = level
	return next, nil
}

// WithFocus returns a copy of the state with a different attention focus.
func (s AwarenessState) WithFocus(mode FocusMode, target string) (AwarenessState, error) {
	focus, err := NewAttentionFocus(mode, target)
	if err != nil {
		return AwarenessState{}, err
	}
	next := s.copy()
	next.focus = focus
	return next, nil
}

// WithModifier returns a copy of the state with the named modifier added or
// overwritten.
func (s AwarenessState) WithModifier(kind AwarenessModifier, value float64) (AwarenessState, error) {
	if strings.TrimSpace(string(kind)) == "" {
		return AwarenessState{}, ErrEmptyModifierKind
	}
	if value < -1 || value > 1 {
		return AwarenessState{}, fmt.Errorf("%w: %s=%v", ErrModifierOutOfRange, kind, value)
	}
	next := s.copy()
	next.modifiers[kind] = value
	return next, nil
}

func (s AwarenessState) copy() AwarenessState {
	next := s
	next.modifiers = make(map[AwarenessModifier]float64, len(s.modifiers))
	for kind, value := range s.modifiers {
		next.modifiers[kind] = value
	}
	return next
}

// Equal reports whether two awareness states hold identical values.
func (s AwarenessState) Equal(other AwarenessState) bool {
	if s.baseAlertness != other.baseAlertness ||
		s.currentAlertness != other.currentAlertness ||
		s.focus != other.focus ||
		s.fatigue != other.fatigue ||
		s.stress != other.stress ||
		len(s.modifiers) != len(other.modifiers) {
		return false
	}
	for kind, value := range s.modifiers {
		if other.modifiers[kind] != value {
			return false
		}
	}
	return true
}
