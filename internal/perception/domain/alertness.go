package domain

import (
	"errors"
	"fmt"
	"strings"
)

// AlertnessLevel describes how awake and watchful an entity is.
// Levels are ordered from least to most alert.
type AlertnessLevel int

const (
	// AlertnessUnconscious indicates the entity perceives nothing.
	AlertnessUnconscious AlertnessLevel = iota
	// AlertnessSleeping indicates the entity is asleep.
	AlertnessSleeping
	// AlertnessDrowsy indicates the entity is barely awake.
	AlertnessDrowsy
	// AlertnessRelaxed indicates a calm, unguarded entity.
	AlertnessRelaxed
	// AlertnessAlert indicates active attention to surroundings.
	AlertnessAlert
	// AlertnessVigilant indicates heightened, deliberate watchfulness.
	AlertnessVigilant
	// AlertnessParanoid indicates over-alertness bordering on jumpiness.
	AlertnessParanoid
)

// alertnessOrdinals maps each level to its numeric index. The mapping is kept
// explicit rather than relying on declaration order so the scale stays
// intentional and testable in isolation.
var alertnessOrdinals = map[AlertnessLevel]int{
	AlertnessUnconscious: 0,
	AlertnessSleeping:    1,
	AlertnessDrowsy:      2,
	AlertnessRelaxed:     3,
	AlertnessAlert:       4,
	AlertnessVigilant:    5,
	AlertnessParanoid:    6,
}

// ErrInvalidAlertness indicates an alertness level outside the known scale.
var ErrInvalidAlertness = errors.New("alertness level is not on the known scale")

// IsValid reports whether the level is on the known scale.
func (l AlertnessLevel) IsValid() bool {
	_, ok := alertnessOrdinals[l]
	return ok
}

// Ordinal returns the numeric index of the level (Unconscious=0, Paranoid=6).
func (l AlertnessLevel) Ordinal() int {
	return alertnessOrdinals[l]
}

// AtLeast reports whether the level is equal to or above another on the scale.
func (l AlertnessLevel) AtLeast(other AlertnessLevel) bool {
	return alertnessOrdinals[l] >= alertnessOrdinals[other]
}

func (l AlertnessLevel) String() string {
	switch l {
	case AlertnessUnconscious:
		return "unconscious"
	case AlertnessSleeping:
		return "sleeping"
	case AlertnessDrowsy:
		return "drowsy"
	case AlertnessRelaxed:
		return "relaxed"
	case AlertnessAlert:
		return "alert"
	case AlertnessVigilant:
		return "vigilant"
	case AlertnessParanoid:
		return "paranoid"
	default:
		return "unknown"
	}
}

// ParseAlertness maps a stored alertness name back to its level.
func ParseAlertness(value string) (AlertnessLevel, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "unconscious":
		return AlertnessUnconscious, nil
	case "sleeping":
		return AlertnessSleeping, nil
	case "drowsy":
		return AlertnessDrowsy, nil
	case "relaxed":
		return AlertnessRelaxed, nil
	case "alert":
		return AlertnessAlert, nil
	case "vigilant":
		return AlertnessVigilant, nil
	case "paranoid":
		return AlertnessParanoid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAlertness, value)
	}
}

// alertnessFromOrdinal maps a clamped numeric index back to the nearest level.
func alertnessFromOrdinal(ordinal int) AlertnessLevel {
	if ordinal < 0 {
		ordinal = 0
	}
	if ordinal > alertnessOrdinals[AlertnessParanoid] {
		ordinal = alertnessOrdinals[AlertnessParanoid]
	}
	for level, idx := range alertnessOrdinals {
		if idx == ordinal {
			return level
		}
	}
	return AlertnessUnconscious
}

// FocusMode identifies the kind of attention an entity is paying.
type FocusMode string

const (
	// FocusUnfocused indicates no particular attention target.
	FocusUnfocused FocusMode = "unfocused"
	// FocusTaskFocused indicates absorption in a task at hand.
	FocusTaskFocused FocusMode = "task_focused"
	// FocusThreatScanning indicates active scanning for danger.
	FocusThreatScanning FocusMode = "threat_scanning"
	// FocusEnvironmental indicates broad attention to the surroundings.
	FocusEnvironmental FocusMode = "environmental"
	// FocusTargetSpecific indicates attention locked on one subject.
	FocusTargetSpecific FocusMode = "target_specific"
)

var (
	// ErrInvalidFocusMode indicates an unknown focus mode.
	ErrInvalidFocusMode = errors.New("focus mode is not recognized")
	// ErrMissingFocusTarget indicates target-specific focus without a target.
	ErrMissingFocusTarget = errors.New("target-specific focus requires a target")
	// ErrUnexpectedFocusTarget indicates a target on a non-targeted focus mode.
	ErrUnexpectedFocusTarget = errors.New("only target-specific focus carries a target")
)

// IsValid reports whether the mode is one of the known focus modes.
func (m FocusMode) IsValid() bool {
	switch m {
	case FocusUnfocused, FocusTaskFocused, FocusThreatScanning, FocusEnvironmental, FocusTargetSpecific:
		return true
	default:
		return false
	}
}

// AttentionFocus captures what an entity is paying attention to. Target is
// set only when Mode is FocusTargetSpecific.
type AttentionFocus struct {
	Mode   FocusMode
	Target string
}

// NewAttentionFocus validates and builds an attention focus value.
func NewAttentionFocus(mode FocusMode, target string) (AttentionFocus, error) {
	target = strings.TrimSpace(target)
	if !mode.IsValid() {
		return AttentionFocus{}, fmt.Errorf("%w: %q", ErrInvalidFocusMode, mode)
	}
	if mode == FocusTargetSpecific && target == "" {
		return AttentionFocus{}, ErrMissingFocusTarget
	}
	if mode != FocusTargetSpecific && target != "" {
		return AttentionFocus{}, ErrUnexpectedFocusTarget
	}
	return AttentionFocus{Mode: mode, Target: target}, nil
}

// AwarenessModifier names a condition that shifts effective alertness up or
// down, such as an injury or a stimulant. Kinds are free-form but non-empty;
// the constants below cover the common ones.
type AwarenessModifier string

const (
	// ModifierInjured covers wounds dulling the senses.
	ModifierInjured AwarenessModifier = "injured"
	// ModifierStimulated covers stimulants or adrenaline.
	ModifierStimulated AwarenessModifier = "stimulated"
	// ModifierMagicalEnhancement covers supernatural sharpening of awareness.
	ModifierMagicalEnhancement AwarenessModifier = "magical_enhancement"
	// ModifierDistracted covers attention pulled elsewhere.
	ModifierDistracted AwarenessModifier = "distracted"
	// ModifierDarkAdapted covers eyes adjusted to low light.
	ModifierDarkAdapted AwarenessModifier = "dark_adapted"
)
