package domain

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNoPerceptionRanges indicates capabilities without a single sense.
	ErrNoPerceptionRanges = errors.New("at least one perception range is required")
	// ErrRangeTypeMismatch indicates a range stored under the wrong sense key.
	ErrRangeTypeMismatch = errors.New("perception range type must match its key")
	// ErrNegativePassiveBonus indicates a negative passive awareness bonus.
	ErrNegativePassiveBonus = errors.New("passive awareness bonus must be non-negative")
	// ErrInvalidFocusMultiplier indicates a non-positive focus multiplier.
	ErrInvalidFocusMultiplier = errors.New("focused perception multiplier must be positive")
)

// PerceptionCapabilities bundles every sense an entity perceives with. The
// value is immutable once built.
type PerceptionCapabilities struct {
	ranges          map[PerceptionType]PerceptionRange
	passiveBonus    float64
	focusMultiplier float64
}

// NewPerceptionCapabilitiesInput describes the fields for building capabilities.
type NewPerceptionCapabilitiesInput struct {
	Ranges                      map[PerceptionType]PerceptionRange
	PassiveAwarenessBonus       float64
	FocusedPerceptionMultiplier float64
}

// NewPerceptionCapabilities validates and builds a capabilities value.
func NewPerceptionCapabilities(input NewPerceptionCapabilitiesInput) (PerceptionCapabilities, error) {
	if len(input.Ranges) == 0 {
		return PerceptionCapabilities{}, ErrNoPerceptionRanges
	}
	if input.PassiveAwarenessBonus < 0 {
		return PerceptionCapabilities{}, fmt.Errorf("%w: %v", ErrNegativePassiveBonus, input.PassiveAwarenessBonus)
	}
	if input.FocusedPerceptionMultiplier <= 0 {
		return PerceptionCapabilities{}, fmt.Errorf("%w: %v", ErrInvalidFocusMultiplier, input.FocusedPerceptionMultiplier)
	}
	ranges := make(map[PerceptionType]PerceptionRange, len(input.Ranges))
	for key, r := range input.Ranges {
		if key != r.Type() {
			return PerceptionCapabilities{}, fmt.Errorf("%w: key %q holds %q", ErrRangeTypeMismatch, key, r.Type())
		}
		ranges[key] = r
	}
	return PerceptionCapabilities{
		ranges:          ranges,
		passiveBonus:    input.PassiveAwarenessBonus,
		focusMultiplier: input.FocusedPerceptionMultiplier,
	}, nil
}

// PassiveAwarenessBonus returns the always-on awareness bonus.
func (c PerceptionCapabilities) PassiveAwarenessBonus() float64 { return c.passiveBonus }

// FocusedPerceptionMultiplier returns the range multiplier applied to a
// focused sense.
func (c PerceptionCapabilities) FocusedPerceptionMultiplier() float64 { return c.focusMultiplier }

// Range returns the perception range for one sense.
func (c PerceptionCapabilities) Range(t PerceptionType) (PerceptionRange, bool) {
	r, ok := c.ranges[t]
	return r, ok
}

// Ranges returns a copy of every owned perception range keyed by sense.
func (c PerceptionCapabilities) Ranges() map[PerceptionType]PerceptionRange {
	out := make(map[PerceptionType]PerceptionRange, len(c.ranges))
	for key, r := range c.ranges {
		out[key] = r
	}
	return out
}

// HasPerceptionType reports whether the entity owns the given sense.
func (c PerceptionCapabilities) HasPerceptionType(t PerceptionType) bool {
	_, ok := c.ranges[t]
	return ok
}

// PerceptionTypes lists the owned senses in stable order.
func (c PerceptionCapabilities) PerceptionTypes() []PerceptionType {
	types := make([]PerceptionType, 0, len(c.ranges))
	for key := range c.ranges {
		types = append(types, key)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// MaximumRange returns the longest effective range across all senses, or
// zero when no sense is owned.
func (c PerceptionCapabilities) MaximumRange() float64 {
	max := 0.0
	for _, r := range c.ranges {
		if r.EffectiveRange() > max {
			max = r.EffectiveRange()
		}
	}
	return max
}

// BestVisibilityAtDistance evaluates every sense at the given distance and
// keeps the best result: senses compensate for each other. When focusedType
// names an owned sense, that sense's effective range is stretched by the
// focus multiplier before scoring. Pass an empty type for no focus.
func (c PerceptionCapabilities) BestVisibilityAtDistance(distance float64, focusedType PerceptionType) VisibilityLevel {
	best := VisibilityInvisible
	for key, r := range c.ranges {
		scored := r
		if key == focusedType {
			stretched, err := r.WithEffectiveRange(r.EffectiveRange() * c.focusMultiplier)
			if err == nil {
				scored = stretched
			}
		}
		best = BestVisibility(best, scored.VisibilityAtDistance(distance))
	}
	return best
}
