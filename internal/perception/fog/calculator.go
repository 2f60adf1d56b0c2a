package fog

import (
	"github.com/emberfall/veil/internal/perception/domain"
)

// VisibilityCalculator scores how well one sense makes out a subject at a
// distance under the given environmental conditions. The default model is
// the closed-form distance and accuracy function; alternate calculators
// (e.g. raycast-based) can be substituted without touching the service or
// the aggregate.
type VisibilityCalculator interface {
	Visibility(r domain.PerceptionRange, distance float64, conditions Conditions) domain.VisibilityLevel
}

// modifierFloor is the lowest combined environmental multiplier. Even a
// pitch-black storm leaves a sliver of perception.
const modifierFloor = 0.1

// lightModifiers scales each sense by ambient light.
var lightModifiers = map[domain.PerceptionType]map[string]float64{
	domain.PerceptionVisual: {
		"daylight":    1.0,
		"bright":      1.0,
		"dim":         0.7,
		"dark":        0.3,
		"pitch_black": 0.1,
	},
	domain.PerceptionMagical: {
		"pitch_black": 0.9,
	},
}

// weatherModifiers scales each sense by weather.
var weatherModifiers = map[domain.PerceptionType]map[string]float64{
	domain.PerceptionVisual: {
		"clear": 1.0,
		"rain":  0.7,
		"snow":  0.6,
		"storm": 0.5,
		"fog":   0.4,
	},
	domain.PerceptionAuditory: {
		"clear": 1.0,
		"rain":  0.6,
		"storm": 0.3,
		"wind":  0.5,
	},
	domain.PerceptionOlfactory: {
		"clear": 1.0,
		"rain":  0.5,
		"storm": 0.4,
		"wind":  0.3,
	},
}

// terrainModifiers scales each sense by terrain.
var terrainModifiers = map[domain.PerceptionType]map[string]float64{
	domain.PerceptionVisual: {
		"open":         1.0,
		"urban":        0.7,
		"forest":       0.6,
		"dense_forest": 0.4,
		"underground":  0.8,
	},
	domain.PerceptionAuditory: {
		"open":        1.0,
		"forest":      0.8,
		"urban":       0.5,
		"underground": 1.2,
	},
}

// conditionTables maps each well-known condition key to its per-sense table.
var conditionTables = map[string]map[domain.PerceptionType]map[string]float64{
	ConditionLightLevel: lightModifiers,
	ConditionWeather:    weatherModifiers,
	ConditionTerrain:    terrainModifiers,
}

// EnvironmentalCalculator is the default visibility model: linear distance
// decay scaled by accuracy, with per-sense multiplier tables for light,
// weather, and terrain.
type EnvironmentalCalculator struct{}

// NewEnvironmentalCalculator returns the default calculator.
func NewEnvironmentalCalculator() *EnvironmentalCalculator {
	return &EnvironmentalCalculator{}
}

// EnvironmentalModifier returns the multiplier one condition applies to one
// sense. Unknown keys, senses, or values are neutral (1.0).
func (c *EnvironmentalCalculator) EnvironmentalModifier(perceptionType domain.PerceptionType, key, value string) float64 {
	table, ok := conditionTables[key]
	if !ok {
		return 1.0
	}
	senseTable, ok := table[perceptionType]
	if !ok {
		return 1.0
	}
	modifier, ok := senseTable[value]
	if !ok {
		return 1.0
	}
	return modifier
}

// Visibility scores one sense at a distance under the given conditions.
// Condition multipliers compound; the combined multiplier is floored at 0.1.
func (c *EnvironmentalCalculator) Visibility(r domain.PerceptionRange, distance float64, conditions Conditions) domain.VisibilityLevel {
	combined := 1.0
	for key, value := range conditions {
		combined *= c.EnvironmentalModifier(r.Type(), key, value)
	}
	if combined < modifierFloor {
		combined = modifierFloor
	}
	if combined != 1.0 {
		adjusted, err := r.WithEnvironmentalModifier("environment", combined)
		if err == nil {
			r = adjusted
		}
	}
	return r.VisibilityAtDistance(distance)
}
