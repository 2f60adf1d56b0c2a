package fog

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Well-known condition keys. Free-form keys are allowed; the calculator
// falls back to a neutral multiplier for anything it has no table for.
const (
	// ConditionLightLevel keys the ambient light condition.
	ConditionLightLevel = "light_level"
	// ConditionWeather keys the weather condition.
	ConditionWeather = "weather"
	// ConditionTerrain keys the terrain condition.
	ConditionTerrain = "terrain"
)

// Conditions maps environmental condition names to their current values,
// e.g. light_level=dark, weather=storm.
type Conditions map[string]string

// DefaultConditions returns a neutral daylight environment.
func DefaultConditions() Conditions {
	return Conditions{
		ConditionLightLevel: "daylight",
		ConditionWeather:    "clear",
		ConditionTerrain:    "open",
	}
}

// ConditionProfile is a named environment preset loadable from YAML.
type ConditionProfile struct {
	Name       string            `yaml:"name"`
	LightLevel string            `yaml:"light_level"`
	Weather    string            `yaml:"weather"`
	Terrain    string            `yaml:"terrain"`
	Extra      map[string]string `yaml:"extra,omitempty"`
}

// Conditions flattens the profile into a conditions map. Empty fields are
// omitted so they fall back to the calculator's neutral defaults.
func (p ConditionProfile) Conditions() Conditions {
	conditions := make(Conditions, 3+len(p.Extra))
	if p.LightLevel != "" {
		conditions[ConditionLightLevel] = p.LightLevel
	}
	if p.Weather != "" {
		conditions[ConditionWeather] = p.Weather
	}
	if p.Terrain != "" {
		conditions[ConditionTerrain] = p.Terrain
	}
	for key, value := range p.Extra {
		conditions[key] = value
	}
	return conditions
}

// ParseConditionProfile decodes a YAML condition profile.
func ParseConditionProfile(data []byte) (ConditionProfile, error) {
	var profile ConditionProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return ConditionProfile{}, fmt.Errorf("parse condition profile: %w", err)
	}
	if strings.TrimSpace(profile.Name) == "" {
		return ConditionProfile{}, fmt.Errorf("condition profile name is required")
	}
	return profile, nil
}

//go:embed profiles/*.yaml
var profilesFS embed.FS

// NamedProfile loads one of the embedded condition profiles by file name
// (without extension), e.g. "clear_day" or "night_storm".
func NamedProfile(name string) (ConditionProfile, error) {
	data, err := profilesFS.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return ConditionProfile{}, fmt.Errorf("read condition profile %q: %w", name, err)
	}
	return ParseConditionProfile(data)
}

// ProfileNames lists the embedded condition profiles in sorted order.
func ProfileNames() ([]string, error) {
	entries, err := profilesFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("read condition profiles: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}
