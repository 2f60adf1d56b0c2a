package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ThreatLevel labels how dangerous a tracked threat is.
type ThreatLevel string

const (
	// ThreatUnknown indicates no basis for an assessment.
	ThreatUnknown ThreatLevel = "unknown"
	// ThreatLow indicates a minor threat.
	ThreatLow ThreatLevel = "low"
	// ThreatMedium indicates a moderate threat.
	ThreatMedium ThreatLevel = "medium"
	// ThreatHigh indicates a serious threat.
	ThreatHigh ThreatLevel = "high"
	// ThreatCritical indicates an immediate, severe threat.
	ThreatCritical ThreatLevel = "critical"
)

// threatSeverity orders threat levels for sorting and comparison.
var threatSeverity = map[ThreatLevel]int{
	ThreatUnknown:  0,
	ThreatLow:      1,
	ThreatMedium:   2,
	ThreatHigh:     3,
	ThreatCritical: 4,
}

// ErrInvalidThreatLevel indicates a threat level outside the known set.
var ErrInvalidThreatLevel = errors.New("threat level is not recognized")

// IsValid reports whether the level names a known severity. ThreatUnknown is
// an assessment result, not a valid detection severity.
func (l ThreatLevel) IsValid() bool {
	switch l {
	case ThreatLow, ThreatMedium, ThreatHigh, ThreatCritical:
		return true
	default:
		return false
	}
}

// Severity returns the numeric rank of the level for comparisons.
func (l ThreatLevel) Severity() int {
	return threatSeverity[l]
}

// ThreatStatus tracks whether a threat is still being followed.
type ThreatStatus string

const (
	// ThreatActive indicates the threat is currently tracked.
	ThreatActive ThreatStatus = "active"
	// ThreatStatusLost indicates tracking on the threat has lapsed.
	ThreatStatusLost ThreatStatus = "lost"
)

// DetectionMethod names how a threat was noticed.
type DetectionMethod string

const (
	// DetectionVisual is sighting the threat.
	DetectionVisual DetectionMethod = "visual"
	// DetectionAuditory is hearing the threat.
	DetectionAuditory DetectionMethod = "auditory"
	// DetectionMagical is supernatural detection.
	DetectionMagical DetectionMethod = "magical"
	// DetectionInference is deduction from held knowledge.
	DetectionInference DetectionMethod = "knowledge_inference"
)

var (
	// ErrEmptyThreatSubject indicates a threat without a subject.
	ErrEmptyThreatSubject = errors.New("threat subject is required")
	// ErrEmptyThreatType indicates a threat without a type.
	ErrEmptyThreatType = errors.New("threat type is required")
	// ErrConfidenceOutOfRange indicates a confidence outside [0, 1].
	ErrConfidenceOutOfRange = errors.New("threat confidence must be in range 0..1")
	// ErrEmptyDetectionMethod indicates a threat without a detection method.
	ErrEmptyDetectionMethod = errors.New("detection method is required")
	// ErrNegativeThreatDistance indicates a negative estimated distance.
	ErrNegativeThreatDistance = errors.New("estimated distance must be non-negative")
)

// ThreatRecord tracks one subject an entity considers dangerous.
// EstimatedDistance is nil when the range to the threat is unknown.
type ThreatRecord struct {
	Subject           string
	Type              string
	Level             ThreatLevel
	Confidence        float64
	Method            DetectionMethod
	EstimatedDistance *float64
	FirstDetected     time.Time
	LastSeen          time.Time
	Status            ThreatStatus
	LostAt            *time.Time
	LossReason        string
}

// validateThreatInput checks the caller-supplied threat fields.
func validateThreatInput(subject, threatType string, level ThreatLevel, confidence float64, method DetectionMethod, estimatedDistance *float64) error {
	if strings.TrimSpace(subject) == "" {
		return ErrEmptyThreatSubject
	}
	if strings.TrimSpace(threatType) == "" {
		return ErrEmptyThreatType
	}
	if !level.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidThreatLevel, level)
	}
	if confidence < 0 || confidence > 1 {
		return fmt.Errorf("%w: %v", ErrConfidenceOutOfRange, confidence)
	}
	if strings.TrimSpace(string(method)) == "" {
		return ErrEmptyDetectionMethod
	}
	if estimatedDistance != nil && *estimatedDistance < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeThreatDistance, *estimatedDistance)
	}
	return nil
}
