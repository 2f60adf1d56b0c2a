package event

// TurnBriefCreatedPayload captures the payload for turnbrief.created events.
type TurnBriefCreatedPayload struct {
	EntityID          string   `json:"entity_id"`
	WorldStateVersion uint64   `json:"world_state_version"`
	InitialAlertness  string   `json:"initial_alertness"`
	PerceptionTypes   []string `json:"perception_types"`
}

// TurnBriefUpdatedPayload captures the payload for turnbrief.updated events.
type TurnBriefUpdatedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// PerceptionRangeUpdatedPayload captures the payload for
// perception.range_updated events.
type PerceptionRangeUpdatedPayload struct {
	PerceptionType    string  `json:"perception_type"`
	OldEffectiveRange float64 `json:"old_effective_range"`
	NewEffectiveRange float64 `json:"new_effective_range"`
	OldAccuracy       float64 `json:"old_accuracy"`
	NewAccuracy       float64 `json:"new_accuracy"`
	Reason            string  `json:"reason,omitempty"`
}

// AlertnessChangedPayload captures the payload for
// awareness.alertness_changed events.
type AlertnessChangedPayload struct {
	OldAlertness string `json:"old_alertness"`
	NewAlertness string `json:"new_alertness"`
}

// AttentionFocusChangedPayload captures the payload for
// awareness.focus_changed events.
type AttentionFocusChangedPayload struct {
	OldFocus  string `json:"old_focus"`
	NewFocus  string `json:"new_focus"`
	OldTarget string `json:"old_target,omitempty"`
	NewTarget string `json:"new_target,omitempty"`
}

// NewPerceptionAcquiredPayload captures the payload for perception.acquired
// events.
type NewPerceptionAcquiredPayload struct {
	Subject         string  `json:"subject"`
	PerceptionType  string  `json:"perception_type"`
	VisibilityLevel string  `json:"visibility_level"`
	Distance        float64 `json:"distance"`
	Details         string  `json:"details,omitempty"`
}

// KnowledgeRevealedPayload captures the payload for knowledge.revealed events.
type KnowledgeRevealedPayload struct {
	Subject          string  `json:"subject"`
	Information      string  `json:"information"`
	KnowledgeType    string  `json:"knowledge_type"`
	Certainty        string  `json:"certainty"`
	Source           string  `json:"source"`
	Reliability      float64 `json:"reliability"`
	RevelationMethod string  `json:"revelation_method,omitempty"`
}

// KnowledgeUpdatedPayload captures the payload for knowledge.updated events.
type KnowledgeUpdatedPayload struct {
	Subject          string  `json:"subject"`
	OldInformation   string  `json:"old_information"`
	NewInformation   string  `json:"new_information"`
	OldCertainty     string  `json:"old_certainty"`
	NewCertainty     string  `json:"new_certainty"`
	OldReliability   float64 `json:"old_reliability"`
	NewReliability   float64 `json:"new_reliability"`
	RevelationMethod string  `json:"revelation_method,omitempty"`
}

// ThreatDetectedPayload captures the payload for threat.detected events.
type ThreatDetectedPayload struct {
	Subject           string   `json:"subject"`
	ThreatType        string   `json:"threat_type"`
	Level             string   `json:"level"`
	Confidence        float64  `json:"confidence"`
	DetectionMethod   string   `json:"detection_method"`
	EstimatedDistance *float64 `json:"estimated_distance,omitempty"`
}

// ThreatLostPayload captures the payload for threat.lost events.
// LastKnownDistance is the last estimated range to the threat, if any.
type ThreatLostPayload struct {
	Subject           string   `json:"subject"`
	ThreatType        string   `json:"threat_type"`
	Reason            string   `json:"reason,omitempty"`
	LastKnownDistance *float64 `json:"last_known_distance,omitempty"`
}

// FogOfWarUpdatedPayload captures the payload for perception.fog_updated
// events. Subjects is the union of revealed, concealed, and changed subjects.
type FogOfWarUpdatedPayload struct {
	NewlyRevealed     []string          `json:"newly_revealed,omitempty"`
	NewlyConcealed    []string          `json:"newly_concealed,omitempty"`
	VisibilityChanges map[string]string `json:"visibility_changes,omitempty"`
	Subjects          []string          `json:"subjects"`
	Reason            string            `json:"reason,omitempty"`
}
