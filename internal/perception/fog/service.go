package fog

import (
	"sort"
	"strings"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
)

// DefaultDecayRatePerHour is the certainty weight lost per hour when no
// explicit decay rate is supplied.
const DefaultDecayRatePerHour = 0.05

// propagationReliabilityThreshold is the minimum effective reliability a
// knowledge item needs before an entity will pass it on.
const propagationReliabilityThreshold = 0.5

// Service computes visibility, propagates knowledge between entities, and
// decays stale information. The service is stateless: every method is a
// pure function of its arguments aside from reading the clock, so
// computations for different entities can run fully in parallel.
type Service struct {
	calculator VisibilityCalculator
	clock      func() time.Time
}

// NewService creates a fog-of-war service. A nil calculator selects the
// default environmental model.
func NewService(calculator VisibilityCalculator) *Service {
	if calculator == nil {
		calculator = NewEnvironmentalCalculator()
	}
	return &Service{calculator: calculator, clock: time.Now}
}

// VisibilityBetweenPositions scores every sense of the observer against a
// target position. The observer's perception bonus stretches each sense's
// effective range and softens half of any accuracy penalty.
func (s *Service) VisibilityBetweenPositions(observer *domain.TurnBrief, observerPos, targetPos Position, conditions Conditions) map[domain.PerceptionType]domain.VisibilityLevel {
	distance := observerPos.DistanceTo(targetPos)
	bonus := observer.Awareness().PerceptionBonus()

	out := make(map[domain.PerceptionType]domain.VisibilityLevel)
	for perceptionType, r := range observer.Capabilities().Ranges() {
		adjusted := s.adjustForAwareness(r, bonus)
		out[perceptionType] = s.calculator.Visibility(adjusted, distance, conditions)
	}
	return out
}

// adjustForAwareness folds the observer's perception bonus into one sense:
// the effective range scales by 1+bonus and the accuracy shift is halved.
func (s *Service) adjustForAwareness(r domain.PerceptionRange, bonus float64) domain.PerceptionRange {
	rangeScale := 1 + bonus
	if rangeScale < 0 {
		rangeScale = 0
	}
	adjusted, err := r.WithEffectiveRange(r.EffectiveRange() * rangeScale)
	if err != nil {
		return r
	}
	accuracy := r.Accuracy() * (1 + bonus/2)
	if accuracy < 0 {
		accuracy = 0
	}
	if accuracy > 1 {
		accuracy = 1
	}
	adjusted, err = adjusted.WithAccuracy(accuracy)
	if err != nil {
		return r
	}
	return adjusted
}

// Diff captures the outcome of one fog-of-war recomputation: who became
// visible, who vanished, and every subject whose level actually changed
// (including transitions to invisible).
type Diff struct {
	NewlyRevealed     []string
	NewlyConcealed    []string
	VisibilityChanges map[string]domain.VisibilityLevel
}

// IsEmpty reports whether the diff carries no changes at all.
func (d Diff) IsEmpty() bool {
	return len(d.NewlyRevealed) == 0 && len(d.NewlyConcealed) == 0 && len(d.VisibilityChanges) == 0
}

// UpdateVisibleSubjects recomputes visibility for every subject in the world
// snapshot and diffs the result against the brief's stored visibility. The
// brief itself is not mutated; the caller feeds the diff into
// TurnBrief.UpdateFogOfWar. A snapshot missing the observer's own position
// yields an empty diff.
func (s *Service) UpdateVisibleSubjects(observer *domain.TurnBrief, worldPositions map[string]Position, conditions Conditions) Diff {
	diff := Diff{VisibilityChanges: map[string]domain.VisibilityLevel{}}

	observerPos, ok := worldPositions[observer.EntityID()]
	if !ok {
		return diff
	}

	previous := observer.VisibleSubjects()
	for subject, position := range worldPositions {
		if subject == observer.EntityID() {
			continue
		}
		best := domain.VisibilityInvisible
		for _, level := range s.VisibilityBetweenPositions(observer, observerPos, position, conditions) {
			best = domain.BestVisibility(best, level)
		}

		previousLevel, wasVisible := previous[subject]
		if best == domain.VisibilityInvisible {
			if wasVisible {
				diff.NewlyConcealed = append(diff.NewlyConcealed, subject)
				diff.VisibilityChanges[subject] = domain.VisibilityInvisible
			}
			continue
		}
		if !wasVisible {
			diff.NewlyRevealed = append(diff.NewlyRevealed, subject)
			diff.VisibilityChanges[subject] = best
			continue
		}
		if previousLevel != best {
			diff.VisibilityChanges[subject] = best
		}
	}

	sort.Strings(diff.NewlyRevealed)
	sort.Strings(diff.NewlyConcealed)
	return diff
}

// PropagateKnowledgeInput describes one knowledge share between entities.
// An empty Types slice shares every knowledge type. Distance is the current
// separation between the two entities as computed by the caller from world
// positions.
type PropagateKnowledgeInput struct {
	Source                    *domain.TurnBrief
	Target                    *domain.TurnBrief
	Types                     []domain.KnowledgeType
	Distance                  float64
	MaxDistance               float64
	SourceReliabilityModifier float64
}

// PropagateKnowledge returns the source's current knowledge items that can
// be shared with the target. Shared items are re-stamped as reported by an
// ally with a fresh acquisition time; subject, information, certainty,
// expiry, and tags carry forward. Propagation is refused entirely when
// either party is unconscious or the entities are too far apart.
func (s *Service) PropagateKnowledge(input PropagateKnowledgeInput) []domain.KnowledgeItem {
	if input.Source == nil || input.Target == nil {
		return nil
	}
	if input.Source.Awareness().CurrentAlertness() == domain.AlertnessUnconscious ||
		input.Target.Awareness().CurrentAlertness() == domain.AlertnessUnconscious {
		return nil
	}
	if input.MaxDistance > 0 && input.Distance > input.MaxDistance {
		return nil
	}
	modifier := input.SourceReliabilityModifier
	if modifier <= 0 {
		modifier = 1
	}

	wanted := make(map[domain.KnowledgeType]bool, len(input.Types))
	for _, kind := range input.Types {
		wanted[kind] = true
	}

	now := s.clock().UTC()
	var shared []domain.KnowledgeItem
	for _, item := range input.Source.Knowledge().Items() {
		if !item.IsCurrent(now) {
			continue
		}
		if len(wanted) > 0 && !wanted[item.Type()] {
			continue
		}
		if item.ReliabilityScore()*modifier < propagationReliabilityThreshold {
			continue
		}
		restamped, err := domain.NewKnowledgeItem(domain.NewKnowledgeItemInput{
			Subject:     item.Subject(),
			Information: item.Information(),
			Type:        item.Type(),
			Certainty:   item.Certainty(),
			Source:      domain.SourceReportedByAlly,
			AcquiredAt:  now,
			ExpiresAt:   item.ExpiresAt(),
			Tags:        item.Tags(),
		})
		if err != nil {
			// An expiry in the past fails re-stamping; the item is
			// effectively lapsed for the recipient.
			continue
		}
		shared = append(shared, restamped)
	}
	return shared
}

// FilterKnowledgeByReliability returns a new base holding only the items
// that are current at the given time and score at or above minScore.
func (s *Service) FilterKnowledgeByReliability(base domain.KnowledgeBase, minScore float64, at time.Time) domain.KnowledgeBase {
	filtered := domain.NewKnowledgeBase()
	for _, item := range base.Items() {
		if !item.IsCurrent(at) {
			continue
		}
		if item.ReliabilityScore() < minScore {
			continue
		}
		filtered = filtered.AddKnowledge(item)
	}
	return filtered
}

// CalculateInformationDecay fades an item's certainty by elapsed time at the
// given rate per hour (DefaultDecayRatePerHour when zero or negative). The
// decayed weight is floored at zero and mapped back to the nearest certainty
// level. The second return is false when the level did not change; decay
// never raises certainty.
func (s *Service) CalculateInformationDecay(item domain.KnowledgeItem, elapsed time.Duration, ratePerHour float64) (domain.KnowledgeItem, bool) {
	if ratePerHour <= 0 {
		ratePerHour = DefaultDecayRatePerHour
	}
	weight := item.Certainty().Weight() - ratePerHour*elapsed.Hours()
	if weight < 0 {
		weight = 0
	}
	decayed := domain.CertaintyFromWeight(weight)
	if decayed.AtLeast(item.Certainty()) && decayed != item.Certainty() {
		// Nearest-level rounding can only move down from a decayed weight;
		// guard against a mapping that would flatter the item.
		return item, false
	}
	if decayed == item.Certainty() {
		return item, false
	}
	updated, err := item.WithUpdatedCertainty(decayed, "")
	if err != nil {
		return item, false
	}
	return updated, true
}

// StaleKnowledgeSubjects lists the subjects in a brief with no item that is
// both current and acquired within the staleness window.
func (s *Service) StaleKnowledgeSubjects(brief *domain.TurnBrief, staleness time.Duration) []string {
	now := s.clock().UTC()
	cutoff := now.Add(-staleness)

	var stale []string
	base := brief.Knowledge()
	for _, subject := range base.Subjects() {
		fresh := false
		for _, item := range base.KnowledgeAbout(subject, 0, now) {
			if !item.AcquiredAt().Before(cutoff) {
				fresh = true
				break
			}
		}
		if !fresh {
			stale = append(stale, subject)
		}
	}
	return stale
}

// Threat indicator keywords and their weights. Strong indicators describe
// direct hostility; weak ones mere suspicion.
var (
	strongThreatIndicators = []string{"hostile", "aggressive", "weapon", "attack"}
	weakThreatIndicators   = []string{"suspicious", "unknown", "moving"}
)

// ThreatAssessment is the outcome of scanning knowledge about a subject.
// Confidence is the average reliability of the knowledge consulted.
type ThreatAssessment struct {
	Level      domain.ThreatLevel
	Confidence float64
}

// AssessThreatLevel scans the brief's current knowledge about a subject and
// accumulates a weighted indicator score from keyword matches in the
// information text. No knowledge at all yields an unknown assessment.
func (s *Service) AssessThreatLevel(brief *domain.TurnBrief, subject string) ThreatAssessment {
	now := s.clock().UTC()
	items := brief.Knowledge().KnowledgeAbout(subject, 0, now)
	if len(items) == 0 {
		return ThreatAssessment{Level: domain.ThreatUnknown}
	}

	score := 0.0
	totalReliability := 0.0
	for _, item := range items {
		text := strings.ToLower(item.Information())
		reliability := item.ReliabilityScore()
		totalReliability += reliability
		for _, indicator := range strongThreatIndicators {
			if strings.Contains(text, indicator) {
				score += 2 * reliability
			}
		}
		for _, indicator := range weakThreatIndicators {
			if strings.Contains(text, indicator) {
				score += reliability
			}
		}
	}

	level := domain.ThreatLow
	switch {
	case score >= 3.0:
		level = domain.ThreatCritical
	case score >= 2.0:
		level = domain.ThreatHigh
	case score >= 1.0:
		level = domain.ThreatMedium
	}
	return ThreatAssessment{
		Level:      level,
		Confidence: totalReliability / float64(len(items)),
	}
}
