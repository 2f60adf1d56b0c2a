package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrSubjectMismatch indicates an item filed under the wrong subject.
var ErrSubjectMismatch = errors.New("knowledge item subject must match its key")

// KnowledgeBase is an immutable multi-map of knowledge items keyed by
// subject. Adding knowledge returns a fresh base; existing items are never
// overwritten, so contradictory facts about one subject can coexist. Callers
// that want "latest wins" semantics select with MostReliableKnowledge.
type KnowledgeBase struct {
	items map[string][]KnowledgeItem
}

// NewKnowledgeBase returns an empty knowledge base.
func NewKnowledgeBase() KnowledgeBase {
	return KnowledgeBase{items: map[string][]KnowledgeItem{}}
}

// KnowledgeBaseFromItems groups a flat list of items by subject. Used when
// rehydrating a persisted base.
func KnowledgeBaseFromItems(items []KnowledgeItem) KnowledgeBase {
	base := NewKnowledgeBase()
	for _, item := range items {
		base.items[item.Subject()] = append(base.items[item.Subject()], item)
	}
	return base
}

// Len returns the total number of items across every subject.
func (b KnowledgeBase) Len() int {
	total := 0
	for _, items := range b.items {
		total += len(items)
	}
	return total
}

// Subjects lists every subject with at least one item, in sorted order.
func (b KnowledgeBase) Subjects() []string {
	subjects := make([]string, 0, len(b.items))
	for subject := range b.items {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// Items returns a flat copy of every item in the base, grouped by subject in
// sorted subject order.
func (b KnowledgeBase) Items() []KnowledgeItem {
	out := make([]KnowledgeItem, 0, b.Len())
	for _, subject := range b.Subjects() {
		out = append(out, b.items[subject]...)
	}
	return out
}

// KnowledgeAbout returns the current items for a subject at or above the
// reliability threshold, most reliable first. Ties break toward the most
// recently acquired item.
func (b KnowledgeBase) KnowledgeAbout(subject string, minReliability float64, at time.Time) []KnowledgeItem {
	var out []KnowledgeItem
	for _, item := range b.items[subject] {
		if !item.IsCurrent(at) {
			continue
		}
		if item.ReliabilityScore() < minReliability {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].ReliabilityScore(), out[j].ReliabilityScore()
		if si != sj {
			return si > sj
		}
		return out[i].AcquiredAt().After(out[j].AcquiredAt())
	})
	return out
}

// MostReliableKnowledge returns the single most reliable current item for a
// subject, or false when none exists.
func (b KnowledgeBase) MostReliableKnowledge(subject string, at time.Time) (KnowledgeItem, bool) {
	items := b.KnowledgeAbout(subject, 0, at)
	if len(items) == 0 {
		return KnowledgeItem{}, false
	}
	return items[0], true
}

// HasKnowledgeAbout reports whether any current item for the subject meets
// the certainty threshold.
func (b KnowledgeBase) HasKnowledgeAbout(subject string, minCertainty CertaintyLevel, at time.Time) bool {
	for _, item := range b.items[subject] {
		if item.IsCurrent(at) && item.Certainty().AtLeast(minCertainty) {
			return true
		}
	}
	return false
}

// SubjectsByType lists subjects holding at least one item of the given type.
func (b KnowledgeBase) SubjectsByType(kind KnowledgeType) []string {
	return b.filterSubjects(func(item KnowledgeItem) bool {
		return item.Type() == kind
	})
}

// SubjectsByTag lists subjects holding at least one item with the given tag.
func (b KnowledgeBase) SubjectsByTag(tag string) []string {
	return b.filterSubjects(func(item KnowledgeItem) bool {
		return item.HasTag(tag)
	})
}

func (b KnowledgeBase) filterSubjects(match func(KnowledgeItem) bool) []string {
	var subjects []string
	for subject, items := range b.items {
		for _, item := range items {
			if match(item) {
				subjects = append(subjects, subject)
				break
			}
		}
	}
	sort.Strings(subjects)
	return subjects
}

// KnowledgeBySource returns every item acquired from the given source.
func (b KnowledgeBase) KnowledgeBySource(source KnowledgeSource) []KnowledgeItem {
	var out []KnowledgeItem
	for _, subject := range b.Subjects() {
		for _, item := range b.items[subject] {
			if item.Source() == source {
				out = append(out, item)
			}
		}
	}
	return out
}

// StaleSubjects lists subjects whose items have all lapsed at the given time.
func (b KnowledgeBase) StaleSubjects(at time.Time) []string {
	var subjects []string
	for subject, items := range b.items {
		stale := true
		for _, item := range items {
			if item.IsCurrent(at) {
				stale = false
				break
			}
		}
		if stale {
			subjects = append(subjects, subject)
		}
	}
	sort.Strings(subjects)
	return subjects
}

// AddKnowledge returns a new base with the item appended under its subject.
// The receiver is left untouched.
func (b KnowledgeBase) AddKnowledge(item KnowledgeItem) KnowledgeBase {
	next := KnowledgeBase{items: make(map[string][]KnowledgeItem, len(b.items)+1)}
	for subject, items := range b.items {
		next.items[subject] = items
	}
	existing := next.items[item.Subject()]
	updated := make([]KnowledgeItem, len(existing), len(existing)+1)
	copy(updated, existing)
	next.items[item.Subject()] = append(updated, item)
	return next
}

// UpdateKnowledge appends an item under an explicit subject key, rejecting a
// key that disagrees with the item's own subject. Knowledge is never replaced
// in place; confirmation or contradiction is resolved by the caller.
func (b KnowledgeBase) UpdateKnowledge(subject string, item KnowledgeItem) (KnowledgeBase, error) {
	if subject != item.Subject() {
		return KnowledgeBase{}, fmt.Errorf("%w: key %q item %q", ErrSubjectMismatch, subject, item.Subject())
	}
	return b.AddKnowledge(item), nil
}
