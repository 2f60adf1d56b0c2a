// Package domain models each entity's subjective view of the shared world:
// what it can perceive, what it knows, and how alert it is. Two entities in
// the same place can hold entirely different, individually consistent
// beliefs about it.
//
// The model is centered around a few concepts:
//
// # TurnBrief
//
// The aggregate root. One brief exists per observing entity and owns its
// awareness state, perception capabilities, knowledge base, visible-subject
// map, and tracked threats. Every mutation validates first, applies
// atomically, bumps the version counter by one, and appends domain events
// that callers drain after a successful save.
//
// # AwarenessState
//
// An immutable snapshot of alertness, attention focus, fatigue, and stress,
// with pure derivations for effective alertness, perception bonus, reaction
// time, stealth detection, and combat surprise.
//
// # PerceptionRange and PerceptionCapabilities
//
// The per-sense range and accuracy model. A range scores visibility at a
// distance; capabilities fuse every owned sense and keep the best result, so
// senses compensate for each other.
//
// # KnowledgeItem and KnowledgeBase
//
// Immutable facts with certainty, source reliability, and optional expiry,
// held in an append-only multi-map keyed by subject. Contradictory facts
// about one subject coexist; callers pick with MostReliableKnowledge.
package domain
