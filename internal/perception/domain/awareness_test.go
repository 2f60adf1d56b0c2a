package domain

import (
	"errors"
	"math"
	"testing"
)

func mustAwareness(t *testing.T, input NewAwarenessStateInput) AwarenessState {
	t.Helper()
	if input.Focus.Mode == "" {
		input.Focus.Mode = FocusUnfocused
	}
	state, err := NewAwarenessState(input)
	if err != nil {
		t.Fatalf("NewAwarenessState() error = %v", err)
	}
	return state
}

func TestNewAwarenessStateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   NewAwarenessStateInput
		wantErr error
	}{
		{
			name: "invalid base",
			input: NewAwarenessStateInput{
				BaseAlertness:    AlertnessLevel(42),
				CurrentAlertness: AlertnessRelaxed,
				Focus:            AttentionFocus{Mode: FocusUnfocused},
			},
			wantErr: ErrInvalidAlertness,
		},
		{
			name: "fatigue out of range",
			input: NewAwarenessStateInput{
				BaseAlertness:    AlertnessRelaxed,
				CurrentAlertness: AlertnessRelaxed,
				Focus:            AttentionFocus{Mode: FocusUnfocused},
				Fatigue:          1.2,
			},
			wantErr: ErrFatigueOutOfRange,
		},
		{
			name: "modifier out of range",
			input: NewAwarenessStateInput{
				BaseAlertness:    AlertnessRelaxed,
				CurrentAlertness: AlertnessRelaxed,
				Focus:            AttentionFocus{Mode: FocusUnfocused},
				Modifiers:        map[AwarenessModifier]float64{ModifierMagicalEnhancement: 1.5},
			},
			wantErr: ErrModifierOutOfRange,
		},
		{
			name: "target focus without target",
			input: NewAwarenessStateInput{
				BaseAlertness:    AlertnessRelaxed,
				CurrentAlertness: AlertnessRelaxed,
				Focus:            AttentionFocus{Mode: FocusTargetSpecific},
			},
			wantErr: ErrMissingFocusTarget,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAwarenessState(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewAwarenessState() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEffectiveAlertness(t *testing.T) {
	tests := []struct {
		name      string
		current   AlertnessLevel
		fatigue   float64
		stress    float64
		modifiers map[AwarenessModifier]float64
		want      AlertnessLevel
	}{
		{name: "rested relaxed", current: AlertnessRelaxed, want: AlertnessRelaxed},
		{name: "heavy fatigue drops two", current: AlertnessAlert, fatigue: 0.85, want: AlertnessDrowsy},
		{name: "moderate fatigue drops one", current: AlertnessAlert, fatigue: 0.65, want: AlertnessRelaxed},
		{name: "moderate stress sharpens", current: AlertnessRelaxed, stress: 0.3, want: AlertnessAlert},
		{name: "extreme stress degrades", current: AlertnessVigilant, stress: 0.9, want: AlertnessAlert},
		{
			name:      "modifier lifts",
			current:   AlertnessRelaxed,
			modifiers: map[AwarenessModifier]float64{ModifierMagicalEnhancement: 1.0},
			want:      AlertnessAlert,
		},
		{name: "floor at unconscious", current: AlertnessSleeping, fatigue: 0.9, stress: 0.9, want: AlertnessUnconscious},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := mustAwareness(t, NewAwarenessStateInput{
				BaseAlertness:    tt.current,
				CurrentAlertness: tt.current,
				Fatigue:          tt.fatigue,
				Stress:           tt.stress,
				Modifiers:        tt.modifiers,
			})
			if got := state.EffectiveAlertness(); got != tt.want {
				t.Errorf("EffectiveAlertness() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPerceptionBonus(t *testing.T) {
	tests := []struct {
		name    string
		current AlertnessLevel
		mode    FocusMode
		target  string
		want    float64
	}{
		{name: "relaxed unfocused", current: AlertnessRelaxed, mode: FocusUnfocused, want: 0},
		{name: "alert scanning", current: AlertnessAlert, mode: FocusThreatScanning, want: 0.75},
		{name: "vigilant on target", current: AlertnessVigilant, mode: FocusTargetSpecific, target: "door", want: 1.1},
		{name: "drowsy in a task", current: AlertnessDrowsy, mode: FocusTaskFocused, want: -0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := mustAwareness(t, NewAwarenessStateInput{
				BaseAlertness:    tt.current,
				CurrentAlertness: tt.current,
				Focus:            AttentionFocus{Mode: tt.mode, Target: tt.target},
			})
			if got := state.PerceptionBonus(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PerceptionBonus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReactionTimeModifier(t *testing.T) {
	state := mustAwareness(t, NewAwarenessStateInput{
		BaseAlertness:    AlertnessAlert,
		CurrentAlertness: AlertnessAlert,
		Fatigue:          0.5,
		Stress:           0.3,
	})
	// 0.8 base, 1.5x from fatigue, stress at its sweet spot.
	if got, want := state.ReactionTimeModifier(), 1.2; math.Abs(got-want) > 1e-9 {
		t.Errorf("ReactionTimeModifier() = %v, want %v", got, want)
	}

	paranoid := mustAwareness(t, NewAwarenessStateInput{
		BaseAlertness:    AlertnessParanoid,
		CurrentAlertness: AlertnessParanoid,
	})
	vigilant := mustAwareness(t, NewAwarenessStateInput{
		BaseAlertness:    AlertnessVigilant,
		CurrentAlertness: AlertnessVigilant,
	})
	if paranoid.ReactionTimeModifier() <= vigilant.ReactionTimeModifier() {
		t.Error("paranoid should react slower than vigilant")
	}
}

func TestCanDetectStealth(t *testing.T) {
	tests := []struct {
		name    string
		current AlertnessLevel
		mode    FocusMode
		want    bool
	}{
		{name: "relaxed unfocused", current: AlertnessRelaxed, mode: FocusUnfocused, want: false},
		{name: "alert unfocused", current: AlertnessAlert, mode: FocusUnfocused, want: true},
		{name: "drowsy scanning", current: AlertnessDrowsy, mode: FocusThreatScanning, want: true},
		{name: "sleeping scanning", current: AlertnessSleeping, mode: FocusThreatScanning, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := mustAwareness(t, NewAwarenessStateInput{
				BaseAlertness:    tt.current,
				CurrentAlertness: tt.current,
				Focus:            AttentionFocus{Mode: tt.mode},
			})
			if got := state.CanDetectStealth(); got != tt.want {
				t.Errorf("CanDetectStealth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSurprisedByCombat(t *testing.T) {
	tests := []struct {
		name    string
		current AlertnessLevel
		mode    FocusMode
		want    bool
	}{
		{name: "sleeping", current: AlertnessSleeping, mode: FocusUnfocused, want: true},
		{name: "relaxed idle", current: AlertnessRelaxed, mode: FocusUnfocused, want: false},
		{name: "relaxed absorbed", current: AlertnessRelaxed, mode: FocusTaskFocused, want: true},
		{name: "vigilant", current: AlertnessVigilant, mode: FocusUnfocused, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := mustAwareness(t, NewAwarenessStateInput{
				BaseAlertness:    tt.current,
				CurrentAlertness: tt.current,
				Focus:            AttentionFocus{Mode: tt.mode},
			})
			if got := state.SurprisedByCombat(); got != tt.want {
				t.Errorf("SurprisedByCombat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWithModifierCopies(t *testing.T) {
	original := mustAwareness(t, NewAwarenessStateInput{
		BaseAlertness:    AlertnessRelaxed,
		CurrentAlertness: AlertnessRelaxed,
	})
	modified, err := original.WithModifier(ModifierMagicalEnhancement, 0.5)
	if err != nil {
		t.Fatalf("WithModifier() error = %v", err)
	}
	if len(original.Modifiers()) != 0 {
		t.Errorf("original modifiers = %v, want empty", original.Modifiers())
	}
	if got := modified.Modifiers()[ModifierMagicalEnhancement]; got != 0.5 {
		t.Errorf("modified modifier = %v, want 0.5", got)
	}
	if original.Equal(modified) {
		t.Error("Equal() = true for differing states")
	}
}
