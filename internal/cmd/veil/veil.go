// Package veil parses veil command flags and runs a perception session
// against a local database.
package veil

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/emberfall/veil/internal/perception/domain"
	"github.com/emberfall/veil/internal/perception/fog"
	"github.com/emberfall/veil/internal/perception/service"
	"github.com/emberfall/veil/internal/perception/storage/sqlite"
	entrypoint "github.com/emberfall/veil/internal/platform/cmd"
)

// Config holds veil command configuration.
type Config struct {
	DBPath     string        `env:"VEIL_DB_PATH" envDefault:"veil.db"`
	Profile    string        `env:"VEIL_CONDITION_PROFILE" envDefault:"clear_day"`
	StaleAfter time.Duration `env:"VEIL_STALE_AFTER" envDefault:"720h"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the turn brief database")
	fs.StringVar(&cfg.Profile, "profile", cfg.Profile, "Named environmental condition profile")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "Age after which unused briefs are removed")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the store and plays one perception round: fog-of-war refresh for
// a scout and a sentry, knowledge sharing between them, and a threat
// assessment of what the pair learned.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceVeil, func(ctx context.Context) error {
		profile, err := fog.NamedProfile(cfg.Profile)
		if err != nil {
			return fmt.Errorf("load condition profile %q: %w", cfg.Profile, err)
		}
		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		svc, err := service.New(store, store, fog.NewService(nil))
		if err != nil {
			return err
		}
		if cfg.StaleAfter > 0 {
			removed, err := svc.CleanupStale(ctx, time.Now().Add(-cfg.StaleAfter))
			if err != nil {
				return err
			}
			if removed > 0 {
				log.Printf("removed %d stale briefs", removed)
			}
		}
		return runRound(ctx, svc, profile.Conditions())
	})
}

func runRound(ctx context.Context, svc *service.Service, conditions fog.Conditions) error {
	scout, err := ensureBrief(ctx, svc, "scout", domain.AlertnessAlert)
	if err != nil {
		return err
	}
	sentry, err := ensureBrief(ctx, svc, "sentry", domain.AlertnessRelaxed)
	if err != nil {
		return err
	}
	log.Printf("briefs ready: scout=%s sentry=%s", scout.ID(), sentry.ID())

	world := map[string]fog.Position{
		"scout":   {X: 0, Y: 0},
		"sentry":  {X: 10, Y: 0},
		"raider":  {X: 25, Y: 5},
		"caravan": {X: 70, Y: -30},
	}
	for _, entityID := range []string{"scout", "sentry"} {
		diff, err := svc.RefreshFogOfWar(ctx, entityID, world, conditions)
		if err != nil {
			return err
		}
		log.Printf("%s fog: revealed=%v concealed=%v", entityID, diff.NewlyRevealed, diff.NewlyConcealed)
	}

	if err := svc.AddKnowledge(ctx, service.AddKnowledgeInput{
		EntityID: "scout",
		Item: domain.NewKnowledgeItemInput{
			Subject:     "raider",
			Information: "armed scouts massing by the ridge",
			Type:        domain.KnowledgeLocation,
			Certainty:   domain.CertaintyHigh,
			Source:      domain.SourceDirectObservation,
			Tags:        []string{"hostile"},
		},
		RevelationMethod: "patrol",
	}); err != nil {
		return err
	}

	results, err := svc.ShareKnowledge(ctx, service.ShareKnowledgeInput{
		SourceEntityID:  "scout",
		TargetEntityIDs: []string{"sentry"},
		Distances:       map[string]float64{"sentry": 10},
		MaxDistance:     50,
	})
	if err != nil {
		return err
	}
	for _, result := range results {
		if result.Err != nil {
			log.Printf("share with %s failed: %v", result.TargetEntityID, result.Err)
			continue
		}
		log.Printf("shared %d items with %s", result.ItemsShared, result.TargetEntityID)
	}

	assessment, err := svc.AssessThreat(ctx, "sentry", "raider")
	if err != nil {
		return err
	}
	log.Printf("sentry assessment of raider: level=%s confidence=%.2f", assessment.Level, assessment.Confidence)

	for _, entityID := range []string{"scout", "sentry"} {
		history, err := svc.History(ctx, entityID, 0)
		if err != nil {
			return err
		}
		for _, evt := range history {
			log.Printf("%s event v%d %s at %s", entityID, evt.Version, evt.Type, evt.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

func ensureBrief(ctx context.Context, svc *service.Service, entityID string, alertness domain.AlertnessLevel) (*domain.TurnBrief, error) {
	if brief, err := svc.BriefForEntity(ctx, entityID); err == nil {
		return brief, nil
	}
	sight, err := domain.NewPerceptionRange(domain.NewPerceptionRangeInput{
		Type:           domain.PerceptionVisual,
		BaseRange:      60,
		EffectiveRange: 60,
		Accuracy:       0.9,
	})
	if err != nil {
		return nil, err
	}
	hearing, err := domain.NewPerceptionRange(domain.NewPerceptionRangeInput{
		Type:           domain.PerceptionAuditory,
		BaseRange:      30,
		EffectiveRange: 30,
		Accuracy:       0.7,
	})
	if err != nil {
		return nil, err
	}
	capabilities, err := domain.NewPerceptionCapabilities(domain.NewPerceptionCapabilitiesInput{
		Ranges: map[domain.PerceptionType]domain.PerceptionRange{
			domain.PerceptionVisual:   sight,
			domain.PerceptionAuditory: hearing,
		},
		PassiveAwarenessBonus:       0.1,
		FocusedPerceptionMultiplier: 1.5,
	})
	if err != nil {
		return nil, err
	}
	return svc.CreateBrief(ctx, service.CreateBriefInput{
		EntityID:         entityID,
		Capabilities:     capabilities,
		InitialAlertness: alertness,
	})
}
