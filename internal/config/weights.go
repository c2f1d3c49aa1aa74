package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/quillstone/recall/internal/engine"
)

// LoadWeightProfile reads a scoring weight profile from a YAML file.
// Missing sections fall back to the built-in defaults, so a profile may
// override just the tables it cares about. The merged profile is validated
// before being returned.
//
// Example profile:
//
//	source_weights:
//	  semantic_search: 0.9
//	intent_kind_weights:
//	  task:
//	    task: 1.5
//	mention_boost: 1.3
func LoadWeightProfile(path string) (engine.WeightProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.WeightProfile{}, fmt.Errorf("config: read weight profile %s: %w", path, err)
	}

	var loaded engine.WeightProfile
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return engine.WeightProfile{}, fmt.Errorf("config: parse weight profile %s: %w", path, err)
	}

	profile := DefaultsWith(loaded)
	if err := profile.Validate(); err != nil {
		return engine.WeightProfile{}, fmt.Errorf("config: weight profile %s: %w", path, err)
	}

	return profile, nil
}

// DefaultsWith overlays the non-empty parts of override onto the default
// weight profile.
func DefaultsWith(override engine.WeightProfile) engine.WeightProfile {
	profile := engine.DefaultWeightProfile()

	for source, weight := range override.SourceWeights {
		profile.SourceWeights[source] = weight
	}

	for category, kinds := range override.IntentKindWeights {
		if profile.IntentKindWeights[category] == nil {
			profile.IntentKindWeights[category] = kinds
			continue
		}
		for kind, weight := range kinds {
			profile.IntentKindWeights[category][kind] = weight
		}
	}

	if override.MentionBoost != 0 {
		profile.MentionBoost = override.MentionBoost
	}

	return profile
}
