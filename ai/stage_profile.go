package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StageProfile is the externally supplied policy blob that drives one stage's
// prompts: a versioned system context plus free-text guidance. Profiles are
// injected at stage construction, never read from global state.
type StageProfile struct {
	Stage         string `yaml:"stage"`
	Version       string `yaml:"version"`
	SystemContext string `yaml:"system_context"`
	Guidance      string `yaml:"guidance"`
}

// StageProfiles maps stage name to profile.
type StageProfiles map[string]StageProfile

// DefaultProfiles returns the built-in profiles used when no profile file is
// configured.
func DefaultProfiles() StageProfiles {
	return StageProfiles{
		"scoring": {
			Stage:         "scoring",
			Version:       "builtin-1",
			SystemContext: "You are a research triage analyst. You score newly discovered literature for a research pipeline. Respond with valid JSON only.",
			Guidance:      "Favor items with concrete, testable findings over reviews and opinion pieces.",
		},
		"generation": {
			Stage:         "generation",
			Version:       "builtin-1",
			SystemContext: "You are a research scientist. You derive falsifiable hypotheses from published findings. Respond with valid JSON only.",
			Guidance:      "Each hypothesis must state a mechanism and at least one testable prediction.",
		},
		"validation": {
			Stage:         "validation",
			Version:       "builtin-1",
			SystemContext: "You are a skeptical literature reviewer. You weigh retrieved evidence for and against a hypothesis. Respond with valid JSON only.",
			Guidance:      "Weigh contradicting evidence at least as heavily as supporting evidence. Recommend pursue only when support is clear.",
		},
		"planning": {
			Stage:         "planning",
			Version:       "builtin-1",
			SystemContext: "You are a research program manager. You turn validated hypotheses into executable project plans. Respond with valid JSON only.",
			Guidance:      "Plans need concrete milestones with day offsets and realistic cost estimates.",
		},
		"critique": {
			Stage:         "critique",
			Version:       "builtin-1",
			SystemContext: "You are an adversarial reviewer. Your job is to find reasons a plan will fail. Respond with valid JSON only.",
			Guidance:      "Be harsh. A plan with no critical weaknesses found is a review failure, not a good plan.",
		},
	}
}

// LoadProfiles reads a YAML profile file and overlays it on the defaults, so
// a partial file overrides only the stages it names.
func LoadProfiles(path string) (StageProfiles, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage profiles %s: %w", path, err)
	}

	var file struct {
		Profiles []StageProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse stage profiles %s: %w", path, err)
	}

	for _, p := range file.Profiles {
		if p.Stage == "" {
			return nil, fmt.Errorf("stage profile missing stage name in %s", path)
		}
		profiles[p.Stage] = p
	}
	return profiles, nil
}

// For returns the profile for a stage, falling back to the built-in one.
func (p StageProfiles) For(stage string) StageProfile {
	if profile, ok := p[stage]; ok {
		return profile
	}
	return DefaultProfiles()[stage]
}
