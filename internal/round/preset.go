package round

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Preset is a named difficulty: range, attempt budget and hint tier.
type Preset struct {
	Name        string   `yaml:"name"`
	LowerBound  int      `yaml:"lower_bound"`
	UpperBound  int      `yaml:"upper_bound"`
	MaxAttempts int      `yaml:"max_attempts"`
	MaxHints    int      `yaml:"max_hints"`
	HintTier    HintTier `yaml:"hint_tier"`
	Description string   `yaml:"description"`
}

// Mode modifies a difficulty preset.
type Mode string

const (
	ModeClassic     Mode = "classic"
	ModeSuddenDeath Mode = "sudden_death"
	ModeSurvival    Mode = "survival"
	ModeTimeAttack  Mode = "time_attack"
)

// ModeRule describes how a mode overrides the difficulty preset.
type ModeRule struct {
	Mode        Mode
	Title       string
	Description string
	// MaxAttempts of zero keeps the preset's budget.
	MaxAttempts int
	TimeLimit   time.Duration
	// Cumulative modes carry the score across consecutive won rounds.
	Cumulative bool
}

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownMode       = errors.New("unknown game mode")
)

var presetMu sync.RWMutex

var presetOrder = []string{"easy", "medium", "hard"}

var presets = map[string]Preset{
	"easy": {
		Name:        "easy",
		LowerBound:  1,
		UpperBound:  20,
		MaxAttempts: 7,
		MaxHints:    1,
		HintTier:    HintCoarse,
		Description: "1-20, 7 attempts",
	},
	"medium": {
		Name:        "medium",
		LowerBound:  1,
		UpperBound:  20,
		MaxAttempts: 5,
		MaxHints:    1,
		HintTier:    HintParity,
		Description: "1-20, 5 attempts",
	},
	"hard": {
		Name:        "hard",
		LowerBound:  1,
		UpperBound:  20,
		MaxAttempts: 3,
		MaxHints:    1,
		HintTier:    HintProperty,
		Description: "1-20, 3 attempts",
	},
}

var modeRules = map[Mode]ModeRule{
	ModeClassic: {
		Mode:        ModeClassic,
		Title:       "Classic Mode",
		Description: "Standard number guessing game",
	},
	ModeSuddenDeath: {
		Mode:        ModeSuddenDeath,
		Title:       "Sudden Death",
		Description: "One attempt to guess correctly!",
		MaxAttempts: 1,
	},
	ModeSurvival: {
		Mode:        ModeSurvival,
		Title:       "Survival Mode",
		Description: "Score accumulates across rounds",
		MaxAttempts: 5,
		Cumulative:  true,
	},
	ModeTimeAttack: {
		Mode:        ModeTimeAttack,
		Title:       "Time Attack",
		Description: "Guess under time pressure",
		MaxAttempts: 10,
		TimeLimit:   60 * time.Second,
	},
}

var modeOrder = []Mode{ModeClassic, ModeSuddenDeath, ModeSurvival, ModeTimeAttack}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidatePreset checks that a preset can produce a valid round config.
func ValidatePreset(p Preset) error {
	if normalizeName(p.Name) == "" {
		return fmt.Errorf("%w: preset name is empty", ErrInvalidConfig)
	}
	switch p.HintTier {
	case HintCoarse, HintParity, HintProperty:
	default:
		return fmt.Errorf("%w: preset %s has unknown hint tier %q", ErrInvalidConfig, p.Name, p.HintTier)
	}
	cfg := Config{
		LowerBound:  p.LowerBound,
		UpperBound:  p.UpperBound,
		MaxAttempts: p.MaxAttempts,
		MaxHints:    p.MaxHints,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return nil
}

func GetPreset(name string) (Preset, error) {
	key := normalizeName(name)
	presetMu.RLock()
	defer presetMu.RUnlock()
	p, ok := presets[key]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownDifficulty, name)
	}
	return p, nil
}

// ListPresets returns the presets in display order.
func ListPresets() []Preset {
	presetMu.RLock()
	defer presetMu.RUnlock()
	out := make([]Preset, 0, len(presetOrder))
	for _, name := range presetOrder {
		if p, ok := presets[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

func ParseMode(s string) (Mode, error) {
	key := Mode(normalizeName(s))
	if key == "" {
		return ModeClassic, nil
	}
	if _, ok := modeRules[key]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return key, nil
}

func GetModeRule(m Mode) (ModeRule, error) {
	rule, ok := modeRules[m]
	if !ok {
		return ModeRule{}, fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	return rule, nil
}

// ListModes returns the mode rules in display order.
func ListModes() []ModeRule {
	out := make([]ModeRule, 0, len(modeOrder))
	for _, m := range modeOrder {
		out = append(out, modeRules[m])
	}
	return out
}

// ScoreLabel is the high-score key for a difficulty played in a mode.
func ScoreLabel(difficulty string, mode Mode) string {
	if mode == "" || mode == ModeClassic {
		return normalizeName(difficulty)
	}
	return string(mode)
}

// Resolve combines a difficulty preset and a mode into a round config.
func Resolve(difficulty string, mode Mode) (Config, error) {
	p, err := GetPreset(difficulty)
	if err != nil {
		return Config{}, err
	}
	if mode == "" {
		mode = ModeClassic
	}
	rule, err := GetModeRule(mode)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		LowerBound:  p.LowerBound,
		UpperBound:  p.UpperBound,
		MaxAttempts: p.MaxAttempts,
		MaxHints:    p.MaxHints,
		HintTier:    p.HintTier,
		Label:       ScoreLabel(p.Name, mode),
		Mode:        mode,
	}
	if rule.MaxAttempts > 0 {
		cfg.MaxAttempts = rule.MaxAttempts
	}
	cfg.TimeLimit = rule.TimeLimit
	return cfg, cfg.Validate()
}

type presetFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadPresetOverrides merges presets from a YAML file into the registry.
// Presets are validated before any of them is applied.
func LoadPresetOverrides(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read presets file: %w", err)
	}
	var file presetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse presets file: %w", err)
	}
	for i := range file.Presets {
		file.Presets[i].Name = normalizeName(file.Presets[i].Name)
		if err := ValidatePreset(file.Presets[i]); err != nil {
			return err
		}
	}

	presetMu.Lock()
	defer presetMu.Unlock()
	for _, p := range file.Presets {
		if _, exists := presets[p.Name]; !exists {
			presetOrder = append(presetOrder, p.Name)
		}
		presets[p.Name] = p
	}
	return nil
}
