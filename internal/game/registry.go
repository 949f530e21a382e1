package game

import (
	"fmt"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

// TrainingType groups modes by what the user is asked to identify.
type TrainingType string

// Training types.
const (
	EarTraining   TrainingType = "ear"
	ChordTraining TrainingType = "chord"
)

// StrategyType names a concrete mode implementation.
type StrategyType string

// Strategy types.
const (
	StrategyRush        StrategyType = "timed-rush"
	StrategySurvival    StrategyType = "survival"
	StrategySandbox     StrategyType = "sandbox"
	StrategySingleChord StrategyType = "single-chord"
	StrategyChordID     StrategyType = "chord-identification"
)

// Metadata is a static registration record for one training mode.
// Registered once at startup, read-only thereafter.
type Metadata struct {
	ID                string
	Type              TrainingType
	Title             string
	Description       string
	SettingsComponent string
	SettingsKey       string
	StrategyType      StrategyType
	NewMode           func(model.SessionSettings) Mode
}

// Registry is an explicit, dependency-injected mode catalog. Populate it
// before creating sessions; it is safe for concurrent reads afterwards.
// Tests needing isolation construct their own instance.
type Registry struct {
	modes map[string]Metadata
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{modes: map[string]Metadata{}}
}

// Register adds a mode. Incomplete metadata or a duplicate id is a
// configuration error; callers treat a non-nil error as fatal.
func (r *Registry) Register(md Metadata) error {
	switch {
	case md.ID == "":
		return fmt.Errorf("mode metadata missing id")
	case md.Type == "":
		return fmt.Errorf("mode %q missing training type", md.ID)
	case md.Title == "":
		return fmt.Errorf("mode %q missing title", md.ID)
	case md.Description == "":
		return fmt.Errorf("mode %q missing description", md.ID)
	case md.SettingsComponent == "":
		return fmt.Errorf("mode %q missing settings component", md.ID)
	case md.SettingsKey == "":
		return fmt.Errorf("mode %q missing settings key", md.ID)
	case md.StrategyType == "":
		return fmt.Errorf("mode %q missing strategy type", md.ID)
	case md.NewMode == nil:
		return fmt.Errorf("mode %q missing state factory", md.ID)
	}
	if _, exists := r.modes[md.ID]; exists {
		return fmt.Errorf("mode %q already registered", md.ID)
	}
	r.modes[md.ID] = md
	r.order = append(r.order, md.ID)
	return nil
}

// Get returns the metadata for id.
func (r *Registry) Get(id string) (Metadata, bool) {
	md, ok := r.modes[id]
	return md, ok
}

// All lists every registered mode in registration order.
func (r *Registry) All() []Metadata {
	out := make([]Metadata, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modes[id])
	}
	return out
}

// AllByType lists registered modes of one training type.
func (r *Registry) AllByType(t TrainingType) []Metadata {
	out := []Metadata{}
	for _, id := range r.order {
		if r.modes[id].Type == t {
			out = append(out, r.modes[id])
		}
	}
	return out
}

// IsRegistered reports whether id is known.
func (r *Registry) IsRegistered(id string) bool {
	_, ok := r.modes[id]
	return ok
}

// Mode identifiers registered by DefaultRegistry.
const (
	ModeRush        = "rush"
	ModeSurvival    = "survival"
	ModeSandbox     = "sandbox"
	ModeSingleChord = "single-chord"
	ModeChordID     = "chord-id"
)

// DefaultRegistry builds the catalog of the five built-in training modes.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	entries := []Metadata{
		{
			ID:                ModeRush,
			Type:              EarTraining,
			Title:             "Timed Rush",
			Description:       "Identify a target number of notes as fast as you can.",
			SettingsComponent: "rush-settings",
			SettingsKey:       "rush",
			StrategyType:      StrategyRush,
			NewMode:           func(s model.SessionSettings) Mode { return NewRush(s) },
		},
		{
			ID:                ModeSurvival,
			Type:              EarTraining,
			Title:             "Survival",
			Description:       "Keep your health above zero for as long as you can.",
			SettingsComponent: "survival-settings",
			SettingsKey:       "survival",
			StrategyType:      StrategySurvival,
			NewMode:           func(s model.SessionSettings) Mode { return NewSurvival(s) },
		},
		{
			ID:                ModeSandbox,
			Type:              EarTraining,
			Title:             "Sandbox",
			Description:       "Open practice with optional accuracy, streak, or count targets.",
			SettingsComponent: "sandbox-settings",
			SettingsKey:       "sandbox",
			StrategyType:      StrategySandbox,
			NewMode:           func(s model.SessionSettings) Mode { return NewSandbox(s) },
		},
		{
			ID:                ModeSingleChord,
			Type:              ChordTraining,
			Title:             "Build the Chord",
			Description:       "See a chord name, select all of its notes on the keyboard.",
			SettingsComponent: "single-chord-settings",
			SettingsKey:       "single-chord",
			StrategyType:      StrategySingleChord,
			NewMode:           func(s model.SessionSettings) Mode { return NewSingleChord(s) },
		},
		{
			ID:                ModeChordID,
			Type:              ChordTraining,
			Title:             "Name the Chord",
			Description:       "Hear a chord, type its name.",
			SettingsComponent: "chord-id-settings",
			SettingsKey:       "chord-id",
			StrategyType:      StrategyChordID,
			NewMode:           func(s model.SessionSettings) Mode { return NewChordID(s) },
		},
	}
	for _, md := range entries {
		if err := r.Register(md); err != nil {
			return nil, err
		}
	}
	return r, nil
}
