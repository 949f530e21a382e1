// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Each training mode
// has its own section keyed by the mode's settings key; pointer fields
// distinguish "unset" from zero values so CLI flags keep precedence.
type FileConfig struct {
	Practice    PracticeConfig    `toml:"practice"`
	Rush        RushConfig        `toml:"rush"`
	Survival    SurvivalConfig    `toml:"survival"`
	Sandbox     SandboxConfig     `toml:"sandbox"`
	SingleChord SingleChordConfig `toml:"single-chord"`
	ChordID     ChordIDConfig     `toml:"chord-id"`
}

// PracticeConfig maps settings shared by every mode.
type PracticeConfig struct {
	Mode       *string   `toml:"mode"`
	Roots      *[]string `toml:"roots"`
	Qualities  *[]string `toml:"qualities"`
	Inversions *bool     `toml:"inversions"`
	OctaveLow  *int      `toml:"octave-low"`
	OctaveHigh *int      `toml:"octave-high"`
	RoundSecs  *float64  `toml:"round-seconds"`
	FocusWeak  *bool     `toml:"focus-weak"`
	WeakTop    *int      `toml:"weak-top"`
	WeakFactor *float64  `toml:"weak-factor"`
	WeakWindow *int      `toml:"weak-window"`
}

// RushConfig maps timed-rush settings.
type RushConfig struct {
	TargetNotes *int `toml:"target-notes"`
}

// SurvivalConfig maps survival settings.
type SurvivalConfig struct {
	StartHealth   *int     `toml:"start-health"`
	HealthPenalty *int     `toml:"health-penalty"`
	HealthBonus   *int     `toml:"health-bonus"`
	HealthDecay   *bool    `toml:"health-decay"`
	SessionSecs   *float64 `toml:"session-seconds"`
}

// SandboxConfig maps sandbox target settings.
type SandboxConfig struct {
	TargetNotes    *int     `toml:"target-notes"`
	TargetStreak   *int     `toml:"target-streak"`
	TargetAccuracy *float64 `toml:"target-accuracy"`
}

// SingleChordConfig maps build-the-chord settings.
type SingleChordConfig struct {
	TargetChords *int `toml:"target-chords"`
}

// ChordIDConfig maps name-the-chord settings.
type ChordIDConfig struct {
	TargetChords *int `toml:"target-chords"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
