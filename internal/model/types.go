// Package model defines shared data structures.
package model

import "time"

// ChordFilters restricts which stimuli the generator may produce.
// Empty slices mean "no restriction".
type ChordFilters struct {
	Roots      []string
	Qualities  []string
	Inversions bool
	OctaveLow  int
	OctaveHigh int
}

// SessionSettings is the immutable configuration a session starts with.
type SessionSettings struct {
	Mode           string
	TargetNotes    int
	TargetChords   int
	TargetAccuracy float64
	TargetStreak   int
	RoundSeconds   float64
	SessionSeconds float64
	StartHealth    int
	HealthPenalty  int
	HealthBonus    int
	HealthDecay    bool
	Filters        ChordFilters
	FocusWeak      bool
	WeakTop        int
	WeakFactor     float64
	WeakWindow     int
}

// GameStats summarizes a finished (or in-flight) session.
type GameStats struct {
	CorrectAttempts int
	TotalAttempts   int
	Accuracy        float64
	LongestStreak   int
	ElapsedMs       int64
	// AvgMsPerCorrect is elapsed time divided by correct attempts.
	AvgMsPerCorrect float64
}

// GuessAttempt records one submitted answer. Immutable after creation.
type GuessAttempt struct {
	ID         string
	At         time.Time
	Actual     string
	Guess      string
	Notes      []string
	Correct    bool
	Enharmonic bool
	PartialPct float64
	// Timeout is set only when the round clock expired with no answer.
	Timeout bool
	// LatencyMs is the time from stimulus presentation to this answer.
	LatencyMs int64
}

// GameSession captures a completed session for persistence.
type GameSession struct {
	ID              string
	Mode            string
	StartedAt       time.Time
	EndedAt         time.Time
	DurationMs      int64
	Completed       bool
	Accuracy        float64
	CorrectAttempts int
	TotalAttempts   int
	LongestStreak   int
	Settings        SessionSettings
	Guesses         []GuessAttempt
}

// ChordStats stores per-chord stats for a session.
type ChordStats struct {
	Chord        string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// ChordAggregate aggregates chord stats across sessions.
type ChordAggregate struct {
	Chord        string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID     int64
	Mode          string
	EndedAt       time.Time
	Correct       int
	Total         int
	LongestStreak int
	DurationMs    int64
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        string
	Since       *time.Time
	Last        int
	CurveWindow int
	Chords      string
}
