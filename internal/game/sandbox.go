package game

import (
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// Sandbox is open ear-training practice. Any configured target (accuracy,
// streak, note count) completes the session; with no targets it runs
// forever. It is also the fallback strategy for unknown mode ids.
type Sandbox struct {
	tally
	settings model.SessionSettings
}

// NewSandbox constructs a fresh sandbox mode instance.
func NewSandbox(s model.SessionSettings) *Sandbox {
	return &Sandbox{tally: newTally(), settings: s}
}

// Generate implements Mode.
func (m *Sandbox) Generate(gen *music.Generator) music.Stimulus {
	return gen.Note(m.settings.Filters)
}

// OnStartNewRound implements Mode.
func (m *Sandbox) OnStartNewRound() {}

// HandleCorrect implements Mode.
func (m *Sandbox) HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordCorrect(attempt, elapsed)
	res := Result{ShouldAdvance: true, Feedback: correctFeedback(attempt.Actual)}
	if m.Complete() {
		m.markCompleted()
		res.GameCompleted = true
		stats := m.stats()
		res.Stats = &stats
	}
	return res
}

// HandleIncorrect implements Mode.
func (m *Sandbox) HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordIncorrect(attempt, elapsed)
	return Result{Feedback: incorrectFeedback(attempt, attempt.Actual)}
}

// Complete implements Mode.
func (m *Sandbox) Complete() bool {
	if m.completed {
		return true
	}
	s := m.settings
	if s.TargetNotes > 0 && m.correctCount >= s.TargetNotes {
		return true
	}
	if s.TargetStreak > 0 && m.currentStreak >= s.TargetStreak {
		return true
	}
	if s.TargetAccuracy > 0 && m.totalAttempts > 0 && m.accuracy() >= s.TargetAccuracy {
		return true
	}
	return false
}

// TimerSpec implements Mode.
func (m *Sandbox) TimerSpec() TimerSpec {
	return TimerSpec{RoundSeconds: m.settings.RoundSeconds}
}

// Settings implements Mode.
func (m *Sandbox) Settings() model.SessionSettings { return m.settings }

// Stats implements Mode.
func (m *Sandbox) Stats() model.GameStats { return m.stats() }

// History implements Mode.
func (m *Sandbox) History() []model.GuessAttempt { return m.historyCopy() }

// ChordStats implements Mode.
func (m *Sandbox) ChordStats() []model.ChordStats { return m.chordStatsList() }

// CelebrationTier implements Mode.
func (m *Sandbox) CelebrationTier() CelebrationTier {
	return tierFor(m.accuracy(), m.completed)
}

// PerformanceRating implements Mode.
func (m *Sandbox) PerformanceRating() string {
	return ratingFor(m.accuracy(), m.longestStreak)
}

// StatRows implements Mode.
func (m *Sandbox) StatRows() []StatRow {
	return baseStatRows(m.stats())
}

// HistoryRows implements Mode.
func (m *Sandbox) HistoryRows(recent []model.GameSession) []HistoryRow {
	return baseHistoryRows(recent)
}
