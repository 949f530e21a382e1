package game

import (
	"fmt"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// Rush is the timed-rush ear-training mode: reach a target number of
// correct notes, racing a count-up clock.
type Rush struct {
	tally
	settings model.SessionSettings
}

// NewRush constructs a fresh rush mode instance.
func NewRush(s model.SessionSettings) *Rush {
	if s.TargetNotes <= 0 {
		s.TargetNotes = 10
	}
	return &Rush{tally: newTally(), settings: s}
}

// Generate implements Mode.
func (m *Rush) Generate(gen *music.Generator) music.Stimulus {
	return gen.Note(m.settings.Filters)
}

// OnStartNewRound implements Mode.
func (m *Rush) OnStartNewRound() {}

// HandleCorrect implements Mode.
func (m *Rush) HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
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
func (m *Rush) HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordIncorrect(attempt, elapsed)
	return Result{Feedback: incorrectFeedback(attempt, attempt.Actual)}
}

// Complete implements Mode.
func (m *Rush) Complete() bool {
	return m.completed || m.correctCount >= m.settings.TargetNotes
}

// TimerSpec implements Mode.
func (m *Rush) TimerSpec() TimerSpec {
	return TimerSpec{RoundSeconds: m.settings.RoundSeconds}
}

// Settings implements Mode.
func (m *Rush) Settings() model.SessionSettings { return m.settings }

// Stats implements Mode.
func (m *Rush) Stats() model.GameStats { return m.stats() }

// History implements Mode.
func (m *Rush) History() []model.GuessAttempt { return m.historyCopy() }

// ChordStats implements Mode.
func (m *Rush) ChordStats() []model.ChordStats { return m.chordStatsList() }

// CelebrationTier implements Mode.
func (m *Rush) CelebrationTier() CelebrationTier {
	return tierFor(m.accuracy(), m.completed)
}

// PerformanceRating implements Mode.
func (m *Rush) PerformanceRating() string {
	return ratingFor(m.accuracy(), m.longestStreak)
}

// StatRows implements Mode.
func (m *Rush) StatRows() []StatRow {
	rows := baseStatRows(m.stats())
	return append(rows, StatRow{
		Label: "Target",
		Value: fmt.Sprintf("%d notes", m.settings.TargetNotes),
	})
}

// HistoryRows implements Mode.
func (m *Rush) HistoryRows(recent []model.GameSession) []HistoryRow {
	return baseHistoryRows(recent)
}
