package game

import (
	"fmt"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// ChordID is the "show notes, guess chord" mode: a chord is played and the
// user types its name.
type ChordID struct {
	tally
	settings model.SessionSettings
	weakSet  map[string]struct{}
}

// NewChordID constructs a fresh chord-identification mode instance.
func NewChordID(s model.SessionSettings) *ChordID {
	if s.TargetChords <= 0 {
		s.TargetChords = 5
	}
	return &ChordID{tally: newTally(), settings: s}
}

// SetWeakChords enables weak-chord biased generation with the given set of
// canonical chord names.
func (m *ChordID) SetWeakChords(weak map[string]struct{}) {
	m.weakSet = weak
}

// Generate implements Mode.
func (m *ChordID) Generate(gen *music.Generator) music.Stimulus {
	if m.settings.FocusWeak && len(m.weakSet) > 0 {
		return gen.ChordWeighted(m.settings.Filters, m.weakSet, m.settings.WeakFactor)
	}
	return gen.Chord(m.settings.Filters)
}

// OnStartNewRound implements Mode.
func (m *ChordID) OnStartNewRound() {}

// HandleCorrect implements Mode.
func (m *ChordID) HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordCorrect(attempt, elapsed)
	feedback := correctFeedback(attempt.Actual)
	if attempt.Enharmonic {
		feedback = fmt.Sprintf("Correct! %s (you wrote %s)", attempt.Actual, attempt.Guess)
	}
	res := Result{ShouldAdvance: true, Feedback: feedback}
	if m.Complete() {
		m.markCompleted()
		res.GameCompleted = true
		stats := m.stats()
		res.Stats = &stats
	}
	return res
}

// HandleIncorrect implements Mode.
func (m *ChordID) HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordIncorrect(attempt, elapsed)
	return Result{Feedback: incorrectFeedback(attempt, attempt.Actual)}
}

// Complete implements Mode.
func (m *ChordID) Complete() bool {
	return m.completed || m.correctCount >= m.settings.TargetChords
}

// TimerSpec implements Mode.
func (m *ChordID) TimerSpec() TimerSpec {
	return TimerSpec{RoundSeconds: m.settings.RoundSeconds}
}

// Settings implements Mode.
func (m *ChordID) Settings() model.SessionSettings { return m.settings }

// Stats implements Mode.
func (m *ChordID) Stats() model.GameStats { return m.stats() }

// History implements Mode.
func (m *ChordID) History() []model.GuessAttempt { return m.historyCopy() }

// ChordStats implements Mode.
func (m *ChordID) ChordStats() []model.ChordStats { return m.chordStatsList() }

// CelebrationTier implements Mode.
func (m *ChordID) CelebrationTier() CelebrationTier {
	return tierFor(m.accuracy(), m.completed)
}

// PerformanceRating implements Mode.
func (m *ChordID) PerformanceRating() string {
	return ratingFor(m.accuracy(), m.longestStreak)
}

// StatRows implements Mode.
func (m *ChordID) StatRows() []StatRow {
	rows := baseStatRows(m.stats())
	return append(rows, StatRow{
		Label: "Chords named",
		Value: fmt.Sprintf("%d / %d", m.correctCount, m.settings.TargetChords),
	})
}

// HistoryRows implements Mode.
func (m *ChordID) HistoryRows(recent []model.GameSession) []HistoryRow {
	return baseHistoryRows(recent)
}
