package game

import (
	"fmt"
	"strings"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/validate"
)

// SingleChord is the "show chord, guess notes" mode: the chord name is
// displayed and the user must select every note of it on the keyboard.
// Only a fully clean selection advances the round.
type SingleChord struct {
	tally
	settings model.SessionSettings
}

// NewSingleChord constructs a fresh single-chord mode instance.
func NewSingleChord(s model.SessionSettings) *SingleChord {
	if s.TargetChords <= 0 {
		s.TargetChords = 5
	}
	return &SingleChord{tally: newTally(), settings: s}
}

// Generate implements Mode.
func (m *SingleChord) Generate(gen *music.Generator) music.Stimulus {
	return gen.Chord(m.settings.Filters)
}

// OnStartNewRound implements Mode.
func (m *SingleChord) OnStartNewRound() {}

// OnPianoKeyClick implements Selector.
func (m *SingleChord) OnPianoKeyClick(note music.Note, round *RoundContext) {
	round.ToggleNote(note)
}

// OnSubmitClick implements Selector. Feedback has three tiers: a full
// match advances; partially-found notes with nothing wrong is a
// non-counting "keep going"; any incorrect note, or an empty submission,
// is an ordinary incorrect attempt. Partial correctness never advances.
func (m *SingleChord) OnSubmitClick(c validate.Completeness, attempt model.GuessAttempt, elapsed time.Duration) Result {
	attempt.PartialPct = partialPct(len(c.Correct), len(c.Correct)+len(c.Missing))
	if c.Complete {
		return m.HandleCorrect(attempt, elapsed)
	}
	if len(c.Correct) == 0 && len(c.Incorrect) == 0 {
		// Submitted with nothing selected.
		return m.HandleIncorrect(attempt, elapsed)
	}
	if len(c.Incorrect) > 0 {
		wrong := make([]string, len(c.Incorrect))
		for i, n := range c.Incorrect {
			wrong[i] = n.Name
		}
		m.recordIncorrect(attempt, elapsed)
		return Result{Feedback: fmt.Sprintf("Try again: %s %s not in this chord.",
			strings.Join(wrong, ", "), isAre(len(wrong)))}
	}
	// Some notes found, none wrong: encourage without counting an attempt.
	total := len(c.Correct) + len(c.Missing)
	return Result{Feedback: fmt.Sprintf("Keep going: %d of %d notes found.", len(c.Correct), total)}
}

// HandleCorrect implements Mode.
func (m *SingleChord) HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
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

// HandleIncorrect implements Mode. Reached on round timeout.
func (m *SingleChord) HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordIncorrect(attempt, elapsed)
	return Result{Feedback: incorrectFeedback(attempt, attempt.Actual)}
}

// Complete implements Mode.
func (m *SingleChord) Complete() bool {
	return m.completed || m.correctCount >= m.settings.TargetChords
}

// TimerSpec implements Mode.
func (m *SingleChord) TimerSpec() TimerSpec {
	return TimerSpec{RoundSeconds: m.settings.RoundSeconds}
}

// Settings implements Mode.
func (m *SingleChord) Settings() model.SessionSettings { return m.settings }

// Stats implements Mode.
func (m *SingleChord) Stats() model.GameStats { return m.stats() }

// History implements Mode.
func (m *SingleChord) History() []model.GuessAttempt { return m.historyCopy() }

// ChordStats implements Mode.
func (m *SingleChord) ChordStats() []model.ChordStats { return m.chordStatsList() }

// CelebrationTier implements Mode.
func (m *SingleChord) CelebrationTier() CelebrationTier {
	return tierFor(m.accuracy(), m.completed)
}

// PerformanceRating implements Mode.
func (m *SingleChord) PerformanceRating() string {
	return ratingFor(m.accuracy(), m.longestStreak)
}

// StatRows implements Mode.
func (m *SingleChord) StatRows() []StatRow {
	rows := baseStatRows(m.stats())
	return append(rows, StatRow{
		Label: "Chords built",
		Value: fmt.Sprintf("%d / %d", m.correctCount, m.settings.TargetChords),
	})
}

// HistoryRows implements Mode.
func (m *SingleChord) HistoryRows(recent []model.GameSession) []HistoryRow {
	return baseHistoryRows(recent)
}

func partialPct(found, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total) * 100
}

func isAre(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}
