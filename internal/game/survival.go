package game

import (
	"fmt"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// Survival is the ear-training mode where a health pool decays with wrong
// answers (and optionally with time). The session ends when health hits
// zero or the session clock elapses.
type Survival struct {
	tally
	settings model.SessionSettings
	health   int
	decayed  time.Duration
}

// NewSurvival constructs a fresh survival mode instance.
func NewSurvival(s model.SessionSettings) *Survival {
	if s.StartHealth <= 0 {
		s.StartHealth = 100
	}
	if s.HealthPenalty <= 0 {
		s.HealthPenalty = 25
	}
	if s.HealthBonus < 0 {
		s.HealthBonus = 0
	}
	return &Survival{tally: newTally(), settings: s, health: s.StartHealth}
}

// Health exposes the current health pool for rendering.
func (m *Survival) Health() int { return m.health }

// Generate implements Mode.
func (m *Survival) Generate(gen *music.Generator) music.Stimulus {
	return gen.Note(m.settings.Filters)
}

// OnStartNewRound implements Mode.
func (m *Survival) OnStartNewRound() {}

// HandleCorrect implements Mode.
func (m *Survival) HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordCorrect(attempt, elapsed)
	m.health += m.settings.HealthBonus
	if m.health > m.settings.StartHealth {
		m.health = m.settings.StartHealth
	}
	return m.resultAfter(Result{ShouldAdvance: true, Feedback: correctFeedback(attempt.Actual)})
}

// HandleIncorrect implements Mode.
func (m *Survival) HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result {
	m.recordIncorrect(attempt, elapsed)
	m.health -= m.settings.HealthPenalty
	return m.resultAfter(Result{Feedback: incorrectFeedback(attempt, attempt.Actual)})
}

// OnSessionTick implements TickObserver: with decay enabled, health drains
// one point per elapsed second.
func (m *Survival) OnSessionTick(elapsed time.Duration) {
	if !m.settings.HealthDecay || m.completed {
		return
	}
	for elapsed-m.decayed >= time.Second {
		m.decayed += time.Second
		m.health--
	}
	if m.health <= 0 {
		m.health = 0
	}
}

// OnSessionExpired implements SessionExpirer: surviving to the session
// clock (or draining to zero between guesses) ends the session.
func (m *Survival) OnSessionExpired() {
	m.markCompleted()
}

func (m *Survival) resultAfter(res Result) Result {
	if m.Complete() {
		m.markCompleted()
		res.ShouldAdvance = false
		res.GameCompleted = true
		stats := m.stats()
		res.Stats = &stats
	}
	return res
}

// Complete implements Mode.
func (m *Survival) Complete() bool {
	return m.completed || m.health <= 0
}

// TimerSpec implements Mode.
func (m *Survival) TimerSpec() TimerSpec {
	return TimerSpec{
		RoundSeconds:   m.settings.RoundSeconds,
		SessionSeconds: m.settings.SessionSeconds,
	}
}

// Settings implements Mode.
func (m *Survival) Settings() model.SessionSettings { return m.settings }

// Stats implements Mode.
func (m *Survival) Stats() model.GameStats { return m.stats() }

// History implements Mode.
func (m *Survival) History() []model.GuessAttempt { return m.historyCopy() }

// ChordStats implements Mode.
func (m *Survival) ChordStats() []model.ChordStats { return m.chordStatsList() }

// CelebrationTier implements Mode. Survival grades on answers survived,
// not accuracy alone: lasting to the session clock with health left is
// already a win.
func (m *Survival) CelebrationTier() CelebrationTier {
	if !m.completed {
		return TierNone
	}
	if m.health > 0 {
		return tierFor(m.accuracy(), true)
	}
	if m.correctCount >= 10 {
		return TierBronze
	}
	return TierNone
}

// PerformanceRating implements Mode.
func (m *Survival) PerformanceRating() string {
	if m.health <= 0 {
		return fmt.Sprintf("Survived %d answers", m.correctCount)
	}
	return ratingFor(m.accuracy(), m.longestStreak)
}

// StatRows implements Mode.
func (m *Survival) StatRows() []StatRow {
	rows := baseStatRows(m.stats())
	return append(rows, StatRow{
		Label: "Health left",
		Value: fmt.Sprintf("%d / %d", m.health, m.settings.StartHealth),
	})
}

// HistoryRows implements Mode.
func (m *Survival) HistoryRows(recent []model.GameSession) []HistoryRow {
	return baseHistoryRows(recent)
}
