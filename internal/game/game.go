// Package game contains the training-mode strategies, the mode registry,
// and the session orchestrator.
package game

import (
	"fmt"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/highlight"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/validate"
)

// Result is the single action-result produced for every processed guess.
type Result struct {
	ShouldAdvance bool
	GameCompleted bool
	Feedback      string
	Stats         *model.GameStats
}

// TimerSpec tells the orchestrator which timers a mode needs. Zero values
// mean "no round limit" and "open-ended session" respectively.
type TimerSpec struct {
	RoundSeconds   float64
	SessionSeconds float64
}

// CelebrationTier grades a finished session for end-of-game presentation.
type CelebrationTier int

// Tiers, lowest to highest.
const (
	TierNone CelebrationTier = iota
	TierBronze
	TierSilver
	TierGold
	TierPerfect
)

func (t CelebrationTier) String() string {
	switch t {
	case TierBronze:
		return "bronze"
	case TierSilver:
		return "silver"
	case TierGold:
		return "gold"
	case TierPerfect:
		return "perfect"
	default:
		return "none"
	}
}

// StatRow is one label/value pair for the end-of-session stats panel.
type StatRow struct {
	Label string
	Value string
}

// HistoryRow is one line in the "recent sessions" comparison panel.
type HistoryRow struct {
	When  string
	Score string
}

// Mode is the capability set every training mode implements. A Mode
// instance is created per session and exclusively owned by it.
type Mode interface {
	Generate(gen *music.Generator) music.Stimulus
	OnStartNewRound()
	HandleCorrect(attempt model.GuessAttempt, elapsed time.Duration) Result
	HandleIncorrect(attempt model.GuessAttempt, elapsed time.Duration) Result
	Complete() bool
	TimerSpec() TimerSpec
	Settings() model.SessionSettings
	Stats() model.GameStats
	History() []model.GuessAttempt
	ChordStats() []model.ChordStats

	CelebrationTier() CelebrationTier
	PerformanceRating() string
	StatRows() []StatRow
	HistoryRows(recent []model.GameSession) []HistoryRow
}

// Selector is implemented by modes using select-then-submit input.
// Auto-submitting modes omit it.
type Selector interface {
	OnPianoKeyClick(note music.Note, round *RoundContext)
	OnSubmitClick(c validate.Completeness, attempt model.GuessAttempt, elapsed time.Duration) Result
}

// TickObserver is implemented by modes that react to session-timer ticks.
type TickObserver interface {
	OnSessionTick(elapsed time.Duration)
}

// RoundContext is ephemeral per-round state, created at round start and
// discarded at round end. Never persisted.
type RoundContext struct {
	StartedAt  time.Time
	Stimulus   music.Stimulus
	Selected   []music.Note
	Highlights []highlight.Highlight
}

// NewRoundContext starts a fresh round for the given stimulus.
func NewRoundContext(s music.Stimulus) *RoundContext {
	return &RoundContext{StartedAt: time.Now(), Stimulus: s}
}

// ToggleNote adds or removes a note from the selection set and refreshes
// pre-submit highlights. The set is unique by key.
func (r *RoundContext) ToggleNote(n music.Note) {
	for i, sel := range r.Selected {
		if sel.SamePitch(n) {
			r.Selected = append(r.Selected[:i], r.Selected[i+1:]...)
			r.Highlights = highlight.Build(highlight.PreSubmit, r.Selected, nil, nil, nil)
			return
		}
	}
	r.Selected = append(r.Selected, n)
	r.Highlights = highlight.Build(highlight.PreSubmit, r.Selected, nil, nil, nil)
}

// RevealHighlights recomputes highlights in post-submit phase. When
// revealTarget is false the target chord stays hidden (mid-round "try
// again"), so only the selection's own correctness is shown.
func (r *RoundContext) RevealHighlights(c validate.Completeness, revealTarget bool) {
	target := r.Stimulus.Pitches()
	if !revealTarget {
		target = nil
	}
	r.Highlights = highlight.Build(highlight.PostSubmit, r.Selected, c.Correct, c.Incorrect, target)
}

// tally is the running-counter bookkeeping shared by all modes.
// Invariants: currentStreak <= longestStreak, correctCount <= totalAttempts,
// and completed never reverts to false within one instance.
type tally struct {
	totalAttempts int
	correctCount  int
	currentStreak int
	longestStreak int
	elapsed       time.Duration
	completed     bool
	history       []model.GuessAttempt
	chordStats    map[string]*model.ChordStats
}

func newTally() tally {
	return tally{chordStats: map[string]*model.ChordStats{}}
}

func (t *tally) recordCorrect(a model.GuessAttempt, elapsed time.Duration) {
	t.totalAttempts++
	t.correctCount++
	t.currentStreak++
	if t.currentStreak > t.longestStreak {
		t.longestStreak = t.currentStreak
	}
	t.elapsed = elapsed
	t.history = append(t.history, a)
	t.bump(a.Actual, true, a.LatencyMs)
}

func (t *tally) recordIncorrect(a model.GuessAttempt, elapsed time.Duration) {
	t.totalAttempts++
	t.currentStreak = 0
	t.elapsed = elapsed
	t.history = append(t.history, a)
	t.bump(a.Actual, false, 0)
}

func (t *tally) bump(label string, correct bool, latencyMs int64) {
	entry, ok := t.chordStats[label]
	if !ok {
		entry = &model.ChordStats{Chord: label}
		t.chordStats[label] = entry
	}
	if correct {
		entry.Correct++
		if latencyMs > 0 {
			entry.LatencySumMs += latencyMs
			entry.LatencyCount++
		}
		return
	}
	entry.Incorrect++
}

func (t *tally) markCompleted() {
	t.completed = true
}

func (t *tally) accuracy() float64 {
	if t.totalAttempts == 0 {
		return 0
	}
	return float64(t.correctCount) / float64(t.totalAttempts) * 100
}

func (t *tally) stats() model.GameStats {
	s := model.GameStats{
		CorrectAttempts: t.correctCount,
		TotalAttempts:   t.totalAttempts,
		Accuracy:        t.accuracy(),
		LongestStreak:   t.longestStreak,
		ElapsedMs:       t.elapsed.Milliseconds(),
	}
	if t.correctCount > 0 {
		s.AvgMsPerCorrect = float64(s.ElapsedMs) / float64(t.correctCount)
	}
	return s
}

func (t *tally) historyCopy() []model.GuessAttempt {
	out := make([]model.GuessAttempt, len(t.history))
	copy(out, t.history)
	return out
}

func (t *tally) chordStatsList() []model.ChordStats {
	out := make([]model.ChordStats, 0, len(t.chordStats))
	for _, entry := range t.chordStats {
		out = append(out, *entry)
	}
	return out
}

// Shared end-of-session presentation. Individual modes override pieces
// where their scoring calls for it.

func tierFor(accuracy float64, completed bool) CelebrationTier {
	if !completed {
		return TierNone
	}
	switch {
	case accuracy >= 100:
		return TierPerfect
	case accuracy >= 90:
		return TierGold
	case accuracy >= 75:
		return TierSilver
	case accuracy >= 50:
		return TierBronze
	default:
		return TierNone
	}
}

func ratingFor(accuracy float64, longestStreak int) string {
	switch {
	case accuracy >= 100:
		return "Flawless"
	case accuracy >= 90:
		return "Excellent"
	case accuracy >= 75:
		return "Solid"
	case accuracy >= 50:
		return "Getting there"
	default:
		if longestStreak >= 3 {
			return "Streaky"
		}
		return "Keep practicing"
	}
}

func baseStatRows(s model.GameStats) []StatRow {
	rows := []StatRow{
		{Label: "Accuracy", Value: fmt.Sprintf("%.1f%%", s.Accuracy)},
		{Label: "Correct", Value: fmt.Sprintf("%d / %d", s.CorrectAttempts, s.TotalAttempts)},
		{Label: "Best streak", Value: fmt.Sprintf("%d", s.LongestStreak)},
		{Label: "Time", Value: formatMs(s.ElapsedMs)},
	}
	if s.AvgMsPerCorrect > 0 {
		rows = append(rows, StatRow{
			Label: "Avg per answer",
			Value: fmt.Sprintf("%.1fs", s.AvgMsPerCorrect/1000),
		})
	}
	return rows
}

func baseHistoryRows(recent []model.GameSession) []HistoryRow {
	rows := make([]HistoryRow, 0, len(recent))
	for _, s := range recent {
		rows = append(rows, HistoryRow{
			When:  s.EndedAt.Format("2006-01-02 15:04"),
			Score: fmt.Sprintf("%.1f%% · %d/%d", s.Accuracy, s.CorrectAttempts, s.TotalAttempts),
		})
	}
	return rows
}

func formatMs(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d >= time.Minute {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func correctFeedback(label string) string {
	return fmt.Sprintf("Correct! %s", label)
}

func incorrectFeedback(attempt model.GuessAttempt, label string) string {
	if attempt.Timeout {
		return fmt.Sprintf("Time's up! The answer was %s.", label)
	}
	return fmt.Sprintf("Incorrect. The answer was %s.", label)
}
