package game

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/timer"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/validate"
)

// State is the session-level state machine position.
type State int

// Session states.
const (
	Idle State = iota
	Playing
	Paused
	Completed
)

// RoundPhase is the round substate within a Playing session.
type RoundPhase int

// Round phases.
const (
	PhaseNone RoundPhase = iota
	PhasePlayingStimulus
	PhaseWaitingInput
	PhaseProcessingGuess
	PhaseAdvance
	PhaseTimeoutIntermission
)

const defaultTickInterval = 100 * time.Millisecond

// CompletionFunc receives the finished session and its per-chord stats.
type CompletionFunc func(model.GameSession, []model.ChordStats)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGenerator injects a stimulus generator (seeded in tests).
func WithGenerator(gen *music.Generator) Option {
	return func(o *Orchestrator) { o.gen = gen }
}

// WithOnComplete registers the persistence collaborator callback.
func WithOnComplete(fn CompletionFunc) Option {
	return func(o *Orchestrator) { o.onComplete = fn }
}

// WithWarnf overrides the diagnostic warning sink.
func WithWarnf(fn func(format string, args ...any)) Option {
	return func(o *Orchestrator) { o.warnf = fn }
}

// Orchestrator is the top-level session state machine. It owns the active
// mode instance and both timers, validates guesses, delegates correctness
// decisions to the mode, and packages one Result per action.
//
// Methods are safe for concurrent use; timer updates are expected to be
// fed back in by the caller's event loop.
type Orchestrator struct {
	mu sync.Mutex

	registry *Registry
	meta     Metadata
	mode     Mode
	settings model.SessionSettings
	gen      *music.Generator

	state State
	phase RoundPhase
	round *RoundContext

	roundTimer   *timer.Service
	sessionTimer *timer.Service

	sessionID string
	startedAt time.Time
	pausedAt  time.Time
	pausedFor time.Duration

	finalStats *model.GameStats

	onComplete CompletionFunc
	warnf      func(format string, args ...any)
}

// New builds an orchestrator for the given mode id. An unregistered id
// falls back to the sandbox strategy with a diagnostic warning so that
// malformed persisted settings never strand the user.
func New(registry *Registry, modeID string, settings model.SessionSettings, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		settings: settings,
		warnf: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format, args...)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.gen == nil {
		o.gen = music.NewGenerator()
	}

	meta, ok := registry.Get(modeID)
	if !ok {
		o.warnf("unknown mode %q, falling back to sandbox\n", modeID)
		meta, ok = registry.Get(ModeSandbox)
		if !ok {
			meta = Metadata{
				ID:           ModeSandbox,
				StrategyType: StrategySandbox,
				NewMode:      func(s model.SessionSettings) Mode { return NewSandbox(s) },
			}
		}
	}
	o.meta = meta
	o.settings.Mode = meta.ID
	o.mode = meta.NewMode(o.settings)
	return o
}

// State returns the session state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Phase returns the round substate.
func (o *Orchestrator) Phase() RoundPhase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Mode exposes the active mode instance (read-only use).
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// ModeID returns the resolved mode identifier.
func (o *Orchestrator) ModeID() string {
	return o.meta.ID
}

// Round returns the current round context, nil between rounds.
func (o *Orchestrator) Round() *RoundContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.round
}

// RoundTimer returns the live round timer, nil when no response limit is set.
func (o *Orchestrator) RoundTimer() *timer.Service {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.roundTimer
}

// SessionTimer returns the live session timer, nil for open-ended sessions.
func (o *Orchestrator) SessionTimer() *timer.Service {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionTimer
}

// Elapsed is session wall time minus time spent paused.
func (o *Orchestrator) Elapsed() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.elapsedLocked()
}

func (o *Orchestrator) elapsedLocked() time.Duration {
	if o.startedAt.IsZero() {
		return 0
	}
	if o.state == Paused {
		return o.pausedAt.Sub(o.startedAt) - o.pausedFor
	}
	return time.Since(o.startedAt) - o.pausedFor
}

// Start moves Idle to Playing and begins the first round.
func (o *Orchestrator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Idle {
		return fmt.Errorf("cannot start session in state %d", o.state)
	}
	o.state = Playing
	o.sessionID = uuid.NewString()
	o.startedAt = time.Now()
	o.pausedFor = 0

	spec := o.mode.TimerSpec()
	if spec.SessionSeconds > 0 {
		o.sessionTimer = timer.New(timer.Config{
			Initial:   time.Duration(spec.SessionSeconds * float64(time.Second)),
			Interval:  defaultTickInterval,
			Direction: timer.Down,
		})
		o.sessionTimer.Resume()
	}
	o.startRoundLocked()
	return nil
}

// NextRound begins the next round after an advancing result. The caller
// controls the intermission delay; this is a no-op unless the session is
// playing and the previous round has ended.
func (o *Orchestrator) NextRound() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Playing {
		return
	}
	if o.phase != PhaseAdvance && o.phase != PhaseTimeoutIntermission {
		return
	}
	o.startRoundLocked()
}

func (o *Orchestrator) startRoundLocked() {
	o.phase = PhasePlayingStimulus
	o.mode.OnStartNewRound()
	stimulus := o.mode.Generate(o.gen)
	o.round = NewRoundContext(stimulus)

	o.stopRoundTimerLocked()
	spec := o.mode.TimerSpec()
	if spec.RoundSeconds > 0 {
		o.roundTimer = timer.New(timer.Config{
			Initial:   time.Duration(spec.RoundSeconds * float64(time.Second)),
			Interval:  defaultTickInterval,
			Direction: timer.Down,
		})
		o.roundTimer.Resume()
	}
	o.phase = PhaseWaitingInput
}

func (o *Orchestrator) stopRoundTimerLocked() {
	if o.roundTimer != nil {
		o.roundTimer.Stop()
		o.roundTimer = nil
	}
}

// SubmitNoteGuess processes a pitch-class guess for note-based modes.
func (o *Orchestrator) SubmitNoteGuess(text string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if res, done := o.guardLocked(); done {
		return res
	}
	note, ok := o.round.Stimulus.(music.Note)
	if !ok {
		o.warnf("note guess submitted in a chord round, ignoring\n")
		return Result{}
	}

	o.phase = PhaseProcessingGuess
	attempt := o.newAttemptLocked(text, nil)
	if validate.NoteGuess(text, note) {
		attempt.Correct = true
		return o.applyLocked(o.mode.HandleCorrect(attempt, o.elapsedLocked()))
	}
	return o.applyLocked(o.mode.HandleIncorrect(attempt, o.elapsedLocked()))
}

// SubmitChordName processes a free-text chord-name guess. An empty or
// unparsable guess is an ordinary incorrect attempt, not an error.
func (o *Orchestrator) SubmitChordName(text string) Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if res, done := o.guardLocked(); done {
		return res
	}
	chord, ok := o.round.Stimulus.(music.Chord)
	if !ok {
		o.warnf("chord guess submitted in a note round, ignoring\n")
		return Result{}
	}

	o.phase = PhaseProcessingGuess
	v := validate.ChordGuess(text, chord)
	attempt := o.newAttemptLocked(text, nil)
	attempt.Enharmonic = v.IsEnharmonic
	attempt.PartialPct = chordPartialPct(v)
	if v.IsCorrect {
		attempt.Correct = true
		return o.applyLocked(o.mode.HandleCorrect(attempt, o.elapsedLocked()))
	}
	return o.applyLocked(o.mode.HandleIncorrect(attempt, o.elapsedLocked()))
}

// ToggleNote flips a keyboard selection for select-then-submit modes and
// returns the refreshed round context.
func (o *Orchestrator) ToggleNote(n music.Note) *RoundContext {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Playing || o.round == nil {
		return o.round
	}
	sel, ok := o.mode.(Selector)
	if !ok {
		return o.round
	}
	sel.OnPianoKeyClick(n, o.round)
	return o.round
}

// SubmitSelection submits the selected-note set for select-then-submit
// modes. An empty selection counts as an ordinary incorrect attempt.
func (o *Orchestrator) SubmitSelection() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if res, done := o.guardLocked(); done {
		return res
	}
	sel, ok := o.mode.(Selector)
	if !ok {
		o.warnf("selection submitted in an auto-submit mode, ignoring\n")
		return Result{}
	}

	o.phase = PhaseProcessingGuess
	target := o.round.Stimulus.Pitches()
	c := validate.CheckCompleteness(o.round.Selected, target)
	names := make([]string, len(o.round.Selected))
	for i, n := range o.round.Selected {
		names[i] = n.Name
	}
	attempt := o.newAttemptLocked("", names)
	attempt.Correct = c.Complete

	res := sel.OnSubmitClick(c, attempt, o.elapsedLocked())
	roundOver := res.ShouldAdvance || res.GameCompleted
	o.round.RevealHighlights(c, roundOver)
	if !roundOver {
		// The round continues; clear the selection for the next try.
		o.round.Selected = nil
	}
	return o.applyLocked(res)
}

// HandleRoundTimeout treats a round-timer timeout as an incorrect guess
// with no user input. Late or duplicate timeouts are no-ops.
func (o *Orchestrator) HandleRoundTimeout() Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if res, done := o.guardLocked(); done {
		return res
	}

	o.phase = PhaseProcessingGuess
	attempt := o.newAttemptLocked("", nil)
	attempt.Timeout = true
	res := o.mode.HandleIncorrect(attempt, o.elapsedLocked())
	if o.round != nil {
		c := validate.CheckCompleteness(o.round.Selected, o.round.Stimulus.Pitches())
		o.round.RevealHighlights(c, true)
	}
	res = o.applyLocked(res)
	if o.state == Playing {
		o.phase = PhaseTimeoutIntermission
		o.stopRoundTimerLocked()
	}
	return res
}

// HandleSessionTick forwards session-timer updates to the active mode and
// finalizes the session when the budget elapses.
func (o *Orchestrator) HandleSessionTick(u timer.Update) *Result {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Playing {
		return nil
	}
	if obs, ok := o.mode.(TickObserver); ok {
		obs.OnSessionTick(o.elapsedLocked())
		if o.mode.Complete() && !u.Timeout {
			if exp, ok := o.mode.(SessionExpirer); ok {
				exp.OnSessionExpired()
			}
			res := o.finalizeLocked(Result{GameCompleted: true, Feedback: "Out of health!"})
			return &res
		}
	}
	if !u.Timeout {
		return nil
	}
	if exp, ok := o.mode.(SessionExpirer); ok {
		exp.OnSessionExpired()
	}
	res := o.finalizeLocked(Result{GameCompleted: true, Feedback: "Time's up!"})
	return &res
}

// SessionExpirer is implemented by modes whose completion policy includes
// the session clock running out.
type SessionExpirer interface {
	OnSessionExpired()
}

// Pause suspends the session and both timers. Guess processing is
// rejected while paused.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Playing {
		return
	}
	o.state = Paused
	o.pausedAt = time.Now()
	if o.roundTimer != nil {
		o.roundTimer.Pause()
	}
	if o.sessionTimer != nil {
		o.sessionTimer.Pause()
	}
}

// Resume continues a paused session; timers pick up exactly where they
// left off.
func (o *Orchestrator) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != Paused {
		return
	}
	o.state = Playing
	o.pausedFor += time.Since(o.pausedAt)
	if o.roundTimer != nil {
		o.roundTimer.Resume()
	}
	if o.sessionTimer != nil {
		o.sessionTimer.Resume()
	}
}

// Shutdown synchronously cancels every live timer. The orchestrator must
// not be used afterwards; stale callbacks against it become no-ops.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopRoundTimerLocked()
	if o.sessionTimer != nil {
		o.sessionTimer.Stop()
		o.sessionTimer = nil
	}
	if o.state != Completed {
		o.state = Completed
	}
}

// PlayAgain starts a fresh session after completion. It constructs a new
// mode instance; a completed one is never resurrected.
func (o *Orchestrator) PlayAgain() error {
	o.mu.Lock()
	if o.state != Completed {
		o.mu.Unlock()
		return fmt.Errorf("can only replay a completed session")
	}
	o.mode = o.meta.NewMode(o.settings)
	o.finalStats = nil
	o.round = nil
	o.state = Idle
	o.phase = PhaseNone
	o.mu.Unlock()
	return o.Start()
}

// guardLocked enforces the completed/paused no-op policy: once a session
// is complete, late guesses and timer callbacks return the already
// computed final stats instead of double-counting.
func (o *Orchestrator) guardLocked() (Result, bool) {
	if o.state == Completed {
		return Result{GameCompleted: true, Stats: o.finalStats}, true
	}
	if o.state != Playing || o.round == nil {
		return Result{}, true
	}
	return Result{}, false
}

func (o *Orchestrator) newAttemptLocked(guess string, notes []string) model.GuessAttempt {
	return model.GuessAttempt{
		ID:        uuid.NewString(),
		At:        time.Now(),
		Actual:    o.round.Stimulus.Label(),
		Guess:     guess,
		Notes:     notes,
		LatencyMs: time.Since(o.round.StartedAt).Milliseconds(),
	}
}

func (o *Orchestrator) applyLocked(res Result) Result {
	if res.GameCompleted {
		return o.finalizeLocked(res)
	}
	if res.ShouldAdvance {
		o.phase = PhaseAdvance
		o.stopRoundTimerLocked()
	} else {
		o.phase = PhaseWaitingInput
	}
	return res
}

func (o *Orchestrator) finalizeLocked(res Result) Result {
	o.state = Completed
	o.phase = PhaseNone
	o.stopRoundTimerLocked()
	if o.sessionTimer != nil {
		o.sessionTimer.Stop()
		o.sessionTimer = nil
	}
	if res.Stats == nil {
		stats := o.mode.Stats()
		res.Stats = &stats
	}
	o.finalStats = res.Stats
	res.GameCompleted = true

	if o.onComplete != nil {
		now := time.Now()
		session := model.GameSession{
			ID:              o.sessionID,
			Mode:            o.meta.ID,
			StartedAt:       o.startedAt,
			EndedAt:         now,
			DurationMs:      o.elapsedLocked().Milliseconds(),
			Completed:       o.mode.Complete(),
			Accuracy:        res.Stats.Accuracy,
			CorrectAttempts: res.Stats.CorrectAttempts,
			TotalAttempts:   res.Stats.TotalAttempts,
			LongestStreak:   res.Stats.LongestStreak,
			Settings:        o.settings,
			Guesses:         o.mode.History(),
		}
		o.onComplete(session, o.mode.ChordStats())
	}
	return res
}

func chordPartialPct(v validate.ChordGuessResult) float64 {
	switch {
	case v.IsCorrect:
		return 100
	case v.RootMatched:
		return 50
	default:
		return 0
	}
}
