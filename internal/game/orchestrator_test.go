package game

import (
	"strings"
	"testing"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/timer"
)

func newTestOrchestrator(t *testing.T, modeID string, settings model.SessionSettings, opts ...Option) *Orchestrator {
	t.Helper()
	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry: %v", err)
	}
	opts = append([]Option{WithGenerator(music.NewSeededGenerator(42))}, opts...)
	o := New(registry, modeID, settings, opts...)
	t.Cleanup(o.Shutdown)
	return o
}

// cFilters pins generation to C so guesses are deterministic.
var cFilters = model.ChordFilters{Roots: []string{"C"}, Qualities: []string{"major"}}

func TestOrchestratorRushSessionToCompletion(t *testing.T) {
	var saved *model.GameSession
	onComplete := func(s model.GameSession, _ []model.ChordStats) { saved = &s }
	o := newTestOrchestrator(t, ModeRush,
		model.SessionSettings{TargetNotes: 2, Filters: cFilters},
		WithOnComplete(onComplete))

	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if o.State() != Playing || o.Phase() != PhaseWaitingInput {
		t.Fatalf("unexpected state %v phase %v", o.State(), o.Phase())
	}

	res := o.SubmitNoteGuess("C")
	if !res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("first correct guess: %+v", res)
	}
	if o.Phase() != PhaseAdvance {
		t.Fatalf("expected advance phase, got %v", o.Phase())
	}

	o.NextRound()
	if o.Phase() != PhaseWaitingInput {
		t.Fatalf("next round did not reopen input: %v", o.Phase())
	}

	res = o.SubmitNoteGuess("C")
	if !res.GameCompleted {
		t.Fatalf("expected completion: %+v", res)
	}
	if o.State() != Completed {
		t.Fatalf("state not completed: %v", o.State())
	}
	if saved == nil {
		t.Fatalf("completion callback not invoked")
	}
	if saved.CorrectAttempts != 2 || saved.Accuracy != 100 {
		t.Fatalf("unexpected saved session: %+v", saved)
	}
	if !saved.Completed {
		t.Fatalf("saved session not marked completed")
	}
}

func TestOrchestratorUnknownModeFallsBackToSandbox(t *testing.T) {
	var warning string
	o := newTestOrchestrator(t, "does-not-exist", model.SessionSettings{Filters: cFilters},
		WithWarnf(func(format string, args ...any) { warning = format }))
	if o.ModeID() != ModeSandbox {
		t.Fatalf("expected sandbox fallback, got %q", o.ModeID())
	}
	if !strings.Contains(warning, "falling back to sandbox") {
		t.Fatalf("expected fallback warning, got %q", warning)
	}
	if err := o.Start(); err != nil {
		t.Fatalf("fallback session failed to start: %v", err)
	}
}

func TestOrchestratorCompletedGuardReturnsFinalStats(t *testing.T) {
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 1, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	first := o.SubmitNoteGuess("C")
	if !first.GameCompleted {
		t.Fatalf("expected completion")
	}

	late := o.SubmitNoteGuess("C")
	if !late.GameCompleted {
		t.Fatalf("late guess should report completion")
	}
	if late.Stats == nil || late.Stats.TotalAttempts != 1 {
		t.Fatalf("late guess altered stats: %+v", late.Stats)
	}

	timeout := o.HandleRoundTimeout()
	if timeout.Stats == nil || timeout.Stats.TotalAttempts != 1 {
		t.Fatalf("late timeout altered stats: %+v", timeout.Stats)
	}
}

func TestOrchestratorTimeoutCountsAsIncorrect(t *testing.T) {
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 5, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := o.HandleRoundTimeout()
	if res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("timeout should not advance or complete: %+v", res)
	}
	if !strings.HasPrefix(res.Feedback, "Time's up!") {
		t.Fatalf("unexpected timeout feedback %q", res.Feedback)
	}
	if o.Phase() != PhaseTimeoutIntermission {
		t.Fatalf("expected timeout intermission, got %v", o.Phase())
	}
	stats := o.Mode().Stats()
	if stats.TotalAttempts != 1 || stats.CorrectAttempts != 0 {
		t.Fatalf("timeout not recorded as incorrect: %+v", stats)
	}

	o.NextRound()
	if o.Phase() != PhaseWaitingInput {
		t.Fatalf("could not advance after timeout: %v", o.Phase())
	}
}

func TestOrchestratorPauseRejectsGuesses(t *testing.T) {
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 5, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	o.Pause()
	if o.State() != Paused {
		t.Fatalf("expected paused state, got %v", o.State())
	}
	res := o.SubmitNoteGuess("C")
	if res.ShouldAdvance || res.GameCompleted || res.Feedback != "" {
		t.Fatalf("paused guess was processed: %+v", res)
	}
	if o.Mode().Stats().TotalAttempts != 0 {
		t.Fatalf("paused guess recorded an attempt")
	}

	o.Resume()
	if o.State() != Playing {
		t.Fatalf("resume failed: %v", o.State())
	}
	if res := o.SubmitNoteGuess("C"); !res.ShouldAdvance {
		t.Fatalf("guess after resume not processed: %+v", res)
	}
}

func TestOrchestratorStimulusTypeMismatchIgnored(t *testing.T) {
	var warned bool
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 5, Filters: cFilters},
		WithWarnf(func(format string, args ...any) { warned = true }))
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	res := o.SubmitChordName("C major")
	if res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("chord guess processed in a note round: %+v", res)
	}
	if !warned {
		t.Fatalf("expected a mismatch warning")
	}
	if o.Mode().Stats().TotalAttempts != 0 {
		t.Fatalf("mismatch recorded an attempt")
	}
}

func TestOrchestratorChordIdentification(t *testing.T) {
	o := newTestOrchestrator(t, ModeChordID, model.SessionSettings{TargetChords: 2, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	res := o.SubmitChordName("definitely wrong")
	if res.ShouldAdvance {
		t.Fatalf("wrong chord name advanced")
	}
	history := o.Mode().History()
	if len(history) != 1 || history[0].PartialPct != 0 {
		t.Fatalf("unexpected history after miss: %+v", history)
	}

	// Root right, quality wrong: half credit on the attempt record.
	res = o.SubmitChordName("C minor")
	if res.ShouldAdvance {
		t.Fatalf("wrong quality advanced")
	}
	history = o.Mode().History()
	if history[1].PartialPct != 50 {
		t.Fatalf("expected 50%% partial credit, got %v", history[1].PartialPct)
	}

	res = o.SubmitChordName("C major")
	if !res.ShouldAdvance {
		t.Fatalf("correct chord name rejected: %+v", res)
	}
	history = o.Mode().History()
	if history[2].PartialPct != 100 || !history[2].Correct {
		t.Fatalf("unexpected correct attempt record: %+v", history[2])
	}
}

func TestOrchestratorSingleChordSelection(t *testing.T) {
	o := newTestOrchestrator(t, ModeSingleChord, model.SessionSettings{TargetChords: 1, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	round := o.Round()
	chord, ok := round.Stimulus.(music.Chord)
	if !ok {
		t.Fatalf("single-chord round has non-chord stimulus")
	}

	// Select one right note plus one wrong one and submit.
	o.ToggleNote(chord.Pitches()[0])
	wrongNote := music.NoteFromMIDI(chord.Pitches()[0].MIDI() + 1)
	o.ToggleNote(wrongNote)
	res := o.SubmitSelection()
	if res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("incorrect selection advanced: %+v", res)
	}
	if got := o.Round().Selected; len(got) != 0 {
		t.Fatalf("selection not cleared after failed submit: %v", got)
	}

	for _, n := range chord.Pitches() {
		o.ToggleNote(n)
	}
	res = o.SubmitSelection()
	if !res.GameCompleted {
		t.Fatalf("complete selection did not finish the session: %+v", res)
	}
}

func TestOrchestratorEmptySelectionIsIncorrectAttempt(t *testing.T) {
	o := newTestOrchestrator(t, ModeSingleChord, model.SessionSettings{TargetChords: 3, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	res := o.SubmitSelection()
	if res.ShouldAdvance || res.GameCompleted {
		t.Fatalf("empty selection advanced: %+v", res)
	}
	if !strings.HasPrefix(res.Feedback, "Incorrect") {
		t.Fatalf("unexpected empty-selection feedback %q", res.Feedback)
	}
	stats := o.Mode().Stats()
	if stats.TotalAttempts != 1 || stats.CorrectAttempts != 0 {
		t.Fatalf("empty selection not recorded as incorrect: %+v", stats)
	}
	if o.Phase() != PhaseWaitingInput {
		t.Fatalf("round should stay open for another try: %v", o.Phase())
	}
}

func TestOrchestratorEmptyChordNameIsNotATimeout(t *testing.T) {
	o := newTestOrchestrator(t, ModeChordID, model.SessionSettings{TargetChords: 3, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	res := o.SubmitChordName("")
	if !strings.HasPrefix(res.Feedback, "Incorrect") {
		t.Fatalf("empty guess mislabeled: %q", res.Feedback)
	}
	if o.Mode().Stats().TotalAttempts != 1 {
		t.Fatalf("empty guess not counted as an attempt")
	}

	timeout := o.HandleRoundTimeout()
	if !strings.HasPrefix(timeout.Feedback, "Time's up!") {
		t.Fatalf("real timeout lost its feedback: %q", timeout.Feedback)
	}
}

func TestOrchestratorSessionExpiryFinalizes(t *testing.T) {
	o := newTestOrchestrator(t, ModeSurvival, model.SessionSettings{
		StartHealth:   100,
		HealthPenalty: 25,
		Filters:       cFilters,
	})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	o.SubmitNoteGuess("C")
	o.NextRound()

	res := o.HandleSessionTick(timer.Update{Timeout: true})
	if res == nil || !res.GameCompleted {
		t.Fatalf("session timeout did not complete: %+v", res)
	}
	if o.State() != Completed {
		t.Fatalf("state not completed after expiry: %v", o.State())
	}
	if o.Mode().CelebrationTier() == TierNone {
		t.Fatalf("expiry with perfect accuracy should earn a tier")
	}

	if late := o.HandleSessionTick(timer.Update{Timeout: true}); late != nil {
		t.Fatalf("duplicate expiry processed: %+v", late)
	}
}

func TestOrchestratorPlayAgainStartsFresh(t *testing.T) {
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 1, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.PlayAgain(); err == nil {
		t.Fatalf("replay of an active session should fail")
	}

	o.SubmitNoteGuess("C")
	if o.State() != Completed {
		t.Fatalf("session not completed")
	}

	if err := o.PlayAgain(); err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if o.State() != Playing {
		t.Fatalf("replay did not start: %v", o.State())
	}
	if o.Mode().Stats().TotalAttempts != 0 {
		t.Fatalf("replay reused the completed mode instance")
	}
}

func TestOrchestratorStartTwiceFails(t *testing.T) {
	o := newTestOrchestrator(t, ModeRush, model.SessionSettings{TargetNotes: 1, Filters: cFilters})
	if err := o.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := o.Start(); err == nil {
		t.Fatalf("second start should fail")
	}
}
