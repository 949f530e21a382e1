package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "eartrain.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func testSession(mode string, endedAt time.Time, correct, total int) model.GameSession {
	return model.GameSession{
		ID:              "session-" + endedAt.Format("150405.000"),
		Mode:            mode,
		StartedAt:       endedAt.Add(-time.Minute),
		EndedAt:         endedAt,
		DurationMs:      60000,
		Completed:       true,
		Accuracy:        float64(correct) / float64(total) * 100,
		CorrectAttempts: correct,
		TotalAttempts:   total,
		LongestStreak:   correct,
		Settings:        model.SessionSettings{Mode: mode, TargetNotes: total},
	}
}

func TestInsertAndRecentSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	session := testSession("rush", base, 8, 10)
	session.Guesses = []model.GuessAttempt{
		{ID: "g1", At: base, Actual: "C4", Guess: "C", Correct: true, LatencyMs: 900},
		{ID: "g2", At: base, Actual: "D4", Guess: "E", Correct: false, PartialPct: 0, LatencyMs: 1500},
	}
	id, err := st.InsertSession(ctx, session, []model.ChordStats{
		{Chord: "C Major", Correct: 1, Incorrect: 0, LatencySumMs: 900, LatencyCount: 1},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive row id, got %d", id)
	}

	got, err := st.RecentSessions(ctx, "rush", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 session, got %d", len(got))
	}
	gs := got[0]
	if gs.ID != session.ID || gs.Mode != "rush" {
		t.Fatalf("identity mismatch: %+v", gs)
	}
	if gs.CorrectAttempts != 8 || gs.TotalAttempts != 10 || gs.Accuracy != 80 {
		t.Fatalf("tally mismatch: %+v", gs)
	}
	if !gs.Completed {
		t.Fatalf("completed flag lost")
	}
	if !gs.EndedAt.Equal(base) {
		t.Fatalf("ended-at round trip failed: %v", gs.EndedAt)
	}
}

func TestRecentSessionsOrderAndModeFilter(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, mode := range []string{"rush", "survival", "rush"} {
		s := testSession(mode, base.Add(time.Duration(i)*time.Hour), 5, 10)
		if _, err := st.InsertSession(ctx, s, nil); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	got, err := st.RecentSessions(ctx, "rush", 5)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("mode filter failed: %d sessions", len(got))
	}
	if !got[0].EndedAt.After(got[1].EndedAt) {
		t.Fatalf("sessions not newest first: %v, %v", got[0].EndedAt, got[1].EndedAt)
	}

	all, err := st.RecentSessions(ctx, "", 5)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("empty mode should match all, got %d", len(all))
	}

	none, err := st.RecentSessions(ctx, "rush", 0)
	if err != nil || none != nil {
		t.Fatalf("limit 0 should be a no-op: %v %v", none, err)
	}
}

func TestListSessionsFilters(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s := testSession("rush", base.Add(time.Duration(i)*time.Hour), i+1, 10)
		if _, err := st.InsertSession(ctx, s, nil); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	aggs, err := st.ListSessions(ctx, model.StatsConfig{Mode: "rush"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(aggs) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(aggs))
	}
	// Oldest first.
	if aggs[0].Correct != 1 || aggs[2].Correct != 3 {
		t.Fatalf("order mismatch: %+v", aggs)
	}

	since := base.Add(90 * time.Minute)
	aggs, err = st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Correct != 3 {
		t.Fatalf("since filter failed: %+v", aggs)
	}
}

func TestGetWeakChordsWindow(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Older session: D Minor was weak back then.
	old := testSession("chord-id", base, 1, 5)
	if _, err := st.InsertSession(ctx, old, []model.ChordStats{
		{Chord: "D Minor", Correct: 0, Incorrect: 4, LatencySumMs: 0, LatencyCount: 0},
	}); err != nil {
		t.Fatalf("insert old: %v", err)
	}
	recent := testSession("chord-id", base.Add(time.Hour), 4, 5)
	if _, err := st.InsertSession(ctx, recent, []model.ChordStats{
		{Chord: "C Major", Correct: 2, Incorrect: 1, LatencySumMs: 3000, LatencyCount: 2},
	}); err != nil {
		t.Fatalf("insert recent: %v", err)
	}

	aggs, err := st.GetWeakChords(ctx, 1, "chord-id")
	if err != nil {
		t.Fatalf("weak chords: %v", err)
	}
	if len(aggs) != 1 || aggs[0].Chord != "C Major" {
		t.Fatalf("window 1 should only see the latest session: %+v", aggs)
	}

	aggs, err = st.GetWeakChords(ctx, 10, "chord-id")
	if err != nil {
		t.Fatalf("weak chords wide: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected both chords in a wide window: %+v", aggs)
	}

	none, err := st.GetWeakChords(ctx, 0, "chord-id")
	if err != nil || none != nil {
		t.Fatalf("window 0 should be a no-op: %v %v", none, err)
	}
}

func TestListChordAggregatesSumsAcrossSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []int64
	for i := 0; i < 2; i++ {
		s := testSession("chord-id", base.Add(time.Duration(i)*time.Hour), 3, 5)
		id, err := st.InsertSession(ctx, s, []model.ChordStats{
			{Chord: "C Major", Correct: 2, Incorrect: 1, LatencySumMs: 2000, LatencyCount: 2},
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	aggs, err := st.ListChordAggregatesForSessions(ctx, ids)
	if err != nil {
		t.Fatalf("aggregates: %v", err)
	}
	if len(aggs) != 1 {
		t.Fatalf("expected one grouped chord, got %d", len(aggs))
	}
	agg := aggs[0]
	if agg.Correct != 4 || agg.Incorrect != 2 || agg.LatencySumMs != 4000 || agg.LatencyCount != 4 {
		t.Fatalf("aggregation mismatch: %+v", agg)
	}

	sub, err := st.ListChordAggregatesForSessions(ctx, ids[:1])
	if err != nil {
		t.Fatalf("subset aggregates: %v", err)
	}
	if len(sub) != 1 || sub[0].Correct != 2 {
		t.Fatalf("subset mismatch: %+v", sub)
	}

	empty, err := st.ListChordAggregatesForSessions(ctx, nil)
	if err != nil || empty != nil {
		t.Fatalf("empty id list should be a no-op: %v %v", empty, err)
	}
}
