package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

func TestSessionMetrics(t *testing.T) {
	acc, avg := SessionMetrics(8, 10, 40000)
	if acc != 80 {
		t.Fatalf("expected 80%% accuracy, got %f", acc)
	}
	if avg != 5000 {
		t.Fatalf("expected 5000ms per correct, got %f", avg)
	}

	acc, avg = SessionMetrics(0, 0, 0)
	if acc != 0 || avg != 0 {
		t.Fatalf("empty session should yield zeros, got %f %f", acc, avg)
	}

	// No correct answers: accuracy is defined, speed is not.
	acc, avg = SessionMetrics(0, 5, 10000)
	if acc != 0 || avg != 0 {
		t.Fatalf("zero-correct session: %f %f", acc, avg)
	}
}

func TestMovingAverageSmoothing(t *testing.T) {
	in := []float64{0, 100, 0, 100}
	out := MovingAverage(in, 2)
	want := []float64{0, 50, 50, 50}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("window 2: out[%d] = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestMovingAverageWindowOneIsIdentity(t *testing.T) {
	in := []float64{3, 1, 4, 1, 5}
	out := MovingAverage(in, 1)
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("window 1 changed values: %v", out)
		}
	}
	out[0] = 99
	if in[0] == 99 {
		t.Fatalf("MovingAverage aliased its input")
	}
}

func TestSparklineShape(t *testing.T) {
	s := Sparkline([]float64{0, 50, 100})
	if len(s) != 3 {
		t.Fatalf("expected 3 chars, got %q", s)
	}
	if s[0] != ' ' || s[2] != '@' {
		t.Fatalf("expected extremes at the ends, got %q", s)
	}

	flat := Sparkline([]float64{5, 5, 5, 5})
	if len(flat) != 4 || strings.Count(flat, string(flat[0])) != 4 {
		t.Fatalf("flat series should render one repeated char, got %q", flat)
	}

	if Sparkline(nil) != "" {
		t.Fatalf("empty series should render empty string")
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	lines := FormatTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "1"}, {"b", "100"}},
		map[int]bool{1: true},
	)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Name  Count" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "alpha     1" {
		t.Fatalf("right-align failed: %q", lines[1])
	}
	if lines[2] != "b       100" {
		t.Fatalf("right-align failed: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := FormatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil for empty input, got %v", lines)
	}
}

func TestSelectWeakChordsPicksLowestAccuracy(t *testing.T) {
	aggs := []model.ChordAggregate{
		{Chord: "C Major", Correct: 9, Incorrect: 1},
		{Chord: "D Minor", Correct: 2, Incorrect: 8},
		{Chord: "G Dominant 7", Correct: 5, Incorrect: 5},
	}
	weak := SelectWeakChords(aggs, 2)
	if len(weak) != 2 {
		t.Fatalf("expected 2 weak chords, got %d", len(weak))
	}
	if _, ok := weak["D Minor"]; !ok {
		t.Fatalf("weakest chord missing from set: %v", weak)
	}
	if _, ok := weak["G Dominant 7"]; !ok {
		t.Fatalf("second-weakest chord missing from set: %v", weak)
	}
	if _, ok := weak["C Major"]; ok {
		t.Fatalf("strongest chord should not be selected")
	}
}

func TestSelectWeakChordsTopLargerThanInput(t *testing.T) {
	aggs := []model.ChordAggregate{{Chord: "C Major", Correct: 1, Incorrect: 1}}
	weak := SelectWeakChords(aggs, 10)
	if len(weak) != 1 {
		t.Fatalf("expected all chords, got %d", len(weak))
	}
	if len(SelectWeakChords(nil, 5)) != 0 {
		t.Fatalf("empty aggregates should yield an empty set")
	}
}

func TestFilterChords(t *testing.T) {
	aggs := []model.ChordAggregate{
		{Chord: "C Major", Correct: 3},
		{Chord: "D Minor", Correct: 1},
		{Chord: "G Dominant 7", Correct: 2},
	}
	got := FilterChords(aggs, "c major, g dominant 7")
	if len(got) != 2 || got[0].Chord != "C Major" || got[1].Chord != "G Dominant 7" {
		t.Fatalf("unexpected filter result: %+v", got)
	}
	if got := FilterChords(aggs, ""); len(got) != 3 {
		t.Fatalf("empty filter should keep all, got %d", len(got))
	}
	if got := FilterChords(aggs, "F Minor"); len(got) != 0 {
		t.Fatalf("unmatched filter should keep none, got %+v", got)
	}
}

func TestTopChordsByFrequency(t *testing.T) {
	aggs := []model.ChordAggregate{
		{Chord: "C Major", Correct: 3, Incorrect: 1},
		{Chord: "D Minor", Correct: 10, Incorrect: 5},
		{Chord: "E Minor", Correct: 1, Incorrect: 0},
	}
	top := TopChordsByFrequency(aggs, 2)
	if len(top) != 2 || top[0] != "D Minor" || top[1] != "C Major" {
		t.Fatalf("unexpected top chords: %v", top)
	}
	if TopChordsByFrequency(aggs, 0) != nil {
		t.Fatalf("n=0 should yield nil")
	}
}

func TestResampleAverageBuckets(t *testing.T) {
	in := []float64{1, 3, 5, 7}
	out := resample(in, 2)
	if len(out) != 2 || out[0] != 2 || out[1] != 6 {
		t.Fatalf("unexpected resample: %v", out)
	}

	// Short series pass through unchanged.
	out = resample([]float64{1, 2}, 10)
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("short series mangled: %v", out)
	}
}

func TestPlotWidthFor(t *testing.T) {
	if w := PlotWidthFor(80); w != 76 {
		t.Fatalf("expected 76, got %d", w)
	}
	if w := PlotWidthFor(5); w != minPlotWidth {
		t.Fatalf("expected clamp to %d, got %d", minPlotWidth, w)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	sessions := []model.SessionAggregate{
		{Correct: 10, Total: 10, DurationMs: 20000, LongestStreak: 10},
		{Correct: 5, Total: 10, DurationMs: 30000, LongestStreak: 3},
	}
	if err := RenderSummary(&buf, sessions); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Avg Accuracy: 75.0%", "Best Accuracy: 100.0%", "Best Streak: 10"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, nil); err != nil {
		t.Fatalf("RenderSummary empty: %v", err)
	}
	if !strings.Contains(buf.String(), "No sessions found.") {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}

func TestRenderChordTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.ChordAggregate{
		{Chord: "C Major", Correct: 9, Incorrect: 1, LatencySumMs: 9000, LatencyCount: 9},
		{Chord: "D Minor", Correct: 1, Incorrect: 9, LatencySumMs: 4000, LatencyCount: 1},
	}
	if err := RenderChordTable(&buf, aggs); err != nil {
		t.Fatalf("RenderChordTable: %v", err)
	}
	out := buf.String()
	if strings.Index(out, "D Minor") > strings.Index(out, "C Major") {
		t.Fatalf("weakest chord not listed first:\n%s", out)
	}
	if !strings.Contains(out, "10.0%") || !strings.Contains(out, "90.0%") {
		t.Fatalf("accuracy columns missing:\n%s", out)
	}
}
