// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

const sparkChars = " .:-=+*#%@"

// SessionMetrics computes accuracy (0..100) and average time per correct
// answer for a session.
func SessionMetrics(correct, total int, durationMs int64) (accuracy, avgMsPerCorrect float64) {
	if total > 0 {
		accuracy = float64(correct) / float64(total) * 100
	}
	if correct > 0 && durationMs > 0 {
		avgMsPerCorrect = float64(durationMs) / float64(correct)
	}
	return accuracy, avgMsPerCorrect
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary table for sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	var totalAcc float64
	bestAcc := 0.0
	bestStreak := 0
	for _, s := range sessions {
		acc, _ := SessionMetrics(s.Correct, s.Total, s.DurationMs)
		totalAcc += acc
		if acc > bestAcc {
			bestAcc = acc
		}
		if s.LongestStreak > bestStreak {
			bestStreak = s.LongestStreak
		}
	}
	count := float64(len(sessions))
	lines := []string{
		"Summary",
		fmt.Sprintf("Sessions: %d", len(sessions)),
		fmt.Sprintf("Avg Accuracy: %.1f%%", totalAcc/count),
		fmt.Sprintf("Best Accuracy: %.1f%%", bestAcc),
		fmt.Sprintf("Best Streak: %d", bestStreak),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderCurves prints learning curves for accuracy and answer speed.
func RenderCurves(w io.Writer, sessions []model.SessionAggregate, window, totalWidth int) error {
	if len(sessions) == 0 {
		return nil
	}
	accs := make([]float64, len(sessions))
	speeds := make([]float64, len(sessions))
	for i, s := range sessions {
		acc, avg := SessionMetrics(s.Correct, s.Total, s.DurationMs)
		accs[i] = acc
		speeds[i] = avg / 1000
	}
	accs = MovingAverage(accs, window)
	speeds = MovingAverage(speeds, window)

	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeries(w, "Learning Curves", []Series{
		{Name: "Accuracy %", Values: accs},
		{Name: "Sec/answer", Values: speeds},
	}, width)
}

// RenderChordTable prints per-chord aggregates, weakest first.
func RenderChordTable(w io.Writer, aggs []model.ChordAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No chord stats found.")
		return err
	}
	type row struct {
		chord     string
		acc       float64
		latency   float64
		correct   int
		incorrect int
	}
	rows := make([]row, 0, len(aggs))
	for _, agg := range aggs {
		total := agg.Correct + agg.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total)
		}
		lat := 0.0
		if agg.LatencyCount > 0 {
			lat = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
		}
		rows = append(rows, row{
			chord:     agg.Chord,
			acc:       acc,
			latency:   lat,
			correct:   agg.Correct,
			incorrect: agg.Incorrect,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].acc == rows[j].acc {
			return rows[i].chord < rows[j].chord
		}
		return rows[i].acc < rows[j].acc
	})

	if _, err := fmt.Fprintln(w, "Per-Chord (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Chord", "Accuracy", "Avg Time (ms)", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.chord,
			fmt.Sprintf("%.1f%%", r.acc*100),
			fmt.Sprintf("%.0f", r.latency),
			fmt.Sprintf("%d", r.correct),
			fmt.Sprintf("%d", r.incorrect),
		})
	}
	for _, line := range FormatTable(headers, tableRows, map[int]bool{1: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
