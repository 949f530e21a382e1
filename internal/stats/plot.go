package stats

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	minPlotWidth     = 10
	defaultPlotWidth = 60
	plotMargin       = 4
)

// TerminalWidth returns the current terminal width, or 0 when not a tty.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w
}

// PlotWidthFor derives a plot width from a total terminal width.
func PlotWidthFor(totalWidth int) int {
	w := totalWidth - plotMargin
	if w < minPlotWidth {
		return minPlotWidth
	}
	return w
}

// PlotSeries prints one sparkline row per series with min/max labels.
func PlotSeries(w io.Writer, title string, series []Series, width int) error {
	if width <= 0 {
		width = defaultPlotWidth
	}
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for _, s := range series {
		values := resample(s.Values, width)
		lo, hi := bounds(values)
		if _, err := fmt.Fprintf(w, "%-12s %s  [%.1f .. %.1f]\n", s.Name, Sparkline(values), lo, hi); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// resample squeezes or keeps a series so it fits within width samples,
// averaging the values inside each bucket.
func resample(values []float64, width int) []float64 {
	if len(values) <= width || width <= 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, width)
	for i := 0; i < width; i++ {
		start := i * len(values) / width
		end := (i + 1) * len(values) / width
		if end <= start {
			end = start + 1
		}
		sum := 0.0
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}

func bounds(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
