package stats

import (
	"sort"
	"strings"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

// SelectWeakChords selects the lowest-accuracy chords from aggregates,
// keyed by canonical chord name.
func SelectWeakChords(aggs []model.ChordAggregate, top int) map[string]struct{} {
	weakSet := map[string]struct{}{}
	if len(aggs) == 0 {
		return weakSet
	}
	candidates := make([]model.ChordAggregate, len(aggs))
	copy(candidates, aggs)
	sort.Slice(candidates, func(i, j int) bool {
		ai := chordAccuracy(candidates[i])
		aj := chordAccuracy(candidates[j])
		if ai == aj {
			return candidates[i].Chord < candidates[j].Chord
		}
		return ai < aj
	})
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	for i := 0; i < top; i++ {
		weakSet[candidates[i].Chord] = struct{}{}
	}
	return weakSet
}

// FilterChords keeps only aggregates whose chord name appears in the
// comma-separated filter, case-insensitively. An empty filter keeps all.
func FilterChords(aggs []model.ChordAggregate, filter string) []model.ChordAggregate {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return aggs
	}
	wanted := map[string]struct{}{}
	for _, name := range strings.Split(filter, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			wanted[name] = struct{}{}
		}
	}
	out := make([]model.ChordAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if _, ok := wanted[strings.ToLower(agg.Chord)]; ok {
			out = append(out, agg)
		}
	}
	return out
}

// TopChordsByFrequency returns the top N chords by total attempt count.
func TopChordsByFrequency(aggs []model.ChordAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	type item struct {
		chord string
		total int
	}
	items := make([]item, 0, len(aggs))
	for _, agg := range aggs {
		items = append(items, item{chord: agg.Chord, total: agg.Correct + agg.Incorrect})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].total == items[j].total {
			return items[i].chord < items[j].chord
		}
		return items[i].total > items[j].total
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].chord)
	}
	return out
}

func chordAccuracy(agg model.ChordAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}
