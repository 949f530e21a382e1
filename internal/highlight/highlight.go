// Package highlight derives keyboard highlight lists from round state.
package highlight

import (
	"sort"

	"github.com/samber/lo"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// Kind classifies how a key should be rendered.
type Kind string

// Highlight kinds.
const (
	Selected Kind = "selected"
	Success  Kind = "success"
	Error    Kind = "error"
	Dimmed   Kind = "dimmed"
)

// Phase distinguishes highlights before and after a submission.
type Phase int

// Phases.
const (
	PreSubmit Phase = iota
	PostSubmit
)

// Highlight tags one note with a render kind.
type Highlight struct {
	Note music.Note
	Kind Kind
}

// Build produces an order-stable highlight list for the keyboard.
//
// Pre-submit every selected note is tagged Selected regardless of
// correctness, so nothing is spoiled before submission; the other sets are
// ignored. Post-submit, correct notes are Success, incorrect notes are
// Error, and target notes that were never selected are Dimmed (missed,
// not "wrong"). Identical inputs always yield an identical list.
func Build(phase Phase, selected, correct, incorrect, target []music.Note) []Highlight {
	if phase == PreSubmit {
		return tagAll(dedupe(selected), Selected)
	}

	out := tagAll(dedupe(correct), Success)
	out = append(out, tagAll(dedupe(incorrect), Error)...)
	missed := lo.Without(keysOf(target), keysOf(selected)...)
	out = append(out, tagAll(pick(target, missed), Dimmed)...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Note.MIDI() < out[j].Note.MIDI()
	})
	return out
}

func tagAll(notes []music.Note, kind Kind) []Highlight {
	sorted := make([]music.Note, len(notes))
	copy(sorted, notes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MIDI() < sorted[j].MIDI() })
	out := make([]Highlight, 0, len(sorted))
	for _, n := range sorted {
		out = append(out, Highlight{Note: n, Kind: kind})
	}
	return out
}

func keysOf(notes []music.Note) []int {
	keys := make([]int, 0, len(notes))
	seen := map[int]struct{}{}
	for _, n := range notes {
		k := n.MIDI()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

func dedupe(notes []music.Note) []music.Note {
	return pick(notes, keysOf(notes))
}

func pick(notes []music.Note, keys []int) []music.Note {
	want := make(map[int]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	out := make([]music.Note, 0, len(keys))
	seen := map[int]struct{}{}
	for _, n := range notes {
		k := n.MIDI()
		if _, ok := want[k]; !ok {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}
