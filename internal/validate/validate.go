// Package validate compares user guesses against generated stimuli.
package validate

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// ChordGuessResult reports the outcome of a chord-name guess.
type ChordGuessResult struct {
	IsCorrect    bool
	IsEnharmonic bool
	RootMatched  bool
}

// ChordGuess checks a free-text chord name against the actual chord.
// Matching is case-insensitive, tolerant of notation families
// ("maj"/"M"/"" for major, "m"/"min"/"minor" for minor), and resolves
// enharmonic root spellings by semitone before comparing.
func ChordGuess(text string, chord music.Chord) ChordGuessResult {
	var res ChordGuessResult
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return res
	}

	rootPart, suffix := splitRoot(trimmed)
	if rootPart == "" {
		return res
	}
	guessPC, err := music.PitchClassOf(rootPart)
	if err != nil {
		return res
	}
	res.RootMatched = guessPC == chord.Root.PitchClass()
	quality, ok := music.ParseQuality(suffix)
	if !ok {
		return res
	}

	if !res.RootMatched || quality != chord.Quality {
		return res
	}
	res.IsCorrect = true
	res.IsEnharmonic = !strings.EqualFold(normalizeSpelling(rootPart), chord.Root.Name)
	return res
}

// NoteGuess checks a single-note guess by pitch class; octave and
// enharmonic spelling do not affect correctness.
func NoteGuess(text string, note music.Note) bool {
	guess, err := music.ParseNote(text)
	if err != nil {
		return false
	}
	return guess.SamePitchClass(note)
}

// Completeness is the result of comparing selected notes against a target chord.
type Completeness struct {
	Correct   []music.Note
	Incorrect []music.Note
	Missing   []music.Note
	Complete  bool
}

// CheckCompleteness partitions a selection against the target notes.
// A submission is complete iff nothing is missing and nothing is incorrect.
// Notes are matched by key (pitch class and octave), not spelling.
func CheckCompleteness(selected, target []music.Note) Completeness {
	selKeys, selByKey := keyed(selected)
	tgtKeys, tgtByKey := keyed(target)

	correctKeys := lo.Intersect(selKeys, tgtKeys)
	incorrectKeys := lo.Without(selKeys, tgtKeys...)
	missingKeys := lo.Without(tgtKeys, selKeys...)

	res := Completeness{
		Correct:   notesFor(correctKeys, selByKey),
		Incorrect: notesFor(incorrectKeys, selByKey),
		Missing:   notesFor(missingKeys, tgtByKey),
	}
	res.Complete = len(res.Missing) == 0 && len(res.Incorrect) == 0
	return res
}

func keyed(notes []music.Note) ([]int, map[int]music.Note) {
	byKey := make(map[int]music.Note, len(notes))
	keys := make([]int, 0, len(notes))
	for _, n := range notes {
		k := n.MIDI()
		if _, ok := byKey[k]; ok {
			continue
		}
		byKey[k] = n
		keys = append(keys, k)
	}
	return keys, byKey
}

func notesFor(keys []int, byKey map[int]music.Note) []music.Note {
	sort.Ints(keys)
	out := make([]music.Note, 0, len(keys))
	for _, k := range keys {
		out = append(out, byKey[k])
	}
	return out
}

// splitRoot separates the root note spelling from the quality suffix.
func splitRoot(s string) (root, suffix string) {
	end := 0
	if len(s) > 0 {
		c := s[0]
		if (c >= 'A' && c <= 'G') || (c >= 'a' && c <= 'g') {
			end = 1
			for end < len(s) && isAccidental(rune(s[end])) {
				end++
			}
		}
	}
	return s[:end], strings.TrimSpace(s[end:])
}

func isAccidental(r rune) bool {
	return r == '#' || r == 'b' || r == '♯' || r == '♭'
}

func normalizeSpelling(root string) string {
	pc, err := music.PitchClassOf(root)
	if err != nil {
		return root
	}
	if strings.ContainsAny(root, "b♭") {
		return music.FlatNames[pc]
	}
	return music.SharpNames[pc]
}
