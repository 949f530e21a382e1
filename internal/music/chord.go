package music

import (
	"fmt"
	"strings"
)

// Quality identifies a chord quality.
type Quality string

// Supported chord qualities.
const (
	Major      Quality = "major"
	Minor      Quality = "minor"
	Diminished Quality = "diminished"
	Augmented  Quality = "augmented"
	Major7     Quality = "major7"
	Minor7     Quality = "minor7"
	Dominant7  Quality = "dominant7"
	Sus2       Quality = "sus2"
	Sus4       Quality = "sus4"
)

// AllQualities lists qualities in a stable presentation order.
var AllQualities = []Quality{
	Major, Minor, Diminished, Augmented,
	Major7, Minor7, Dominant7, Sus2, Sus4,
}

var qualityIntervals = map[Quality][]int{
	Major:      {0, 4, 7},
	Minor:      {0, 3, 7},
	Diminished: {0, 3, 6},
	Augmented:  {0, 4, 8},
	Major7:     {0, 4, 7, 11},
	Minor7:     {0, 3, 7, 10},
	Dominant7:  {0, 4, 7, 10},
	Sus2:       {0, 2, 7},
	Sus4:       {0, 5, 7},
}

var qualityDisplay = map[Quality]string{
	Major:      "Major",
	Minor:      "Minor",
	Diminished: "Diminished",
	Augmented:  "Augmented",
	Major7:     "Major 7",
	Minor7:     "Minor 7",
	Dominant7:  "Dominant 7",
	Sus2:       "Sus2",
	Sus4:       "Sus4",
}

// qualityAliases maps normalized (lowercased) suffixes to qualities. The
// single-letter "M"/"m" and "M7"/"m7" forms are case-sensitive and handled
// before this table applies.
var qualityAliases = map[string]Quality{
	"":            Major,
	"maj":         Major,
	"major":       Major,
	"min":         Minor,
	"minor":       Minor,
	"-":           Minor,
	"dim":         Diminished,
	"diminished":  Diminished,
	"o":           Diminished,
	"°":           Diminished,
	"aug":         Augmented,
	"augmented":   Augmented,
	"+":           Augmented,
	"maj7":        Major7,
	"major7":      Major7,
	"major 7":     Major7,
	"min7":        Minor7,
	"minor7":      Minor7,
	"minor 7":     Minor7,
	"-7":          Minor7,
	"7":           Dominant7,
	"dom7":        Dominant7,
	"dominant7":   Dominant7,
	"dominant 7":  Dominant7,
	"sus2":        Sus2,
	"sus 2":       Sus2,
	"sus4":        Sus4,
	"sus 4":       Sus4,
	"suspended2":  Sus2,
	"suspended 2": Sus2,
	"suspended4":  Sus4,
	"suspended 4": Sus4,
}

// Display returns the human-readable quality name, e.g. "Major 7".
func (q Quality) Display() string {
	if d, ok := qualityDisplay[q]; ok {
		return d
	}
	return string(q)
}

// Valid reports whether the quality is one the engine knows.
func (q Quality) Valid() bool {
	_, ok := qualityIntervals[q]
	return ok
}

// ParseQuality resolves a free-text quality suffix. Case-sensitive "M"/"m"
// shorthand is honored first; everything else matches case-insensitively.
func ParseQuality(suffix string) (Quality, bool) {
	suffix = strings.TrimSpace(suffix)
	switch suffix {
	case "M":
		return Major, true
	case "m":
		return Minor, true
	case "M7":
		return Major7, true
	case "m7":
		return Minor7, true
	}
	q, ok := qualityAliases[strings.ToLower(suffix)]
	return q, ok
}

// Chord is a stimulus with a root, quality, ordered note list, and inversion.
// Immutable once built; the chord owns its note slice.
type Chord struct {
	Root      Note
	Quality   Quality
	Notes     []Note
	Inversion int
}

// NewChord builds a chord from a root and quality. Inversion rotates the
// note list, moving rotated notes up an octave; it is clamped to the chord size.
func NewChord(root Note, quality Quality, inversion int) (Chord, error) {
	intervals, ok := qualityIntervals[quality]
	if !ok {
		return Chord{}, fmt.Errorf("unknown chord quality %q", quality)
	}
	notes := make([]Note, len(intervals))
	for i, iv := range intervals {
		notes[i] = NoteFromMIDI(root.MIDI() + iv)
	}
	if inversion < 0 {
		inversion = 0
	}
	inversion %= len(notes)
	for i := 0; i < inversion; i++ {
		bottom := notes[0]
		notes = append(notes[1:], NoteFromMIDI(bottom.MIDI()+12))
	}
	return Chord{Root: root, Quality: quality, Notes: notes, Inversion: inversion}, nil
}

// Label returns the canonical chord name, e.g. "C# Minor 7".
func (c Chord) Label() string {
	return c.Root.Name + " " + c.Quality.Display()
}

// Pitches implements Stimulus.
func (c Chord) Pitches() []Note {
	out := make([]Note, len(c.Notes))
	copy(out, c.Notes)
	return out
}

// NoteNames lists the chord's note names without octaves.
func (c Chord) NoteNames() []string {
	names := make([]string, len(c.Notes))
	for i, n := range c.Notes {
		names[i] = n.Name
	}
	return names
}
