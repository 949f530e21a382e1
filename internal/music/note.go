// Package music models notes, chords, and stimulus generation.
package music

import (
	"fmt"
	"strconv"
	"strings"
)

// SharpNames are the canonical pitch-class spellings used by the engine.
var SharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FlatNames are the enharmonic flat spellings for each pitch class.
var FlatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

var letterSemitones = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// Note is a pitch with a spelling and an octave. Value type, no shared state.
type Note struct {
	Name   string
	Octave int
}

// String renders the note with its octave, e.g. "C#4".
func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Name, n.Octave)
}

// PitchClass returns the semitone index 0..11, or -1 for an invalid name.
func (n Note) PitchClass() int {
	pc, err := PitchClassOf(n.Name)
	if err != nil {
		return -1
	}
	return pc
}

// MIDI returns the MIDI key number (C4 = 60).
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + n.PitchClass()
}

// SamePitch reports whether two notes denote the same key, regardless of spelling.
func (n Note) SamePitch(other Note) bool {
	return n.MIDI() == other.MIDI()
}

// SamePitchClass reports enharmonic equality ignoring octave.
func (n Note) SamePitchClass(other Note) bool {
	return n.PitchClass() == other.PitchClass()
}

// NoteAt builds a note from a pitch class using the sharp spelling.
func NoteAt(pitchClass, octave int) Note {
	pitchClass = ((pitchClass % 12) + 12) % 12
	return Note{Name: SharpNames[pitchClass], Octave: octave}
}

// NoteFromMIDI converts a MIDI key number to a sharp-spelled note.
func NoteFromMIDI(key int) Note {
	return NoteAt(key%12, key/12-1)
}

// PitchClassOf resolves a pitch-class name ("C", "c#", "Db") to 0..11.
func PitchClassOf(name string) (int, error) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}
	letter := s[0]
	if letter >= 'a' && letter <= 'g' {
		letter -= 'a' - 'A'
	}
	base, ok := letterSemitones[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note letter %q", string(s[0]))
	}
	pc := base
	for _, r := range s[1:] {
		switch r {
		case '#', '♯':
			pc++
		case 'b', '♭':
			pc--
		default:
			return 0, fmt.Errorf("invalid accidental in %q", name)
		}
	}
	return ((pc % 12) + 12) % 12, nil
}

// ParseNote parses a note name with an optional octave suffix, e.g. "C#", "db3".
// Without an octave the note defaults to octave 4.
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Note{}, fmt.Errorf("empty note")
	}
	split := len(s)
	for split > 0 {
		c := s[split-1]
		if c < '0' || c > '9' {
			break
		}
		split--
	}
	namePart := s[:split]
	octave := 4
	if split < len(s) {
		v, err := strconv.Atoi(s[split:])
		if err != nil {
			return Note{}, fmt.Errorf("invalid octave in %q", s)
		}
		octave = v
	}
	pc, err := PitchClassOf(namePart)
	if err != nil {
		return Note{}, err
	}
	name := canonicalSpelling(namePart, pc)
	return Note{Name: name, Octave: octave}, nil
}

// canonicalSpelling preserves the flat/sharp family of the input while
// normalizing case, so "db" parses to "Db" rather than "C#".
func canonicalSpelling(input string, pc int) string {
	if strings.ContainsAny(input, "b♭") && FlatNames[pc] != SharpNames[pc] {
		return FlatNames[pc]
	}
	return SharpNames[pc]
}

// Stimulus is the prompt presented for one round: a single note or a chord.
type Stimulus interface {
	// Label is the canonical display name, e.g. "F#" or "C Major".
	Label() string
	// Pitches lists the notes to sound, in ascending order.
	Pitches() []Note
}

// Label implements Stimulus for a single note. Octave is omitted: pitch
// class is what a note round asks for.
func (n Note) Label() string {
	return n.Name
}

// Pitches implements Stimulus.
func (n Note) Pitches() []Note {
	return []Note{n}
}
