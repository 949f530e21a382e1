package music

import "testing"

func TestParseNoteDefaultsToOctaveFour(t *testing.T) {
	n, err := ParseNote("C#")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name != "C#" || n.Octave != 4 {
		t.Fatalf("unexpected note: %+v", n)
	}
	if n.MIDI() != 61 {
		t.Fatalf("expected MIDI 61, got %d", n.MIDI())
	}
}

func TestParseNoteWithOctaveSuffix(t *testing.T) {
	n, err := ParseNote("db3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Name != "Db" || n.Octave != 3 {
		t.Fatalf("expected Db3, got %+v", n)
	}
}

func TestParseNotePreservesFlatSpelling(t *testing.T) {
	flat, err := ParseNote("Eb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sharp, err := ParseNote("d#")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flat.Name != "Eb" || sharp.Name != "D#" {
		t.Fatalf("unexpected spellings: %q %q", flat.Name, sharp.Name)
	}
	if !flat.SamePitch(sharp) {
		t.Fatalf("expected Eb and D# to be the same pitch")
	}
}

func TestParseNoteRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "H", "C##x", "4"} {
		if _, err := ParseNote(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestPitchClassOfAccidentals(t *testing.T) {
	cases := []struct {
		input string
		want  int
	}{
		{"C", 0},
		{"c#", 1},
		{"Db", 1},
		{"Cb", 11},
		{"B#", 0},
		{"E♭", 3},
	}
	for _, tc := range cases {
		got, err := PitchClassOf(tc.input)
		if err != nil {
			t.Fatalf("PitchClassOf(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("PitchClassOf(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestNoteFromMIDIRoundTrip(t *testing.T) {
	for key := 48; key <= 84; key++ {
		n := NoteFromMIDI(key)
		if n.MIDI() != key {
			t.Fatalf("round trip failed for key %d: got %d", key, n.MIDI())
		}
	}
}

func TestNoteStimulus(t *testing.T) {
	n := Note{Name: "F#", Octave: 4}
	if n.Label() != "F#" {
		t.Fatalf("unexpected label %q", n.Label())
	}
	pitches := n.Pitches()
	if len(pitches) != 1 || !pitches[0].SamePitch(n) {
		t.Fatalf("unexpected pitches %v", pitches)
	}
}

func TestSamePitchClassIgnoresOctave(t *testing.T) {
	a := Note{Name: "A", Octave: 3}
	b := Note{Name: "A", Octave: 5}
	if !a.SamePitchClass(b) {
		t.Fatalf("expected same pitch class")
	}
	if a.SamePitch(b) {
		t.Fatalf("expected different pitches across octaves")
	}
}
