package music

import "testing"

func TestNewChordMajorNotes(t *testing.T) {
	chord, err := NewChord(Note{Name: "C", Octave: 4}, Major, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"C", "E", "G"}
	names := chord.NoteNames()
	if len(names) != len(want) {
		t.Fatalf("expected %d notes, got %d", len(want), len(names))
	}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("note %d: expected %s, got %s", i, name, names[i])
		}
	}
}

func TestNewChordInversionRaisesBottomNote(t *testing.T) {
	chord, err := NewChord(Note{Name: "C", Octave: 4}, Major, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pitches := chord.Pitches()
	if pitches[0].Name != "E" || pitches[0].Octave != 4 {
		t.Fatalf("expected E4 at the bottom, got %v", pitches[0])
	}
	last := pitches[len(pitches)-1]
	if last.Name != "C" || last.Octave != 5 {
		t.Fatalf("expected C5 on top, got %v", last)
	}
}

func TestNewChordInversionClamped(t *testing.T) {
	base, _ := NewChord(Note{Name: "D", Octave: 4}, Minor, 0)
	wrapped, err := NewChord(Note{Name: "D", Octave: 4}, Minor, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wrapped.Inversion != 0 {
		t.Fatalf("expected inversion 3 of a triad to wrap to 0, got %d", wrapped.Inversion)
	}
	for i, n := range wrapped.Pitches() {
		if !n.SamePitch(base.Pitches()[i]) {
			t.Fatalf("expected wrapped inversion to match root position")
		}
	}
}

func TestNewChordUnknownQuality(t *testing.T) {
	if _, err := NewChord(Note{Name: "C", Octave: 4}, Quality("weird"), 0); err == nil {
		t.Fatalf("expected error for unknown quality")
	}
}

func TestChordLabel(t *testing.T) {
	chord, err := NewChord(Note{Name: "C#", Octave: 4}, Minor7, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chord.Label() != "C# Minor 7" {
		t.Fatalf("unexpected label %q", chord.Label())
	}
}

func TestParseQualityAliases(t *testing.T) {
	cases := []struct {
		input string
		want  Quality
	}{
		{"", Major},
		{"maj", Major},
		{"MAJOR", Major},
		{"M", Major},
		{"m", Minor},
		{"min", Minor},
		{"-", Minor},
		{"dim", Diminished},
		{"°", Diminished},
		{"aug", Augmented},
		{"+", Augmented},
		{"M7", Major7},
		{"maj7", Major7},
		{"m7", Minor7},
		{"-7", Minor7},
		{"7", Dominant7},
		{"dom7", Dominant7},
		{"sus2", Sus2},
		{"sus 4", Sus4},
	}
	for _, tc := range cases {
		got, ok := ParseQuality(tc.input)
		if !ok {
			t.Fatalf("ParseQuality(%q) not recognized", tc.input)
		}
		if got != tc.want {
			t.Fatalf("ParseQuality(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestParseQualityRejectsUnknown(t *testing.T) {
	if _, ok := ParseQuality("lydian"); ok {
		t.Fatalf("expected lydian to be rejected")
	}
}

func TestQualityIntervalsSpelled(t *testing.T) {
	cases := []struct {
		quality Quality
		root    string
		want    []string
	}{
		{Minor, "A", []string{"A", "C", "E"}},
		{Dominant7, "G", []string{"G", "B", "D", "F"}},
		{Sus4, "C", []string{"C", "F", "G"}},
		{Diminished, "B", []string{"B", "D", "F"}},
	}
	for _, tc := range cases {
		root, err := ParseNote(tc.root)
		if err != nil {
			t.Fatalf("parse root %q: %v", tc.root, err)
		}
		chord, err := NewChord(root, tc.quality, 0)
		if err != nil {
			t.Fatalf("NewChord(%s %s): %v", tc.root, tc.quality, err)
		}
		names := chord.NoteNames()
		for i, want := range tc.want {
			if names[i] != want {
				t.Fatalf("%s %s note %d: expected %s, got %s", tc.root, tc.quality, i, want, names[i])
			}
		}
	}
}
