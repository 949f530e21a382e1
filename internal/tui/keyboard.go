package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/highlight"
	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

// keymap maps a lowercase rune to a semitone offset from C. Uppercase
// runes target the octave above the base octave.
var keymap = map[rune]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5,
	't': 6, 'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11,
}

// noteForKey resolves a pressed rune to a note, or false when the rune
// is not a piano key.
func noteForKey(r rune, baseOctave int) (music.Note, bool) {
	octave := baseOctave
	if r >= 'A' && r <= 'Z' {
		octave++
		r += 'a' - 'A'
	}
	offset, ok := keymap[r]
	if !ok {
		return music.Note{}, false
	}
	return music.NoteAt(offset, octave), true
}

var (
	keyPlainStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	keySelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#1B1B1B")).Background(lipgloss.Color("#C89A3A"))
	keySuccessStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#1B1B1B")).Background(lipgloss.Color("#52C41A"))
	keyErrorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Background(lipgloss.Color("#FF4D4F"))
	keyDimmedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A")).Background(lipgloss.Color("#2B2B2B"))
)

func styleForKind(k highlight.Kind) lipgloss.Style {
	switch k {
	case highlight.Selected:
		return keySelectedStyle
	case highlight.Success:
		return keySuccessStyle
	case highlight.Error:
		return keyErrorStyle
	case highlight.Dimmed:
		return keyDimmedStyle
	default:
		return keyPlainStyle
	}
}

// renderKeyboard draws two chromatic octaves starting at baseOctave,
// one line each, with every key styled by its highlight kind.
func renderKeyboard(baseOctave int, highlights []highlight.Highlight) string {
	kinds := map[int]highlight.Kind{}
	for _, h := range highlights {
		kinds[h.Note.MIDI()] = h.Kind
	}

	var lines []string
	for octave := baseOctave; octave <= baseOctave+1; octave++ {
		var b strings.Builder
		for pc := 0; pc < 12; pc++ {
			n := music.NoteAt(pc, octave)
			label := " " + n.String() + " "
			style := keyPlainStyle
			if kind, ok := kinds[n.MIDI()]; ok {
				style = styleForKind(kind)
			}
			b.WriteString(style.Render(label))
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
