package music

import (
	"math/rand"
	"time"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/model"
)

// Generator produces randomized stimuli subject to chord filters.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a Generator seeded with the current time.
func NewGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSeededGenerator returns a deterministic Generator for tests.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Note picks a random note within the filter's octave range.
func (g *Generator) Note(filters model.ChordFilters) Note {
	roots := allowedRoots(filters)
	low, high := octaveRange(filters)
	pc := roots[g.rnd.Intn(len(roots))]
	octave := low + g.rnd.Intn(high-low+1)
	return NoteAt(pc, octave)
}

// Chord picks a random chord subject to the filters.
func (g *Generator) Chord(filters model.ChordFilters) Chord {
	return g.chordFrom(filters, g.pickQuality(allowedQualities(filters)))
}

// ChordWeighted biases quality selection toward weak chord labels. The weak
// set is keyed by canonical chord name; factor scales the bias the same way
// weak-character focus does for typing practice.
func (g *Generator) ChordWeighted(filters model.ChordFilters, weakSet map[string]struct{}, factor float64) Chord {
	qualities := allowedQualities(filters)
	if len(weakSet) == 0 || factor <= 0 {
		return g.chordFrom(filters, g.pickQuality(qualities))
	}

	roots := allowedRoots(filters)
	weights := make([]float64, len(qualities))
	total := 0.0
	for i, q := range qualities {
		w := 1.0
		for _, pc := range roots {
			name := SharpNames[pc] + " " + q.Display()
			if _, ok := weakSet[name]; ok {
				w += factor
			}
		}
		weights[i] = w
		total += w
	}

	r := g.rnd.Float64() * total
	acc := 0.0
	picked := qualities[0]
	for i, w := range weights {
		acc += w
		if r <= acc {
			picked = qualities[i]
			break
		}
	}
	return g.chordFrom(filters, picked)
}

func (g *Generator) chordFrom(filters model.ChordFilters, quality Quality) Chord {
	roots := allowedRoots(filters)
	low, high := octaveRange(filters)
	root := NoteAt(roots[g.rnd.Intn(len(roots))], low+g.rnd.Intn(high-low+1))
	inversion := 0
	if filters.Inversions {
		inversion = g.rnd.Intn(len(qualityIntervals[quality]))
	}
	chord, err := NewChord(root, quality, inversion)
	if err != nil {
		// Qualities are validated before reaching here.
		chord, _ = NewChord(root, Major, 0)
	}
	return chord
}

func (g *Generator) pickQuality(qualities []Quality) Quality {
	return qualities[g.rnd.Intn(len(qualities))]
}

func allowedRoots(filters model.ChordFilters) []int {
	if len(filters.Roots) == 0 {
		all := make([]int, 12)
		for i := range all {
			all[i] = i
		}
		return all
	}
	roots := make([]int, 0, len(filters.Roots))
	for _, name := range filters.Roots {
		pc, err := PitchClassOf(name)
		if err != nil {
			continue
		}
		roots = append(roots, pc)
	}
	if len(roots) == 0 {
		roots = append(roots, 0)
	}
	return roots
}

func allowedQualities(filters model.ChordFilters) []Quality {
	if len(filters.Qualities) == 0 {
		out := make([]Quality, len(AllQualities))
		copy(out, AllQualities)
		return out
	}
	qualities := make([]Quality, 0, len(filters.Qualities))
	for _, raw := range filters.Qualities {
		if q, ok := ParseQuality(raw); ok {
			qualities = append(qualities, q)
		}
	}
	if len(qualities) == 0 {
		qualities = append(qualities, Major)
	}
	return qualities
}

func octaveRange(filters model.ChordFilters) (int, int) {
	low, high := filters.OctaveLow, filters.OctaveHigh
	if low == 0 && high == 0 {
		return 4, 4
	}
	if high < low {
		high = low
	}
	return low, high
}
