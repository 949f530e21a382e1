// Package audio plays stimuli on a MIDI output device.
package audio

import (
	"fmt"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/beeckusu/project-music-ear-training-sub002/internal/music"
)

const (
	defaultVelocity = 96
	defaultDuration = 900 * time.Millisecond
)

// Player sends note-on/note-off messages to the first available MIDI
// output port. All methods are safe on a nil receiver so callers can
// treat a missing device as silence rather than an error.
type Player struct {
	mu   sync.Mutex
	drv  *rtmididrv.Driver
	out  drivers.Out
	send func(midi.Message) error
}

// NewPlayer opens the rtmidi driver and connects to the first output
// port. Returns an error when no device is available.
func NewPlayer() (*Player, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	outs, err := drv.Outs()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to list midi outputs: %w", err)
	}
	if len(outs) == 0 {
		drv.Close()
		return nil, fmt.Errorf("no midi output ports found")
	}
	out := outs[0]
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("failed to open midi output %q: %w", out.String(), err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		_ = out.Close()
		drv.Close()
		return nil, fmt.Errorf("failed to attach sender to %q: %w", out.String(), err)
	}
	return &Player{drv: drv, out: out, send: send}, nil
}

// PortName returns the connected output port name.
func (p *Player) PortName() string {
	if p == nil || p.out == nil {
		return ""
	}
	return p.out.String()
}

// PlayStimulus sounds every pitch of the stimulus at once, holds them
// for the default duration and releases. Blocks for the duration; run
// it from a goroutine when latency matters.
func (p *Player) PlayStimulus(s music.Stimulus) error {
	if p == nil || s == nil {
		return nil
	}
	return p.playNotes(s.Pitches(), defaultDuration)
}

// PlayNote sounds a single note.
func (p *Player) PlayNote(n music.Note) error {
	if p == nil {
		return nil
	}
	return p.playNotes([]music.Note{n}, defaultDuration)
}

func (p *Player) playNotes(notes []music.Note, hold time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.send == nil {
		return nil
	}
	for _, n := range notes {
		if err := p.send(midi.NoteOn(0, uint8(n.MIDI()), defaultVelocity)); err != nil {
			return fmt.Errorf("note on: %w", err)
		}
	}
	time.Sleep(hold)
	for _, n := range notes {
		if err := p.send(midi.NoteOff(0, uint8(n.MIDI()))); err != nil {
			return fmt.Errorf("note off: %w", err)
		}
	}
	return nil
}

// Close releases the output port and the driver.
func (p *Player) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		_ = p.out.Close()
		p.out = nil
	}
	if p.drv != nil {
		p.drv.Close()
		p.drv = nil
	}
	p.send = nil
}
