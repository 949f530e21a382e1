// Package timer implements a generic pausable interval timer.
//
// A Service is a goroutine owning all timing state. Callers drive it with
// commands (Pause, Resume, Stop, Reset, SetTime) and observe it through a
// single update channel. The channel is closed when the service stops, so
// no update is ever delivered after a Stop or a count-down timeout.
package timer

import (
	"time"
)

// Direction selects count-up or count-down behavior.
type Direction int

// Directions.
const (
	Up Direction = iota
	Down
)

// Config describes one timer instance.
type Config struct {
	// Initial is the starting time: the budget for count-down timers,
	// usually zero for count-up timers.
	Initial time.Duration
	// Interval between update emissions.
	Interval time.Duration
	Direction Direction
}

// Update is one timer observation.
type Update struct {
	Elapsed   time.Duration
	Remaining time.Duration
	Active    bool
	// Timeout is true exactly once, on the final update of a count-down
	// timer reaching zero.
	Timeout bool
}

type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
	cmdStop
	cmdReset
	cmdSetTime
)

type command struct {
	kind commandKind
	t    time.Duration
}

// Service is a single-use timer. It is inert until the first Resume and
// cannot be restarted after Stop; discard it and create a fresh instance.
type Service struct {
	cfg     Config
	cmds    chan command
	updates chan Update
	stopped chan struct{}
}

const updateBuffer = 64

// New creates an inert timer service and starts its goroutine.
func New(cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 100 * time.Millisecond
	}
	s := &Service{
		cfg:     cfg,
		cmds:    make(chan command),
		updates: make(chan Update, updateBuffer),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// Updates returns the observation channel. It is closed on stop/timeout.
func (s *Service) Updates() <-chan Update {
	return s.updates
}

// Pause suspends ticking; elapsed/remaining time is preserved exactly.
func (s *Service) Pause() { s.send(command{kind: cmdPause}) }

// Resume starts or continues the timer and emits an immediate update.
func (s *Service) Resume() { s.send(command{kind: cmdResume}) }

// Stop terminates the timer. No further updates are emitted.
func (s *Service) Stop() { s.send(command{kind: cmdStop}) }

// Reset returns to the initial time and emits an immediate update.
func (s *Service) Reset() { s.send(command{kind: cmdReset}) }

// SetTime overrides the current remaining (down) or elapsed (up) time
// and emits an immediate update.
func (s *Service) SetTime(t time.Duration) { s.send(command{kind: cmdSetTime, t: t}) }

func (s *Service) send(c command) {
	select {
	case s.cmds <- c:
	case <-s.stopped:
	}
}

func (s *Service) run() {
	defer close(s.stopped)
	defer close(s.updates)

	var (
		running   bool
		ticker    *time.Ticker
		tick      <-chan time.Time
		startedAt time.Time
		pausedFor time.Duration
		pausedAt  time.Time
		remaining = s.cfg.Initial
		started   bool
	)

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker = nil
			tick = nil
		}
	}
	defer stopTicker()

	elapsed := func() time.Duration {
		if !started {
			return 0
		}
		if running {
			return time.Since(startedAt) - pausedFor
		}
		return pausedAt.Sub(startedAt) - pausedFor
	}

	emit := func(timeout bool) {
		u := Update{
			Elapsed:   elapsed(),
			Remaining: remaining,
			Active:    running,
			Timeout:   timeout,
		}
		if s.cfg.Direction == Up {
			u.Remaining = 0
		}
		// Never block the loop on a slow consumer; ordering of delivered
		// updates is still monotonic.
		select {
		case s.updates <- u:
		default:
		}
	}

	for {
		select {
		case c := <-s.cmds:
			switch c.kind {
			case cmdResume:
				if running {
					break
				}
				now := time.Now()
				if !started {
					started = true
					startedAt = now
				} else {
					pausedFor += now.Sub(pausedAt)
				}
				running = true
				stopTicker()
				ticker = time.NewTicker(s.cfg.Interval)
				tick = ticker.C
				emit(false)
			case cmdPause:
				if !running {
					break
				}
				pausedAt = time.Now()
				running = false
				stopTicker()
				emit(false)
			case cmdReset:
				remaining = s.cfg.Initial
				now := time.Now()
				startedAt = now
				pausedAt = now
				pausedFor = 0
				emit(false)
			case cmdSetTime:
				if s.cfg.Direction == Down {
					remaining = c.t
				} else {
					now := time.Now()
					startedAt = now.Add(-c.t)
					pausedAt = now
					pausedFor = 0
					started = true
				}
				emit(false)
			case cmdStop:
				return
			}
		case <-tick:
			if !running {
				break
			}
			if s.cfg.Direction == Down {
				remaining -= s.cfg.Interval
				if remaining <= 0 {
					remaining = 0
					running = false
					emit(true)
					return
				}
			}
			emit(false)
		}
	}
}
