// Package animation drives the loading choreography for route generation:
// periodic waypoint reveals, rotating subtitles, and the switch into the
// finalizing message once a run has been visible for long enough.
package animation

import (
	"sync"
	"time"
)

// TickKind identifies what a tick asks the consumer to advance.
type TickKind int

const (
	// TickReveal asks the consumer to reveal the next pending waypoint.
	TickReveal TickKind = iota
	// TickSubtitle asks the consumer to rotate the loading subtitle.
	TickSubtitle
)

// Tick is one scheduled animation step. Finalizing is set once the clock has
// been running for at least Config.FinalizeAfter, after which the consumer
// pins the finalizing subtitle regardless of the rotation.
type Tick struct {
	Kind       TickKind
	Finalizing bool
}

// Config carries the cadences for a single clock run.
type Config struct {
	RevealEvery   time.Duration
	SubtitleEvery time.Duration
	FinalizeAfter time.Duration
}

// Cadence defaults. Reveals land just under once a second so an eight stop
// route fills out over several seconds, subtitles rotate slowly enough to be
// readable, and runs past the finalize threshold switch to a single pinned
// message instead of cycling.
const (
	DefaultRevealInterval   = 800 * time.Millisecond
	DefaultSubtitleInterval = 2500 * time.Millisecond
	DefaultFinalizeAfter    = 12 * time.Second
)

func (c Config) withDefaults() Config {
	if c.RevealEvery <= 0 {
		c.RevealEvery = DefaultRevealInterval
	}
	if c.SubtitleEvery <= 0 {
		c.SubtitleEvery = DefaultSubtitleInterval
	}
	if c.FinalizeAfter <= 0 {
		c.FinalizeAfter = DefaultFinalizeAfter
	}
	return c
}

// Clock emits Ticks on two independent cadences until stopped. Delivery is
// synchronous: a tick the consumer never receives is dropped when the clock
// stops, so no tick outlives Stop.
type Clock struct {
	ticks chan Tick
	stop  chan struct{}
	done  chan struct{}

	stopOnce sync.Once
}

// Start launches the clock goroutine and begins ticking immediately.
func Start(cfg Config) *Clock {
	c := &Clock{
		ticks: make(chan Tick),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go c.run(cfg.withDefaults())
	return c
}

// Ticks returns the stream of animation steps. The channel is unbuffered and
// never closed; callers multiplex it with their own cancellation.
func (c *Clock) Ticks() <-chan Tick {
	return c.ticks
}

// Stop halts the clock and waits for the goroutine to exit. After Stop
// returns no further tick is delivered. Safe to call more than once.
func (c *Clock) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

func (c *Clock) run(cfg Config) {
	defer close(c.done)

	started := time.Now()
	reveal := time.NewTicker(cfg.RevealEvery)
	defer reveal.Stop()
	subtitle := time.NewTicker(cfg.SubtitleEvery)
	defer subtitle.Stop()

	finalizing := func() bool {
		return time.Since(started) >= cfg.FinalizeAfter
	}

	for {
		select {
		case <-c.stop:
			return
		case <-reveal.C:
			if !c.emit(Tick{Kind: TickReveal, Finalizing: finalizing()}) {
				return
			}
		case <-subtitle.C:
			if !c.emit(Tick{Kind: TickSubtitle, Finalizing: finalizing()}) {
				return
			}
		}
	}
}

// emit blocks until the consumer takes the tick or the clock is stopped.
func (c *Clock) emit(t Tick) bool {
	select {
	case c.ticks <- t:
		return true
	case <-c.stop:
		return false
	}
}
