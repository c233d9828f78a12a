// Package timer implements the wall-clock countdown for timed sessions.
//
// The countdown is pure state: it holds no goroutine and does not schedule
// anything itself. The owner drives it with Tick calls (the session screen
// uses a 1 Hz tea.Tick) and reacts to the returned events. Teardown is
// simply ceasing to tick.
package timer

import "time"

// Event describes what a single Tick observed.
type Event struct {
	Remaining time.Duration
	// Crossed lists thresholds that fired on this tick, in registration
	// order. Each threshold fires at most once per countdown.
	Crossed []time.Duration
	// Expired is true only on the tick where the countdown first reached
	// zero. Subsequent ticks report false.
	Expired bool
}

type threshold struct {
	at    time.Duration
	fired bool
}

// Countdown counts wall-clock time down from a fixed duration, with
// latched threshold callbacks and a one-shot expiry.
type Countdown struct {
	remaining  time.Duration
	running    bool
	expired    bool
	lastTick   time.Time
	thresholds []threshold
}

// New creates a stopped countdown with the given duration.
func New(d time.Duration) *Countdown {
	return &Countdown{remaining: d}
}

// AddThreshold registers a warning threshold. It fires on the first tick
// where remaining time is at or below the mark, and never again; a
// pause/resume cycle does not re-arm it.
func (c *Countdown) AddThreshold(at time.Duration) {
	c.thresholds = append(c.thresholds, threshold{at: at})
}

// Start begins counting from now. Starting an expired countdown is a no-op.
func (c *Countdown) Start(now time.Time) {
	if c.expired {
		return
	}
	c.running = true
	c.lastTick = now
}

// Pause freezes the remaining time, accounting for time elapsed since the
// last tick.
func (c *Countdown) Pause(now time.Time) {
	if !c.running {
		return
	}
	c.consume(now)
	c.running = false
}

// Resume continues from the exact remaining value. No drift: the paused
// interval is not counted.
func (c *Countdown) Resume(now time.Time) {
	if c.expired || c.running {
		return
	}
	c.running = true
	c.lastTick = now
}

// SetRemaining overrides the remaining time, used when the backend returns a
// fresh remaining-time snapshot on resume. Already-fired thresholds stay
// latched.
func (c *Countdown) SetRemaining(d time.Duration, now time.Time) {
	c.remaining = d
	c.lastTick = now
	if d <= 0 {
		c.remaining = 0
	}
}

// Running reports whether the countdown is actively ticking.
func (c *Countdown) Running() bool {
	return c.running
}

// Remaining returns the last computed remaining time.
func (c *Countdown) Remaining() time.Duration {
	return c.remaining
}

// Expired reports whether the countdown has reached zero.
func (c *Countdown) Expired() bool {
	return c.expired
}

// Tick advances the countdown to now and reports threshold crossings and
// expiry. Ticks while paused or after expiry return the frozen remaining
// value with no events.
func (c *Countdown) Tick(now time.Time) Event {
	ev := Event{Remaining: c.remaining}
	if !c.running || c.expired {
		return ev
	}

	c.consume(now)
	ev.Remaining = c.remaining

	for i := range c.thresholds {
		t := &c.thresholds[i]
		if !t.fired && c.remaining <= t.at {
			t.fired = true
			ev.Crossed = append(ev.Crossed, t.at)
		}
	}

	if c.remaining <= 0 {
		c.remaining = 0
		c.expired = true
		c.running = false
		ev.Remaining = 0
		ev.Expired = true
	}

	return ev
}

func (c *Countdown) consume(now time.Time) {
	elapsed := now.Sub(c.lastTick)
	if elapsed < 0 {
		elapsed = 0
	}
	c.remaining -= elapsed
	c.lastTick = now
	if c.remaining < 0 {
		c.remaining = 0
	}
}
