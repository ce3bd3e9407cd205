package fade

import "time"

// Timer is a one-shot delayed call owned by the scheduler. Cues use timers
// for pre-wait and post-wait countdowns.
type Timer struct {
	remaining time.Duration
	fn        func()
	active    bool
}

// Cancel drops the timer without firing it.
func (t *Timer) Cancel() {
	t.active = false
}

// Active reports whether the timer is still pending.
func (t *Timer) Active() bool {
	return t.active
}

// Remaining returns the time left before the timer fires.
func (t *Timer) Remaining() time.Duration {
	if !t.active {
		return 0
	}
	return t.remaining
}

// Scheduler advances every active fader and pending timer on each tick of
// the session loop. It must only ever be touched from that loop: single
// ownership is what makes cancellation synchronous, so a cancelled ramp can
// never re-assert a stale volume from a late tick.
type Scheduler struct {
	faders []*Fader
	timers []*Timer
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// StartFade begins a ramp from -> to over the given duration, applying
// values through the setter and invoking done on completion. Callers must
// pass a positive duration; instant changes go straight through the setter.
func (s *Scheduler) StartFade(from, to float64, duration time.Duration, curve Curve, apply func(float64), done func()) *Fader {
	if curve == nil {
		curve = CurveByNameMust(CurveLinear)
	}
	f := &Fader{
		from:     from,
		to:       to,
		duration: duration,
		curve:    curve,
		apply:    apply,
		done:     done,
		value:    from,
		active:   true,
	}
	s.faders = append(s.faders, f)
	return f
}

// StartTimer schedules fn to fire once delay has elapsed.
func (s *Scheduler) StartTimer(delay time.Duration, fn func()) *Timer {
	t := &Timer{remaining: delay, fn: fn, active: true}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves every active fader and timer forward by dt. Completion
// callbacks run inline and may start new ramps or timers; those join the
// active set on the next tick, never the current one.
func (s *Scheduler) Advance(dt time.Duration) {
	faders := append([]*Fader(nil), s.faders...)
	for _, f := range faders {
		if !f.active {
			continue
		}
		if f.Tick(dt) {
			f.active = false
			if f.done != nil {
				f.done()
			}
		}
	}

	timers := append([]*Timer(nil), s.timers...)
	for _, t := range timers {
		if !t.active {
			continue
		}
		t.remaining -= dt
		if t.remaining <= 0 {
			t.active = false
			t.fn()
		}
	}

	s.compact()
}

// ActiveFaders returns the number of ramps still ticking.
func (s *Scheduler) ActiveFaders() int {
	n := 0
	for _, f := range s.faders {
		if f.active {
			n++
		}
	}
	return n
}

// PendingTimers returns the number of timers not yet fired.
func (s *Scheduler) PendingTimers() int {
	n := 0
	for _, t := range s.timers {
		if t.active {
			n++
		}
	}
	return n
}

// Reset cancels everything. Called on session teardown.
func (s *Scheduler) Reset() {
	for _, f := range s.faders {
		f.active = false
	}
	for _, t := range s.timers {
		t.active = false
	}
	s.faders = nil
	s.timers = nil
}

func (s *Scheduler) compact() {
	faders := s.faders[:0]
	for _, f := range s.faders {
		if f.active {
			faders = append(faders, f)
		}
	}
	s.faders = faders

	timers := s.timers[:0]
	for _, t := range s.timers {
		if t.active {
			timers = append(timers, t)
		}
	}
	s.timers = timers
}

// CurveByNameMust is CurveByName for the engine's own constants, where a
// lookup failure is a programming error.
func CurveByNameMust(name string) Curve {
	c, err := CurveByName(name)
	if err != nil {
		panic(err)
	}
	return c
}
