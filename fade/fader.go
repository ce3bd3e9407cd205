package fade

import "time"

// Fader runs a single time-bounded value ramp. It never owns a goroutine:
// the scheduler that spawned it calls Tick until the ramp completes or is
// cancelled.
type Fader struct {
	from     float64
	to       float64
	duration time.Duration
	curve    Curve
	apply    func(float64)
	done     func()

	elapsed time.Duration
	value   float64
	active  bool
}

// Tick advances the ramp by dt and applies the interpolated value through
// the setter. It reports true once elapsed >= duration; on completion the
// value is pinned exactly to the ramp target.
func (f *Fader) Tick(dt time.Duration) bool {
	if !f.active {
		return false
	}

	f.elapsed += dt
	if f.elapsed >= f.duration {
		f.value = f.to
		f.apply(f.to)
		return true
	}

	t := float64(f.elapsed) / float64(f.duration)
	f.value = f.from + (f.to-f.from)*f.curve(t)
	f.apply(f.value)
	return false
}

// Cancel stops the ramp at the current interpolated value. A cancelled
// fader never ticks again and its completion callback never fires.
func (f *Fader) Cancel() {
	f.active = false
}

// Active reports whether the ramp is still ticking.
func (f *Fader) Active() bool {
	return f.active
}

// Value returns the last value the ramp applied.
func (f *Fader) Value() float64 {
	return f.value
}

// Target returns the value the ramp is heading to.
func (f *Fader) Target() float64 {
	return f.to
}
