// Package cue implements the state machine for one triggerable show
// element. All transition methods must be called from the session's
// dispatch context; the cue itself carries no locks.
package cue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/showctl/cueline/backend"
	"github.com/showctl/cueline/fade"
	"github.com/showctl/cueline/logger"
)

// FadeSpec is one configured fade: a duration and a curve. A zero duration
// means no fade. A nil curve means linear. CurveName keeps the document
// spelling so a loaded session can be written back out unchanged.
type FadeSpec struct {
	Duration  time.Duration
	Curve     fade.Curve
	CurveName string
}

// Timing groups the cue's wait and fade attributes.
type Timing struct {
	// PreWait delays the effect after the cue is triggered.
	PreWait time.Duration

	// PostWait delays an auto-next cursor advance after the trigger.
	PostWait time.Duration

	FadeIn  FadeSpec
	FadeOut FadeSpec
}

// Payload is the variant-specific half of a cue: media playback or an
// action fan-out, behind a shared capability set.
type Payload interface {
	Open() (time.Duration, error)
	Play() error
	Resume() error
	Pause() error
	Stop() error
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	Position() time.Duration

	// Instant reports whether the payload completes within its Play call
	// (action cues do; media cues run until end-of-stream).
	Instant() bool

	// Looping reports whether end-of-stream should restart playback
	// instead of ending the cue.
	Looping() bool
}

// Cue is one triggerable show element.
type Cue struct {
	ID    string
	Name  string
	Color string

	Timing Timing
	Next   NextAction

	state   State
	fading  Fading
	volume  float64
	nominal float64

	duration time.Duration
	payload  Payload
	sched    *fade.Scheduler
	emit     func(Event)
	fader    *fade.Fader
	wait     *fade.Timer

	log *logrus.Entry
}

// New creates a cue around a payload. The scheduler drives the cue's fades
// and waits; emit receives every notification and must not block.
func New(name string, payload Payload, sched *fade.Scheduler, emit func(Event)) *Cue {
	if emit == nil {
		emit = func(Event) {}
	}
	return &Cue{
		ID:      uuid.NewString(),
		Name:    name,
		nominal: 1.0,
		payload: payload,
		sched:   sched,
		emit:    emit,
		log:     logger.GetProjectLogger(),
	}
}

// State returns the primary state.
func (c *Cue) State() State { return c.state }

// Fading returns the orthogonal fade indicator.
func (c *Cue) Fading() Fading { return c.fading }

// Volume returns the current applied volume.
func (c *Cue) Volume() float64 { return c.volume }

// NominalVolume returns the configured target volume.
func (c *Cue) NominalVolume() float64 { return c.nominal }

// Duration returns the media duration reported by the last open.
func (c *Cue) Duration() time.Duration { return c.duration }

// Position returns the payload's playback position.
func (c *Cue) Position() time.Duration { return c.payload.Position() }

// Payload returns the variant payload.
func (c *Cue) Payload() Payload { return c.payload }

// Start triggers the cue. Valid from Stopped or Paused. With a pre-wait the
// effect begins after the countdown; with a fade-in the cue reaches Running
// on ramp completion, otherwise immediately.
func (c *Cue) Start() error {
	switch c.state {
	case Stopped, Paused:
	default:
		return c.invalid("start")
	}

	resume := c.state == Paused
	c.setState(Starting)

	if c.Timing.PreWait > 0 {
		c.wait = c.sched.StartTimer(c.Timing.PreWait, func() {
			c.wait = nil
			c.beginEffect(resume)
		})
		return nil
	}
	c.beginEffect(resume)
	return nil
}

func (c *Cue) beginEffect(resume bool) {
	if !resume {
		d, err := c.payload.Open()
		if err != nil {
			c.fault("open", err)
			return
		}
		c.duration = d
		c.volume = 0
	}

	start := c.payload.Play
	if resume {
		start = c.payload.Resume
	}

	if c.Timing.FadeIn.Duration > 0 && !c.payload.Instant() {
		// Fade from the current volume: 0 on a fresh start, wherever the
		// pause left it on a resume.
		c.applyVolume(c.volume)
		if err := start(); err != nil {
			c.fault("play", err)
			return
		}
		c.fading = FadingIn
		c.fader = c.sched.StartFade(c.volume, c.nominal, c.Timing.FadeIn.Duration, c.Timing.FadeIn.Curve, c.applyVolume, func() {
			c.fader = nil
			c.fading = FadingNone
			c.setState(Running)
			c.emitEvent(EventStarted, nil)
		})
		return
	}

	c.applyVolume(c.nominal)
	if err := start(); err != nil {
		c.fault("play", err)
		return
	}
	c.setState(Running)
	c.emitEvent(EventStarted, nil)

	if c.payload.Instant() {
		c.setState(Stopped)
		c.emitEvent(EventEnded, nil)
	}
}

// Pause halts playback, keeping the position. Valid from Running. With a
// configured fade-out the volume ramps to zero before the backend pause.
func (c *Cue) Pause() error {
	if c.state != Running {
		return c.invalid("pause")
	}

	c.setState(Pausing)
	if c.Timing.FadeOut.Duration > 0 {
		c.fading = FadingOut
		c.fader = c.sched.StartFade(c.volume, 0, c.Timing.FadeOut.Duration, c.Timing.FadeOut.Curve, c.applyVolume, func() {
			c.fader = nil
			c.fading = FadingNone
			c.finishPause()
		})
		return nil
	}
	c.finishPause()
	return nil
}

func (c *Cue) finishPause() {
	if err := c.payload.Pause(); err != nil {
		c.fault("pause", err)
		return
	}
	c.setState(Paused)
	c.emitEvent(EventPaused, nil)
}

// Stop ends the cue. From Running (or audibly mid fade-in) a configured
// fade-out ramps the volume down first; from Paused, Pausing or a silent
// Starting the stop is immediate.
func (c *Cue) Stop() error {
	switch c.state {
	case Running:
		if c.Timing.FadeOut.Duration > 0 {
			c.fadeOutAndStop()
			return nil
		}
	case Starting:
		// Mid fade-in the ramp is cancelled and the fade-out takes over
		// from the current volume. A cue still in pre-wait is silent and
		// stops at once.
		audible := c.fading == FadingIn
		c.cancelPending()
		if audible && c.Timing.FadeOut.Duration > 0 {
			c.fadeOutAndStop()
			return nil
		}
	case Paused, Pausing:
		c.cancelPending()
	default:
		return c.invalid("stop")
	}

	c.stopNow(EventStopped)
	return nil
}

func (c *Cue) fadeOutAndStop() {
	c.setState(Stopping)
	c.fading = FadingOut
	c.fader = c.sched.StartFade(c.volume, 0, c.Timing.FadeOut.Duration, c.Timing.FadeOut.Curve, c.applyVolume, func() {
		c.fader = nil
		c.fading = FadingNone
		c.stopNow(EventStopped)
	})
}

// Interrupt is the emergency cut: any pending fade or wait is cancelled
// without completing and the backend stop is issued immediately. On an
// already-Stopped cue it is a no-op.
func (c *Cue) Interrupt() error {
	if c.state == Stopped {
		return nil
	}
	c.cancelPending()
	c.stopNow(EventInterrupted)
	return nil
}

func (c *Cue) stopNow(ev EventType) {
	if err := c.payload.Stop(); err != nil {
		c.log.WithFields(logrus.Fields{"cue_id": c.ID}).Warnf("backend stop failed: %v", err)
	}
	c.fading = FadingNone
	c.setState(Stopped)
	c.emitEvent(ev, nil)
}

// cancelPending removes any active fader and pre-wait timer from the
// scheduler before anything else happens, so a late tick can never
// re-assert a stale volume.
func (c *Cue) cancelPending() {
	if c.fader != nil {
		c.fader.Cancel()
		c.fader = nil
	}
	if c.wait != nil {
		c.wait.Cancel()
		c.wait = nil
	}
	c.fading = FadingNone
}

// SetVolume sets the nominal volume, clamped to [0,1]. While a fade is
// running the ramp keeps its original target and the new nominal applies
// to later fades; otherwise the change is applied at once.
func (c *Cue) SetVolume(v float64) {
	c.nominal = fade.ClampUnit(v)
	if c.fader == nil {
		c.applyVolume(c.nominal)
	}
}

func (c *Cue) applyVolume(v float64) {
	c.volume = fade.ClampUnit(v)
	if err := c.payload.SetVolume(c.volume); err != nil {
		c.log.WithFields(logrus.Fields{"cue_id": c.ID}).Warnf("backend volume set failed: %v", err)
	}
}

// HandleBackendEvent applies an asynchronous backend notification. The
// caller must already have marshaled it onto the dispatch context.
func (c *Cue) HandleBackendEvent(ev backend.Event) {
	switch ev.Type {
	case backend.EventEndOfStream:
		c.handleEnded()
	case backend.EventError:
		if c.state != Stopped {
			c.fault("playback", ev.Err)
		}
	case backend.EventPosition:
		// The payload reads position straight off the backend.
	}
}

func (c *Cue) handleEnded() {
	if c.state == Stopped {
		return
	}

	if c.state == Running && c.payload.Looping() {
		if err := c.payload.Seek(0); err != nil {
			c.fault("seek", err)
			return
		}
		if err := c.payload.Play(); err != nil {
			c.fault("play", err)
		}
		return
	}

	// End of media bypasses any configured fade-out.
	c.cancelPending()
	if err := c.payload.Stop(); err != nil {
		c.log.WithFields(logrus.Fields{"cue_id": c.ID}).Warnf("backend stop failed: %v", err)
	}
	c.setState(Stopped)
	c.emitEvent(EventEnded, nil)
}

// fault forces the cue to Stopped and emits a non-fatal fault
// notification. The engine keeps running.
func (c *Cue) fault(op string, err error) {
	c.cancelPending()
	_ = c.payload.Stop()
	c.setState(Stopped)

	merr := &MediaError{CueID: c.ID, Op: op, Err: err}
	c.log.WithFields(logrus.Fields{"cue_id": c.ID, "cue_name": c.Name, "op": op}).Warnf("cue fault: %v", err)
	c.emitEvent(EventFault, merr)
}

func (c *Cue) setState(s State) {
	if c.state == s {
		return
	}
	c.log.WithFields(logrus.Fields{"cue_id": c.ID, "cue_name": c.Name}).Debugf("state %s -> %s", c.state, s)
	c.state = s
	c.emitEvent(EventStateChanged, nil)
}

func (c *Cue) emitEvent(t EventType, err error) {
	c.emit(Event{CueID: c.ID, CueName: c.Name, Type: t, State: c.state, Err: err})
}

func (c *Cue) invalid(op string) error {
	return fmt.Errorf("cue %q: %s from %s: %w", c.Name, op, c.state, ErrInvalidStateTransition)
}
