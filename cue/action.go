package cue

import "time"

// ActionCue is the composite payload: triggering it fans a single action
// out to other cues through the dispatcher. It completes within its own
// Play call, so the owning cue ends the moment it runs.
type ActionCue struct {
	Request Request

	apply func(Request)
}

// NewActionCue builds an action payload. The apply func is the dispatcher's
// entry point, injected by the session to avoid a package cycle.
func NewActionCue(req Request, apply func(Request)) *ActionCue {
	if apply == nil {
		apply = func(Request) {}
	}
	return &ActionCue{Request: req, apply: apply}
}

func (a *ActionCue) Open() (time.Duration, error) { return 0, nil }

func (a *ActionCue) Play() error {
	a.apply(a.Request)
	return nil
}

func (a *ActionCue) Resume() error { return a.Play() }
func (a *ActionCue) Pause() error  { return nil }
func (a *ActionCue) Stop() error   { return nil }

func (a *ActionCue) Seek(time.Duration) error { return nil }
func (a *ActionCue) SetVolume(float64) error  { return nil }

func (a *ActionCue) Position() time.Duration { return 0 }

func (a *ActionCue) Instant() bool { return true }
func (a *ActionCue) Looping() bool { return false }
