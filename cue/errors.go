package cue

import (
	"errors"
	"fmt"
)

// ErrInvalidStateTransition is returned when a transition is attempted from
// a state that does not permit it. Callers recover locally; a bad trigger
// must never take down a running show.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// MediaError reports a backend open/seek/playback failure. It forces the
// cue to Stopped and surfaces as a non-fatal fault notification.
type MediaError struct {
	CueID string
	Op    string
	Err   error
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media error on cue %s during %s: %v", e.CueID, e.Op, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}
