package cue

import "fmt"

// State is the primary cue state. A cue is in exactly one primary state at
// any instant.
type State int

const (
	Stopped State = iota
	Starting
	Running
	Pausing
	Paused
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Pausing:
		return "pausing"
	case Paused:
		return "paused"
	case Stopping:
		return "stopping"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Fading is the orthogonal fade indicator. It may only be non-None while
// the primary state is one of {Starting, Running, Pausing, Stopping}.
type Fading int

const (
	FadingNone Fading = iota
	FadingIn
	FadingOut
)

func (f Fading) String() string {
	switch f {
	case FadingNone:
		return "none"
	case FadingIn:
		return "fading-in"
	case FadingOut:
		return "fading-out"
	}
	return fmt.Sprintf("fading(%d)", int(f))
}

// NextAction governs how the cue list cursor moves after a "go".
type NextAction int

const (
	// NextNone leaves the cursor in place; a repeat go restarts the cue.
	NextNone NextAction = iota

	// NextAutoNext advances the cursor immediately after dispatch.
	NextAutoNext

	// NextAutoFollow advances the cursor once the cue reports ended or
	// stopped.
	NextAutoFollow
)

func (n NextAction) String() string {
	switch n {
	case NextNone:
		return "none"
	case NextAutoNext:
		return "auto-next"
	case NextAutoFollow:
		return "auto-follow"
	}
	return fmt.Sprintf("next-action(%d)", int(n))
}

// ParseNextAction resolves a session-document next-action name.
func ParseNextAction(name string) (NextAction, error) {
	switch name {
	case "none", "":
		return NextNone, nil
	case "auto-next":
		return NextAutoNext, nil
	case "auto-follow":
		return NextAutoFollow, nil
	}
	return NextNone, fmt.Errorf("unknown next-action: %q", name)
}

// Action is a dispatchable operation against one or more target cues.
type Action int

const (
	ActionStart Action = iota
	ActionStop
	ActionPause
	ActionInterrupt
	ActionSetVolume
	ActionSelect
)

func (a Action) String() string {
	switch a {
	case ActionStart:
		return "start"
	case ActionStop:
		return "stop"
	case ActionPause:
		return "pause"
	case ActionInterrupt:
		return "interrupt"
	case ActionSetVolume:
		return "set-volume"
	case ActionSelect:
		return "select"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// ParseAction resolves a session-document action name.
func ParseAction(name string) (Action, error) {
	switch name {
	case "start":
		return ActionStart, nil
	case "stop":
		return ActionStop, nil
	case "pause":
		return ActionPause, nil
	case "interrupt":
		return ActionInterrupt, nil
	case "set-volume":
		return ActionSetVolume, nil
	case "select":
		return ActionSelect, nil
	}
	return ActionStart, fmt.Errorf("unknown action: %q", name)
}

// Request is one dispatchable action bound to its targets. Value carries
// the set-volume argument and is ignored by every other action.
type Request struct {
	Action  Action
	Value   float64
	Targets []string
}

// EventType enumerates cue notifications.
type EventType int

const (
	EventStateChanged EventType = iota
	EventStarted
	EventPaused
	EventStopped
	EventEnded
	EventInterrupted
	EventFault
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state-changed"
	case EventStarted:
		return "started"
	case EventPaused:
		return "paused"
	case EventStopped:
		return "stopped"
	case EventEnded:
		return "ended"
	case EventInterrupted:
		return "interrupted"
	case EventFault:
		return "fault"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

// Event is a cue notification. Events are delivered to the UI layer and to
// the cue list's auto-advance logic; emitting one must never block.
type Event struct {
	CueID   string
	CueName string
	Type    EventType
	State   State
	Err     error
}
