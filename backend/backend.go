// Package backend defines the contract the cue engine expects from a media
// playback backend. The engine drives the backend but never implements it;
// anything that can open, play, seek and report end-of-stream can sit behind
// this interface.
package backend

import "time"

// EventType enumerates the asynchronous notifications a backend emits.
type EventType int

const (
	// EventEndOfStream fires when playback reaches the end of the media.
	EventEndOfStream EventType = iota

	// EventError reports a playback failure after a successful open.
	EventError

	// EventPosition is a periodic playback-position report.
	EventPosition
)

func (t EventType) String() string {
	switch t {
	case EventEndOfStream:
		return "end-of-stream"
	case EventError:
		return "error"
	case EventPosition:
		return "position"
	}
	return "unknown"
}

// Event is one asynchronous backend notification. Events arrive on the
// backend's own execution context and must be marshaled onto the session
// loop before they may touch cue state.
type Event struct {
	Type     EventType
	Position time.Duration
	Err      error
}

// Backend is the playback surface for a single media handle.
//
// Stop resets the playback position to the start of the media. SetVolume
// must be non-blocking; the fade scheduler calls it on every tick.
type Backend interface {
	Open(resource string) (time.Duration, error)
	Play() error
	Pause() error
	Stop() error
	Seek(pos time.Duration) error
	SetVolume(v float64) error
	Position() time.Duration
	Events() <-chan Event
	Close() error
}
