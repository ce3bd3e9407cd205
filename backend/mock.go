package backend

import (
	"fmt"
	"sync"
	"time"
)

// Mock is an in-memory Backend that records every call it receives and lets
// tests script failures and inject asynchronous events. It also serves as
// the stand-in playback engine when no real audio backend is wired in.
type Mock struct {
	mu       sync.Mutex
	calls    []string
	volume   float64
	position time.Duration
	duration time.Duration
	playing  bool
	events   chan Event

	// Scriptable failures. When set, the matching call returns the error.
	FailOpen error
	FailSeek error
	FailPlay error
}

// NewMock creates a mock backend reporting the given media duration.
func NewMock(duration time.Duration) *Mock {
	return &Mock{
		duration: duration,
		volume:   1.0,
		events:   make(chan Event, 16),
	}
}

func (m *Mock) record(call string) {
	m.calls = append(m.calls, call)
}

// Calls returns a copy of every call recorded so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named call was recorded.
func (m *Mock) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == name {
			n++
		}
	}
	return n
}

// Volume returns the last volume applied through SetVolume.
func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Playing reports whether the mock believes playback is running.
func (m *Mock) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

func (m *Mock) Open(resource string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("open(%s)", resource))
	if m.FailOpen != nil {
		return 0, m.FailOpen
	}
	m.position = 0
	return m.duration, nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("play")
	if m.FailPlay != nil {
		return m.FailPlay
	}
	m.playing = true
	return nil
}

func (m *Mock) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("pause")
	m.playing = false
	return nil
}

func (m *Mock) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("stop")
	m.playing = false
	m.position = 0
	return nil
}

func (m *Mock) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("seek(%s)", pos))
	if m.FailSeek != nil {
		return m.FailSeek
	}
	m.position = pos
	return nil
}

func (m *Mock) SetVolume(v float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.volume = v
	return nil
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Events() <-chan Event {
	return m.events
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("close")
	close(m.events)
	return nil
}

// EmitEndOfStream injects an end-of-stream notification, as the real
// backend would when playback runs off the end of the media.
func (m *Mock) EmitEndOfStream() {
	m.mu.Lock()
	m.playing = false
	m.mu.Unlock()
	m.events <- Event{Type: EventEndOfStream}
}

// EmitError injects an asynchronous playback error.
func (m *Mock) EmitError(err error) {
	m.events <- Event{Type: EventError, Err: err}
}

// EmitPosition injects a playback-position report.
func (m *Mock) EmitPosition(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	m.mu.Unlock()
	m.events <- Event{Type: EventPosition, Position: pos}
}
