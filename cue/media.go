package cue

import (
	"time"

	"github.com/showctl/cueline/backend"
)

// MediaCue is the playback payload: one backend handle, one resource.
type MediaCue struct {
	Resource string
	Loop     bool

	backend  backend.Backend
	duration time.Duration
}

// NewMediaCue wraps a backend handle around a media resource.
func NewMediaCue(b backend.Backend, resource string) *MediaCue {
	return &MediaCue{Resource: resource, backend: b}
}

// Backend exposes the handle so the session can drain its event channel.
func (m *MediaCue) Backend() backend.Backend { return m.backend }

func (m *MediaCue) Open() (time.Duration, error) {
	d, err := m.backend.Open(m.Resource)
	if err != nil {
		return 0, err
	}
	m.duration = d
	return d, nil
}

func (m *MediaCue) Play() error   { return m.backend.Play() }
func (m *MediaCue) Resume() error { return m.backend.Play() }
func (m *MediaCue) Pause() error  { return m.backend.Pause() }
func (m *MediaCue) Stop() error   { return m.backend.Stop() }

func (m *MediaCue) Seek(pos time.Duration) error { return m.backend.Seek(pos) }
func (m *MediaCue) SetVolume(v float64) error    { return m.backend.SetVolume(v) }

func (m *MediaCue) Position() time.Duration { return m.backend.Position() }

func (m *MediaCue) Instant() bool { return false }
func (m *MediaCue) Looping() bool { return m.Loop }
