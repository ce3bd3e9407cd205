// Package trigger routes external input events (keyboard, MIDI, OSC) onto
// dispatcher actions. Transport listeners fire keys from their own
// goroutines; the router's post func marshals the resulting requests onto
// the session loop.
package trigger

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/logger"
)

// Source identifies the transport a trigger arrived on.
type Source int

const (
	SourceKey Source = iota
	SourceMIDI
	SourceOSC
)

func (s Source) String() string {
	switch s {
	case SourceKey:
		return "key"
	case SourceMIDI:
		return "midi"
	case SourceOSC:
		return "osc"
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// ParseSource resolves a session-document source name.
func ParseSource(name string) (Source, error) {
	switch name {
	case "key":
		return SourceKey, nil
	case "midi":
		return SourceMIDI, nil
	case "osc":
		return SourceOSC, nil
	}
	return SourceKey, fmt.Errorf("unknown trigger source: %q", name)
}

// Key is one trigger identity: a source transport plus a decoded code
// (key name, MIDI note address, OSC address).
type Key struct {
	Source Source
	Code   string
}

func (k Key) String() string {
	return k.Source.String() + ":" + k.Code
}

// Binding is one (cue, action) pair a key fans out to.
type Binding struct {
	CueID  string
	Action cue.Action
	Value  float64
}

// Router maps trigger keys to ordered binding lists.
type Router struct {
	mu       sync.RWMutex
	bindings map[Key][]Binding

	post func(cue.Request)
	log  *logrus.Entry
}

// NewRouter creates a router whose fired requests are handed to post. The
// post func must marshal onto the dispatch context; it is called from
// transport goroutines.
func NewRouter(post func(cue.Request)) *Router {
	if post == nil {
		post = func(cue.Request) {}
	}
	return &Router{
		bindings: make(map[Key][]Binding),
		post:     post,
		log:      logger.GetProjectLogger(),
	}
}

// Register maps a key to an ordered set of bindings. Re-registering an
// existing key replaces its mapping: last write wins.
func (r *Router) Register(k Key, bindings ...Binding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[k] = append([]Binding(nil), bindings...)
	r.log.WithFields(logrus.Fields{"trigger": k.String(), "bindings": len(bindings)}).Debug("trigger registered")
}

// Unregister removes a key's mapping.
func (r *Router) Unregister(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, k)
}

// Fire resolves the key and forwards every binding, in registration order,
// to the dispatcher. It returns the number of requests forwarded.
func (r *Router) Fire(k Key) int {
	r.mu.RLock()
	bindings := r.bindings[k]
	r.mu.RUnlock()

	if len(bindings) == 0 {
		r.log.WithFields(logrus.Fields{"trigger": k.String()}).Debug("unmapped trigger")
		return 0
	}
	for _, b := range bindings {
		r.post(cue.Request{Action: b.Action, Value: b.Value, Targets: []string{b.CueID}})
	}
	return len(bindings)
}

// Bindings returns a copy of the full routing table, for persistence.
func (r *Router) Bindings() map[Key][]Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Key][]Binding, len(r.bindings))
	for k, v := range r.bindings {
		out[k] = append([]Binding(nil), v...)
	}
	return out
}
