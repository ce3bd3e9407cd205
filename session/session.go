// Package session owns one cue list and the single-threaded dispatch
// context that serializes all cue mutation. Backend callbacks, trigger
// events and fade ticks all cross into this context through the session's
// op queue; nothing else may touch cue state.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/showctl/cueline/backend"
	"github.com/showctl/cueline/config"
	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/cuelist"
	"github.com/showctl/cueline/dispatch"
	"github.com/showctl/cueline/fade"
	"github.com/showctl/cueline/logger"
	"github.com/showctl/cueline/trigger"
)

// Session wires the cue list, dispatcher, trigger router and fade
// scheduler together and runs the dispatch loop.
type Session struct {
	cfg config.CuelineConfig

	list       *cuelist.CueList
	dispatcher *dispatch.Dispatcher
	router     *trigger.Router
	sched      *fade.Scheduler
	clk        clock.Clock

	ops           chan func()
	notifications chan cue.Event
	closed        chan struct{}
	pumps         sync.WaitGroup

	log *logrus.Entry
}

// New creates an empty session driven by the wall clock.
func New(cfg config.CuelineConfig) (*Session, error) {
	return NewWithClock(cfg, clock.RealClock{})
}

// NewWithClock creates an empty session on an explicit clock, so tests can
// step fade time deterministically.
func NewWithClock(cfg config.CuelineConfig, clk clock.Clock) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sched := fade.NewScheduler()
	list := cuelist.NewCueList("main", sched)
	list.SetEndBehavior(cfg.EndBehavior)
	d := dispatch.New(list)
	list.SetDispatch(d.Apply)

	s := &Session{
		cfg:           cfg,
		list:          list,
		dispatcher:    d,
		sched:         sched,
		clk:           clk,
		ops:           make(chan func(), 256),
		notifications: make(chan cue.Event, cfg.NotificationBuffer),
		closed:        make(chan struct{}),
		log:           logger.GetProjectLogger(),
	}
	s.router = trigger.NewRouter(func(req cue.Request) {
		s.Post(func() { d.Apply(req) })
	})
	return s, nil
}

// List returns the session's cue list. Outside of tests it must only be
// read from the dispatch context.
func (s *Session) List() *cuelist.CueList { return s.list }

// Router returns the trigger router.
func (s *Session) Router() *trigger.Router { return s.router }

// Scheduler returns the fade scheduler.
func (s *Session) Scheduler() *fade.Scheduler { return s.sched }

// Notifications delivers cue events to the UI layer. The channel is closed
// on teardown. Slow consumers lose events instead of stalling the show.
func (s *Session) Notifications() <-chan cue.Event { return s.notifications }

// Post marshals an op onto the dispatch context. Ops posted after a
// teardown are dropped.
func (s *Session) Post(op func()) {
	select {
	case s.ops <- op:
	case <-s.closed:
	}
}

// Run drains the op queue and drives the fade scheduler until the context
// is cancelled, then tears the session down. It must be called exactly
// once, and owns the dispatch context for its whole lifetime.
func (s *Session) Run(ctx context.Context) {
	s.log.WithFields(logrus.Fields{"tick": s.cfg.TickInterval}).Info("session loop started")

	t := time.NewTimer(s.cfg.TickInterval)
	defer t.Stop()
	last := s.clk.Now()

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			return
		case op := <-s.ops:
			op()
		case <-t.C:
			// Reset after advancing: a slow turn coalesces ticks instead
			// of queueing a timer backlog.
			now := s.clk.Now()
			s.sched.Advance(now.Sub(last))
			last = now
			t.Reset(s.cfg.TickInterval)
		}
	}
}

// Go triggers the current cue and advances the cursor per its policy.
func (s *Session) Go() {
	s.Post(func() {
		if err := s.list.Go(); errors.Is(err, cuelist.ErrEndOfStack) {
			s.log.Info("go: end of cue stack")
		}
	})
}

// Apply queues a dispatcher request from the UI layer.
func (s *Session) Apply(req cue.Request) {
	s.Post(func() { s.dispatcher.Apply(req) })
}

// Select moves the cursor without triggering anything.
func (s *Session) Select(index int) {
	s.Post(func() { s.list.Select(index) })
}

// HandleKey feeds a decoded keyboard code into the engine. The configured
// go key fires the go command; everything else goes through the router.
func (s *Session) HandleKey(code string) {
	if code == s.cfg.GoKey {
		s.Go()
		return
	}
	s.router.Fire(trigger.Key{Source: trigger.SourceKey, Code: code})
}

// StopAll stops every cue. Cues already stopped are skipped.
func (s *Session) StopAll() {
	s.Post(func() {
		s.dispatcher.Apply(cue.Request{Action: cue.ActionStop, Targets: s.allIDs()})
	})
}

// PauseAll pauses every running cue.
func (s *Session) PauseAll() {
	s.Post(func() {
		s.dispatcher.Apply(cue.Request{Action: cue.ActionPause, Targets: s.allIDs()})
	})
}

// RestartAll resumes every paused cue.
func (s *Session) RestartAll() {
	s.Post(func() {
		var paused []string
		for _, c := range s.list.Cues() {
			if c.State() == cue.Paused {
				paused = append(paused, c.ID)
			}
		}
		s.dispatcher.Apply(cue.Request{Action: cue.ActionStart, Targets: paused})
	})
}

// RemoveCue interrupts and removes a cue, releasing its backend handle.
func (s *Session) RemoveCue(id string) {
	s.Post(func() { s.removeCue(id) })
}

func (s *Session) removeCue(id string) {
	c, ok := s.list.Get(id)
	if !ok {
		return
	}
	_ = c.Interrupt()
	s.list.Remove(id)
	if m, ok := c.Payload().(*cue.MediaCue); ok {
		_ = m.Backend().Close()
	}
}

// AddMediaCue appends a media cue over a backend handle and starts
// draining the handle's event channel into the dispatch context.
func (s *Session) AddMediaCue(name, resource string, b backend.Backend) *cue.Cue {
	c := cue.New(name, cue.NewMediaCue(b, resource), s.sched, s.emitCue)
	s.attach(c)
	return c
}

// AddActionCue appends an action cue that fans out through the dispatcher.
func (s *Session) AddActionCue(name string, req cue.Request) *cue.Cue {
	c := cue.New(name, cue.NewActionCue(req, s.dispatcher.Apply), s.sched, s.emitCue)
	s.attach(c)
	return c
}

func (s *Session) attach(c *cue.Cue) {
	s.list.Insert(c, -1)
	if m, ok := c.Payload().(*cue.MediaCue); ok {
		s.pumpBackend(c, m.Backend())
	}
}

// pumpBackend marshals a backend's asynchronous events onto the dispatch
// context. The goroutine exits when the backend closes its channel.
func (s *Session) pumpBackend(c *cue.Cue, b backend.Backend) {
	s.pumps.Add(1)
	go func() {
		defer s.pumps.Done()
		for ev := range b.Events() {
			ev := ev
			s.Post(func() { c.HandleBackendEvent(ev) })
		}
	}()
}

// emitCue runs on the dispatch context for every cue notification: the cue
// list sees it first for auto-advance, then the UI channel gets a copy if
// there is room.
func (s *Session) emitCue(ev cue.Event) {
	s.list.OnCueEvent(ev)
	select {
	case s.notifications <- ev:
	default:
	}
}

// teardown force-stops every cue and cancels every fader before the
// session goes away.
func (s *Session) teardown() {
	s.log.Info("session teardown: interrupting all cues")
	for _, c := range s.list.Cues() {
		_ = c.Interrupt()
		if m, ok := c.Payload().(*cue.MediaCue); ok {
			_ = m.Backend().Close()
		}
	}
	s.sched.Reset()
	close(s.closed)
	s.pumps.Wait()
	close(s.notifications)
}

func (s *Session) allIDs() []string {
	cues := s.list.Cues()
	ids := make([]string, 0, len(cues))
	for _, c := range cues {
		ids = append(ids, c.ID)
	}
	return ids
}
