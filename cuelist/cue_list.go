// Package cuelist holds the ordered cue stack and its "go" cursor. Like
// the cue state machine it is only ever touched from the session's
// dispatch context.
package cuelist

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/fade"
	"github.com/showctl/cueline/logger"
)

// ErrEndOfStack reports a go() on an empty stack or past the final cue.
// Informational, not a failure.
var ErrEndOfStack = errors.New("end of cue stack")

// EndBehavior controls what the cursor does when it runs off the end.
type EndBehavior int

const (
	// EndStop parks the cursor past the last cue; further gos report
	// ErrEndOfStack.
	EndStop EndBehavior = iota

	// EndRestart wraps the cursor back to the first cue.
	EndRestart
)

// ParseEndBehavior resolves a configured end-of-list behavior name.
func ParseEndBehavior(name string) (EndBehavior, error) {
	switch name {
	case "stop", "":
		return EndStop, nil
	case "restart":
		return EndRestart, nil
	}
	return EndStop, errors.New("unknown end-of-list behavior: " + name)
}

// CueList stores the show order and plays it back one go at a time.
type CueList struct {
	Name string

	cues   []*cue.Cue
	cursor int
	end    EndBehavior

	dispatch func(cue.Request)
	sched    *fade.Scheduler

	// awaiting holds the id of the cue whose ended/stopped notification
	// an auto-follow advance is waiting on.
	awaiting string

	// pendingAdvance is a post-wait delayed auto-next advance, keyed by
	// the cue that scheduled it so an interrupt can cancel it.
	pendingAdvance   *fade.Timer
	pendingAdvanceID string

	log *logrus.Entry
}

// NewCueList creates an empty cue list. The dispatch func is the action
// dispatcher's entry point; the scheduler drives post-wait countdowns.
func NewCueList(name string, sched *fade.Scheduler) *CueList {
	log := logger.GetProjectLogger()
	log.Debugf("cue list created with name: %s", name)

	return &CueList{
		Name:     name,
		sched:    sched,
		dispatch: func(cue.Request) {},
		log:      log,
	}
}

// SetDispatch wires in the action dispatcher. Set once by the session
// before any go.
func (cl *CueList) SetDispatch(dispatch func(cue.Request)) {
	if dispatch != nil {
		cl.dispatch = dispatch
	}
}

// SetEndBehavior selects what happens when the cursor runs off the end.
func (cl *CueList) SetEndBehavior(end EndBehavior) {
	cl.end = end
}

// Len returns the number of cues.
func (cl *CueList) Len() int { return len(cl.cues) }

// Cursor returns the index of the current/next cue for go.
func (cl *CueList) Cursor() int { return cl.cursor }

// Cues returns the cues in show order.
func (cl *CueList) Cues() []*cue.Cue {
	return append([]*cue.Cue(nil), cl.cues...)
}

// Current returns the cue at the cursor, or nil when the cursor sits past
// the end.
func (cl *CueList) Current() *cue.Cue {
	if cl.cursor < 0 || cl.cursor >= len(cl.cues) {
		return nil
	}
	return cl.cues[cl.cursor]
}

// Get finds a cue by id.
func (cl *CueList) Get(id string) (*cue.Cue, bool) {
	i := cl.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return cl.cues[i], true
}

// At returns the cue at an index.
func (cl *CueList) At(index int) (*cue.Cue, bool) {
	if index < 0 || index >= len(cl.cues) {
		return nil, false
	}
	return cl.cues[index], true
}

func (cl *CueList) indexOf(id string) int {
	return slices.IndexFunc(cl.cues, func(c *cue.Cue) bool { return c.ID == id })
}

// Insert adds a cue at index; a negative or out-of-range index appends.
// The cursor keeps pointing at the same cue it pointed at before.
func (cl *CueList) Insert(c *cue.Cue, index int) {
	if index < 0 || index > len(cl.cues) {
		index = len(cl.cues)
	}
	currentID := cl.currentID()
	cl.cues = slices.Insert(cl.cues, index, c)
	cl.reclamp(currentID)
	cl.log.WithFields(logrus.Fields{"cue_id": c.ID, "cue_name": c.Name, "index": index}).Debug("cue inserted")
}

// Remove deletes a cue by id and returns it. The cursor prefers to stay on
// the cue it was on; if that cue was removed it lands on the next index.
func (cl *CueList) Remove(id string) (*cue.Cue, bool) {
	i := cl.indexOf(id)
	if i < 0 {
		return nil, false
	}
	currentID := cl.currentID()
	c := cl.cues[i]
	cl.cues = slices.Delete(cl.cues, i, i+1)
	cl.reclamp(currentID)

	if cl.awaiting == id {
		cl.awaiting = ""
	}
	cl.cancelPendingAdvance(id)
	return c, true
}

// Move relocates a cue to a new index, preserving id stability.
func (cl *CueList) Move(id string, newIndex int) bool {
	i := cl.indexOf(id)
	if i < 0 {
		return false
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex >= len(cl.cues) {
		newIndex = len(cl.cues) - 1
	}
	currentID := cl.currentID()
	c := cl.cues[i]
	cl.cues = slices.Delete(cl.cues, i, i+1)
	cl.cues = slices.Insert(cl.cues, newIndex, c)
	cl.reclamp(currentID)
	return true
}

// Select moves the cursor without triggering anything.
func (cl *CueList) Select(index int) {
	if index < 0 {
		index = 0
	}
	if index > len(cl.cues) {
		index = len(cl.cues)
	}
	cl.cursor = index
}

// SelectID moves the cursor onto the cue with the given id.
func (cl *CueList) SelectID(id string) bool {
	i := cl.indexOf(id)
	if i < 0 {
		return false
	}
	cl.cursor = i
	return true
}

// Go triggers the cue at the cursor and advances per its next-action
// policy. A go on an empty stack or past the final cue reports
// ErrEndOfStack and does nothing.
func (cl *CueList) Go() error {
	if cl.cursor >= len(cl.cues) {
		if cl.end == EndRestart && len(cl.cues) > 0 {
			cl.cursor = 0
		} else {
			return ErrEndOfStack
		}
	}
	current := cl.cues[cl.cursor]

	// Restart semantics: a repeat go on a cue that is neither stopped nor
	// paused cuts it and starts over.
	switch current.State() {
	case cue.Stopped, cue.Paused:
	default:
		cl.dispatch(cue.Request{Action: cue.ActionInterrupt, Targets: []string{current.ID}})
	}

	// The advance policy is armed before the start dispatch: an instant
	// cue reaches Stopped inside its own start, and a failed open faults
	// there too, so their ended/fault notifications must find the policy
	// already in place.
	switch current.Next {
	case cue.NextAutoNext:
		if wait := current.Timing.PostWait; wait > 0 {
			cl.cancelPendingAdvance("")
			cl.pendingAdvanceID = current.ID
			cl.pendingAdvance = cl.sched.StartTimer(wait, func() {
				cl.pendingAdvance = nil
				cl.pendingAdvanceID = ""
				cl.advance()
			})
		} else {
			cl.advance()
		}
	case cue.NextAutoFollow:
		cl.awaiting = current.ID
	}

	cl.dispatch(cue.Request{Action: cue.ActionStart, Targets: []string{current.ID}})
	return nil
}

// OnCueEvent feeds cue notifications into the auto-advance logic. The
// session routes every cue event here on the dispatch context's turn.
func (cl *CueList) OnCueEvent(ev cue.Event) {
	switch ev.Type {
	case cue.EventEnded, cue.EventStopped:
		if cl.awaiting == ev.CueID {
			cl.awaiting = ""
			cl.advance()
		}
	case cue.EventInterrupted, cue.EventFault:
		// An emergency cut preempts any advance waiting on this cue.
		if cl.awaiting == ev.CueID {
			cl.awaiting = ""
		}
		cl.cancelPendingAdvance(ev.CueID)
	}
}

func (cl *CueList) advance() {
	cl.cursor++
	if cl.cursor >= len(cl.cues) && cl.end == EndRestart {
		cl.cursor = 0
	}
}

// cancelPendingAdvance drops the post-wait advance scheduled by the given
// cue; an empty id drops any pending advance.
func (cl *CueList) cancelPendingAdvance(id string) {
	if cl.pendingAdvance == nil {
		return
	}
	if id != "" && cl.pendingAdvanceID != id {
		return
	}
	cl.pendingAdvance.Cancel()
	cl.pendingAdvance = nil
	cl.pendingAdvanceID = ""
}

func (cl *CueList) currentID() string {
	if c := cl.Current(); c != nil {
		return c.ID
	}
	return ""
}

// reclamp fixes the cursor after a structural change: stay on the same cue
// id if still present, else keep the index (which now holds the next cue),
// clamped into range.
func (cl *CueList) reclamp(currentID string) {
	if currentID != "" {
		if i := cl.indexOf(currentID); i >= 0 {
			cl.cursor = i
			return
		}
	}
	if cl.cursor > len(cl.cues) {
		cl.cursor = len(cl.cues)
	}
	if cl.cursor < 0 {
		cl.cursor = 0
	}
}

// ActiveWait reports how long until a pending post-wait advance fires.
// Zero when none is pending. Used by status displays.
func (cl *CueList) ActiveWait() time.Duration {
	if cl.pendingAdvance == nil {
		return 0
	}
	return cl.pendingAdvance.Remaining()
}
