// Package dispatch is the single entry point for cue state mutation. Every
// trigger, backend callback and operator command resolves into a Request
// applied here, on the session's dispatch context, so no two transitions
// can ever race.
package dispatch

import (
	"github.com/sirupsen/logrus"

	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/cuelist"
	"github.com/showctl/cueline/logger"
)

// Dispatcher applies actions to target cues resolved against one cue list.
type Dispatcher struct {
	list *cuelist.CueList
	log  *logrus.Entry
}

// New creates a dispatcher over a cue list.
func New(list *cuelist.CueList) *Dispatcher {
	return &Dispatcher{
		list: list,
		log:  logger.GetProjectLogger(),
	}
}

// Apply executes the request against each target in order. Unknown target
// ids are skipped and logged; invalid transitions are recovered locally.
// Only the session loop may call Apply.
func (d *Dispatcher) Apply(req cue.Request) {
	if req.Action == cue.ActionSelect {
		d.applySelect(req)
		return
	}

	for _, id := range req.Targets {
		c, ok := d.list.Get(id)
		if !ok {
			d.log.WithFields(logrus.Fields{"cue_id": id, "action": req.Action}).Warn("unknown target cue, skipping")
			continue
		}

		var err error
		switch req.Action {
		case cue.ActionStart:
			err = c.Start()
		case cue.ActionStop:
			err = c.Stop()
		case cue.ActionPause:
			err = c.Pause()
		case cue.ActionInterrupt:
			err = c.Interrupt()
		case cue.ActionSetVolume:
			c.SetVolume(req.Value)
		default:
			d.log.WithFields(logrus.Fields{"action": req.Action}).Warn("unhandled action")
		}
		if err != nil {
			// A bad transition must never halt the show.
			d.log.WithFields(logrus.Fields{"cue_id": id, "cue_name": c.Name, "action": req.Action}).Debugf("dispatch skipped: %v", err)
		}
	}
}

func (d *Dispatcher) applySelect(req cue.Request) {
	for _, id := range req.Targets {
		if d.list.SelectID(id) {
			return
		}
		d.log.WithFields(logrus.Fields{"cue_id": id}).Warn("unknown target cue for select, skipping")
	}
}
