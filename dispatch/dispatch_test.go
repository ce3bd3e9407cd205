package dispatch_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showctl/cueline/backend"
	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/cuelist"
	"github.com/showctl/cueline/dispatch"
	"github.com/showctl/cueline/fade"
)

func newDispatchFixture(t *testing.T) (*dispatch.Dispatcher, *cuelist.CueList, *fade.Scheduler) {
	t.Helper()
	sched := fade.NewScheduler()
	list := cuelist.NewCueList("main", sched)
	d := dispatch.New(list)
	list.SetDispatch(d.Apply)
	return d, list, sched
}

func addCue(list *cuelist.CueList, sched *fade.Scheduler, name string) (*cue.Cue, *backend.Mock) {
	mock := backend.NewMock(time.Minute)
	c := cue.New(name, cue.NewMediaCue(mock, "media/"+name+".wav"), sched, nil)
	list.Insert(c, -1)
	return c, mock
}

func TestApplyStart(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, mock := addCue(list, sched, "a")

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID}})
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 1, mock.CallCount("play"))
}

func TestApplyFansOutInOrder(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, _ := addCue(list, sched, "a")
	b, _ := addCue(list, sched, "b")

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID, b.ID}})
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, cue.Running, b.State())

	d.Apply(cue.Request{Action: cue.ActionSetVolume, Value: 0.3, Targets: []string{a.ID, b.ID}})
	assert.Equal(t, 0.3, a.Volume())
	assert.Equal(t, 0.3, b.Volume())
}

func TestApplySkipsUnknownTargets(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, mock := addCue(list, sched, "a")

	// The unknown id is skipped; the known one still runs.
	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{"no-such-cue", a.ID}})
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 1, mock.CallCount("play"))
}

func TestApplyRecoversInvalidTransitions(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, mock := addCue(list, sched, "a")

	// Two starts in the same turn: the second is a rejected transition
	// and must neither panic nor replay.
	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID}})
	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID}})
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 1, mock.CallCount("play"))
}

func TestApplyStopPauseInterrupt(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, mock := addCue(list, sched, "a")

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID}})
	d.Apply(cue.Request{Action: cue.ActionPause, Targets: []string{a.ID}})
	require.Equal(t, cue.Paused, a.State())

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID}})
	d.Apply(cue.Request{Action: cue.ActionStop, Targets: []string{a.ID}})
	require.Equal(t, cue.Stopped, a.State())
	assert.Equal(t, 1, mock.CallCount("stop"))

	d.Apply(cue.Request{Action: cue.ActionInterrupt, Targets: []string{a.ID}})
	assert.Equal(t, 1, mock.CallCount("stop"), "interrupting a stopped cue is a no-op")
}

func TestApplySelect(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	addCue(list, sched, "a")
	b, _ := addCue(list, sched, "b")

	// Select resolves the first id that exists and touches nothing else.
	d.Apply(cue.Request{Action: cue.ActionSelect, Targets: []string{"missing", b.ID}})
	assert.Equal(t, 1, list.Cursor())
	assert.Equal(t, cue.Stopped, b.State())
}

func TestActionCueFanOutThroughDispatcher(t *testing.T) {
	t.Parallel()

	d, list, sched := newDispatchFixture(t)
	a, _ := addCue(list, sched, "a")
	b, _ := addCue(list, sched, "b")

	stopAll := cue.New("stop all", cue.NewActionCue(cue.Request{
		Action:  cue.ActionStop,
		Targets: []string{a.ID, b.ID},
	}, d.Apply), sched, nil)
	list.Insert(stopAll, -1)

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{a.ID, b.ID}})
	require.Equal(t, cue.Running, a.State())
	require.Equal(t, cue.Running, b.State())

	d.Apply(cue.Request{Action: cue.ActionStart, Targets: []string{stopAll.ID}})
	assert.Equal(t, cue.Stopped, a.State())
	assert.Equal(t, cue.Stopped, b.State())
	assert.Equal(t, cue.Stopped, stopAll.State())
}
