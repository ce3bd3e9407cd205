package cuelist_test

import (
	"errors"
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

type listFixture struct {
	list  *cuelist.CueList
	sched *fade.Scheduler
	mocks map[string]*backend.Mock
}

func newListFixture(t *testing.T) *listFixture {
	t.Helper()
	sched := fade.NewScheduler()
	list := cuelist.NewCueList("main", sched)
	list.SetDispatch(dispatch.New(list).Apply)
	return &listFixture{list: list, sched: sched, mocks: map[string]*backend.Mock{}}
}

// addCue appends a media cue whose notifications feed the list's
// auto-advance logic, the way the session wires them in production.
func (f *listFixture) addCue(name string, next cue.NextAction) *cue.Cue {
	mock := backend.NewMock(time.Minute)
	c := cue.New(name, cue.NewMediaCue(mock, "media/"+name+".wav"), f.sched, f.list.OnCueEvent)
	c.Next = next
	f.list.Insert(c, -1)
	f.mocks[c.ID] = mock
	return c
}

func (f *listFixture) mock(c *cue.Cue) *backend.Mock {
	return f.mocks[c.ID]
}

func (f *listFixture) addActionCue(name string, next cue.NextAction) *cue.Cue {
	c := cue.New(name, cue.NewActionCue(cue.Request{Action: cue.ActionStop}, nil), f.sched, f.list.OnCueEvent)
	c.Next = next
	f.list.Insert(c, -1)
	return c
}

func TestGoOnEmptyList(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	require.ErrorIs(t, f.list.Go(), cuelist.ErrEndOfStack)
}

func TestGoWithNextNoneHoldsCursor(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextNone)
	f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 0, f.list.Cursor())
}

func TestRepeatGoRestartsRunningCue(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextNone)

	require.NoError(t, f.list.Go())
	require.NoError(t, f.list.Go())

	// The second go cuts the running cue and starts it over.
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 2, f.mock(a).CallCount("play"))
	assert.Equal(t, 1, f.mock(a).CallCount("stop"))
}

func TestAutoNextAdvancesImmediately(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoNext)
	b := f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	assert.Equal(t, cue.Running, a.State())
	assert.Equal(t, 1, f.list.Cursor())

	require.NoError(t, f.list.Go())
	assert.Equal(t, cue.Running, b.State())
	assert.Equal(t, cue.Running, a.State(), "auto-next never stops the previous cue")
}

func TestAutoNextWithPostWait(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoNext)
	a.Timing.PostWait = 500 * time.Millisecond
	f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	assert.Equal(t, 0, f.list.Cursor(), "the cursor holds until the post-wait elapses")
	assert.Equal(t, 500*time.Millisecond, f.list.ActiveWait())

	f.sched.Advance(300 * time.Millisecond)
	require.Equal(t, 0, f.list.Cursor())
	f.sched.Advance(300 * time.Millisecond)
	assert.Equal(t, 1, f.list.Cursor())
	assert.Equal(t, time.Duration(0), f.list.ActiveWait())
}

func TestInterruptCancelsPostWaitAdvance(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoNext)
	a.Timing.PostWait = 500 * time.Millisecond
	f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	require.NoError(t, a.Interrupt())

	f.sched.Advance(time.Second)
	assert.Equal(t, 0, f.list.Cursor(), "an interrupt preempts the scheduled advance")
}

func TestAutoFollowAdvancesOnEnded(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoFollow)
	f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	assert.Equal(t, 0, f.list.Cursor())

	a.HandleBackendEvent(backend.Event{Type: backend.EventEndOfStream})
	assert.Equal(t, cue.Stopped, a.State())
	assert.Equal(t, 1, f.list.Cursor())
}

func TestAutoFollowInstantCueAdvancesWithinGo(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	action := f.addActionCue("blackout", cue.NextAutoFollow)
	f.addCue("a", cue.NextNone)

	// An instant cue reaches Stopped inside its own start; the follow
	// must already be armed so its ended notification advances the
	// cursor within the go itself.
	require.NoError(t, f.list.Go())
	assert.Equal(t, cue.Stopped, action.State())
	assert.Equal(t, 1, f.list.Cursor())

	// A start of the same cue with no go behind it must not move the
	// cursor: the previous follow was consumed, not left armed.
	require.NoError(t, action.Start())
	assert.Equal(t, cue.Stopped, action.State())
	assert.Equal(t, 1, f.list.Cursor())
}

func TestAutoFollowNotArmedOnFailedOpen(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoFollow)
	f.addCue("b", cue.NextNone)
	f.mock(a).FailOpen = errors.New("resource missing")

	// The open faults inside the go; the fault clears the follow and the
	// cursor holds.
	require.NoError(t, f.list.Go())
	require.Equal(t, cue.Stopped, a.State())
	assert.Equal(t, 0, f.list.Cursor())

	// Once the cue recovers, a plain start and natural end must not ride
	// a stale follow.
	f.mock(a).FailOpen = nil
	require.NoError(t, a.Start())
	a.HandleBackendEvent(backend.Event{Type: backend.EventEndOfStream})
	assert.Equal(t, 0, f.list.Cursor())
}

func TestFailedOpenCancelsPostWaitAdvance(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoNext)
	a.Timing.PostWait = 500 * time.Millisecond
	f.addCue("b", cue.NextNone)
	f.mock(a).FailOpen = errors.New("resource missing")

	require.NoError(t, f.list.Go())
	f.sched.Advance(time.Second)
	assert.Equal(t, 0, f.list.Cursor(), "a fault inside the go preempts the scheduled advance")
}

func TestAutoFollowClearedByInterrupt(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextAutoFollow)
	f.addCue("b", cue.NextNone)

	require.NoError(t, f.list.Go())
	require.NoError(t, a.Interrupt())
	assert.Equal(t, 0, f.list.Cursor(), "an interrupt clears the follow without advancing")

	// A later end-of-stream from the same cue must not advance either.
	a.HandleBackendEvent(backend.Event{Type: backend.EventEndOfStream})
	assert.Equal(t, 0, f.list.Cursor())
}

func TestEndStopParksPastLastCue(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	f.addCue("a", cue.NextAutoNext)

	require.NoError(t, f.list.Go())
	assert.Equal(t, 1, f.list.Cursor())
	require.ErrorIs(t, f.list.Go(), cuelist.ErrEndOfStack)
}

func TestEndRestartWraps(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	f.list.SetEndBehavior(cuelist.EndRestart)
	a := f.addCue("a", cue.NextAutoNext)
	b := f.addCue("b", cue.NextAutoNext)

	require.NoError(t, f.list.Go())
	require.NoError(t, f.list.Go())
	assert.Equal(t, 0, f.list.Cursor(), "the cursor wraps back to the top")
	assert.Equal(t, cue.Running, b.State())

	require.NoError(t, f.list.Go())
	assert.Equal(t, 2, f.mock(a).CallCount("play"))
}

func TestInsertKeepsCursorOnSameCue(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	f.addCue("a", cue.NextNone)
	b := f.addCue("b", cue.NextNone)
	f.list.Select(1)

	c := cue.New("zero", cue.NewMediaCue(backend.NewMock(time.Minute), "media/zero.wav"), f.sched, nil)
	f.list.Insert(c, 0)

	assert.Equal(t, 2, f.list.Cursor())
	assert.Equal(t, b.ID, f.list.Current().ID)
}

func TestRemoveCurrentCueLandsOnNext(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextNone)
	b := f.addCue("b", cue.NextNone)
	f.addCue("c", cue.NextNone)

	removed, ok := f.list.Remove(a.ID)
	require.True(t, ok)
	assert.Equal(t, a.ID, removed.ID)
	assert.Equal(t, 0, f.list.Cursor())
	assert.Equal(t, b.ID, f.list.Current().ID)
}

func TestMoveFollowsCueID(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	a := f.addCue("a", cue.NextNone)
	f.addCue("b", cue.NextNone)
	f.addCue("c", cue.NextNone)

	require.True(t, f.list.Move(a.ID, 2))
	assert.Equal(t, 2, f.list.Cursor(), "the cursor follows the cue it was on")
	assert.Equal(t, a.ID, f.list.Current().ID)
}

func TestSelectClamps(t *testing.T) {
	t.Parallel()

	f := newListFixture(t)
	f.addCue("a", cue.NextNone)
	f.addCue("b", cue.NextNone)

	f.list.Select(-3)
	assert.Equal(t, 0, f.list.Cursor())
	f.list.Select(99)
	assert.Equal(t, 2, f.list.Cursor())

	require.False(t, f.list.SelectID("no-such-id"))
}

func TestParseEndBehavior(t *testing.T) {
	t.Parallel()

	eb, err := cuelist.ParseEndBehavior("restart")
	require.NoError(t, err)
	assert.Equal(t, cuelist.EndRestart, eb)

	eb, err = cuelist.ParseEndBehavior("")
	require.NoError(t, err)
	assert.Equal(t, cuelist.EndStop, eb)

	_, err = cuelist.ParseEndBehavior("bounce")
	require.Error(t, err)
}
