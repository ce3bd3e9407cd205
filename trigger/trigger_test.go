package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/showctl/cueline/cue"
)

func TestFireFansOutInRegistrationOrder(t *testing.T) {
	t.Parallel()

	var posted []cue.Request
	r := NewRouter(func(req cue.Request) { posted = append(posted, req) })

	key := Key{Source: SourceKey, Code: "f1"}
	r.Register(key,
		Binding{CueID: "a", Action: cue.ActionStop},
		Binding{CueID: "b", Action: cue.ActionStart},
	)

	require.Equal(t, 2, r.Fire(key))
	require.Len(t, posted, 2)
	assert.Equal(t, cue.Request{Action: cue.ActionStop, Targets: []string{"a"}}, posted[0])
	assert.Equal(t, cue.Request{Action: cue.ActionStart, Targets: []string{"b"}}, posted[1])
}

func TestRegisterReplacesExistingKey(t *testing.T) {
	t.Parallel()

	var posted []cue.Request
	r := NewRouter(func(req cue.Request) { posted = append(posted, req) })

	key := Key{Source: SourceMIDI, Code: "note/0/60"}
	r.Register(key, Binding{CueID: "old", Action: cue.ActionStart})
	r.Register(key, Binding{CueID: "new", Action: cue.ActionStart})

	require.Equal(t, 1, r.Fire(key))
	assert.Equal(t, []string{"new"}, posted[0].Targets, "re-registering a key replaces its mapping")
}

func TestFireUnmappedKey(t *testing.T) {
	t.Parallel()

	r := NewRouter(func(cue.Request) { t.Fatal("nothing should be posted") })
	assert.Equal(t, 0, r.Fire(Key{Source: SourceOSC, Code: "/cue/1/go"}))
}

func TestUnregister(t *testing.T) {
	t.Parallel()

	fired := 0
	r := NewRouter(func(cue.Request) { fired++ })

	key := Key{Source: SourceKey, Code: "space"}
	r.Register(key, Binding{CueID: "a", Action: cue.ActionStart})
	r.Unregister(key)

	assert.Equal(t, 0, r.Fire(key))
	assert.Equal(t, 0, fired)
}

func TestBindingValueCarriesThrough(t *testing.T) {
	t.Parallel()

	var posted []cue.Request
	r := NewRouter(func(req cue.Request) { posted = append(posted, req) })

	key := Key{Source: SourceMIDI, Code: "cc/0/7"}
	r.Register(key, Binding{CueID: "a", Action: cue.ActionSetVolume, Value: 0.5})
	r.Fire(key)

	require.Len(t, posted, 1)
	assert.Equal(t, 0.5, posted[0].Value)
}

func TestBindingsReturnsCopy(t *testing.T) {
	t.Parallel()

	r := NewRouter(nil)
	key := Key{Source: SourceKey, Code: "f2"}
	r.Register(key, Binding{CueID: "a", Action: cue.ActionStart})

	table := r.Bindings()
	require.Len(t, table, 1)
	table[key][0].CueID = "mutated"

	fresh := r.Bindings()
	assert.Equal(t, "a", fresh[key][0].CueID)
}

func TestDecodeMIDI(t *testing.T) {
	t.Parallel()

	key, ok := DecodeMIDI(midi.NoteOn(2, 60, 100))
	require.True(t, ok)
	assert.Equal(t, Key{Source: SourceMIDI, Code: "note/2/60"}, key)

	// A note-on with zero velocity is a release in disguise.
	_, ok = DecodeMIDI(midi.NoteOn(2, 60, 0))
	assert.False(t, ok)

	_, ok = DecodeMIDI(midi.NoteOff(2, 60))
	assert.False(t, ok)

	key, ok = DecodeMIDI(midi.ControlChange(0, 7, 127))
	require.True(t, ok)
	assert.Equal(t, Key{Source: SourceMIDI, Code: "cc/0/7"}, key)

	key, ok = DecodeMIDI(midi.ProgramChange(1, 12))
	require.True(t, ok)
	assert.Equal(t, Key{Source: SourceMIDI, Code: "pc/1/12"}, key)
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	for _, s := range []Source{SourceKey, SourceMIDI, SourceOSC} {
		parsed, err := ParseSource(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	_, err := ParseSource("telegraph")
	require.Error(t, err)
}
