package trigger

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/showctl/cueline/logger"
)

// MIDIListener decodes incoming MIDI messages into trigger keys and fires
// them on the router. The underlying driver delivers messages on its own
// goroutine; only Router.Fire crosses back toward the engine.
type MIDIListener struct {
	port drivers.In
	stop func()
}

// StartMIDI opens the first MIDI input port whose name contains portMatch
// (case-insensitive) and starts listening.
func StartMIDI(router *Router, portMatch string) (*MIDIListener, error) {
	port, err := findInPort(portMatch)
	if err != nil {
		return nil, err
	}

	log := logger.GetProjectLogger()
	stop, err := midi.ListenTo(port, func(msg midi.Message, timestampms int32) {
		key, ok := DecodeMIDI(msg)
		if !ok {
			return
		}
		router.Fire(key)
	})
	if err != nil {
		return nil, fmt.Errorf("listening on MIDI port %q: %w", port.String(), err)
	}

	log.Infof("listening for MIDI triggers on: %s", port)
	return &MIDIListener{port: port, stop: stop}, nil
}

// Close stops listening.
func (l *MIDIListener) Close() {
	if l.stop != nil {
		l.stop()
	}
}

// DecodeMIDI turns a MIDI message into a trigger key. Note-offs and zero
// values are ignored so a key fires once per press, not on release.
func DecodeMIDI(msg midi.Message) (Key, bool) {
	switch {
	case msg.Is(midi.NoteOnMsg):
		var channel, note, velocity uint8
		msg.GetNoteOn(&channel, &note, &velocity)
		if velocity == 0 {
			return Key{}, false
		}
		return Key{Source: SourceMIDI, Code: fmt.Sprintf("note/%d/%d", channel, note)}, true

	case msg.Is(midi.ControlChangeMsg):
		var channel, controller, value uint8
		msg.GetControlChange(&channel, &controller, &value)
		if value == 0 {
			return Key{}, false
		}
		return Key{Source: SourceMIDI, Code: fmt.Sprintf("cc/%d/%d", channel, controller)}, true

	case msg.Is(midi.ProgramChangeMsg):
		var channel, program uint8
		msg.GetProgramChange(&channel, &program)
		return Key{Source: SourceMIDI, Code: fmt.Sprintf("pc/%d/%d", channel, program)}, true
	}
	return Key{}, false
}

func findInPort(substr string) (drivers.In, error) {
	lower := strings.ToLower(substr)
	for _, port := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(port.String()), lower) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input port matching %q", substr)
}
