package config

import (
	"fmt"
	"time"

	"github.com/showctl/cueline/cuelist"
	"github.com/showctl/cueline/fade"
)

// CuelineConfig represents options that configure the global behavior of
// the engine.
type CuelineConfig struct {
	// TickInterval is the fade scheduler resolution. Anything in the
	// 20-50ms window keeps fades smooth without burning the CPU.
	TickInterval time.Duration

	// GoKey is the keyboard code bound to the go command.
	GoKey string

	// EndBehavior selects what the cursor does past the last cue.
	EndBehavior cuelist.EndBehavior

	// DefaultCurve is the fade curve used when a cue does not name one.
	DefaultCurve string

	// OSCListenAddr is the UDP address for OSC triggers; empty disables
	// the listener.
	OSCListenAddr string

	// MIDIPortMatch selects the MIDI input port by substring; empty
	// disables the listener.
	MIDIPortMatch string

	// NotificationBuffer sizes the UI notification channel. Notifications
	// beyond a full buffer are dropped, never blocked on.
	NotificationBuffer int
}

// NewCuelineConfig creates a new CuelineConfig object with reasonable
// defaults for real usage.
func NewCuelineConfig() (CuelineConfig, error) {
	return CuelineConfig{
		TickInterval:       25 * time.Millisecond,
		GoKey:              "space",
		EndBehavior:        cuelist.EndStop,
		DefaultCurve:       fade.CurveLinear,
		OSCListenAddr:      "",
		MIDIPortMatch:      "",
		NotificationBuffer: 64,
	}, nil
}

// Validate rejects settings the engine cannot run with.
func (c CuelineConfig) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if _, err := fade.CurveByName(c.DefaultCurve); err != nil {
		return err
	}
	return nil
}
