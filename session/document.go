package session

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/showctl/cueline/backend"
	"github.com/showctl/cueline/cue"
	"github.com/showctl/cueline/fade"
	"github.com/showctl/cueline/trigger"
)

// Document is the persisted form of a session: the show order plus the
// trigger mapping table.
type Document struct {
	Name     string          `yaml:"name,omitempty"`
	Cues     []CueRecord     `yaml:"cues"`
	Triggers []TriggerRecord `yaml:"triggers,omitempty"`
}

// CueRecord is one persisted cue. Exactly one of Media or Action must be
// set, matching Type.
type CueRecord struct {
	ID         string        `yaml:"id,omitempty"`
	Type       string        `yaml:"type"`
	Name       string        `yaml:"name"`
	Color      string        `yaml:"color,omitempty"`
	Timing     TimingRecord  `yaml:"timing,omitempty"`
	NextAction string        `yaml:"next_action,omitempty"`
	Media      *MediaRecord  `yaml:"media,omitempty"`
	Action     *ActionRecord `yaml:"action,omitempty"`
}

// TimingRecord holds wait and fade settings as duration strings
// ("1.5s", "250ms").
type TimingRecord struct {
	PreWait  string     `yaml:"pre_wait,omitempty"`
	PostWait string     `yaml:"post_wait,omitempty"`
	FadeIn   FadeRecord `yaml:"fade_in,omitempty"`
	FadeOut  FadeRecord `yaml:"fade_out,omitempty"`
}

// FadeRecord is one persisted fade spec.
type FadeRecord struct {
	Duration string `yaml:"duration,omitempty"`
	Curve    string `yaml:"curve,omitempty"`
}

// MediaRecord is the media-cue payload.
type MediaRecord struct {
	Resource string   `yaml:"resource"`
	Volume   *float64 `yaml:"volume,omitempty"`
	Loop     bool     `yaml:"loop,omitempty"`
}

// ActionRecord is the action-cue payload.
type ActionRecord struct {
	Action  string   `yaml:"action"`
	Value   float64  `yaml:"value,omitempty"`
	Targets []string `yaml:"targets"`
}

// TriggerRecord maps one trigger key to its ordered bindings.
type TriggerRecord struct {
	Source   string          `yaml:"source"`
	Code     string          `yaml:"code"`
	Bindings []BindingRecord `yaml:"bindings"`
}

// BindingRecord is one (cue, action) pair.
type BindingRecord struct {
	Cue    string  `yaml:"cue"`
	Action string  `yaml:"action"`
	Value  float64 `yaml:"value,omitempty"`
}

// LoadDocument reads and validates a session document.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveDocument writes a session document.
func SaveDocument(path string, doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// Validate checks the document and fills in generated ids. Cue ids must be
// unique, payloads must match their type, colors must be valid hex, and
// every referenced curve, action and target must resolve.
func (d *Document) Validate() error {
	ids := make(map[string]bool, len(d.Cues))
	for i := range d.Cues {
		r := &d.Cues[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if ids[r.ID] {
			return fmt.Errorf("duplicate cue id: %q", r.ID)
		}
		ids[r.ID] = true

		switch r.Type {
		case "media":
			if r.Media == nil {
				return fmt.Errorf("cue %q: media cue without media payload", r.ID)
			}
			if r.Media.Resource == "" {
				return fmt.Errorf("cue %q: media cue without a resource", r.ID)
			}
		case "action":
			if r.Action == nil {
				return fmt.Errorf("cue %q: action cue without action payload", r.ID)
			}
			if _, err := cue.ParseAction(r.Action.Action); err != nil {
				return fmt.Errorf("cue %q: %w", r.ID, err)
			}
		default:
			return fmt.Errorf("cue %q: unknown cue type %q", r.ID, r.Type)
		}

		if r.Color != "" {
			if _, err := colorful.Hex(r.Color); err != nil {
				return fmt.Errorf("cue %q: invalid color %q", r.ID, r.Color)
			}
		}
		if _, err := cue.ParseNextAction(r.NextAction); err != nil {
			return fmt.Errorf("cue %q: %w", r.ID, err)
		}
		if err := r.Timing.validate(); err != nil {
			return fmt.Errorf("cue %q: %w", r.ID, err)
		}
	}

	// Action targets and trigger bindings may reference cues declared
	// later, so they are checked in a second pass.
	for _, r := range d.Cues {
		if r.Action == nil {
			continue
		}
		for _, target := range r.Action.Targets {
			if !ids[target] {
				return fmt.Errorf("cue %q: action targets unknown cue %q", r.ID, target)
			}
		}
	}
	for _, t := range d.Triggers {
		if _, err := trigger.ParseSource(t.Source); err != nil {
			return err
		}
		if t.Code == "" {
			return fmt.Errorf("trigger %s: empty code", t.Source)
		}
		for _, b := range t.Bindings {
			if !ids[b.Cue] {
				return fmt.Errorf("trigger %s:%s: binding targets unknown cue %q", t.Source, t.Code, b.Cue)
			}
			if _, err := cue.ParseAction(b.Action); err != nil {
				return fmt.Errorf("trigger %s:%s: %w", t.Source, t.Code, err)
			}
		}
	}
	return nil
}

func (t TimingRecord) validate() error {
	for _, d := range []string{t.PreWait, t.PostWait, t.FadeIn.Duration, t.FadeOut.Duration} {
		if _, err := parseDuration(d); err != nil {
			return err
		}
	}
	for _, c := range []string{t.FadeIn.Curve, t.FadeOut.Curve} {
		if _, err := fade.CurveByName(c); err != nil {
			return err
		}
	}
	return nil
}

// LoadDocument builds the session's cues and trigger table from a
// validated document. newBackend supplies one backend handle per media
// cue. Call before Run.
func (s *Session) LoadDocument(doc *Document, newBackend func() backend.Backend) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	for _, r := range doc.Cues {
		timing, err := buildTiming(r.Timing, s.cfg.DefaultCurve)
		if err != nil {
			return err
		}
		next, _ := cue.ParseNextAction(r.NextAction)

		var c *cue.Cue
		switch r.Type {
		case "media":
			m := cue.NewMediaCue(newBackend(), r.Media.Resource)
			m.Loop = r.Media.Loop
			c = cue.New(r.Name, m, s.sched, s.emitCue)
			if r.Media.Volume != nil {
				c.SetVolume(*r.Media.Volume)
			}
		case "action":
			action, _ := cue.ParseAction(r.Action.Action)
			req := cue.Request{Action: action, Value: r.Action.Value, Targets: r.Action.Targets}
			c = cue.New(r.Name, cue.NewActionCue(req, s.dispatcher.Apply), s.sched, s.emitCue)
		}

		c.ID = r.ID
		c.Color = r.Color
		c.Timing = timing
		c.Next = next
		s.attach(c)
	}

	for _, t := range doc.Triggers {
		source, _ := trigger.ParseSource(t.Source)
		bindings := make([]trigger.Binding, 0, len(t.Bindings))
		for _, b := range t.Bindings {
			action, _ := cue.ParseAction(b.Action)
			bindings = append(bindings, trigger.Binding{CueID: b.Cue, Action: action, Value: b.Value})
		}
		s.router.Register(trigger.Key{Source: source, Code: t.Code}, bindings...)
	}

	s.log.Infof("session loaded: %d cues, %d triggers", len(doc.Cues), len(doc.Triggers))
	return nil
}

// Snapshot exports the session back into document form. Must be called
// from the dispatch context.
func (s *Session) Snapshot() *Document {
	doc := &Document{Name: s.list.Name}
	for _, c := range s.list.Cues() {
		r := CueRecord{
			ID:         c.ID,
			Name:       c.Name,
			Color:      c.Color,
			NextAction: c.Next.String(),
			Timing: TimingRecord{
				PreWait:  formatDuration(c.Timing.PreWait),
				PostWait: formatDuration(c.Timing.PostWait),
				FadeIn:   FadeRecord{Duration: formatDuration(c.Timing.FadeIn.Duration), Curve: c.Timing.FadeIn.CurveName},
				FadeOut:  FadeRecord{Duration: formatDuration(c.Timing.FadeOut.Duration), Curve: c.Timing.FadeOut.CurveName},
			},
		}
		switch p := c.Payload().(type) {
		case *cue.MediaCue:
			r.Type = "media"
			vol := c.NominalVolume()
			r.Media = &MediaRecord{Resource: p.Resource, Volume: &vol, Loop: p.Loop}
		case *cue.ActionCue:
			r.Type = "action"
			r.Action = &ActionRecord{Action: p.Request.Action.String(), Value: p.Request.Value, Targets: p.Request.Targets}
		}
		doc.Cues = append(doc.Cues, r)
	}

	// Map order is not stable; sort the keys so saved documents diff
	// cleanly between runs.
	table := s.router.Bindings()
	keys := make([]trigger.Key, 0, len(table))
	for k := range table {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b trigger.Key) bool {
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Code < b.Code
	})
	for _, k := range keys {
		t := TriggerRecord{Source: k.Source.String(), Code: k.Code}
		for _, b := range table[k] {
			t.Bindings = append(t.Bindings, BindingRecord{Cue: b.CueID, Action: b.Action.String(), Value: b.Value})
		}
		doc.Triggers = append(doc.Triggers, t)
	}
	return doc
}

func buildTiming(t TimingRecord, defaultCurve string) (cue.Timing, error) {
	preWait, err := parseDuration(t.PreWait)
	if err != nil {
		return cue.Timing{}, err
	}
	postWait, err := parseDuration(t.PostWait)
	if err != nil {
		return cue.Timing{}, err
	}
	fadeIn, err := buildFade(t.FadeIn, defaultCurve)
	if err != nil {
		return cue.Timing{}, err
	}
	fadeOut, err := buildFade(t.FadeOut, defaultCurve)
	if err != nil {
		return cue.Timing{}, err
	}
	return cue.Timing{PreWait: preWait, PostWait: postWait, FadeIn: fadeIn, FadeOut: fadeOut}, nil
}

func buildFade(r FadeRecord, defaultCurve string) (cue.FadeSpec, error) {
	d, err := parseDuration(r.Duration)
	if err != nil {
		return cue.FadeSpec{}, err
	}
	name := r.Curve
	if name == "" {
		name = defaultCurve
	}
	curve, err := fade.CurveByName(name)
	if err != nil {
		return cue.FadeSpec{}, err
	}
	return cue.FadeSpec{Duration: d, Curve: curve, CurveName: name}, nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
