package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/audiolibrelab/jamroll/internal/randomizer"
	"github.com/audiolibrelab/jamroll/internal/timer"
)

// Snapshot is a consistent, read-only copy of the session state
type Snapshot struct {
	ID        string                 `json:"id"`
	Fields    map[string]field.Field `json:"fields"`
	Visible   []string               `json:"visible"`
	Settings  randomizer.Settings    `json:"settings"`
	Prompts   randomizer.Prompts     `json:"prompts"`
	Selection timer.Selection        `json:"duration_selection"`
	Timer     timer.Snapshot         `json:"timer"`
	Alarm     bool                   `json:"alarm"`
}

// Options configure a new session
type Options struct {
	ID               string
	Engine           *randomizer.Engine
	DefaultSettings  randomizer.Settings
	DefaultSelection timer.Selection
	// Cue is played when the timer expires; nil disables it
	Cue          timer.Cue
	TickInterval time.Duration
	// OnTick is called after every timer tick, outside the session lock
	OnTick func(timer.Snapshot)
}

// Session owns the whole state of one randomizer instance. Every mutation
// runs under a single mutex, so readers never see a half-applied randomize.
type Session struct {
	mu sync.Mutex

	id        string
	engine    *randomizer.Engine
	cue       timer.Cue
	countdown *timer.Countdown

	fields    field.Store
	settings  randomizer.Settings
	prompts   randomizer.Prompts
	selection timer.Selection

	defaultSettings  randomizer.Settings
	defaultSelection timer.Selection
}

// New creates a session in its initialized state
func New(opts Options) *Session {
	engine := opts.Engine
	if engine == nil {
		engine = randomizer.New(catalog.Default(), randomizer.DefaultOptions(), nil)
	}
	selection := opts.DefaultSelection
	if selection == "" {
		selection = timer.SelectionFromMinutes(timer.DefaultMinutes)
	}

	s := &Session{
		id:               opts.ID,
		engine:           engine,
		cue:              opts.Cue,
		settings:         opts.DefaultSettings,
		selection:        selection,
		defaultSettings:  opts.DefaultSettings,
		defaultSelection: selection,
	}
	s.countdown = timer.NewCountdown(timer.New(selection.Seconds(), opts.Cue), opts.TickInterval, opts.OnTick)

	slog.Debug("Session created", "session", s.id, "selection", selection)
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Catalog() *catalog.Catalog {
	return s.engine.Catalog()
}

// SetSelected records a manual selection. Unknown field names are ignored.
func (s *Session) SetSelected(name, value string) bool {
	key, ok := field.ParseKey(name)
	if !ok {
		slog.Debug("Ignoring selection for unknown field", "session", s.id, "field", name)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.SetSelected(key, value)
}

// ToggleLock flips the lock of a field. Unknown field names are ignored.
func (s *Session) ToggleLock(name string) bool {
	key, ok := field.ParseKey(name)
	if !ok {
		slog.Debug("Ignoring lock for unknown field", "session", s.id, "field", name)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.ToggleLock(key)
}

// Reroll draws a new value for one unlocked field
func (s *Session) Reroll(name string) bool {
	key, ok := field.ParseKey(name)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok = s.engine.Reroll(&s.fields, key)
	return ok
}

// SetSetting changes one of the session toggles
func (s *Session) SetSetting(name string, on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Set(name, on)
}

// Randomize applies one randomize transaction and returns the new state
func (s *Session) Randomize() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.engine.Randomize(randomizer.Input{
		Fields:   s.fields,
		Settings: s.settings,
		Timer: randomizer.TimerInput{
			Running:   s.countdown.Running(),
			Selection: s.selection,
		},
	})

	s.fields = res.Fields
	s.prompts = res.Prompts

	if res.Arm != nil {
		s.selection = res.Arm.Selection
		if err := s.countdown.Arm(res.Arm.Seconds); err != nil {
			slog.Warn("Failed to arm timer", "session", s.id, "error", err)
		} else if res.Arm.AutoStart {
			s.countdown.Start()
		}
	}

	slog.Debug("Session randomized", "session", s.id, "tempo", s.prompts.Tempo, "armed", res.Arm != nil)
	return s.snapshotLocked()
}

// SelectDuration changes the duration selector. The timer is re-armed with
// the new duration unless it is running.
func (s *Session) SelectDuration(sel timer.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.selection = sel
	if s.countdown.Running() {
		return
	}
	if err := s.countdown.Arm(sel.Seconds()); err != nil {
		slog.Warn("Failed to arm timer", "session", s.id, "selection", sel, "error", err)
	}
}

func (s *Session) StartTimer() bool {
	return s.countdown.Start()
}

func (s *Session) PauseTimer() bool {
	return s.countdown.Pause()
}

func (s *Session) ResumeTimer() bool {
	return s.countdown.Resume()
}

func (s *Session) ResetTimer() {
	s.countdown.Reset()
}

// TickTimer applies one timer tick immediately
func (s *Session) TickTimer() bool {
	return s.countdown.Tick()
}

// Initialize returns every field, toggle, prompt and the timer to defaults
func (s *Session) Initialize() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields.Reset()
	s.settings = s.defaultSettings
	s.prompts = randomizer.Prompts{}
	s.selection = s.defaultSelection
	if err := s.countdown.Arm(s.defaultSelection.Seconds()); err != nil {
		slog.Warn("Failed to arm timer", "session", s.id, "error", err)
	}

	slog.Debug("Session initialized", "session", s.id)
	return s.snapshotLocked()
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close stops the timer driver and silences the cue
func (s *Session) Close() {
	s.countdown.Close()
	if s.cue != nil {
		s.cue.Stop()
	}
	slog.Debug("Session closed", "session", s.id)
}

func (s *Session) snapshotLocked() Snapshot {
	visible := s.fields.VisibleKeys()
	names := make([]string, len(visible))
	for i, k := range visible {
		names[i] = k.String()
	}

	snap := Snapshot{
		ID:        s.id,
		Fields:    s.fields.Map(),
		Visible:   names,
		Settings:  s.settings,
		Prompts:   s.prompts,
		Selection: s.selection,
		Timer:     s.countdown.Snapshot(),
	}
	if r, ok := s.cue.(interface{ Ringing() bool }); ok {
		snap.Alarm = r.Ringing()
	}
	return snap
}
