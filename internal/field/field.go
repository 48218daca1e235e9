package field

import (
	"strconv"
	"strings"
)

// Key identifies one selectable category slot in the grid
type Key int

const (
	DAW Key = iota
	SynthInstrument
	SynthEffect
	DrumInstrument
	DrumEffect
	SendEffect
	PresetCount
	Preset0
	Preset1
	Preset2

	numKeys
)

// MaxPresets is the number of preset instrument slots gated by PresetCount
const MaxPresets = 3

// Kind groups keys that share a randomization rule
type Kind int

const (
	KindSimple Kind = iota // always re-rolled when unlocked
	KindEffect             // re-rolled on a coin flip, cleared otherwise
	KindCount              // number of enabled preset slots
	KindPreset             // preset slot, enabled by index < count
)

var keyNames = [numKeys]string{
	DAW:             "daw",
	SynthInstrument: "synthInstrument",
	SynthEffect:     "synthEffect",
	DrumInstrument:  "drumInstrument",
	DrumEffect:      "drumEffect",
	SendEffect:      "sendEffect",
	PresetCount:     "randomPresetInstrumentCount",
	Preset0:         "randomPresetInstrument0",
	Preset1:         "randomPresetInstrument1",
	Preset2:         "randomPresetInstrument2",
}

var keyTitles = [numKeys]string{
	DAW:             "DAW",
	SynthInstrument: "Synth Instrument",
	SynthEffect:     "Synth Effect",
	DrumInstrument:  "Drum Instrument",
	DrumEffect:      "Drum Effect",
	SendEffect:      "Send Effect",
	PresetCount:     "# Random Preset Instruments",
	Preset0:         "Random Preset Instrument #1",
	Preset1:         "Random Preset Instrument #2",
	Preset2:         "Random Preset Instrument #3",
}

// Keys returns every key in grid display order
func Keys() []Key {
	return []Key{
		DAW, SynthInstrument, SynthEffect, DrumInstrument, DrumEffect,
		PresetCount, Preset0, Preset1, Preset2, SendEffect,
	}
}

// ParseKey resolves a wire name such as "synthEffect" to its Key
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return 0, false
}

// PresetKey returns the key of the preset slot at index i (0..MaxPresets-1)
func PresetKey(i int) (Key, bool) {
	if i < 0 || i >= MaxPresets {
		return 0, false
	}
	return Preset0 + Key(i), true
}

func (k Key) Valid() bool {
	return k >= 0 && k < numKeys
}

func (k Key) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return keyNames[k]
}

// Title is the human-readable label shown above the field
func (k Key) Title() string {
	if !k.Valid() {
		return ""
	}
	return keyTitles[k]
}

func (k Key) Kind() Kind {
	switch k {
	case SynthEffect, DrumEffect, SendEffect:
		return KindEffect
	case PresetCount:
		return KindCount
	case Preset0, Preset1, Preset2:
		return KindPreset
	default:
		return KindSimple
	}
}

// PresetIndex returns the slot index of a preset key, or -1
func (k Key) PresetIndex() int {
	if k.Kind() != KindPreset {
		return -1
	}
	return int(k - Preset0)
}

// Field is one lockable slot. An empty Selected means unset.
type Field struct {
	Locked   bool   `json:"locked" yaml:"locked"`
	Selected string `json:"selected" yaml:"selected"`
}

// ParseCount parses a preset count selection. Unparseable values yield 0 and
// the result is clamped to [0, MaxPresets].
func ParseCount(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return 0
	}
	if n > MaxPresets {
		return MaxPresets
	}
	return n
}
