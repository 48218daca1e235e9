package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/audiolibrelab/jamroll/internal/field"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Option is one selectable entry of a category
type Option struct {
	Name string `yaml:"name" json:"name"`
	Hint string `yaml:"hint,omitempty" json:"hint,omitempty"`
}

// Catalog holds the fixed option lists. It is never mutated after loading.
type Catalog struct {
	DAWs              []Option `yaml:"daws" json:"daws"`
	SynthInstruments  []Option `yaml:"synth_instruments" json:"synth_instruments"`
	SynthEffects      []Option `yaml:"synth_effects" json:"synth_effects"`
	DrumInstruments   []Option `yaml:"drum_instruments" json:"drum_instruments"`
	DrumEffects       []Option `yaml:"drum_effects" json:"drum_effects"`
	SendEffects       []Option `yaml:"send_effects" json:"send_effects"`
	PresetCounts      []Option `yaml:"preset_counts" json:"preset_counts"`
	PresetInstruments []Option `yaml:"preset_instruments" json:"preset_instruments"`

	Themes           []string `yaml:"themes" json:"themes"`
	ArrangementIdeas []string `yaml:"arrangement_ideas" json:"arrangement_ideas"`
	SoundDesignIdeas []string `yaml:"sound_design_ideas" json:"sound_design_ideas"`
	MixIdeas         []string `yaml:"mix_ideas" json:"mix_ideas"`
	Quotes           []string `yaml:"quotes" json:"quotes"`
}

// Default returns the catalog bundled with the binary
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Parse decodes a catalog document
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("error parsing catalog: %w", err)
	}
	return &c, nil
}

// Load reads a catalog file. Categories missing from the file fall back to the
// bundled lists so a user file only needs the categories it customizes.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file %s: %w", path, err)
	}

	custom, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}

	return merge(Default(), custom), nil
}

// Options returns the option list backing a field. All preset slots share
// one list.
func (c *Catalog) Options(key field.Key) []Option {
	switch key {
	case field.DAW:
		return c.DAWs
	case field.SynthInstrument:
		return c.SynthInstruments
	case field.SynthEffect:
		return c.SynthEffects
	case field.DrumInstrument:
		return c.DrumInstruments
	case field.DrumEffect:
		return c.DrumEffects
	case field.SendEffect:
		return c.SendEffects
	case field.PresetCount:
		return c.PresetCounts
	case field.Preset0, field.Preset1, field.Preset2:
		return c.PresetInstruments
	}
	return nil
}

// Hint returns the hint attached to an option name, if any
func (c *Catalog) Hint(key field.Key, name string) string {
	for _, opt := range c.Options(key) {
		if opt.Name == name {
			return opt.Hint
		}
	}
	return ""
}

// Contains reports whether name is a valid selection for key
func (c *Catalog) Contains(key field.Key, name string) bool {
	for _, opt := range c.Options(key) {
		if opt.Name == name {
			return true
		}
	}
	return false
}

func merge(base, custom *Catalog) *Catalog {
	out := *base
	pickOptions := func(dst *[]Option, src []Option) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pickStrings := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}

	pickOptions(&out.DAWs, custom.DAWs)
	pickOptions(&out.SynthInstruments, custom.SynthInstruments)
	pickOptions(&out.SynthEffects, custom.SynthEffects)
	pickOptions(&out.DrumInstruments, custom.DrumInstruments)
	pickOptions(&out.DrumEffects, custom.DrumEffects)
	pickOptions(&out.SendEffects, custom.SendEffects)
	pickOptions(&out.PresetCounts, custom.PresetCounts)
	pickOptions(&out.PresetInstruments, custom.PresetInstruments)
	pickStrings(&out.Themes, custom.Themes)
	pickStrings(&out.ArrangementIdeas, custom.ArrangementIdeas)
	pickStrings(&out.SoundDesignIdeas, custom.SoundDesignIdeas)
	pickStrings(&out.MixIdeas, custom.MixIdeas)
	pickStrings(&out.Quotes, custom.Quotes)

	return &out
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return homeDir + path[1:]
	}
	return path
}
