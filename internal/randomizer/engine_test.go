package randomizer

import (
	"math/rand/v2"
	"regexp"
	"strconv"
	"testing"

	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/audiolibrelab/jamroll/internal/timer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	return New(catalog.Default(), opts, rand.New(rand.NewPCG(1, 2)))
}

var tempoPattern = regexp.MustCompile(`^(\d{1,3}) BPM$`)

func TestRandomizeTempoAndQuote(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()

	for i := 0; i < 500; i++ {
		res := e.Randomize(Input{})

		m := tempoPattern.FindStringSubmatch(res.Prompts.Tempo)
		require.NotNil(t, m, "tempo %q", res.Prompts.Tempo)
		bpm, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, bpm, TempoMin)
		assert.LessOrEqual(t, bpm, TempoMax)

		assert.Contains(t, cat.Quotes, res.Prompts.Quote)
	}
}

func TestRandomizePromptsFollowSettings(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()

	res := e.Randomize(Input{Settings: Settings{Theme: true, Mix: true}})
	assert.Contains(t, cat.Themes, res.Prompts.Theme)
	assert.Contains(t, cat.MixIdeas, res.Prompts.Mix)
	assert.Empty(t, res.Prompts.Arrangement)
	assert.Empty(t, res.Prompts.SoundDesign)

	res = e.Randomize(Input{Settings: Settings{Arrangement: true, SoundDesign: true}})
	assert.Empty(t, res.Prompts.Theme)
	assert.Empty(t, res.Prompts.Mix)
	assert.Contains(t, cat.ArrangementIdeas, res.Prompts.Arrangement)
	assert.Contains(t, cat.SoundDesignIdeas, res.Prompts.SoundDesign)
}

func TestRandomizeNeverTouchesLockedFields(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())

	var in field.Store
	in.SetSelected(field.DAW, "My DAW")
	in.SetSelected(field.SynthEffect, "")
	in.SetSelected(field.PresetCount, "1")
	in.Put(field.Preset2, field.Field{Selected: "Kept Pad"})
	for _, k := range []field.Key{field.DAW, field.SynthEffect, field.PresetCount, field.Preset2} {
		in.ToggleLock(k)
	}

	for i := 0; i < 200; i++ {
		res := e.Randomize(Input{Fields: in})
		for _, k := range []field.Key{field.DAW, field.SynthEffect, field.PresetCount, field.Preset2} {
			assert.Equal(t, in.Get(k), res.Fields.Get(k), "locked %s changed", k)
		}
	}
}

func TestRandomizeSimpleFieldsAlwaysDrawn(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()

	for i := 0; i < 100; i++ {
		res := e.Randomize(Input{})
		for _, k := range []field.Key{field.DAW, field.SynthInstrument, field.DrumInstrument} {
			assert.True(t, cat.Contains(k, res.Fields.Get(k).Selected), "%s = %q", k, res.Fields.Get(k).Selected)
		}
	}
}

func TestRandomizeEffectsAreCoinFlips(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()

	const rounds = 4000
	empty := map[field.Key]int{}
	for i := 0; i < rounds; i++ {
		var in field.Store
		in.SetSelected(field.SynthEffect, "Chorus")
		res := e.Randomize(Input{Fields: in})
		for _, k := range []field.Key{field.SynthEffect, field.DrumEffect, field.SendEffect} {
			sel := res.Fields.Get(k).Selected
			if sel == "" {
				empty[k]++
				continue
			}
			assert.True(t, cat.Contains(k, sel))
		}
	}

	for k, n := range empty {
		ratio := float64(n) / rounds
		assert.InDelta(t, 0.5, ratio, 0.05, "%s empty ratio", k)
	}
	assert.Len(t, empty, 3)
}

func TestRandomizePresetSlotsFollowCount(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()
	seen := map[int]bool{}

	for i := 0; i < 300; i++ {
		var in field.Store
		for j := 0; j < field.MaxPresets; j++ {
			k, _ := field.PresetKey(j)
			in.Put(k, field.Field{Selected: "stale"})
		}

		res := e.Randomize(Input{Fields: in})
		count := res.Fields.PresetCount()
		seen[count] = true

		for j := 0; j < field.MaxPresets; j++ {
			k, _ := field.PresetKey(j)
			sel := res.Fields.Get(k).Selected
			if j < count {
				assert.True(t, cat.Contains(k, sel), "slot %d = %q with count %d", j, sel, count)
			} else {
				assert.Empty(t, sel, "slot %d with count %d", j, count)
			}
		}
	}

	assert.True(t, seen[0], "0 is a drawable count by default")
	assert.True(t, seen[3])
}

func TestRandomizeExcludeZeroCount(t *testing.T) {
	opts := DefaultOptions()
	opts.ExcludeZeroCount = true
	e := newTestEngine(t, opts)

	for i := 0; i < 300; i++ {
		res := e.Randomize(Input{})
		assert.NotZero(t, res.Fields.PresetCount())
	}
}

func TestRandomizeLockedCountDrivesSlots(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())

	var in field.Store
	in.SetSelected(field.PresetCount, "2")
	in.ToggleLock(field.PresetCount)
	in.Put(field.Preset2, field.Field{Selected: "stale"})

	res := e.Randomize(Input{Fields: in})
	assert.Equal(t, "2", res.Fields.Get(field.PresetCount).Selected)
	assert.NotEmpty(t, res.Fields.Get(field.Preset0).Selected)
	assert.NotEmpty(t, res.Fields.Get(field.Preset1).Selected)
	assert.Empty(t, res.Fields.Get(field.Preset2).Selected)

	in = field.Store{}
	in.SetSelected(field.PresetCount, "many")
	in.ToggleLock(field.PresetCount)
	res = e.Randomize(Input{Fields: in})
	assert.Empty(t, res.Fields.Get(field.Preset0).Selected, "unparseable locked count acts as 0")
}

func TestRandomizeDoesNotMutateInput(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	var in field.Store
	in.SetSelected(field.DAW, "Original")
	snapshot := in

	e.Randomize(Input{Fields: in})
	assert.Equal(t, snapshot, in)
}

func TestRandomizeEmptyCatalog(t *testing.T) {
	e := New(&catalog.Catalog{}, DefaultOptions(), rand.New(rand.NewPCG(3, 4)))

	var in field.Store
	in.SetSelected(field.DAW, "Kept")
	in.SetSelected(field.SendEffect, "Dropped")
	in.SetSelected(field.PresetCount, "1")
	in.SetSelected(field.Preset0, "Dropped")

	res := e.Randomize(Input{Fields: in, Settings: Settings{Theme: true}})

	assert.Equal(t, "Kept", res.Fields.Get(field.DAW).Selected)
	assert.Empty(t, res.Fields.Get(field.SendEffect).Selected)
	assert.Equal(t, "1", res.Fields.Get(field.PresetCount).Selected)
	assert.Empty(t, res.Fields.Get(field.Preset0).Selected)
	assert.Empty(t, res.Prompts.Theme)
	assert.Empty(t, res.Prompts.Quote)
	assert.Regexp(t, tempoPattern, res.Prompts.Tempo)
}

func TestRandomizeArmsTimer(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())

	res := e.Randomize(Input{Timer: TimerInput{Selection: "30"}})
	assert.Nil(t, res.Arm, "no arm without the time constraint")

	res = e.Randomize(Input{
		Settings: Settings{TimeConstraint: true},
		Timer:    TimerInput{Running: true, Selection: "30"},
	})
	assert.Nil(t, res.Arm, "a running timer is left alone")

	res = e.Randomize(Input{
		Settings: Settings{TimeConstraint: true},
		Timer:    TimerInput{Selection: "30"},
	})
	require.NotNil(t, res.Arm)
	assert.Equal(t, 1800, res.Arm.Seconds)
	assert.Equal(t, timer.Selection("30"), res.Arm.Selection)
	assert.True(t, res.Arm.AutoStart)

	res = e.Randomize(Input{
		Settings: Settings{TimeConstraint: true},
		Timer:    TimerInput{Selection: "bogus"},
	})
	require.NotNil(t, res.Arm)
	assert.Equal(t, timer.DefaultMinutes*60, res.Arm.Seconds)
}

func TestRandomizeRandomSelectionIsResolved(t *testing.T) {
	opts := DefaultOptions()
	opts.AutoStartOnRandomize = false
	e := newTestEngine(t, opts)

	for i := 0; i < 50; i++ {
		res := e.Randomize(Input{
			Settings: Settings{TimeConstraint: true},
			Timer:    TimerInput{Selection: timer.SelectionRandom},
		})
		require.NotNil(t, res.Arm)
		assert.False(t, res.Arm.Selection.IsRandom())
		assert.Contains(t, timer.DefaultRandomMinutes, res.Arm.Selection.Minutes())
		assert.Equal(t, res.Arm.Selection.Seconds(), res.Arm.Seconds)
		assert.False(t, res.Arm.AutoStart)
	}
}

func TestReroll(t *testing.T) {
	e := newTestEngine(t, DefaultOptions())
	cat := e.Catalog()

	var s field.Store
	name, ok := e.Reroll(&s, field.DrumEffect)
	require.True(t, ok)
	assert.True(t, cat.Contains(field.DrumEffect, name))
	assert.Equal(t, name, s.Get(field.DrumEffect).Selected)

	s.ToggleLock(field.DAW)
	_, ok = e.Reroll(&s, field.DAW)
	assert.False(t, ok)
	assert.Empty(t, s.Get(field.DAW).Selected)

	_, ok = e.Reroll(&s, field.Key(50))
	assert.False(t, ok)
}

func TestRerollCountAppliesCoupling(t *testing.T) {
	cat := &catalog.Catalog{PresetCounts: []catalog.Option{{Name: "1"}}}
	e := New(cat, DefaultOptions(), rand.New(rand.NewPCG(5, 6)))

	var s field.Store
	s.Put(field.Preset1, field.Field{Selected: "Pad B"})
	s.Put(field.Preset2, field.Field{Selected: "Pad C", Locked: true})

	name, ok := e.Reroll(&s, field.PresetCount)
	require.True(t, ok)
	assert.Equal(t, "1", name)
	assert.Empty(t, s.Get(field.Preset1).Selected)
	assert.Equal(t, "Pad C", s.Get(field.Preset2).Selected)
}

func TestSettingsSet(t *testing.T) {
	var s Settings
	for _, name := range SettingNames() {
		assert.True(t, s.Set(name, true), name)
	}
	assert.Equal(t, Settings{true, true, true, true, true, true}, s)
	assert.False(t, s.Set("reverb", true))
}
