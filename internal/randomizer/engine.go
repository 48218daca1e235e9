package randomizer

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/field"
	"github.com/audiolibrelab/jamroll/internal/timer"
)

const (
	TempoMin = 60
	TempoMax = 180

	DefaultEffectProbability = 0.5
)

// Options tune the engine. The zero value is not useful; start from
// DefaultOptions.
type Options struct {
	// EffectProbability is the chance an unlocked effect field gets a value
	EffectProbability float64
	// ExcludeZeroCount drops "0" from the preset count draw
	ExcludeZeroCount bool
	// AutoStartOnRandomize starts the timer right after arming it
	AutoStartOnRandomize bool
	// RandomMinutes are the candidates used when the duration selector is Random
	RandomMinutes []int
}

func DefaultOptions() Options {
	return Options{
		EffectProbability:    DefaultEffectProbability,
		AutoStartOnRandomize: true,
		RandomMinutes:        append([]int(nil), timer.DefaultRandomMinutes...),
	}
}

// TimerInput is the part of the timer state the engine reads
type TimerInput struct {
	Running   bool
	Selection timer.Selection
}

// Input is a consistent snapshot the randomize transaction works from
type Input struct {
	Fields   field.Store
	Settings Settings
	Timer    TimerInput
}

// Arm asks the caller to re-arm the timer
type Arm struct {
	Seconds   int
	Selection timer.Selection
	AutoStart bool
}

// Result is the outcome of one randomize transaction
type Result struct {
	Fields  field.Store
	Prompts Prompts
	// Arm is nil when the timer must be left alone
	Arm *Arm
}

// Engine draws new values from a catalog. It is not safe for concurrent use;
// the session serializes calls.
type Engine struct {
	catalog *catalog.Catalog
	opts    Options
	rng     *rand.Rand
}

// New creates an engine. A nil rng is replaced by a time-seeded PCG source.
func New(cat *catalog.Catalog, opts Options, rng *rand.Rand) *Engine {
	if cat == nil {
		cat = catalog.Default()
	}
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Engine{catalog: cat, opts: opts, rng: rng}
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) Options() Options {
	return e.opts
}

// Randomize re-rolls every unlocked field and the prompts. Every decision is
// taken against in, so no rule observes another rule's new value.
func (e *Engine) Randomize(in Input) Result {
	res := Result{
		Fields:  in.Fields,
		Prompts: e.rollPrompts(in.Settings),
	}

	count := e.rollCount(in.Fields, &res.Fields)

	for _, key := range field.Keys() {
		cur := in.Fields.Get(key)
		if cur.Locked {
			continue
		}

		switch key.Kind() {
		case field.KindSimple:
			if opt, ok := e.pick(key); ok {
				cur.Selected = opt.Name
			}
		case field.KindEffect:
			cur.Selected = ""
			if e.rng.Float64() < e.opts.EffectProbability {
				if opt, ok := e.pick(key); ok {
					cur.Selected = opt.Name
				}
			}
		case field.KindPreset:
			cur.Selected = ""
			if key.PresetIndex() < count {
				if opt, ok := e.pick(key); ok {
					cur.Selected = opt.Name
				}
			}
		default:
			continue
		}
		res.Fields.Put(key, cur)
	}

	if in.Settings.TimeConstraint && !in.Timer.Running {
		res.Arm = e.arm(in.Timer.Selection)
	}

	return res
}

// Reroll draws a new value for a single unlocked field and applies it through
// SetSelected, so changing the count still clears out-of-range slots.
func (e *Engine) Reroll(store *field.Store, key field.Key) (string, bool) {
	if !key.Valid() || store.Get(key).Locked {
		return "", false
	}
	opt, ok := e.pick(key)
	if !ok {
		return "", false
	}
	store.SetSelected(key, opt.Name)
	return opt.Name, true
}

// rollCount resolves the preset count for this transaction and writes a new
// draw into out when the count field is unlocked.
func (e *Engine) rollCount(in field.Store, out *field.Store) int {
	cur := in.Get(field.PresetCount)
	if cur.Locked {
		return field.ParseCount(cur.Selected)
	}

	options := e.catalog.Options(field.PresetCount)
	if e.opts.ExcludeZeroCount {
		filtered := make([]catalog.Option, 0, len(options))
		for _, opt := range options {
			if field.ParseCount(opt.Name) != 0 {
				filtered = append(filtered, opt)
			}
		}
		options = filtered
	}
	if len(options) == 0 {
		return field.ParseCount(cur.Selected)
	}

	opt := options[e.rng.IntN(len(options))]
	cur.Selected = opt.Name
	out.Put(field.PresetCount, cur)
	return field.ParseCount(opt.Name)
}

func (e *Engine) rollPrompts(s Settings) Prompts {
	var p Prompts
	if s.Theme {
		p.Theme = e.pickString(e.catalog.Themes)
	}
	if s.Arrangement {
		p.Arrangement = e.pickString(e.catalog.ArrangementIdeas)
	}
	if s.SoundDesign {
		p.SoundDesign = e.pickString(e.catalog.SoundDesignIdeas)
	}
	if s.Mix {
		p.Mix = e.pickString(e.catalog.MixIdeas)
	}
	p.Tempo = fmt.Sprintf("%d BPM", TempoMin+e.rng.IntN(TempoMax-TempoMin+1))
	p.Quote = e.pickString(e.catalog.Quotes)
	return p
}

// arm resolves the duration selector. A Random selector is replaced by a
// concrete draw which the caller adopts as the new selection, so later calls
// reuse it.
func (e *Engine) arm(sel timer.Selection) *Arm {
	if sel.IsRandom() {
		minutes := timer.DefaultMinutes
		if len(e.opts.RandomMinutes) > 0 {
			minutes = e.opts.RandomMinutes[e.rng.IntN(len(e.opts.RandomMinutes))]
		}
		if minutes <= 0 {
			minutes = timer.DefaultMinutes
		}
		sel = timer.SelectionFromMinutes(minutes)
	}
	return &Arm{
		Seconds:   sel.Seconds(),
		Selection: sel,
		AutoStart: e.opts.AutoStartOnRandomize,
	}
}

func (e *Engine) pick(key field.Key) (catalog.Option, bool) {
	options := e.catalog.Options(key)
	if len(options) == 0 {
		return catalog.Option{}, false
	}
	return options[e.rng.IntN(len(options))], true
}

func (e *Engine) pickString(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[e.rng.IntN(len(list))]
}
