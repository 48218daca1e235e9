package session

import (
	"math/rand/v2"

	"github.com/audiolibrelab/jamroll/internal/catalog"
	"github.com/audiolibrelab/jamroll/internal/config"
	"github.com/audiolibrelab/jamroll/internal/randomizer"
	"github.com/audiolibrelab/jamroll/internal/timer"
)

// Factory builds sessions that share one catalog and configuration. Each
// session gets its own engine because engines are not safe for concurrent use.
type Factory struct {
	cfg     *config.Config
	catalog *catalog.Catalog
}

func NewFactory(cfg *config.Config, cat *catalog.Catalog) *Factory {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if cat == nil {
		cat = catalog.Default()
	}
	return &Factory{cfg: cfg, catalog: cat}
}

// New creates a session. cue may be nil; onTick may be nil.
func (f *Factory) New(id string, cue timer.Cue, onTick func(timer.Snapshot)) *Session {
	var rng *rand.Rand
	if seed := f.cfg.Randomize.Seed; seed != 0 {
		rng = rand.New(rand.NewPCG(seed, seed))
	}

	return New(Options{
		ID:               id,
		Engine:           randomizer.New(f.catalog, f.cfg.EngineOptions(), rng),
		DefaultSettings:  f.cfg.DefaultSettings(),
		DefaultSelection: f.cfg.DefaultSelection(),
		Cue:              cue,
		OnTick:           onTick,
	})
}

func (f *Factory) Catalog() *catalog.Catalog {
	return f.catalog
}
