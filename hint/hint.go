// Package hint remembers which provider last produced a working link for a series.
//
// Only provider names are stored. Direct links carry time-bound tokens and never touch the disk.
package hint

import (
	"sync"
	"time"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// Hint is the remembered choice for one series.
type Hint struct {
	Provider  source.ProviderName `json:"provider"`
	Language  source.Language     `json:"language"`
	UpdatedAt time.Time           `json:"updated_at"`
}

var cacher = gache.New[map[string]*Hint](
	&gache.Options{
		Path:       where.Hints(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// mu serialises every read-modify-write of the store.
var mu sync.Mutex

// All returns a copy of every stored hint keyed by series slug.
func All() (map[string]*Hint, error) {
	mu.Lock()
	defer mu.Unlock()
	return load()
}

// load must be called with mu held. The returned map shares nothing with the cache.
func load() (map[string]*Hint, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	hints := make(map[string]*Hint, len(cached))
	if expired {
		return hints, nil
	}
	for slug, h := range cached {
		if h == nil {
			continue
		}
		c := *h
		hints[slug] = &c
	}
	return hints, nil
}

// Get returns the hint for slug, if any.
func Get(slug string) mo.Option[Hint] {
	if slug == "" {
		return mo.None[Hint]()
	}
	hints, err := All()
	if err != nil {
		return mo.None[Hint]()
	}
	if h, ok := hints[slug]; ok {
		return mo.Some(*h)
	}
	return mo.None[Hint]()
}

// Save records provider as the working choice for slug. References without a slug are ignored.
func Save(slug string, provider source.ProviderName, language source.Language) error {
	if slug == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	hints, err := load()
	if err != nil {
		return err
	}

	hints[slug] = &Hint{Provider: provider, Language: language, UpdatedAt: time.Now()}
	return cacher.Set(hints)
}

// Remove forgets the hint for slug.
func Remove(slug string) error {
	mu.Lock()
	defer mu.Unlock()

	hints, err := load()
	if err != nil {
		return err
	}

	delete(hints, slug)
	return cacher.Set(hints)
}
