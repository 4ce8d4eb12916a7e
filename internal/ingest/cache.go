package ingest

import "github.com/plectrum/plectrum/internal/catalog"

// Cache memoizes resolved reference entities for the duration of one run, so
// each distinct key costs at most one store round-trip and every row for the
// same entity shares one in-run instance. Entries are never authoritative
// across runs; a fresh cache is built per run.
type Cache struct {
	composers        map[string]*catalog.Composer
	countries        map[string]*catalog.Country
	instrumentations map[string]*catalog.InstrumentationCategory
}

// NewCache creates an empty per-run cache.
func NewCache() *Cache {
	c := &Cache{}
	c.Reset()
	return c
}

// Reset discards every cached entry. The pipeline calls this after a batch
// rollback so handles created inside the aborted transaction cannot leak
// into later batches.
func (c *Cache) Reset() {
	c.composers = make(map[string]*catalog.Composer)
	c.countries = make(map[string]*catalog.Country)
	c.instrumentations = make(map[string]*catalog.InstrumentationCategory)
}

// Composer returns the cached composer for key, or resolves it via factory
// and caches the result. Keys come from normalize.ComposerKey.
func (c *Cache) Composer(key string, factory func() (*catalog.Composer, error)) (*catalog.Composer, error) {
	if composer, ok := c.composers[key]; ok {
		return composer, nil
	}
	composer, err := factory()
	if err != nil {
		return nil, err
	}
	c.composers[key] = composer
	return composer, nil
}

// Country returns the cached country for the cleaned name, resolving and
// caching on first sight.
func (c *Cache) Country(name string, factory func() (*catalog.Country, error)) (*catalog.Country, error) {
	if country, ok := c.countries[name]; ok {
		return country, nil
	}
	country, err := factory()
	if err != nil {
		return nil, err
	}
	c.countries[name] = country
	return country, nil
}

// Instrumentation returns the cached instrumentation category for the
// cleaned name, resolving and caching on first sight.
func (c *Cache) Instrumentation(name string, factory func() (*catalog.InstrumentationCategory, error)) (*catalog.InstrumentationCategory, error) {
	if ic, ok := c.instrumentations[name]; ok {
		return ic, nil
	}
	ic, err := factory()
	if err != nil {
		return nil, err
	}
	c.instrumentations[name] = ic
	return ic, nil
}
