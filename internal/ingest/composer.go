package ingest

import (
	"context"
	"log/slog"

	"github.com/plectrum/plectrum/internal/catalog"
	"github.com/plectrum/plectrum/internal/normalize"
)

// resolveComposer finds or creates the canonical composer for a row.
//
// The identity key is the full name exactly as the source gave it plus the
// parsed birth year. An existing composer only gains a death year or country
// it was missing; populated fields are never overwritten. A new composer is
// created with parsed name parts, the derived normalized name, the
// living-composer heuristic, and needs_review set (auto-imported records are
// never auto-verified).
func (p *Pipeline) resolveComposer(ctx context.Context, svc *catalog.Service, cache *Cache, row Row, ds *catalog.DataSource, rep *Report) (*catalog.Composer, error) {
	birthYear := yearPtr(row.BirthYearRaw)
	deathYear := yearPtr(row.DeathYearRaw)

	var country *catalog.Country
	if name := normalize.CleanCountryName(row.CountryRaw); name != "" {
		var err error
		country, err = cache.Country(name, func() (*catalog.Country, error) {
			return svc.GetOrCreateCountry(ctx, name)
		})
		if err != nil {
			return nil, err
		}
	}

	key := normalize.ComposerKey(row.ComposerName, birthYear)
	composer, err := cache.Composer(key, func() (*catalog.Composer, error) {
		existing, err := svc.GetComposerByNameAndBirthYear(ctx, row.ComposerName, birthYear)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}

		first, last, _ := normalize.ParseComposerName(row.ComposerName)
		var countryID *int64
		if country != nil {
			countryID = &country.ID
		}
		created := &catalog.Composer{
			FullName:       row.ComposerName,
			FirstName:      first,
			LastName:       last,
			NameNormalized: normalize.Name(row.ComposerName),
			BirthYear:      birthYear,
			DeathYear:      deathYear,
			IsLiving:       normalize.IsLikelyLiving(birthYear, deathYear),
			CountryID:      countryID,
			DataSourceID:   &ds.ID,
			NeedsReview:    true,
		}
		if err := svc.CreateComposer(ctx, created); err != nil {
			return nil, err
		}
		rep.ComposersCreated++
		p.logger.Debug("composer created",
			slog.String("name", created.FullName),
			slog.Int64("id", created.ID))
		return created, nil
	})
	if err != nil {
		return nil, err
	}

	// Enrichment applies to every sighting, cached or not: a later row may
	// carry the death year or country an earlier source lacked.
	changed := false
	if composer.DeathYear == nil && deathYear != nil {
		composer.DeathYear = deathYear
		composer.IsLiving = false
		changed = true
	}
	if composer.CountryID == nil && country != nil {
		composer.CountryID = &country.ID
		changed = true
	}
	if changed {
		if err := svc.UpdateComposer(ctx, composer); err != nil {
			return nil, err
		}
		rep.ComposersUpdated++
		p.logger.Debug("composer updated",
			slog.String("name", composer.FullName),
			slog.Int64("id", composer.ID))
	}

	return composer, nil
}

// yearPtr parses a raw year field, returning nil when absent or malformed.
func yearPtr(raw string) *int {
	year, ok := normalize.CleanYear(raw)
	if !ok {
		return nil
	}
	return &year
}
