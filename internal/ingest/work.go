package ingest

import (
	"context"
	"log/slog"

	"github.com/plectrum/plectrum/internal/catalog"
	"github.com/plectrum/plectrum/internal/normalize"
)

// mergeRule is the per-field policy applied when a new sighting matches an
// existing work.
type mergeRule int

const (
	// keepExisting never touches the stored value.
	keepExisting mergeRule = iota
	// overwriteIfNull fills the field only when the stored value is empty.
	overwriteIfNull
	// alwaysOverwrite refreshes the field from every sighting.
	alwaysOverwrite
)

// mergeString applies rule to one string field. An empty incoming value is
// never applied: merging is additive and must not erase curated data.
func mergeString(dst *string, src string, rule mergeRule) bool {
	if src == "" || rule == keepExisting {
		return false
	}
	if rule == overwriteIfNull && *dst != "" {
		return false
	}
	if *dst == src {
		return false
	}
	*dst = src
	return true
}

// mergeIntPtr applies rule to one nullable integer field.
func mergeIntPtr(dst **int, src *int, rule mergeRule) bool {
	if src == nil || rule == keepExisting {
		return false
	}
	if rule == overwriteIfNull && *dst != nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	*dst = src
	return true
}

// mergeInt64Ptr applies rule to one nullable reference field.
func mergeInt64Ptr(dst **int64, src *int64, rule mergeRule) bool {
	if src == nil || rule == keepExisting {
		return false
	}
	if rule == overwriteIfNull && *dst != nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	*dst = src
	return true
}

// mergeMovements applies rule to the movement list.
func mergeMovements(dst *[]string, src []string, rule mergeRule) bool {
	if len(src) == 0 || rule == keepExisting {
		return false
	}
	if rule == overwriteIfNull && len(*dst) > 0 {
		return false
	}
	*dst = src
	return true
}

// mergeWork folds an incoming sighting into an existing work, field by
// field. The rule table:
//
//	title, normalized title          keepExisting (the match key)
//	instrumentation category/detail  alwaysOverwrite (source text differs freely)
//	external id, link URLs           overwriteIfNull
//	subtitle, opus, composition
//	year, duration, movements,
//	description                      overwriteIfNull
//
// Returns true when anything changed and the merge must be persisted.
func mergeWork(dst, src *catalog.Work) bool {
	changed := false
	apply := func(c bool) {
		changed = changed || c
	}

	apply(mergeInt64Ptr(&dst.InstrumentationCategoryID, src.InstrumentationCategoryID, alwaysOverwrite))
	apply(mergeString(&dst.InstrumentationDetail, src.InstrumentationDetail, alwaysOverwrite))

	apply(mergeString(&dst.ExternalID, src.ExternalID, overwriteIfNull))
	apply(mergeString(&dst.IMSLPURL, src.IMSLPURL, overwriteIfNull))
	apply(mergeString(&dst.YouTubeURL, src.YouTubeURL, overwriteIfNull))
	apply(mergeString(&dst.ScoreURL, src.ScoreURL, overwriteIfNull))

	apply(mergeString(&dst.Subtitle, src.Subtitle, overwriteIfNull))
	apply(mergeString(&dst.OpusNumber, src.OpusNumber, overwriteIfNull))
	if mergeIntPtr(&dst.CompositionYear, src.CompositionYear, overwriteIfNull) {
		dst.CompositionYearApprox = src.CompositionYearApprox
		changed = true
	}
	apply(mergeIntPtr(&dst.DurationMinutes, src.DurationMinutes, overwriteIfNull))
	apply(mergeMovements(&dst.Movements, src.Movements, overwriteIfNull))
	apply(mergeString(&dst.Description, src.Description, overwriteIfNull))

	return changed
}

// resolveWork finds an existing work for the row or creates a new one.
//
// Match order: (external id, data source) when the row carries an external
// id, then exact (title, composer). A match is merged under the mergeWork
// rule table and counted as skipped/merged; no match creates a new work
// flagged for review.
func (p *Pipeline) resolveWork(ctx context.Context, svc *catalog.Service, cache *Cache, row Row, composer *catalog.Composer, ds *catalog.DataSource, linkField string, rep *Report) error {
	title := normalize.CleanTitle(row.Title)
	if title == "" {
		rep.Errors++
		return nil
	}

	incoming, err := p.workFromRow(ctx, svc, cache, row, composer, ds, title, linkField)
	if err != nil {
		return err
	}

	var existing *catalog.Work
	if row.ExternalID != "" {
		existing, err = svc.GetWorkByExternalID(ctx, row.ExternalID, ds.ID)
		if err != nil {
			return err
		}
	}
	if existing == nil {
		existing, err = svc.GetWorkByTitleAndComposer(ctx, title, composer.ID)
		if err != nil {
			return err
		}
	}

	if existing != nil {
		if mergeWork(existing, incoming) {
			if err := svc.UpdateWork(ctx, existing); err != nil {
				return err
			}
		}
		rep.WorksMerged++
		p.logger.Debug("work merged",
			slog.String("title", title),
			slog.Int64("id", existing.ID),
			slog.String("source", row.Source))
		return nil
	}

	if err := svc.CreateWork(ctx, incoming); err != nil {
		return err
	}
	rep.WorksCreated++
	p.logger.Debug("work created",
		slog.String("title", title),
		slog.Int64("id", incoming.ID),
		slog.String("source", row.Source))
	return nil
}

// workFromRow builds the candidate work carried by one row: cleaned title,
// parsed opus/year/duration/movements, resolved instrumentation category,
// and the link routed to the field owned by the row's source.
func (p *Pipeline) workFromRow(ctx context.Context, svc *catalog.Service, cache *Cache, row Row, composer *catalog.Composer, ds *catalog.DataSource, title, linkField string) (*catalog.Work, error) {
	w := &catalog.Work{
		ComposerID:            composer.ID,
		Title:                 title,
		TitleNormalized:       normalize.Name(title),
		Subtitle:              row.Subtitle,
		OpusNumber:            normalize.ParseOpusNumber(row.OpusRaw),
		InstrumentationDetail: row.Instrumentation,
		Movements:             normalize.SplitMovements(row.MovementsRaw),
		Description:           "",
		DataSourceID:          &ds.ID,
		ExternalID:            row.ExternalID,
		NeedsReview:           true,
		IsPublic:              true,
	}

	if year, ok := normalize.CleanYear(row.CompositionYearRaw); ok {
		w.CompositionYear = &year
		w.CompositionYearApprox = normalize.YearIsApproximate(row.CompositionYearRaw)
	}
	if minutes, ok := normalize.ExtractDurationMinutes(row.DurationRaw); ok {
		w.DurationMinutes = &minutes
	}

	if row.Instrumentation != "" {
		name := normalize.CleanInstrumentation(row.Instrumentation)
		ic, err := cache.Instrumentation(name, func() (*catalog.InstrumentationCategory, error) {
			return svc.GetOrCreateInstrumentationCategory(ctx, name)
		})
		if err != nil {
			return nil, err
		}
		w.InstrumentationCategoryID = &ic.ID
	}

	if row.Link != "" {
		switch linkField {
		case LinkFieldIMSLP:
			w.IMSLPURL = row.Link
		case LinkFieldYouTube:
			w.YouTubeURL = row.Link
		default:
			w.ScoreURL = row.Link
		}
	}

	return w, nil
}
