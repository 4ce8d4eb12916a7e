package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/plectrum/plectrum/internal/normalize"
)

// LoadResult holds the unified row stream plus per-source load statistics.
type LoadResult struct {
	Rows          []Row
	RowsPerSource map[string]int
	Errors        int
}

// Loader reads the configured CSV sources into one sorted, provenance-tagged
// row stream.
type Loader struct {
	sources []Source
	logger  *slog.Logger
}

// NewLoader creates a loader for the given sources.
func NewLoader(sources []Source, logger *slog.Logger) *Loader {
	return &Loader{
		sources: sources,
		logger:  logger.With(slog.String("component", "loader")),
	}
}

// Load reads every configured source. A missing file is recoverable (that
// source contributes zero rows), but if every source is missing the run is
// misconfigured and Load fails. Rows missing a composer name or work title
// are counted as errors and dropped here. The returned rows are sorted by
// (normalized composer name, lowercase title) so sightings of the same
// composer and work cluster together regardless of file order.
func (l *Loader) Load() (*LoadResult, error) {
	result := &LoadResult{RowsPerSource: make(map[string]int)}

	available := 0
	for _, src := range l.sources {
		if _, err := os.Stat(src.Path); err != nil {
			l.logger.Warn("source file missing, skipping",
				slog.String("source", src.Name),
				slog.String("path", src.Path))
			continue
		}
		available++

		rows, errs, err := l.loadSource(src)
		if err != nil {
			return nil, fmt.Errorf("reading source %s: %w", src.Name, err)
		}
		result.Rows = append(result.Rows, rows...)
		result.RowsPerSource[src.Name] = len(rows) + errs
		result.Errors += errs
	}

	if available == 0 {
		return nil, fmt.Errorf("no source files found (%d configured)", len(l.sources))
	}

	sort.SliceStable(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i], result.Rows[j]
		na, nb := normalize.Name(a.ComposerName), normalize.Name(b.ComposerName)
		if na != nb {
			return na < nb
		}
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	})

	return result, nil
}

func (l *Loader) loadSource(src Source) (rows []Row, errs int, err error) {
	f, err := os.Open(src.Path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := readHeader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("reading header: %w", err)
	}

	cols := src.Columns.merge(DefaultColumns())

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// One unparseable record is a row error, not a dead source.
			l.logger.Warn("skipping malformed row",
				slog.String("source", src.Name), slog.Any("error", err))
			errs++
			continue
		}
		if len(record) == 0 {
			continue
		}

		row := Row{
			Source:             src.Name,
			ExternalID:         valueAt(header, record, cols.ExternalID),
			ComposerName:       valueAt(header, record, cols.Composer),
			BirthYearRaw:       valueAt(header, record, cols.BirthYear),
			DeathYearRaw:       valueAt(header, record, cols.DeathYear),
			CountryRaw:         valueAt(header, record, cols.Country),
			Title:              valueAt(header, record, cols.Title),
			Subtitle:           valueAt(header, record, cols.Subtitle),
			Instrumentation:    valueAt(header, record, cols.Instrumentation),
			OpusRaw:            valueAt(header, record, cols.Opus),
			CompositionYearRaw: valueAt(header, record, cols.CompositionYear),
			DurationRaw:        valueAt(header, record, cols.Duration),
			MovementsRaw:       valueAt(header, record, cols.Movements),
			Link:               valueAt(header, record, cols.Link),
		}

		if row.ComposerName == "" || row.Title == "" {
			errs++
			continue
		}

		rows = append(rows, row)
	}

	return rows, errs, nil
}

// readHeader reads the first record and maps lowercased header names to
// column indexes.
func readHeader(r *csv.Reader) (map[string]int, error) {
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(record))
	for idx, name := range record {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

// valueAt returns the trimmed cell for the named column, or "" when the
// column is absent from this source.
func valueAt(header map[string]int, record []string, name string) string {
	if name == "" {
		return ""
	}
	idx, ok := header[strings.ToLower(name)]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
