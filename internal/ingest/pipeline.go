package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/plectrum/plectrum/internal/catalog"
)

// Options tunes one import run.
type Options struct {
	// BatchSize is the number of rows committed per transaction.
	BatchSize int
	// DryRun loads and validates the sources without writing anything.
	DryRun bool
}

// DefaultBatchSize is used when Options.BatchSize is unset.
const DefaultBatchSize = 100

// Pipeline runs the full import: load the CSV sources, resolve composers and
// works against the catalog, and commit in fixed-size batches.
type Pipeline struct {
	db        *sql.DB
	store     *catalog.Service
	sources   []Source
	batchSize int
	dryRun    bool
	logger    *slog.Logger
}

// New creates an import pipeline over the given database and sources.
func New(db *sql.DB, sources []Source, opts Options, logger *slog.Logger) *Pipeline {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		db:        db,
		store:     catalog.NewService(db),
		sources:   sources,
		batchSize: batchSize,
		dryRun:    opts.DryRun,
		logger:    logger.With(slog.String("component", "import")),
	}
}

// Report summarizes one import run.
type Report struct {
	ID            uuid.UUID
	DryRun        bool
	StartedAt     time.Time
	CompletedAt   time.Time
	RowsSeen      int
	RowsPerSource map[string]int

	ComposersCreated int
	ComposersUpdated int
	WorksCreated     int
	WorksMerged      int
	Errors           int
}

// Run executes the import and returns its report.
//
// Rows are processed in load order (clustered by composer, then title) in
// batches of batchSize, each batch inside one transaction. A failed batch is
// rolled back and counted wholesale as errors; the run continues with the
// next batch. The per-run cache is reset after a rollback so entities created
// inside the aborted transaction cannot be reused.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := &Report{
		ID:        uuid.New(),
		DryRun:    p.dryRun,
		StartedAt: time.Now().UTC(),
	}

	loaded, err := NewLoader(p.sources, p.logger).Load()
	if err != nil {
		return nil, err
	}
	rep.RowsSeen = len(loaded.Rows)
	rep.RowsPerSource = loaded.RowsPerSource
	rep.Errors = loaded.Errors

	if len(loaded.Rows) == 0 {
		return nil, fmt.Errorf("no importable rows in %d source(s)", len(p.sources))
	}

	if p.dryRun {
		rep.CompletedAt = time.Now().UTC()
		p.logger.Info("dry run complete",
			slog.String("run_id", rep.ID.String()),
			slog.Int("rows", rep.RowsSeen),
			slog.Int("errors", rep.Errors))
		return rep, nil
	}

	dataSources := make(map[string]*catalog.DataSource, len(p.sources))
	linkFields := make(map[string]string, len(p.sources))
	for _, src := range p.sources {
		if loaded.RowsPerSource[src.Name] == 0 {
			continue
		}
		ds, err := p.store.GetOrCreateDataSource(ctx, src.Name, src.URL, src.Description)
		if err != nil {
			return nil, fmt.Errorf("registering data source %s: %w", src.Name, err)
		}
		dataSources[src.Name] = ds
		linkFields[src.Name] = src.LinkField
	}

	cache := NewCache()
	for start := 0; start < len(loaded.Rows); start += p.batchSize {
		end := start + p.batchSize
		if end > len(loaded.Rows) {
			end = len(loaded.Rows)
		}
		batch := loaded.Rows[start:end]

		snapshot := *rep
		if err := p.processBatch(ctx, batch, cache, dataSources, linkFields, rep); err != nil {
			*rep = snapshot
			rep.Errors += len(batch)
			cache.Reset()
			p.logger.Error("batch failed, rolled back",
				slog.Int("offset", start),
				slog.Int("size", len(batch)),
				slog.Any("error", err))
		}
	}

	rep.CompletedAt = time.Now().UTC()
	for name, ds := range dataSources {
		if err := p.store.TouchDataSourceSync(ctx, ds.ID, rep.CompletedAt); err != nil {
			p.logger.Warn("recording sync time failed",
				slog.String("source", name), slog.Any("error", err))
		}
	}

	p.logger.Info("import complete",
		slog.String("run_id", rep.ID.String()),
		slog.Int("rows", rep.RowsSeen),
		slog.Int("composers_created", rep.ComposersCreated),
		slog.Int("composers_updated", rep.ComposersUpdated),
		slog.Int("works_created", rep.WorksCreated),
		slog.Int("works_merged", rep.WorksMerged),
		slog.Int("errors", rep.Errors),
		slog.Duration("elapsed", rep.CompletedAt.Sub(rep.StartedAt)))

	return rep, nil
}

// processBatch runs one batch inside a transaction. Any row error aborts and
// rolls back the whole batch.
func (p *Pipeline) processBatch(ctx context.Context, batch []Row, cache *Cache, dataSources map[string]*catalog.DataSource, linkFields map[string]string, rep *Report) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	svc := p.store.WithTx(tx)
	for _, row := range batch {
		ds, ok := dataSources[row.Source]
		if !ok {
			return fmt.Errorf("row from unregistered source %q", row.Source)
		}
		composer, err := p.resolveComposer(ctx, svc, cache, row, ds, rep)
		if err != nil {
			return fmt.Errorf("resolving composer %q: %w", row.ComposerName, err)
		}
		if err := p.resolveWork(ctx, svc, cache, row, composer, ds, linkFields[row.Source], rep); err != nil {
			return fmt.Errorf("resolving work %q: %w", row.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}
	return nil
}
