package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// workColumns is the ordered list of columns for SELECT queries.
const workColumns = `id, composer_id, title, title_normalized, subtitle,
	opus_number, catalog_number, composition_year, composition_year_approx,
	duration_minutes, instrumentation_category_id, instrumentation_detail,
	difficulty_level, description, movements,
	imslp_url, youtube_url, score_url,
	data_source_id, external_id,
	is_verified, needs_review, is_public, view_count, admin_notes,
	created_at, updated_at`

// CreateWork inserts a new work and fills in its assigned ID.
func (s *Service) CreateWork(ctx context.Context, w *Work) error {
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO works (
			composer_id, title, title_normalized, subtitle,
			opus_number, catalog_number, composition_year, composition_year_approx,
			duration_minutes, instrumentation_category_id, instrumentation_detail,
			difficulty_level, description, movements,
			imslp_url, youtube_url, score_url,
			data_source_id, external_id,
			is_verified, needs_review, is_public, view_count, admin_notes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		w.ComposerID, w.Title, w.TitleNormalized, w.Subtitle,
		w.OpusNumber, w.CatalogNumber, nullableInt(w.CompositionYear), boolToInt(w.CompositionYearApprox),
		nullableInt(w.DurationMinutes), nullableInt64(w.InstrumentationCategoryID), w.InstrumentationDetail,
		nullableInt(w.DifficultyLevel), w.Description, MarshalStringSlice(w.Movements),
		w.IMSLPURL, w.YouTubeURL, w.ScoreURL,
		nullableInt64(w.DataSourceID), w.ExternalID,
		boolToInt(w.IsVerified), boolToInt(w.NeedsReview), boolToInt(w.IsPublic), w.ViewCount, w.AdminNotes,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating work: %w", err)
	}
	w.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading work id: %w", err)
	}
	return nil
}

// GetWorkByExternalID retrieves a work by its source-assigned identifier
// within one data source. Returns nil when no work matches.
func (s *Service) GetWorkByExternalID(ctx context.Context, externalID string, dataSourceID int64) (*Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workColumns+` FROM works
		WHERE external_id = ? AND data_source_id = ? ORDER BY id LIMIT 1`,
		externalID, dataSourceID)
	w, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting work by external id: %w", err)
	}
	return w, nil
}

// GetWorkByTitleAndComposer retrieves a work by exact title and composer.
// When duplicates exist the oldest (lowest id) record wins. Returns nil when
// no work matches.
func (s *Service) GetWorkByTitleAndComposer(ctx context.Context, title string, composerID int64) (*Work, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workColumns+` FROM works
		WHERE title = ? AND composer_id = ? ORDER BY id LIMIT 1`,
		title, composerID)
	w, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting work by title and composer: %w", err)
	}
	return w, nil
}

// UpdateWork modifies an existing work.
func (s *Service) UpdateWork(ctx context.Context, w *Work) error {
	w.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		UPDATE works SET
			composer_id = ?, title = ?, title_normalized = ?, subtitle = ?,
			opus_number = ?, catalog_number = ?, composition_year = ?, composition_year_approx = ?,
			duration_minutes = ?, instrumentation_category_id = ?, instrumentation_detail = ?,
			difficulty_level = ?, description = ?, movements = ?,
			imslp_url = ?, youtube_url = ?, score_url = ?,
			data_source_id = ?, external_id = ?,
			is_verified = ?, needs_review = ?, is_public = ?, view_count = ?, admin_notes = ?,
			updated_at = ?
		WHERE id = ?
	`,
		w.ComposerID, w.Title, w.TitleNormalized, w.Subtitle,
		w.OpusNumber, w.CatalogNumber, nullableInt(w.CompositionYear), boolToInt(w.CompositionYearApprox),
		nullableInt(w.DurationMinutes), nullableInt64(w.InstrumentationCategoryID), w.InstrumentationDetail,
		nullableInt(w.DifficultyLevel), w.Description, MarshalStringSlice(w.Movements),
		w.IMSLPURL, w.YouTubeURL, w.ScoreURL,
		nullableInt64(w.DataSourceID), w.ExternalID,
		boolToInt(w.IsVerified), boolToInt(w.NeedsReview), boolToInt(w.IsPublic), w.ViewCount, w.AdminNotes,
		w.UpdatedAt.Format(time.RFC3339),
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("updating work: %w", err)
	}
	return nil
}

// CountWorks returns the total number of work records.
func (s *Service) CountWorks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM works`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting works: %w", err)
	}
	return n, nil
}

// ListWorksByComposer returns all works for a composer ordered by title.
func (s *Service) ListWorksByComposer(ctx context.Context, composerID int64) ([]Work, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+workColumns+` FROM works WHERE composer_id = ? ORDER BY title, id`,
		composerID)
	if err != nil {
		return nil, fmt.Errorf("listing works by composer: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var works []Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning work row: %w", err)
		}
		works = append(works, *w)
	}
	return works, rows.Err()
}

// scanWork scans a database row into a Work struct.
func scanWork(row interface{ Scan(...any) error }) (*Work, error) {
	var w Work
	var compositionYear, durationMinutes, difficultyLevel sql.NullInt64
	var instrumentationCategoryID, dataSourceID sql.NullInt64
	var yearApprox, isVerified, needsReview, isPublic int
	var movements string
	var createdAt, updatedAt string

	err := row.Scan(
		&w.ID, &w.ComposerID, &w.Title, &w.TitleNormalized, &w.Subtitle,
		&w.OpusNumber, &w.CatalogNumber, &compositionYear, &yearApprox,
		&durationMinutes, &instrumentationCategoryID, &w.InstrumentationDetail,
		&difficultyLevel, &w.Description, &movements,
		&w.IMSLPURL, &w.YouTubeURL, &w.ScoreURL,
		&dataSourceID, &w.ExternalID,
		&isVerified, &needsReview, &isPublic, &w.ViewCount, &w.AdminNotes,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.CompositionYear = intPtr(compositionYear)
	w.CompositionYearApprox = yearApprox == 1
	w.DurationMinutes = intPtr(durationMinutes)
	w.InstrumentationCategoryID = int64Ptr(instrumentationCategoryID)
	w.DifficultyLevel = intPtr(difficultyLevel)
	w.Movements = UnmarshalStringSlice(movements)
	w.DataSourceID = int64Ptr(dataSourceID)
	w.IsVerified = isVerified == 1
	w.NeedsReview = needsReview == 1
	w.IsPublic = isPublic == 1
	w.CreatedAt = parseTime(createdAt)
	w.UpdatedAt = parseTime(updatedAt)

	return &w, nil
}
