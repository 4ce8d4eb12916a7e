package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// composerColumns is the ordered list of columns for SELECT queries.
const composerColumns = `id, full_name, first_name, last_name, name_normalized,
	birth_year, death_year, is_living,
	country_id, country_description, biography, period,
	data_source_id, external_id, imslp_url, wikipedia_url,
	is_verified, needs_review, admin_notes, created_at, updated_at`

// CreateComposer inserts a new composer and fills in its assigned ID.
func (s *Service) CreateComposer(ctx context.Context, c *Composer) error {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO composers (
			full_name, first_name, last_name, name_normalized,
			birth_year, death_year, is_living,
			country_id, country_description, biography, period,
			data_source_id, external_id, imslp_url, wikipedia_url,
			is_verified, needs_review, admin_notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.FullName, c.FirstName, c.LastName, c.NameNormalized,
		nullableInt(c.BirthYear), nullableInt(c.DeathYear), boolToInt(c.IsLiving),
		nullableInt64(c.CountryID), c.CountryDescription, c.Biography, c.Period,
		nullableInt64(c.DataSourceID), c.ExternalID, c.IMSLPURL, c.WikipediaURL,
		boolToInt(c.IsVerified), boolToInt(c.NeedsReview), c.AdminNotes,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating composer: %w", err)
	}
	c.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading composer id: %w", err)
	}
	return nil
}

// GetComposerByID retrieves a composer by primary key.
func (s *Service) GetComposerByID(ctx context.Context, id int64) (*Composer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+composerColumns+` FROM composers WHERE id = ?`, id)
	c, err := scanComposer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("composer not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting composer by id: %w", err)
	}
	return c, nil
}

// GetComposerByNameAndBirthYear retrieves a composer by its ingestion
// identity key: the full name exactly as given plus the birth year (which
// may be absent). Returns nil when no composer matches.
func (s *Service) GetComposerByNameAndBirthYear(ctx context.Context, fullName string, birthYear *int) (*Composer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+composerColumns+` FROM composers
		WHERE full_name = ? AND birth_year IS ? ORDER BY id LIMIT 1`,
		fullName, nullableInt(birthYear))
	c, err := scanComposer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting composer by name and birth year: %w", err)
	}
	return c, nil
}

// UpdateComposer modifies an existing composer.
func (s *Service) UpdateComposer(ctx context.Context, c *Composer) error {
	c.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		UPDATE composers SET
			full_name = ?, first_name = ?, last_name = ?, name_normalized = ?,
			birth_year = ?, death_year = ?, is_living = ?,
			country_id = ?, country_description = ?, biography = ?, period = ?,
			data_source_id = ?, external_id = ?, imslp_url = ?, wikipedia_url = ?,
			is_verified = ?, needs_review = ?, admin_notes = ?, updated_at = ?
		WHERE id = ?
	`,
		c.FullName, c.FirstName, c.LastName, c.NameNormalized,
		nullableInt(c.BirthYear), nullableInt(c.DeathYear), boolToInt(c.IsLiving),
		nullableInt64(c.CountryID), c.CountryDescription, c.Biography, c.Period,
		nullableInt64(c.DataSourceID), c.ExternalID, c.IMSLPURL, c.WikipediaURL,
		boolToInt(c.IsVerified), boolToInt(c.NeedsReview), c.AdminNotes,
		c.UpdatedAt.Format(time.RFC3339),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating composer: %w", err)
	}
	return nil
}

// CountComposers returns the total number of composer records.
func (s *Service) CountComposers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM composers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting composers: %w", err)
	}
	return n, nil
}

// scanComposer scans a database row into a Composer struct.
func scanComposer(row interface{ Scan(...any) error }) (*Composer, error) {
	var c Composer
	var birthYear, deathYear, countryID, dataSourceID sql.NullInt64
	var isLiving, isVerified, needsReview int
	var createdAt, updatedAt string

	err := row.Scan(
		&c.ID, &c.FullName, &c.FirstName, &c.LastName, &c.NameNormalized,
		&birthYear, &deathYear, &isLiving,
		&countryID, &c.CountryDescription, &c.Biography, &c.Period,
		&dataSourceID, &c.ExternalID, &c.IMSLPURL, &c.WikipediaURL,
		&isVerified, &needsReview, &c.AdminNotes, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.BirthYear = intPtr(birthYear)
	c.DeathYear = intPtr(deathYear)
	c.IsLiving = isLiving == 1
	c.CountryID = int64Ptr(countryID)
	c.DataSourceID = int64Ptr(dataSourceID)
	c.IsVerified = isVerified == 1
	c.NeedsReview = needsReview == 1
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)

	return &c, nil
}
