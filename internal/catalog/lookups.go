package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetOrCreateCountry returns the country with the given name, creating it on
// first sight. Names are trusted to be exact strings; no merging happens here.
func (s *Service) GetOrCreateCountry(ctx context.Context, name string) (*Country, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, iso_code, region, created_at, updated_at
		FROM countries WHERE name = ?`, name)

	var c Country
	var createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.Name, &c.ISOCode, &c.Region, &createdAt, &updatedAt)
	if err == nil {
		c.CreatedAt = parseTime(createdAt)
		c.UpdatedAt = parseTime(updatedAt)
		return &c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting country: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO countries (name, created_at, updated_at) VALUES (?, ?, ?)`,
		name, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("creating country: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading country id: %w", err)
	}
	return &Country{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// GetOrCreateInstrumentationCategory returns the instrumentation category
// with the given name, creating it on first sight.
func (s *Service) GetOrCreateInstrumentationCategory(ctx context.Context, name string) (*InstrumentationCategory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, sort_order, created_at, updated_at
		FROM instrumentation_categories WHERE name = ?`, name)

	var ic InstrumentationCategory
	var createdAt, updatedAt string
	err := row.Scan(&ic.ID, &ic.Name, &ic.Description, &ic.SortOrder, &createdAt, &updatedAt)
	if err == nil {
		ic.CreatedAt = parseTime(createdAt)
		ic.UpdatedAt = parseTime(updatedAt)
		return &ic, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting instrumentation category: %w", err)
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO instrumentation_categories (name, created_at, updated_at) VALUES (?, ?, ?)`,
		name, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("creating instrumentation category: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading instrumentation category id: %w", err)
	}
	return &InstrumentationCategory{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

// GetOrCreateDataSource returns the data source with the given name, creating
// it with the supplied url and description on first sight.
func (s *Service) GetOrCreateDataSource(ctx context.Context, name, url, description string) (*DataSource, error) {
	ds, err := s.getDataSource(ctx, name)
	if err != nil {
		return nil, err
	}
	if ds != nil {
		return ds, nil
	}

	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO data_sources (name, url, description, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)`,
		name, url, description, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("creating data source: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading data source id: %w", err)
	}
	return &DataSource{
		ID: id, Name: name, URL: url, Description: description,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (s *Service) getDataSource(ctx context.Context, name string) (*DataSource, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, url, description, last_sync, is_active, created_at, updated_at
		FROM data_sources WHERE name = ?`, name)

	var ds DataSource
	var lastSync sql.NullString
	var isActive int
	var createdAt, updatedAt string
	err := row.Scan(&ds.ID, &ds.Name, &ds.URL, &ds.Description, &lastSync, &isActive, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting data source: %w", err)
	}

	if lastSync.Valid {
		t := parseTime(lastSync.String)
		ds.LastSync = &t
	}
	ds.IsActive = isActive == 1
	ds.CreatedAt = parseTime(createdAt)
	ds.UpdatedAt = parseTime(updatedAt)
	return &ds, nil
}

// TouchDataSourceSync records the completion time of an import run for a
// data source.
func (s *Service) TouchDataSourceSync(ctx context.Context, id int64, at time.Time) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE data_sources SET last_sync = ?, updated_at = ? WHERE id = ?`,
		at.UTC().Format(time.RFC3339), now, id)
	if err != nil {
		return fmt.Errorf("updating data source last_sync: %w", err)
	}
	return nil
}
