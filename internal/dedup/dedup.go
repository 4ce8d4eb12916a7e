// Package dedup removes duplicate works that accumulated before the
// merge-on-import path existed. Works are duplicates when they share an
// exact title and composer; the oldest row (lowest id) is kept.
package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service runs deduplication passes over the works table.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a dedup service.
func New(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With(slog.String("component", "dedup")),
	}
}

// Group is one set of duplicate works sharing (title, composer).
type Group struct {
	Title      string
	ComposerID int64
	Count      int
	KeepID     int64
}

// Result summarizes one dedup run.
type Result struct {
	ID              uuid.UUID
	DryRun          bool
	StartedAt       time.Time
	CompletedAt     time.Time
	GroupsFound     int
	WorksDeleted    int
	RemainingGroups int
	Planned         []Group
}

// Run finds duplicate groups and, unless dryRun is set, deletes everything
// but the lowest-id work in each group inside one transaction. A post-delete
// check counts groups that still remain (possible when new duplicates land
// between the scan and the delete); leftovers are logged, never retried.
func (s *Service) Run(ctx context.Context, dryRun bool) (*Result, error) {
	res := &Result{
		ID:        uuid.New(),
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}

	groups, err := s.findGroups(ctx)
	if err != nil {
		return nil, err
	}
	res.GroupsFound = len(groups)
	res.Planned = groups

	if dryRun {
		res.CompletedAt = time.Now().UTC()
		s.logger.Info("dedup dry run",
			slog.String("run_id", res.ID.String()),
			slog.Int("groups", res.GroupsFound))
		return res, nil
	}

	if len(groups) > 0 {
		deleted, err := s.deleteDuplicates(ctx)
		if err != nil {
			return nil, err
		}
		res.WorksDeleted = deleted
	}

	remaining, err := s.findGroups(ctx)
	if err != nil {
		return nil, err
	}
	res.RemainingGroups = len(remaining)
	if res.RemainingGroups > 0 {
		s.logger.Warn("duplicate groups remain after pass",
			slog.String("run_id", res.ID.String()),
			slog.Int("remaining", res.RemainingGroups))
	}

	res.CompletedAt = time.Now().UTC()
	s.logger.Info("dedup complete",
		slog.String("run_id", res.ID.String()),
		slog.Int("groups", res.GroupsFound),
		slog.Int("deleted", res.WorksDeleted),
		slog.Int("remaining", res.RemainingGroups))
	return res, nil
}

// findGroups lists (title, composer) pairs held by more than one work,
// with the id that a delete pass would keep.
func (s *Service) findGroups(ctx context.Context) ([]Group, error) {
	const query = `
		SELECT title, composer_id, COUNT(*), MIN(id)
		FROM works
		GROUP BY title, composer_id
		HAVING COUNT(*) > 1
		ORDER BY title, composer_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("scanning for duplicate works: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.Title, &g.ComposerID, &g.Count, &g.KeepID); err != nil {
			return nil, fmt.Errorf("scanning duplicate group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate groups: %w", err)
	}
	return groups, nil
}

// deleteDuplicates removes every work whose (title, composer) group has an
// older sibling, in one transaction.
func (s *Service) deleteDuplicates(ctx context.Context) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `
		DELETE FROM works
		WHERE id NOT IN (
			SELECT MIN(id) FROM works GROUP BY title, composer_id
		)`

	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting duplicate works: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted works: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing dedup: %w", err)
	}
	return int(deleted), nil
}
