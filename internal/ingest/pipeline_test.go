package ingest

import (
	"context"
	"database/sql"
	"testing"

	"github.com/plectrum/plectrum/internal/catalog"
	"github.com/plectrum/plectrum/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunCreatesAndIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv",
		"ID,Name,Birth Year,Death Year,Work,Opus,Year\n"+
			"s1,\"Sor, Fernando\",1778,1839,Grand Solo,op.14,ca. 1810\n"+
			"g1,\"Giuliani, Mauro\",1781,1829,Rossiniana No. 1,op.119,1820\n")

	sources := []Source{{Name: "catalog", Path: path, LinkField: LinkFieldScore}}
	ctx := context.Background()

	rep, err := New(db, sources, Options{}, testLogger()).Run(ctx)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if rep.ComposersCreated != 2 || rep.WorksCreated != 2 {
		t.Errorf("first run: composers=%d works=%d, want 2/2", rep.ComposersCreated, rep.WorksCreated)
	}
	if rep.Errors != 0 {
		t.Errorf("Errors = %d, want 0", rep.Errors)
	}

	rep, err = New(db, sources, Options{}, testLogger()).Run(ctx)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rep.ComposersCreated != 0 || rep.WorksCreated != 0 {
		t.Errorf("second run created composers=%d works=%d, want 0/0",
			rep.ComposersCreated, rep.WorksCreated)
	}
	if rep.WorksMerged != 2 {
		t.Errorf("second run WorksMerged = %d, want 2", rep.WorksMerged)
	}

	svc := catalog.NewService(db)
	if n, _ := svc.CountComposers(ctx); n != 2 {
		t.Errorf("composer count = %d, want 2", n)
	}
	if n, _ := svc.CountWorks(ctx); n != 2 {
		t.Errorf("work count = %d, want 2", n)
	}
}

func TestRunParsesRowFields(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv",
		"ID,Name,Birth Year,Country,Work,Instrumentation,Opus,Year,Duration,Movements,Link\n"+
			"s1,\"Sor, Fernando\",1778,Spain,Grand Solo,solo  guitar,op.14,ca. 1810,10:45,1. Intro; 2. Allegro,https://scores.example/1\n")

	sources := []Source{{Name: "catalog", Path: path, LinkField: LinkFieldScore}}
	ctx := context.Background()
	if _, err := New(db, sources, Options{}, testLogger()).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	svc := catalog.NewService(db)
	c, err := svc.GetComposerByNameAndBirthYear(ctx, "Sor, Fernando", intp(1778))
	if err != nil || c == nil {
		t.Fatalf("composer lookup: %v, %v", c, err)
	}
	if c.FirstName != "Fernando" || c.LastName != "Sor" {
		t.Errorf("name parts = %q/%q", c.FirstName, c.LastName)
	}
	if c.NameNormalized != "sor, fernando" {
		t.Errorf("NameNormalized = %q", c.NameNormalized)
	}
	if c.CountryID == nil {
		t.Error("country not resolved")
	}
	if !c.NeedsReview {
		t.Error("imported composer must need review")
	}

	w, err := svc.GetWorkByTitleAndComposer(ctx, "Grand Solo", c.ID)
	if err != nil || w == nil {
		t.Fatalf("work lookup: %v, %v", w, err)
	}
	if w.OpusNumber != "Op. 14" {
		t.Errorf("OpusNumber = %q", w.OpusNumber)
	}
	if w.CompositionYear == nil || *w.CompositionYear != 1810 || !w.CompositionYearApprox {
		t.Errorf("year = %v approx=%v", w.CompositionYear, w.CompositionYearApprox)
	}
	if w.DurationMinutes == nil || *w.DurationMinutes != 11 {
		t.Errorf("DurationMinutes = %v, want 11", w.DurationMinutes)
	}
	if len(w.Movements) != 2 || w.Movements[0] != "Intro" {
		t.Errorf("Movements = %v", w.Movements)
	}
	if w.InstrumentationDetail != "solo  guitar" {
		t.Errorf("InstrumentationDetail = %q, raw text expected", w.InstrumentationDetail)
	}
	if w.InstrumentationCategoryID == nil {
		t.Error("instrumentation category not resolved")
	}
	if w.ScoreURL != "https://scores.example/1" {
		t.Errorf("ScoreURL = %q", w.ScoreURL)
	}
	if w.ExternalID != "s1" {
		t.Errorf("ExternalID = %q", w.ExternalID)
	}
}

func TestRunMergesAcrossSources(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	imslp := writeFile(t, dir, "imslp.csv",
		"ID,Name,Birth Year,Work,Link\n"+
			"i1,\"Sor, Fernando\",1778,Grand Solo,https://imslp.example/1\n")
	video := writeFile(t, dir, "video.csv",
		"ID,Name,Birth Year,Death Year,Work,Link\n"+
			"v1,\"Sor, Fernando\",1778,1839,Grand Solo,https://youtube.example/1\n")

	sources := []Source{
		{Name: "imslp", Path: imslp, LinkField: LinkFieldIMSLP},
		{Name: "video", Path: video, LinkField: LinkFieldYouTube},
	}
	ctx := context.Background()

	rep, err := New(db, sources, Options{}, testLogger()).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.ComposersCreated != 1 {
		t.Errorf("ComposersCreated = %d, want 1", rep.ComposersCreated)
	}
	if rep.ComposersUpdated != 1 {
		t.Errorf("ComposersUpdated = %d, want 1 (death year backfill)", rep.ComposersUpdated)
	}
	if rep.WorksCreated != 1 || rep.WorksMerged != 1 {
		t.Errorf("works created=%d merged=%d, want 1/1", rep.WorksCreated, rep.WorksMerged)
	}

	svc := catalog.NewService(db)
	c, err := svc.GetComposerByNameAndBirthYear(ctx, "Sor, Fernando", intp(1778))
	if err != nil || c == nil {
		t.Fatalf("composer lookup: %v, %v", c, err)
	}
	if c.DeathYear == nil || *c.DeathYear != 1839 {
		t.Errorf("DeathYear = %v, want 1839", c.DeathYear)
	}
	if c.IsLiving {
		t.Error("IsLiving = true after death year backfill")
	}

	w, err := svc.GetWorkByTitleAndComposer(ctx, "Grand Solo", c.ID)
	if err != nil || w == nil {
		t.Fatalf("work lookup: %v, %v", w, err)
	}
	if w.IMSLPURL != "https://imslp.example/1" {
		t.Errorf("IMSLPURL = %q", w.IMSLPURL)
	}
	if w.YouTubeURL != "https://youtube.example/1" {
		t.Errorf("YouTubeURL = %q", w.YouTubeURL)
	}
	if n, _ := svc.CountWorks(ctx); n != 1 {
		t.Errorf("work count = %d, want 1", n)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv", "Name,Work\nSor,Etude\n")

	sources := []Source{{Name: "catalog", Path: path}}
	ctx := context.Background()

	rep, err := New(db, sources, Options{DryRun: true}, testLogger()).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.DryRun || rep.RowsSeen != 1 {
		t.Errorf("rep = %+v", rep)
	}

	svc := catalog.NewService(db)
	if n, _ := svc.CountComposers(ctx); n != 0 {
		t.Errorf("dry run wrote %d composers", n)
	}
	if n, _ := svc.CountWorks(ctx); n != 0 {
		t.Errorf("dry run wrote %d works", n)
	}
}

func TestRunFailsWithoutRows(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv", "Name,Work\n")

	sources := []Source{{Name: "catalog", Path: path}}
	if _, err := New(db, sources, Options{}, testLogger()).Run(context.Background()); err == nil {
		t.Fatal("expected error when no rows load")
	}
}

func TestRunIsolatesFailedBatch(t *testing.T) {
	db := setupTestDB(t)
	// Fault injection: abort any insert of the sentinel title.
	if _, err := db.Exec(`
		CREATE TRIGGER poison_title BEFORE INSERT ON works
		WHEN NEW.title = 'Poison'
		BEGIN SELECT RAISE(ABORT, 'poison title'); END`); err != nil {
		t.Fatalf("creating trigger: %v", err)
	}

	dir := t.TempDir()
	path := writeFile(t, dir, "catalog.csv",
		"Name,Birth Year,Work\n"+
			"\"Adams, John\",1947,Alpha\n"+
			"\"Zed, Amy\",1980,Poison\n"+
			"\"Zed, Amy\",1980,Zeta\n")

	sources := []Source{{Name: "catalog", Path: path}}
	ctx := context.Background()

	rep, err := New(db, sources, Options{BatchSize: 1}, testLogger()).Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Errors != 1 {
		t.Errorf("Errors = %d, want 1 (the poisoned batch)", rep.Errors)
	}
	if rep.WorksCreated != 2 {
		t.Errorf("WorksCreated = %d, want 2", rep.WorksCreated)
	}
	// The poisoned batch also created the composer inside its transaction;
	// the rollback discards it and the cache reset forces a re-create for
	// the later batch.
	if rep.ComposersCreated != 2 {
		t.Errorf("ComposersCreated = %d, want 2", rep.ComposersCreated)
	}

	svc := catalog.NewService(db)
	if n, _ := svc.CountComposers(ctx); n != 2 {
		t.Errorf("composer count = %d, want 2", n)
	}
	zed, err := svc.GetComposerByNameAndBirthYear(ctx, "Zed, Amy", intp(1980))
	if err != nil || zed == nil {
		t.Fatalf("composer lookup: %v, %v", zed, err)
	}
	w, err := svc.GetWorkByTitleAndComposer(ctx, "Zeta", zed.ID)
	if err != nil || w == nil {
		t.Fatalf("work after failed batch: %v, %v", w, err)
	}
	if w.ComposerID != zed.ID {
		t.Errorf("work points at composer %d, want %d", w.ComposerID, zed.ID)
	}
}

func intp(n int) *int { return &n }
