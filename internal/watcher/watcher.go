// Package watcher triggers imports when a source CSV file changes on disk.
// Directories that support fsnotify get inotify-style events; the rest fall
// back to mtime polling.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// fileState is one polling snapshot of a source file.
type fileState struct {
	exists  bool
	size    int64
	modTime time.Time
}

// Service watches the configured source files and runs importFn after a
// quiet period. Rapid successive changes (editors write several times,
// exports land file-by-file) coalesce into a single import.
type Service struct {
	importFn   func(ctx context.Context) error
	paths      []string
	logger     *slog.Logger
	debounce   time.Duration
	pollEvery  time.Duration
	probeCache *ProbeCache

	mu        sync.Mutex
	watched   map[string]bool      // watched parent directories
	files     map[string]bool      // absolute source file paths
	snapshots map[string]fileState // poll state per source file
}

// NewService creates a watcher over the given source file paths.
func NewService(importFn func(ctx context.Context) error, paths []string, debounce time.Duration, logger *slog.Logger) *Service {
	abs := make([]string, 0, len(paths))
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			a = p
		}
		abs = append(abs, a)
		files[a] = true
	}
	return &Service{
		importFn:   importFn,
		paths:      abs,
		logger:     logger.With(slog.String("component", "watcher")),
		debounce:   debounce,
		pollEvery:  30 * time.Second,
		probeCache: NewProbeCache(),
		watched:    make(map[string]bool),
		files:      files,
		snapshots:  make(map[string]fileState),
	}
}

// SetPollInterval overrides the poll interval (for testing).
func (s *Service) SetPollInterval(d time.Duration) {
	s.pollEvery = d
}

// Start blocks until ctx is canceled. Parent directories of the source files
// are probed for fsnotify support and watched where possible; files in
// unsupported or missing directories are covered by the poll ticker only.
func (s *Service) Start(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		s.logger.Warn("fsnotify unavailable, running poll-only", slog.Any("error", err))
		w = nil
	} else {
		defer w.Close() //nolint:errcheck
		s.addWatches(ctx, w)
	}

	s.initSnapshots()
	s.logger.Info("source watcher starting",
		slog.Int("files", len(s.paths)),
		slog.Duration("debounce", s.debounce))

	pollTicker := time.NewTicker(s.pollEvery)
	defer pollTicker.Stop()

	// Debounce timer for coalescing change events into a single import.
	// Starts stopped; reset on each relevant event.
	debounceTimer := time.NewTimer(0)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	importPending := false

	var eventCh <-chan fsnotify.Event
	var errCh <-chan error
	if w != nil {
		eventCh = w.Events
		errCh = w.Errors
	}

	arm := func() {
		if !debounceTimer.Stop() {
			select {
			case <-debounceTimer.C:
			default:
			}
		}
		debounceTimer.Reset(s.debounce)
		importPending = true
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("source watcher stopping")
			return

		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			if s.relevant(ev) {
				s.logger.Debug("source file event",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
				arm()
			}

		case err, ok := <-errCh:
			if !ok {
				return
			}
			s.logger.Error("fsnotify error", slog.Any("error", err))

		case <-pollTicker.C:
			if s.pollFiles() {
				arm()
			}

		case <-debounceTimer.C:
			if !importPending {
				continue
			}
			importPending = false
			s.logger.Info("source change detected, importing")
			if err := s.importFn(ctx); err != nil {
				s.logger.Error("import triggered by watcher failed", slog.Any("error", err))
			}
			// Refresh snapshots so the next poll tick does not re-trigger
			// on the change that was just imported.
			s.initSnapshots()
		}
	}
}

// addWatches probes and watches the parent directory of every source file.
func (s *Service) addWatches(ctx context.Context, w *fsnotify.Watcher) {
	dirs := make(map[string]bool, len(s.paths))
	for _, p := range s.paths {
		dirs[filepath.Dir(p)] = true
	}

	s.probeCache.ProbeAll(ctx, keys(dirs), s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	for dir := range dirs {
		if supported, ok := s.probeCache.Get(dir); !ok || !supported {
			s.logger.Info("directory not watchable, polling only", slog.String("dir", dir))
			continue
		}
		if err := w.Add(dir); err != nil {
			s.logger.Warn("failed to watch directory",
				slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		s.watched[dir] = true
		s.logger.Info("watching directory", slog.String("dir", dir))
	}
}

// relevant reports whether an fsnotify event concerns one of the source
// files. Remove and rename count: exports often replace the file.
func (s *Service) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
		return false
	}
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		name = ev.Name
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[name]
}

// initSnapshots records the current state of every source file.
func (s *Service) initSnapshots() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		s.snapshots[p] = statFile(p)
	}
}

// pollFiles compares each source file against its snapshot, updating the
// snapshot as it goes. Returns true when any file changed.
func (s *Service) pollFiles() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, p := range s.paths {
		cur := statFile(p)
		prev := s.snapshots[p]
		if cur != prev {
			s.logger.Debug("poll detected change", slog.String("path", p))
			s.snapshots[p] = cur
			changed = true
		}
	}
	return changed
}

func statFile(path string) fileState {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}
	}
	return fileState{exists: true, size: info.Size(), modTime: info.ModTime()}
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
