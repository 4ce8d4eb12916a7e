package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ProbeCache caches the results of fsnotify support probes for directories.
type ProbeCache struct {
	mu      sync.RWMutex
	results map[string]bool
}

// NewProbeCache creates an empty probe cache.
func NewProbeCache() *ProbeCache {
	return &ProbeCache{
		results: make(map[string]bool),
	}
}

// Get returns whether fsnotify is supported for the given directory.
// The second return value is false if the directory has not been probed.
func (pc *ProbeCache) Get(dir string) (supported bool, ok bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	supported, ok = pc.results[dir]
	return
}

// Set stores a probe result for the given directory.
func (pc *ProbeCache) Set(dir string, supported bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.results[dir] = supported
}

// ProbeFSNotify tests whether fsnotify delivers events for the given
// directory. It creates a temporary entry inside it, watches for the Create
// event, and returns true if the event arrives within the timeout. Network
// mounts commonly pass w.Add but never deliver events.
func ProbeFSNotify(dir string, timeout time.Duration) bool {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return false
	}
	defer w.Close() //nolint:errcheck

	if err := w.Add(dir); err != nil {
		return false
	}

	probeName := fmt.Sprintf(".plectrum_probe_%d", rand.Int63()) //nolint:gosec // G404: not security-sensitive
	probeDir := filepath.Join(dir, probeName)

	if err := os.Mkdir(probeDir, 0o750); err != nil {
		return false
	}
	defer os.Remove(probeDir) //nolint:errcheck

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Create) && filepath.Base(ev.Name) == probeName {
				return true
			}
		case <-w.Errors:
			return false
		case <-timer.C:
			return false
		}
	}
}

// ProbeAll probes every directory and populates the cache. Called
// synchronously at startup before the watcher loop starts.
func (pc *ProbeCache) ProbeAll(ctx context.Context, dirs []string, logger *slog.Logger) {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			pc.Set(dir, false)
			logger.Warn("directory not accessible for probe", slog.String("dir", dir))
			continue
		}

		supported := ProbeFSNotify(dir, 2*time.Second)
		pc.Set(dir, supported)
		logger.Info("fsnotify probe result",
			slog.String("dir", dir),
			slog.Bool("supported", supported))

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}
