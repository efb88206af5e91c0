// Package cache implements the AnalysisReport cache (§5, §9): a content-
// addressed mapping keyed by (track id, analyzer version), the only
// process-wide shared mutable state in the engine.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/obslog"
)

// Store is a directory-backed AnalysisReport cache. Concurrent readers are
// safe; writers use single-writer-per-key discipline, so concurrent Puts
// for the same key are serialized. The store does not coordinate the
// analyses themselves: two callers that both miss on Get may each analyze
// the same track before writing.
type Store struct {
	dir string

	keyMu   sync.Mutex
	keyLock map[string]*sync.Mutex

	lastUsedMu sync.Mutex
	lastUsed   map[string]time.Time

	watcher  *fsnotify.Watcher
	watchErr chan error
}

// Open initializes a cache store rooted at dir, creating it if absent,
// and starts an fsnotify watch so a long-lived process notices files
// pruned out of band (e.g. by an operator or a separate cache-flush run).
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: mkdir %s: %w", dir, err)
	}
	s := &Store{
		dir:     dir,
		keyLock: make(map[string]*sync.Mutex),
		lastUsed: make(map[string]time.Time),
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		// A watcher is a nice-to-have invalidation signal, not a
		// correctness requirement: the store still works without one.
		obslog.Warnf(obslog.StageCacheHit, "fsnotify unavailable, falling back to unwatched cache: %v", err)
		return s, nil
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		obslog.Warnf(obslog.StageCacheHit, "fsnotify watch on %s failed: %v", dir, err)
		return s, nil
	}
	s.watcher = w
	s.watchErr = make(chan error, 1)
	go s.watchLoop()
	return s, nil
}

func (s *Store) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				id := idFromPath(event.Name)
				s.lastUsedMu.Lock()
				delete(s.lastUsed, id)
				s.lastUsedMu.Unlock()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			obslog.Warnf(obslog.StageCacheHit, "fsnotify error: %v", err)
		}
	}
}

func idFromPath(path string) string {
	base := filepath.Base(path)
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '-' {
			return base[:i]
		}
	}
	return base
}

// Close stops the directory watcher, if one was started.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

func (s *Store) path(id, analyzerVersion string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-%s.json", id, analyzerVersion))
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()
	l, ok := s.keyLock[key]
	if !ok {
		l = &sync.Mutex{}
		s.keyLock[key] = l
	}
	return l
}

// Get returns the cached report for (id, analyzerVersion), if present.
func (s *Store) Get(id, analyzerVersion string) (analysis.AnalysisReport, bool) {
	data, err := os.ReadFile(s.path(id, analyzerVersion))
	if err != nil {
		return analysis.AnalysisReport{}, false
	}
	var report analysis.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return analysis.AnalysisReport{}, false
	}
	s.touch(id)
	return report, true
}

// Put stores a report for (id, analyzerVersion), writing via a uuid-named
// staging file and an atomic rename so concurrent readers never observe a
// partially written cache entry. Only one writer per key proceeds at a
// time; a second concurrent Put for the same key blocks until the first
// completes, then simply overwrites (the two writes are for the same
// deterministic analysis, so the result is identical either way).
func (s *Store) Put(id, analyzerVersion string, report analysis.AnalysisReport) error {
	key := id + "-" + analyzerVersion
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", key, err)
	}
	staging := filepath.Join(s.dir, fmt.Sprintf(".staging-%s-%s", key, uuid.NewString()))
	if err := os.WriteFile(staging, data, 0o644); err != nil {
		return fmt.Errorf("cache: write staging file for %s: %w", key, err)
	}
	if err := os.Rename(staging, s.path(id, analyzerVersion)); err != nil {
		os.Remove(staging)
		return fmt.Errorf("cache: rename into place for %s: %w", key, err)
	}
	s.touch(id)
	return nil
}

func (s *Store) touch(id string) {
	s.lastUsedMu.Lock()
	defer s.lastUsedMu.Unlock()
	s.lastUsed[id] = time.Now()
}

// LastUsed reports when a track's analysis was last read or written, if
// ever observed by this store instance. Callers can use this to build a
// recent-history set for the selection scorer's recently-used penalty
// instead of tracking it out-of-band.
func (s *Store) LastUsed(id string) (time.Time, bool) {
	s.lastUsedMu.Lock()
	defer s.lastUsedMu.Unlock()
	t, ok := s.lastUsed[id]
	return t, ok
}

// Flush removes every cached entry under the store's directory, matching
// the explicit teardown-with-flush lifecycle called for in the design
// notes.
func (s *Store) Flush() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("cache: read dir %s: %w", s.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return fmt.Errorf("cache: remove %s: %w", e.Name(), err)
		}
	}
	s.lastUsedMu.Lock()
	s.lastUsed = make(map[string]time.Time)
	s.lastUsedMu.Unlock()
	return nil
}
