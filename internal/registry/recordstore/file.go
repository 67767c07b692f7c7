package recordstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/appstore-dev/appstore/internal/registry/records"
)

// fixtureFile is the on-disk layout read by FileStore. JSON is valid YAML, so
// both formats are accepted.
type fixtureFile struct {
	Records []*records.Record `yaml:"records"`
}

// FileStore serves records from a local YAML or JSON fixture. It is used for
// offline development and demos; predicates are evaluated in memory.
type FileStore struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	records []*records.Record
}

// NewFileStore loads path and returns a store serving its records.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &FileStore{path: path, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the fixture file. On error the previously loaded records are kept.
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read records file %s: %w", s.path, err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse records file %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.records = f.Records
	s.mu.Unlock()

	s.logger.Info("loaded records file", zap.String("path", s.path), zap.Int("records", len(f.Records)))
	return nil
}

// Watch reloads the fixture whenever it changes until ctx is done.
func (s *FileStore) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.path, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(s.path)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target || !ev.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				if err := s.Reload(); err != nil {
					s.logger.Warn("failed to reload records file", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("records file watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

// QueryRecords returns every record matching all predicates.
func (s *FileStore) QueryRecords(ctx context.Context, predicates []records.Predicate) ([]*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryError("queryRecords", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*records.Record
	for _, r := range s.records {
		if records.MatchesAll(r, predicates) {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetRecordsByIDs returns the records with the given IDs in request order.
func (s *FileStore) GetRecordsByIDs(ctx context.Context, ids []string) ([]*records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, queryError("getRecordsByIds", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := make(map[string]*records.Record, len(s.records))
	for _, r := range s.records {
		byID[r.ID] = r
	}
	var out []*records.Record
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Ping reports whether the fixture file is still readable.
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return queryError("ping", err)
	}
	if _, err := os.Stat(s.path); err != nil {
		return queryError("ping", err)
	}
	return nil
}
