package search

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// mappingVersion names the shape of buildIndexMapping. Bump it when the
// mapping changes and existing indexes are discarded on the next start.
const mappingVersion = "prompts-1"

const (
	indexDir    = "search.bleve"
	stagingDir  = "search.bleve.next"
	versionFile = "search.version"
	batchSize   = 500
)

// SearchIndex is the full-text index of published prompts.
// All methods are safe for concurrent use; Replace and Rebuild take the
// write lock only while swapping the underlying index.
type SearchIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	dir    string
	logger *slog.Logger
}

// Options configures the search index.
type Options struct {
	DataPath string
	Logger   *slog.Logger
}

// NewSearchIndex opens the index under opts.DataPath, creating it when
// absent. An index written with another mapping version, or one that
// fails to open, is discarded and recreated empty.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
		return nil, fmt.Errorf("create search directory: %w", err)
	}

	s := &SearchIndex{dir: opts.DataPath, logger: log}
	_ = os.RemoveAll(s.stagingPath())

	index, err := s.openCurrent()
	if err != nil {
		return nil, err
	}
	s.index = index
	return s, nil
}

func (s *SearchIndex) indexPath() string   { return filepath.Join(s.dir, indexDir) }
func (s *SearchIndex) stagingPath() string { return filepath.Join(s.dir, stagingDir) }
func (s *SearchIndex) versionPath() string { return filepath.Join(s.dir, versionFile) }

// openCurrent opens the on-disk index when its version matches, and
// otherwise starts a fresh one in its place.
func (s *SearchIndex) openCurrent() (bleve.Index, error) {
	path := s.indexPath()
	if _, err := os.Stat(path); err == nil {
		stored, readErr := os.ReadFile(s.versionPath())
		switch {
		case readErr != nil:
			s.logger.Info("search index has no version marker, recreating", "version", mappingVersion)
		case string(stored) != mappingVersion:
			s.logger.Info("search index mapping changed, recreating",
				"old_version", string(stored), "version", mappingVersion)
		default:
			index, openErr := bleve.Open(path)
			if openErr == nil {
				s.logger.Info("opened search index", "path", path)
				return index, nil
			}
			s.logger.Warn("search index unreadable, recreating", "path", path, "error", openErr)
		}
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove stale index: %w", err)
	}
	index, err := bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	s.markVersion()
	s.logger.Info("created search index", "path", path, "version", mappingVersion)
	return index, nil
}

func (s *SearchIndex) markVersion() {
	if err := os.WriteFile(s.versionPath(), []byte(mappingVersion), 0o644); err != nil {
		s.logger.Warn("write search version marker", "error", err)
	}
}

// Close releases the index.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexDocument adds doc or overwrites the entry with the same ID.
func (s *SearchIndex) IndexDocument(doc *PromptDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// IndexDocuments writes docs in batches.
func (s *SearchIndex) IndexDocuments(docs []*PromptDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return writeBatches(s.index, docs)
}

func writeBatches(index bleve.Index, docs []*PromptDocument) error {
	for start := 0; start < len(docs); start += batchSize {
		chunk := docs[start:min(start+batchSize, len(docs))]
		b := index.NewBatch()
		for _, doc := range chunk {
			if err := b.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch %s: %w", doc.ID, err)
			}
		}
		if err := index.Batch(b); err != nil {
			return fmt.Errorf("commit batch at %d: %w", start, err)
		}
	}
	return nil
}

// DeleteDocument drops id from the index. Unknown IDs are ignored.
func (s *SearchIndex) DeleteDocument(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount reports how many prompts are indexed.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild empties the index.
func (s *SearchIndex) Rebuild() error {
	return s.Replace(nil)
}

// Replace swaps in an index holding exactly docs. The replacement is built
// in a staging directory, so searches keep hitting the old contents until
// the swap.
func (s *SearchIndex) Replace(docs []*PromptDocument) error {
	staging := s.stagingPath()
	if err := os.RemoveAll(staging); err != nil {
		return fmt.Errorf("clear staging index: %w", err)
	}
	next, err := bleve.New(staging, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create staging index: %w", err)
	}
	if err := writeBatches(next, docs); err != nil {
		return errors.Join(err, next.Close(), os.RemoveAll(staging))
	}
	if err := next.Close(); err != nil {
		return fmt.Errorf("close staging index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	path := s.indexPath()
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	if err := os.Rename(staging, path); err != nil {
		return fmt.Errorf("promote staging index: %w", err)
	}
	index, err := bleve.Open(path)
	if err != nil {
		return fmt.Errorf("reopen index: %w", err)
	}
	s.index = index
	s.markVersion()
	s.logger.Info("replaced search index", "documents", len(docs))
	return nil
}
