// Package fsindex persists the vector index as a file pair in one directory:
// index.vec holds the raw vectors and index.db (bbolt) holds chunk texts
// and build metadata.
package fsindex

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.VectorIndex = (*Store)(nil)

const (
	vectorsFile = "index.vec"
	metaFile    = "index.db"
)

// Store owns the single index slot under dir.
// Rebuild swaps files under the write lock; Load reads under the read lock.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time

	// filesystem operations, replaceable in tests
	rename    func(oldpath, newpath string) error
	remove    func(path string) error
	removeAll func(path string) error

	mu sync.RWMutex
}

// New creates a Store rooted at dir. The directory is created on first Rebuild or Reset.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger:    logger,
		now:       time.Now,
		rename:    os.Rename,
		remove:    os.Remove,
		removeAll: os.RemoveAll,
	}
}

// Dir returns the index directory
func (s *Store) Dir() string {
	return s.dir
}

// Reset removes the index directory and everything in it, then recreates it empty.
// Backups left by earlier rebuilds are removed too. A directory that cannot be
// removed is renamed to <dir>.<unix>.bak; only failing to create the empty
// directory is an error.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removeAll(s.dir); err != nil {
		backup := s.backupPath(s.dir)
		if renameErr := s.rename(s.dir, backup); renameErr != nil {
			s.logger.Warn("could not remove or rename index dir",
				"dir", s.dir,
				"remove_error", err,
				"rename_error", renameErr)
		} else {
			s.logger.Warn("index dir renamed aside",
				"dir", s.dir,
				"backup", backup,
				"error", err)
		}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}
	return nil
}

// Exists reports whether both index files are present
func (s *Store) Exists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fileExists(s.path(vectorsFile)) && fileExists(s.path(metaFile))
}

// Rebuild writes entries to a staging directory and swaps them into place.
// If the swap fails midway the previous file pair is restored and an error is
// returned. Old files that cannot be removed after a successful swap are left
// behind as <file>.<unix>.bak.
func (s *Store) Rebuild(ctx context.Context, meta domain.IndexMetadata, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries to index", domain.ErrInvalidInput)
	}
	dim := len(entries[0].Vector)
	if dim == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	for i, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %d has %d dimensions, want %d", domain.ErrInvalidInput, i, len(e.Vector), dim)
		}
	}

	meta.Dimensions = dim
	meta.ChunkCount = len(entries)
	if meta.BuiltAt.IsZero() {
		meta.BuiltAt = s.now().UTC()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index dir: %w", err)
	}
	staging := filepath.Join(s.dir, ".staging-"+uuid.NewString())
	if err := os.Mkdir(staging, 0o755); err != nil {
		return fmt.Errorf("failed to create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	build := uuid.New()
	if err := writeVectors(filepath.Join(staging, vectorsFile), build, entries); err != nil {
		return err
	}
	if err := writeMeta(filepath.Join(staging, metaFile), build, meta, entries); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.swap(staging); err != nil {
		return err
	}

	s.logger.Debug("index rebuilt",
		"dir", s.dir,
		"chunks", meta.ChunkCount,
		"dimensions", meta.Dimensions,
		"model", meta.Model)
	return nil
}

type movedFile struct {
	path   string
	backup string
}

// swap moves the current file pair aside, moves the staged pair in and then
// drops the old pair. Callers hold the write lock.
func (s *Store) swap(staging string) error {
	names := []string{vectorsFile, metaFile}

	var moved []movedFile
	restore := func() {
		for i := len(moved) - 1; i >= 0; i-- {
			if err := s.rename(moved[i].backup, moved[i].path); err != nil {
				s.logger.Error("failed to restore previous index file",
					"path", moved[i].path,
					"backup", moved[i].backup,
					"error", err)
			}
		}
	}

	for _, name := range names {
		path := s.path(name)
		if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		backup := s.backupPath(path)
		if err := s.rename(path, backup); err != nil {
			restore()
			return fmt.Errorf("failed to move old %s aside: %w", name, err)
		}
		moved = append(moved, movedFile{path: path, backup: backup})
	}

	var placed []string
	for _, name := range names {
		if err := s.rename(filepath.Join(staging, name), s.path(name)); err != nil {
			for _, p := range placed {
				if removeErr := s.remove(p); removeErr != nil {
					s.logger.Error("failed to remove partially installed index file",
						"path", p,
						"error", removeErr)
				}
			}
			restore()
			return fmt.Errorf("failed to move %s into place: %w", name, err)
		}
		placed = append(placed, s.path(name))
	}

	for _, m := range moved {
		if err := s.remove(m.backup); err != nil {
			s.logger.Warn("old index file left behind",
				"path", m.path,
				"backup", m.backup,
				"error", err)
		}
	}
	return nil
}

// backupPath returns <path>.<unix>.bak, adding a counter if that name is taken.
func (s *Store) backupPath(path string) string {
	stamp := s.now().Unix()
	backup := fmt.Sprintf("%s.%d.bak", path, stamp)
	for i := 1; ; i++ {
		if _, err := os.Lstat(backup); errors.Is(err, fs.ErrNotExist) {
			return backup
		}
		backup = fmt.Sprintf("%s.%d-%d.bak", path, stamp, i)
	}
}

// Load reads the persisted index.
func (s *Store) Load(ctx context.Context) (driven.IndexSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vecPath, dbPath := s.path(vectorsFile), s.path(metaFile)
	hasVec, hasDB := fileExists(vecPath), fileExists(dbPath)
	switch {
	case !hasVec && !hasDB:
		return nil, domain.ErrNoIndex
	case !hasVec || !hasDB:
		return nil, fmt.Errorf("%w: incomplete file pair in %s", domain.ErrIndexCorrupt, s.dir)
	}

	vf, err := readVectors(vecPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	dim, vectors := vf.dim, vf.vectors
	build, meta, chunks, err := readMeta(dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	if build != vf.build {
		return nil, fmt.Errorf("%w: %s and %s come from different rebuilds", domain.ErrIndexCorrupt, vectorsFile, metaFile)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d chunks", domain.ErrIndexCorrupt, len(vectors), len(chunks))
	}
	if meta.Dimensions != 0 && meta.Dimensions != dim {
		return nil, fmt.Errorf("%w: metadata says %d dimensions, vectors have %d", domain.ErrIndexCorrupt, meta.Dimensions, dim)
	}

	return newSnapshot(meta, dim, vectors, chunks), nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
