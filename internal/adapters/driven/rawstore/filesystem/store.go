// Package filesystem stores raw OAI-PMH pages as write-once files under a
// root directory and reports new files through fsnotify.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/activemonkeys/geneax/internal/adapters/driven/rawstore"
	"github.com/activemonkeys/geneax/internal/core/domain"
	"github.com/activemonkeys/geneax/internal/core/ports/driven"
	"github.com/activemonkeys/geneax/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.BatchStore = (*Store)(nil)

// Store keeps batches at <root>/<source lower>/<set>/batch_<seq>.xml.
// BatchRef.Key is the absolute file path.
type Store struct {
	root string

	mu   sync.Mutex
	next map[string]int
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: raw directory is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving raw directory: %w", err)
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("creating raw directory: %w", err)
	}
	return &Store{root: root, next: make(map[string]int)}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string {
	return s.root
}

// Write stores data as the next batch of (source, set).
// The file appears under its final name only once fully written.
func (s *Store) Write(ctx context.Context, sourceCode, setSpec string, data []byte) (domain.BatchRef, error) {
	if err := rawstore.ValidatePair(sourceCode, setSpec); err != nil {
		return domain.BatchRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchRef{}, err
	}

	code := domain.NormaliseSourceCode(sourceCode)
	dir := s.dir(code, setSpec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0750); err != nil {
		return domain.BatchRef{}, fmt.Errorf("creating batch directory: %w", err)
	}
	seq, err := s.nextSequence(dir)
	if err != nil {
		return domain.BatchRef{}, err
	}

	final := filepath.Join(dir, rawstore.BatchName(seq))
	if _, err := os.Stat(final); err == nil {
		return domain.BatchRef{}, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, final)
	}

	tmp, err := os.CreateTemp(dir, ".batch-*.tmp")
	if err != nil {
		return domain.BatchRef{}, fmt.Errorf("creating temp batch: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return domain.BatchRef{}, fmt.Errorf("writing batch: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return domain.BatchRef{}, fmt.Errorf("closing batch: %w", err)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return domain.BatchRef{}, fmt.Errorf("finalising batch: %w", err)
	}

	s.next[dir] = seq + 1
	return domain.BatchRef{SourceCode: code, SetSpec: setSpec, Sequence: seq, Key: final}, nil
}

// nextSequence returns the sequence after the highest batch in dir.
// The directory is scanned once; later writes use the cached counter.
func (s *Store) nextSequence(dir string) (int, error) {
	if n, ok := s.next[dir]; ok {
		return n, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading batch directory: %w", err)
	}
	highest := 0
	for _, e := range entries {
		if seq, ok := rawstore.ParseBatchName(e.Name()); ok && seq > highest {
			highest = seq
		}
	}
	return highest + 1, nil
}

// List returns batches ordered by source, set and sequence.
func (s *Store) List(ctx context.Context, sourceCode, setSpec string) ([]domain.BatchRef, error) {
	code := domain.NormaliseSourceCode(sourceCode)
	var refs []domain.BatchRef

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return s.skipDir(path, code, setSpec)
		}
		ref, ok := s.refFor(path)
		if !ok {
			return nil
		}
		if code != "" && ref.SourceCode != code {
			return nil
		}
		if setSpec != "" && ref.SetSpec != setSpec {
			return nil
		}
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}

	sort.Slice(refs, func(i, j int) bool { return rawstore.Less(refs[i], refs[j]) })
	return refs, nil
}

// skipDir prunes directories that cannot hold matching batches.
func (s *Store) skipDir(path, code, setSpec string) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." {
		return nil
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) > 2:
		return filepath.SkipDir
	case strings.HasPrefix(parts[len(parts)-1], "."):
		return filepath.SkipDir
	case code != "" && domain.NormaliseSourceCode(parts[0]) != code:
		return filepath.SkipDir
	case len(parts) == 2 && setSpec != "" && parts[1] != setSpec:
		return filepath.SkipDir
	}
	return nil
}

// Read returns the content of a batch.
func (s *Store) Read(_ context.Context, ref domain.BatchRef) ([]byte, error) {
	path := ref.Key
	if path == "" {
		path = filepath.Join(s.dir(ref.SourceCode, ref.SetSpec), rawstore.BatchName(ref.Sequence))
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}
	return data, nil
}

// Resolve accepts a file path (absolute or relative to the working
// directory) or a key relative to the root.
func (s *Store) Resolve(_ context.Context, name string) (domain.BatchRef, error) {
	candidates := []string{name}
	if !filepath.IsAbs(name) {
		candidates = append(candidates, filepath.Join(s.root, name))
	}

	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		ref, ok := rawstore.ParseKey(filepath.ToSlash(abs))
		if !ok {
			return domain.BatchRef{}, fmt.Errorf("%w: %s is not a batch file", domain.ErrInvalidInput, name)
		}
		ref.Key = abs
		return ref, nil
	}
	return domain.BatchRef{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
}

// Watch reports batch files created under the root until ctx is done.
// Directories created later are watched as they appear.
func (s *Store) Watch(ctx context.Context) (<-chan domain.BatchRef, <-chan error, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &batchWatcher{
		store:   s,
		watcher: watcher,
		refs:    make(chan domain.BatchRef, 64),
		errs:    make(chan error, 8),
		seen:    make(map[string]bool),
	}
	if err := w.addTree(ctx, s.root, false); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	go w.run(ctx)
	return w.refs, w.errs, nil
}

func (s *Store) dir(sourceCode, setSpec string) string {
	return filepath.Join(s.root, strings.ToLower(sourceCode), setSpec)
}

// refFor builds a BatchRef for a batch file directly under a set directory.
func (s *Store) refFor(path string) (domain.BatchRef, bool) {
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return domain.BatchRef{}, false
	}
	if strings.Count(filepath.ToSlash(rel), "/") != 2 {
		return domain.BatchRef{}, false
	}
	ref, ok := rawstore.ParseKey(filepath.ToSlash(rel))
	if !ok {
		return domain.BatchRef{}, false
	}
	ref.Key = path
	return ref, true
}

// batchWatcher turns fsnotify events into BatchRefs.
type batchWatcher struct {
	store   *Store
	watcher *fsnotify.Watcher
	refs    chan domain.BatchRef
	errs    chan error
	seen    map[string]bool
}

func (w *batchWatcher) run(ctx context.Context) {
	defer close(w.errs)
	defer close(w.refs)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				logger.Warn("Dropped watch error: %v", err)
			}
		}
	}
}

// handleFsEvent reacts to creations only; batches are never rewritten.
// A renamed temp file arrives as a Create of its final name.
func (w *batchWatcher) handleFsEvent(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		// Files may land before the new directory is watched
		if err := w.addTree(ctx, event.Name, true); err != nil {
			logger.Warn("Cannot watch %s: %v", event.Name, err)
		}
		return
	}
	w.emitFile(ctx, event.Name)
}

// addTree watches dir and its subdirectories down to set level.
// With emitExisting set, batch files already present are reported.
func (w *batchWatcher) addTree(ctx context.Context, dir string, emitExisting bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if emitExisting {
				w.emitFile(ctx, path)
			}
			return nil
		}
		if skip := w.store.skipDir(path, "", ""); skip != nil {
			return skip
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func (w *batchWatcher) emitFile(ctx context.Context, path string) {
	ref, ok := w.store.refFor(path)
	if !ok || w.seen[path] {
		return
	}
	w.seen[path] = true
	select {
	case w.refs <- ref:
	case <-ctx.Done():
	}
}
