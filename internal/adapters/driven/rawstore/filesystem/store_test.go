package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/activemonkeys/geneax/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "raw"))
	require.NoError(t, err)
	return s
}

func TestNew_RequiresDir(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_WriteLayout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref, err := s.Write(ctx, "elo", "bs_geboorte", []byte("<page1/>"))
	require.NoError(t, err)
	assert.Equal(t, "ELO", ref.SourceCode)
	assert.Equal(t, "bs_geboorte", ref.SetSpec)
	assert.Equal(t, 1, ref.Sequence)
	assert.Equal(t, filepath.Join(s.Root(), "elo", "bs_geboorte", "batch_000001.xml"), ref.Key)

	ref2, err := s.Write(ctx, "ELO", "bs_geboorte", []byte("<page2/>"))
	require.NoError(t, err)
	assert.Equal(t, 2, ref2.Sequence)

	data, err := s.Read(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("<page1/>"), data)

	entries, err := os.ReadDir(filepath.Join(s.Root(), "elo", "bs_geboorte"))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files are left behind")
}

func TestStore_WriteContinuesExistingSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	dir := filepath.Join(s.Root(), "elo", "s")
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "batch_000007.xml"), []byte("old"), 0600))

	fresh, err := New(s.Root())
	require.NoError(t, err)
	ref, err := fresh.Write(ctx, "ELO", "s", []byte("new"))
	require.NoError(t, err)
	assert.Equal(t, 8, ref.Sequence)

	old, err := fresh.Read(ctx, domain.BatchRef{SourceCode: "ELO", SetSpec: "s", Sequence: 7})
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), old, "existing batches are never overwritten")
}

func TestStore_WriteRejectsBadSet(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Write(context.Background(), "ELO", "../escape", []byte("x"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, p := range []struct{ code, set string }{
		{"ELO", "dtb_doop"}, {"ELO", "bs_geboorte"}, {"ALK", "bs_huwelijk"}, {"ELO", "bs_geboorte"},
	} {
		_, err := s.Write(ctx, p.code, p.set, []byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(s.Root(), "elo", "bs_geboorte", "notes.txt"), []byte("x"), 0600))

	all, err := s.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "ALK", all[0].SourceCode)
	assert.Equal(t, "bs_geboorte", all[1].SetSpec)
	assert.Equal(t, 1, all[1].Sequence)
	assert.Equal(t, 2, all[2].Sequence)
	assert.Equal(t, "dtb_doop", all[3].SetSpec)

	elo, err := s.List(ctx, "elo", "")
	require.NoError(t, err)
	assert.Len(t, elo, 3)

	births, err := s.List(ctx, "ELO", "bs_geboorte")
	require.NoError(t, err)
	assert.Len(t, births, 2)

	none, err := s.List(ctx, "ZAR", "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Read_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Read(context.Background(), domain.BatchRef{SourceCode: "ELO", SetSpec: "s", Sequence: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Resolve(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	written, err := s.Write(ctx, "ELO", "bs_geboorte", []byte("<x/>"))
	require.NoError(t, err)

	byPath, err := s.Resolve(ctx, written.Key)
	require.NoError(t, err)
	assert.Equal(t, written, byPath)

	byKey, err := s.Resolve(ctx, "elo/bs_geboorte/batch_000001.xml")
	require.NoError(t, err)
	assert.Equal(t, written, byKey)

	_, err = s.Resolve(ctx, "elo/bs_geboorte/batch_000099.xml")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stray := filepath.Join(s.Root(), "stray.xml")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0600))
	_, err = s.Resolve(ctx, stray)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_Watch(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	refs, errs, err := s.Watch(ctx)
	require.NoError(t, err)
	require.NotNil(t, errs)

	// New source and set directories are picked up as they appear
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, _ = s.Write(context.Background(), "ELO", "bs_geboorte", []byte("<x/>"))
	}()

	select {
	case ref := <-refs:
		assert.Equal(t, "ELO", ref.SourceCode)
		assert.Equal(t, "bs_geboorte", ref.SetSpec)
		assert.Equal(t, 1, ref.Sequence)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for batch event")
	}

	_, err = s.Write(context.Background(), "ELO", "bs_geboorte", []byte("<y/>"))
	require.NoError(t, err)
	select {
	case ref := <-refs:
		assert.Equal(t, 2, ref.Sequence)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for second batch event")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-refs:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestHandleFsEvent(t *testing.T) {
	s := newTestStore(t)
	dir := filepath.Join(s.Root(), "elo", "s")
	require.NoError(t, os.MkdirAll(dir, 0750))
	batch := filepath.Join(dir, "batch_000001.xml")
	require.NoError(t, os.WriteFile(batch, []byte("x"), 0600))
	hidden := filepath.Join(dir, ".batch-123.tmp")
	require.NoError(t, os.WriteFile(hidden, []byte("x"), 0600))

	watcher, err := fsnotify.NewWatcher()
	require.NoError(t, err)
	defer watcher.Close()

	tests := []struct {
		name  string
		event fsnotify.Event
		emit  bool
	}{
		{"create batch", fsnotify.Event{Name: batch, Op: fsnotify.Create}, true},
		{"write is ignored", fsnotify.Event{Name: batch, Op: fsnotify.Write}, false},
		{"remove is ignored", fsnotify.Event{Name: batch, Op: fsnotify.Remove}, false},
		{"temp file is ignored", fsnotify.Event{Name: hidden, Op: fsnotify.Create}, false},
		{"vanished file is ignored", fsnotify.Event{Name: filepath.Join(dir, "batch_000002.xml"), Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &batchWatcher{
				store:   s,
				watcher: watcher,
				refs:    make(chan domain.BatchRef, 1),
				seen:    make(map[string]bool),
			}
			w.handleFsEvent(context.Background(), tt.event)
			if tt.emit {
				require.Len(t, w.refs, 1)
				ref := <-w.refs
				assert.Equal(t, batch, ref.Key)
			} else {
				assert.Empty(t, w.refs)
			}
		})
	}
}
