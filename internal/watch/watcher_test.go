package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type recorder struct {
	mu    sync.Mutex
	calls []call
}

type call struct {
	reason Reason
	paths  []string
}

func (r *recorder) callback(_ context.Context, reason Reason, paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{reason: reason, paths: paths})
}

func (r *recorder) snapshot() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

func TestWatcherDebouncesChanges(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	rec := &recorder{}
	w, err := New([]string{dir, dir}, rec.callback,
		WithDebounce(100*time.Millisecond),
		WithExtensions(".sql", ".TXT"))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	sqlPath := filepath.Join(dir, "students.sql")
	depPath := filepath.Join(dir, "students.txt")
	require.NoError(t, os.WriteFile(sqlPath, []byte("CREATE TABLE s (id INT);"), 0o600))
	require.NoError(t, os.WriteFile(depPath, []byte("KEY: id"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignored"), 0o600))

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 1 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, w.Stop())

	calls := rec.snapshot()
	first := calls[0]
	require.Equal(t, ReasonChange, first.reason)
	require.Subset(t, []string{depPath, sqlPath}, first.paths)
	for _, c := range calls {
		for _, p := range c.paths {
			require.NotEqual(t, ".md", filepath.Ext(p))
		}
	}
}

func TestWatcherPolls(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	rec := &recorder{}
	w, err := New([]string{t.TempDir()}, rec.callback, WithPollInterval(50*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.Eventually(t, func() bool { return len(rec.snapshot()) >= 2 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, w.Stop())

	for _, c := range rec.snapshot() {
		require.Equal(t, ReasonPoll, c.reason)
		require.Empty(t, c.paths)
	}
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := New([]string{t.TempDir()}, func(context.Context, Reason, []string) {})
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Start(context.Background()))
	require.Error(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
}

func TestWatcherStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	w, err := New([]string{t.TempDir()}, rec.callback)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	require.NoError(t, w.Stop())
	require.Empty(t, rec.snapshot())
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, func(context.Context, Reason, []string) {})
	require.Error(t, err)

	_, err = New([]string{"."}, nil)
	require.Error(t, err)
}

func TestStartMissingDirectory(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, err := New([]string{filepath.Join(t.TempDir(), "absent")}, func(context.Context, Reason, []string) {})
	require.NoError(t, err)
	require.Error(t, w.Start(context.Background()))
}
