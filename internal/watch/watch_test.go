package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
}

func TestWatcher_DebouncedRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	writeFile(t, path, "int main() { return 0; }\n")

	runs := make(chan string, 10)
	w, err := New(path, func(ctx context.Context, p string) { runs <- p }, 50*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := range 3 {
		writeFile(t, path, "int main() { return "+string(rune('0'+i))+"; }\n")
	}

	select {
	case p := <-runs:
		abs, _ := filepath.Abs(path)
		require.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("handler not called")
	}

	select {
	case <-runs:
		t.Fatal("burst of writes ran the handler twice")
	case <-time.After(300 * time.Millisecond):
	}

	stats := w.Stats()
	require.Equal(t, 1, stats.Runs)
	require.GreaterOrEqual(t, stats.Events, 1)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	writeFile(t, path, "")

	runs := make(chan string, 10)
	w, err := New(path, func(ctx context.Context, p string) { runs <- p }, 20*time.Millisecond, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	writeFile(t, filepath.Join(dir, "other.c"), "x")

	select {
	case <-runs:
		t.Fatal("handler called for another file")
	case <-time.After(200 * time.Millisecond):
	}
	require.Zero(t, w.Stats().Events)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.c")
	writeFile(t, path, "")

	w, err := New(path, func(context.Context, string) {}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcher_ContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.c")
	writeFile(t, path, "")

	ctx, cancel := context.WithCancel(context.Background())
	w, err := New(path, func(context.Context, string) {}, 0, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	cancel()
	w.Stop()
}

func TestWatcher_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "prog.c")

	w, err := New(path, func(context.Context, string) {}, 0, nil)
	require.NoError(t, err)
	require.ErrorContains(t, w.Start(context.Background()), "watch ")
	w.Stop()
}
