package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{OpChmod, "CHMOD"},
		{OpCreate | OpWrite, "UNKNOWN"},
	}
	for _, tc := range tests {
		if got := tc.op.String(); got != tc.want {
			t.Errorf("Op(%d).String() = %q, want %q", tc.op, got, tc.want)
		}
	}

	op := OpCreate | OpWrite
	if !op.Has(OpWrite) || op.Has(OpRemove) {
		t.Error("Has() wrong for combined op")
	}
}

func TestAddRemove(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")

	if err := w.Add(a); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := w.Add(a); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("second Add = %v, want ErrAlreadyWatching", err)
	}
	if err := w.Add(b); err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	if !w.IsWatching(a) || len(w.Files()) != 2 {
		t.Errorf("Files() = %v", w.Files())
	}

	if err := w.Remove(a); err != nil {
		t.Fatalf("Remove(a): %v", err)
	}
	if err := w.Remove(a); !errors.Is(err, ErrNotWatching) {
		t.Errorf("second Remove = %v, want ErrNotWatching", err)
	}
	if w.IsWatching(a) || !w.IsWatching(b) {
		t.Error("wrong files after Remove")
	}

	if err := w.Add(filepath.Join(dir, "missing", "c.md")); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestWriteEvent(t *testing.T) {
	w := newTestWatcher(t, WithDebounce(50*time.Millisecond))
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	// Unwatched siblings are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte{byte('b' + i)}, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	ev := waitEvent(t, w)
	abs, _ := filepath.Abs(path)
	if ev.Path != abs {
		t.Errorf("event path = %q, want %q", ev.Path, abs)
	}
	if !ev.Op.Has(OpWrite) {
		t.Errorf("event op = %v, want write", ev.Op)
	}

	select {
	case extra := <-w.Events():
		t.Errorf("writes were not coalesced, got extra %v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFlush(t *testing.T) {
	w := newTestWatcher(t, WithDebounce(time.Hour))
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for w.Stats().PendingEvents == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Flush()

	ev := waitEvent(t, w)
	if !ev.Op.Has(OpCreate) {
		t.Errorf("event op = %v, want create", ev.Op)
	}
	if w.Stats().TotalEvents != 1 {
		t.Errorf("TotalEvents = %d", w.Stats().TotalEvents)
	}
}

func TestClose(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel still open")
	}
	if err := w.Add("x.md"); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Add after Close = %v, want ErrWatcherClosed", err)
	}
}
