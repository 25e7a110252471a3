package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, debounce time.Duration, excludeDirs, excludeFiles []string) (*Watcher, chan []string) {
	t.Helper()
	changed := make(chan []string, 16)
	w, err := NewWatcher(debounce, excludeDirs, excludeFiles, func(paths []string) {
		changed <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, changed
}

func waitFor(t *testing.T, changed <-chan []string, want string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for change to %s", want)
		}
	}
}

func expectQuiet(t *testing.T, changed <-chan []string, unwanted string) {
	t.Helper()
	select {
	case paths := <-changed:
		for _, p := range paths {
			if p == unwanted {
				t.Errorf("unexpected change event for %s", unwanted)
			}
		}
	case <-time.After(400 * time.Millisecond):
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil, nil)
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(time.Millisecond, []string{"[unclosed"}, nil, func([]string) {}); err == nil {
		t.Fatal("expected glob compile error")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, 100*time.Millisecond, []string{"exclude_dir"}, []string{"*.draft.uml"})
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	model := filepath.Join(tmpDir, "model.uml")
	if err := os.WriteFile(model, []byte("class A"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, model)

	draft := filepath.Join(tmpDir, "wip.draft.uml")
	if err := os.WriteFile(draft, []byte("class B"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, draft)

	notes := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(notes, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, notes)

	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(subdir, "nested.uml")
	if err := os.WriteFile(nested, []byte("class Nested"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, nested)
}

func TestWatcher_ExcludedDirectoryIsNotWatched(t *testing.T) {
	tmpDir := t.TempDir()
	excluded := filepath.Join(tmpDir, "exclude_dir")
	if err := os.MkdirAll(excluded, 0o755); err != nil {
		t.Fatal(err)
	}

	w, changed := newTestWatcher(t, 50*time.Millisecond, []string{"exclude_dir"}, nil)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	hidden := filepath.Join(excluded, "hidden.uml")
	if err := os.WriteFile(hidden, []byte("class Hidden"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, hidden)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, 100*time.Millisecond, nil, nil)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "old.uml")
	newPath := filepath.Join(tmpDir, "new.uml")
	if err := os.WriteFile(oldPath, []byte("class Old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_SetExtensions(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, 50*time.Millisecond, nil, nil)
	w.SetExtensions([]string{"CLS", " .diagram "})
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	uml := filepath.Join(tmpDir, "ignored.uml")
	if err := os.WriteFile(uml, []byte("class A"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, uml)

	cls := filepath.Join(tmpDir, "Model.cls")
	if err := os.WriteFile(cls, []byte("class A"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, cls)

	diagram := filepath.Join(tmpDir, "view.diagram")
	if err := os.WriteFile(diagram, []byte("class B"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, diagram)
}

func TestWatcher_IgnorePaths(t *testing.T) {
	tmpDir := t.TempDir()
	out := filepath.Join(tmpDir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}

	w, changed := newTestWatcher(t, 50*time.Millisecond, nil, nil)
	w.SetExtensions([]string{".uml", ".mmd"})
	w.IgnorePaths(out)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	generated := filepath.Join(out, "model.mmd")
	if err := os.WriteFile(generated, []byte("classDiagram"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, changed, generated)

	source := filepath.Join(tmpDir, "model.uml")
	if err := os.WriteFile(source, []byte("class A"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changed, source)
}

func TestWatcher_BatchesAreSorted(t *testing.T) {
	tmpDir := t.TempDir()
	w, changed := newTestWatcher(t, 200*time.Millisecond, nil, nil)
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	b := filepath.Join(tmpDir, "b.uml")
	a := filepath.Join(tmpDir, "a.uml")
	if err := os.WriteFile(b, []byte("class B"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(a, []byte("class A"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changed:
		if len(paths) != 2 || paths[0] != a || paths[1] != b {
			t.Fatalf("expected sorted batch [%s %s], got %v", a, b, paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for batch")
	}
}
