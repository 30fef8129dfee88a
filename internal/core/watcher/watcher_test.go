package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func waitFor(t *testing.T, changed <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-changed:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change event on %s", want)
		}
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(tmpDir, "vendor"), 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(100*time.Millisecond, []string{"vendor"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "Foo.php")
	if err := os.WriteFile(testFile, []byte("<?php\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	// Non-PHP files and excluded directories stay quiet.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(tmpDir, "vendor", "Lib.php"), []byte("<?php\n"), 0o644)

	select {
	case paths := <-changedFiles:
		t.Errorf("unexpected change event %v", paths)
	case <-time.After(500 * time.Millisecond):
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "src")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.php")
	if err := os.WriteFile(subFile, []byte("<?php\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, subFile, 2*time.Second)
}

func TestWatcher_DebounceCoalesces(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(200*time.Millisecond, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	target := filepath.Join(tmpDir, "Foo.php")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(target, []byte("<?php\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case paths := <-changedFiles:
		if len(paths) != 1 || paths[0] != target {
			t.Fatalf("expected a single coalesced path, got %v", paths)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for debounced change")
	}
}

func TestIsPHPFile(t *testing.T) {
	cases := map[string]bool{
		"src/Foo.php":   true,
		"src/Foo.PHP":   true,
		"src/Foo.phtml": false,
		"README.md":     false,
	}
	for path, want := range cases {
		if got := isPHPFile(path); got != want {
			t.Errorf("isPHPFile(%q) = %v, want %v", path, got, want)
		}
	}
}
