package contextcollector

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestBasicCollectorListsVisibleFiles(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"b.txt", "a.jpg", ".hidden"} {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte("test"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmp, "clips"), 0o755); err != nil {
		t.Fatal(err)
	}

	snapshot, err := NewBasicCollector(tmp, 10).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}

	want := []string{"a.jpg", "b.txt", "clips/"}
	if len(snapshot.Files) != len(want) {
		t.Fatalf("got files %v, want %v", snapshot.Files, want)
	}
	for i := range want {
		if snapshot.Files[i] != want[i] {
			t.Errorf("file %d: got %q, want %q", i, snapshot.Files[i], want[i])
		}
	}
	if snapshot.Truncated {
		t.Error("did not expect truncation")
	}
	if snapshot.WorkingDir != tmp {
		t.Errorf("got working dir %q", snapshot.WorkingDir)
	}
}

func TestBasicCollectorTruncates(t *testing.T) {
	tmp := t.TempDir()
	for _, name := range []string{"1", "2", "3"} {
		if err := os.WriteFile(filepath.Join(tmp, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	snapshot, err := NewBasicCollector(tmp, 2).Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect error: %v", err)
	}
	if len(snapshot.Files) != 2 || !snapshot.Truncated {
		t.Fatalf("expected 2 files and truncation, got %+v", snapshot)
	}
	if got := snapshot.Summary(); got != "1, 2, ..." {
		t.Errorf("summary: %q", got)
	}
}

func TestBasicCollectorMissingDir(t *testing.T) {
	if _, err := NewBasicCollector(filepath.Join(t.TempDir(), "gone"), 5).Collect(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
