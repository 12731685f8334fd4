package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFileStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "tmp")
	store, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}

	ref, err := store.Save(t.Context(), "openai_raw", "not json at all")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if filepath.Dir(ref) != dir {
		t.Errorf("ref = %q, want file under %q", ref, dir)
	}
	base := filepath.Base(ref)
	if !strings.HasPrefix(base, "openai_raw_") || !strings.HasSuffix(base, ".txt") {
		t.Errorf("file name = %q, want openai_raw_<ts>.txt", base)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "not json at all" {
		t.Errorf("content = %q", data)
	}
}

func TestFileStore_DistinctNames(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	ts := time.Unix(1700000000, 0)
	store.now = func() time.Time {
		ts = ts.Add(time.Nanosecond)
		return ts
	}

	first, err := store.Save(t.Context(), "openai_raw", "a")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	second, err := store.Save(t.Context(), "openai_raw", "b")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if first == second {
		t.Errorf("two saves returned the same ref %q", first)
	}
}

func TestFileStore_CollisionFails(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	fixed := time.Unix(1700000000, 0)
	store.now = func() time.Time { return fixed }

	if _, err := store.Save(t.Context(), "openai_raw", "a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := store.Save(t.Context(), "openai_raw", "b"); err == nil {
		t.Fatal("Save() should not overwrite an existing artifact")
	}
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Fatal("NewFileStore() should reject an empty directory")
	}
}

func TestNewGCSStore_Validation(t *testing.T) {
	if _, err := NewGCSStore(nil, "bucket", ""); err == nil {
		t.Error("NewGCSStore() should reject a nil client")
	}
}

func TestGCSStore_ObjectName(t *testing.T) {
	fixed := time.Unix(0, 42)
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "openai_raw_42.txt"},
		{"raw", "raw/openai_raw_42.txt"},
	}
	for _, tt := range tests {
		s := &GCSStore{bucket: "b", objectPrefix: tt.prefix, now: func() time.Time { return fixed }}
		if got := s.objectName("openai_raw"); got != tt.want {
			t.Errorf("objectName() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
