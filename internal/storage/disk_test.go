package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/hansardclean/internal/models"
)

func TestDirUsage(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.txt"), []byte("abc"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DirUsage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got.Files != 2 || got.Bytes != 8 {
		t.Errorf("DirUsage = %+v, want 2 files / 8 bytes", got)
	}
}

func TestDirUsage_missingOrEmpty(t *testing.T) {
	for _, dir := range []string{"", filepath.Join(t.TempDir(), "nonexistent")} {
		got, err := DirUsage(dir)
		if err != nil {
			t.Fatalf("DirUsage(%q): %v", dir, err)
		}
		if got != (models.Usage{}) {
			t.Errorf("DirUsage(%q) = %+v, want zero", dir, got)
		}
	}
}
