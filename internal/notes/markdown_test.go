package notes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `# React Hooks Deep Dive
category: Development
tags: react, hooks, frontend

Hooks let function components hold state.

Rules of hooks: only call at the top level.`

	meta, err := parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if meta.Title != "React Hooks Deep Dive" {
		t.Errorf("Title = %q, want %q", meta.Title, "React Hooks Deep Dive")
	}
	if meta.Category != "Development" {
		t.Errorf("Category = %q, want Development", meta.Category)
	}
	if len(meta.Tags) != 3 || meta.Tags[0] != "react" || meta.Tags[2] != "frontend" {
		t.Errorf("Tags = %v, want [react hooks frontend]", meta.Tags)
	}
	if !strings.HasPrefix(meta.Content, "Hooks let function components") {
		t.Errorf("Content starts with %q", meta.Content)
	}
	if strings.Contains(meta.Content, "category:") {
		t.Error("metadata lines leaked into content")
	}
}

func TestParseNoHeader(t *testing.T) {
	meta, err := parse(strings.NewReader("just some body text\nsecond line"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Title != "" {
		t.Errorf("Title = %q, want empty", meta.Title)
	}
	if meta.Content != "just some body text\nsecond line" {
		t.Errorf("Content = %q", meta.Content)
	}
}

func TestParseHeadingMidBodyIsContent(t *testing.T) {
	input := `# Real Title

intro text

# Not A Second Title
more text`

	meta, err := parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if meta.Title != "Real Title" {
		t.Errorf("Title = %q, want Real Title", meta.Title)
	}
	if !strings.Contains(meta.Content, "# Not A Second Title") {
		t.Error("mid-body heading should remain in content")
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()

	write := func(rel, content string) {
		t.Helper()
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("go/channels.md", "# Go Channels\ncategory: Development\n\nBuffered vs unbuffered.")
	write("sql/indexes.md", "# SQL Indexes\ncategory: Backend\n\nB-trees.")
	write("untitled.md", "no heading here")
	write("ignore.txt", "not markdown")

	catalog, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if catalog.Len() != 3 {
		t.Fatalf("Len = %d, want 3", catalog.Len())
	}

	meta, ok := catalog.Get("go/channels")
	if !ok {
		t.Fatal("go/channels not found; IDs should be slash-separated relative paths")
	}
	if meta.Title != "Go Channels" || meta.Category != "Development" {
		t.Errorf("meta = %+v", meta)
	}

	// A note without a heading falls back to its filename.
	meta, ok = catalog.Get("untitled")
	if !ok {
		t.Fatal("untitled not found")
	}
	if meta.Title != "untitled" {
		t.Errorf("fallback Title = %q, want untitled", meta.Title)
	}

	if _, ok := catalog.Get("ignore"); ok {
		t.Error("non-markdown file was loaded")
	}
}

func TestMemoryAllOrdered(t *testing.T) {
	catalog, err := LoadDir(t.TempDir())
	if err != nil {
		t.Fatalf("LoadDir on empty dir: %v", err)
	}
	if catalog.Len() != 0 {
		t.Errorf("Len = %d, want 0", catalog.Len())
	}

	all := catalog.All()
	if len(all) != 0 {
		t.Errorf("All() = %v, want empty", all)
	}
}
