package notes

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/recallhq/recall/internal/domain"
)

const (
	categoryPrefix = "category:"
	tagsPrefix     = "tags:"
)

// LoadDir walks a directory of markdown notes and builds a catalog.
// The note ID is the file's path relative to dir, without the .md suffix.
func LoadDir(dir string) (*Memory, error) {
	var loaded []domain.NoteMeta

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		meta, parseErr := parseFile(path)
		if parseErr != nil {
			return fmt.Errorf("parsing %s: %w", path, parseErr)
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return relErr
		}
		meta.ID = noteID(rel)
		if meta.Title == "" {
			meta.Title = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		}
		loaded = append(loaded, meta)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load notes from %s: %w", dir, err)
	}
	return NewMemory(loaded...), nil
}

// noteID normalizes a relative path into a stable, slash-separated ID.
func noteID(rel string) string {
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

func parseFile(path string) (domain.NoteMeta, error) {
	file, err := os.Open(path)
	if err != nil {
		return domain.NoteMeta{}, err
	}
	defer file.Close()

	return parse(file)
}

// parse extracts a note's metadata from markdown. The first `# ` heading
// becomes the title; `category:` and `tags:` lines in the header region are
// metadata; everything after the header is content.
func parse(r io.Reader) (domain.NoteMeta, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var meta domain.NoteMeta
	var body []string
	inHeader := true

	for scanner.Scan() {
		line := scanner.Text()

		if inHeader {
			trimmed := strings.TrimSpace(line)
			switch {
			case trimmed == "":
				continue
			case meta.Title == "" && strings.HasPrefix(trimmed, "# "):
				meta.Title = strings.TrimSpace(trimmed[2:])
				continue
			case strings.HasPrefix(trimmed, categoryPrefix):
				meta.Category = strings.TrimSpace(trimmed[len(categoryPrefix):])
				continue
			case strings.HasPrefix(trimmed, tagsPrefix):
				for _, tag := range strings.Split(trimmed[len(tagsPrefix):], ",") {
					if t := strings.TrimSpace(tag); t != "" {
						meta.Tags = append(meta.Tags, t)
					}
				}
				continue
			}
			inHeader = false
		}
		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return domain.NoteMeta{}, err
	}

	meta.Content = strings.TrimSpace(strings.Join(body, "\n"))
	return meta, nil
}
