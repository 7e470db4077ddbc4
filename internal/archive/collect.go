package archive

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry is one picked file with its archive-relative path.
type Entry struct {
	RelPath string
	AbsPath string
	Size    int64
}

// Selection is the full picked file set for one backup run. A new selection
// wholly replaces any prior one; there is no merging.
type Selection struct {
	FolderName string
	Entries    []Entry
	TotalBytes int64
}

// Collect walks root and gathers every regular file in lexical order,
// carrying forward-slash relative paths. Exclude patterns are doublestar
// globs matched against the relative path.
func Collect(root string, excludes []string) (*Selection, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	sel := &Selection{FolderName: filepath.Base(abs)}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range excludes {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				return nil
			}
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		sel.Entries = append(sel.Entries, Entry{
			RelPath: rel,
			AbsPath: path,
			Size:    info.Size(),
		})
		sel.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return sel, nil
}
