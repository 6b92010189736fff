package app

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"czar/internal/core/errors"
	"czar/internal/engine/imports"
)

// Discover expands paths into .cz inputs. Files are taken as given;
// directories are walked with the exclude rules applied.
func (a *App) Discover(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.AtPath(err, errors.CodeNotFound, "input not found", root)
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}

		var found []string
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			base := filepath.Base(path)
			if d.IsDir() {
				if path != root && a.excludedDir(base) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(base, imports.SourceExt) || a.excludedFile(base) {
				return nil
			}
			found = append(found, path)
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeIO, "walk "+root)
		}
		sort.Strings(found)
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}

func (a *App) excludedDir(base string) bool {
	for _, g := range a.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (a *App) excludedFile(base string) bool {
	for _, g := range a.excludeFiles {
		if g.Match(base) {
			return true
		}
	}
	return false
}
