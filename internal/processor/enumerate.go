package processor

import (
	"io/fs"
	"os"
	"path/filepath"

	"avifgun/internal/scheduler"
)

// Enumerate lists the work items under dir in lexical order. Without deep,
// every direct child is an item, subfolders included, so they are counted
// and reported as skipped. With deep, regular files in subfolders are
// added and folders themselves are not items. skip, when inside dir, is
// never descended into.
func Enumerate(dir string, deep bool, skip string) ([]scheduler.Item, error) {
	if !deep {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, &FilesystemError{Op: "read dir", Path: dir, Err: err}
		}
		items := make([]scheduler.Item, 0, len(entries))
		for _, e := range entries {
			full := filepath.Join(dir, e.Name())
			if skip != "" && filepath.Clean(full) == filepath.Clean(skip) {
				continue
			}
			items = append(items, scheduler.Item{
				Index:   len(items),
				Path:    full,
				RelPath: e.Name(),
				Entry:   e,
			})
		}
		return items, nil
	}

	var items []scheduler.Item
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && skip != "" && isWithin(path, skip) {
				return fs.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		items = append(items, scheduler.Item{
			Index:   len(items),
			Path:    path,
			RelPath: rel,
			Entry:   d,
		})
		return nil
	})
	if err != nil {
		return nil, &FilesystemError{Op: "walk", Path: dir, Err: err}
	}
	return items, nil
}

// ensureOutputDir creates dir, tolerating an existing folder.
func ensureOutputDir(dir string) (existed bool, err error) {
	err = os.Mkdir(dir, 0o755)
	if err == nil {
		return false, nil
	}
	if os.IsExist(err) {
		info, statErr := os.Stat(dir)
		if statErr == nil && info.IsDir() {
			return true, nil
		}
	}
	return false, &FilesystemError{Op: "create output dir", Path: dir, Err: err}
}
