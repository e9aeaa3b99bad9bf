package processor

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"avifgun/internal/scheduler"
)

const (
	outputSuffix = "_avif"
	outputExt    = ".avif"
	lockName     = ".avifgun.lock"
)

var jpegName = regexp.MustCompile(`(?i)jpe?g`)

// OutputDirName derives the output folder name from an input base name:
// every "jpeg" or "jpg" (any case) becomes "AVIF", otherwise "_avif" is
// appended.
func OutputDirName(base string) string {
	if jpegName.MatchString(base) {
		return jpegName.ReplaceAllString(base, "AVIF")
	}
	return base + outputSuffix
}

// OutputDirFor returns the default output folder for input: a sibling of
// input named by OutputDirName.
func OutputDirFor(input string) string {
	clean := filepath.Clean(input)
	return filepath.Join(filepath.Dir(clean), OutputDirName(filepath.Base(clean)))
}

// OutputPathFor maps an item's path relative to the input folder to its
// encoded file inside outDir.
func OutputPathFor(outDir, rel string) string {
	name := strings.TrimSuffix(rel, filepath.Ext(rel)) + outputExt
	return filepath.Join(outDir, name)
}

// AssignOutputs sets a distinct OutputPath on every item. When two inputs
// share a stem ("a.jpg", "a.png") the first in item order keeps
// "a.avif" and later ones keep their source extension ("a.png.avif"),
// falling back to a numeric suffix. Names are compared case-insensitively
// so the result also holds on case-folding filesystems.
func AssignOutputs(items []scheduler.Item, outDir string) {
	taken := make(map[string]bool, len(items))
	for i := range items {
		rel := items[i].RelPath
		candidates := []string{OutputPathFor(outDir, rel), filepath.Join(outDir, rel+outputExt)}
		out := ""
		for _, c := range candidates {
			if !taken[strings.ToLower(c)] {
				out = c
				break
			}
		}
		for n := 2; out == ""; n++ {
			c := filepath.Join(outDir, fmt.Sprintf("%s_%d%s", strings.TrimSuffix(rel, filepath.Ext(rel)), n, outputExt))
			if !taken[strings.ToLower(c)] {
				out = c
			}
		}
		taken[strings.ToLower(out)] = true
		items[i].OutputPath = out
	}
}

func isWithin(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
