package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Build artifact directories removed by Clean.
var (
	cleanDirs     = map[string]bool{"dist": true, "build": true, "__pycache__": true}
	cleanSuffixes = []string{".egg-info"}
)

func isArtifactDir(name string) bool {
	if cleanDirs[name] {
		return true
	}
	for _, s := range cleanSuffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

// Clean removes build artifact directories anywhere under root and returns
// their paths relative to root in walk order. With dryRun set nothing is
// removed. Nested artifacts inside a removed directory are not reported
// separately.
func Clean(root string, dryRun bool) ([]string, error) {
	var removed []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() || path == root || !isArtifactDir(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if !dryRun {
			if err := os.RemoveAll(path); err != nil {
				return fmt.Errorf("removing %s: %w", rel, err)
			}
		}
		removed = append(removed, rel)
		return fs.SkipDir
	})
	return removed, err
}
