package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Managed .gitignore block markers. Everything between them is owned by
// workman and replaced on each init; content outside is never touched.
const (
	GitignoreStart = "# --- workman managed (do not edit) ---"
	GitignoreEnd   = "# --- end workman managed ---"
)

// UpdateGitignore writes the managed block listing each project directory
// into <root>/.gitignore, creating the file if needed. An existing block is
// replaced in place; otherwise the block is appended after a blank line.
func UpdateGitignore(root string, projects []string) error {
	path := filepath.Join(root, ".gitignore")

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	updated := managedGitignore(string(data), projects)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func managedGitignore(existing string, projects []string) string {
	names := append([]string(nil), projects...)
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, n := range names {
		lines = append(lines, n+"/")
	}
	body := strings.Join(lines, "\n")

	if updated, found := replaceBetween(existing, GitignoreStart, GitignoreEnd, body); found {
		return updated
	}

	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	if existing != "" && !strings.HasSuffix(existing, "\n\n") {
		existing += "\n"
	}
	block := GitignoreStart + "\n"
	if body != "" {
		block += body + "\n"
	}
	return existing + block + GitignoreEnd + "\n"
}

// replaceBetween replaces the lines between startMarker and the first
// endMarker after it. Markers are preserved. found is false when either
// marker is missing.
func replaceBetween(content, startMarker, endMarker, replacement string) (updated string, found bool) {
	startIdx := strings.Index(content, startMarker)
	if startIdx < 0 {
		return content, false
	}

	afterStart := startIdx + len(startMarker)
	endRelative := strings.Index(content[afterStart:], endMarker)
	if endRelative < 0 {
		return content, false
	}
	endIdx := afterStart + endRelative

	var b strings.Builder
	b.WriteString(content[:startIdx])
	b.WriteString(startMarker)
	b.WriteString("\n")
	if replacement != "" {
		b.WriteString(replacement)
		b.WriteString("\n")
	}
	b.WriteString(endMarker)
	b.WriteString(content[endIdx+len(endMarker):])

	return b.String(), true
}
