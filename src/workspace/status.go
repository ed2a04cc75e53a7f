// Package workspace implements the workspace housekeeping commands: git
// status across subprojects, artifact cleanup, and scaffolding a new
// workspace file.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// WorkspaceRepo is the name reported for a repository at the workspace
// root itself.
const WorkspaceRepo = "workspace"

// RepoStatus is the short-format status of one git repository.
type RepoStatus struct {
	Name  string
	Path  string
	Lines []string // "XY path" entries sorted by path; empty when clean
}

// Clean reports whether the working tree has no changes.
func (r RepoStatus) Clean() bool { return len(r.Lines) == 0 }

// Subdirs returns the immediate non-hidden subdirectories of root, sorted.
func Subdirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, e.Name())
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

// Status collects the git status of the repository at root (if any) and of
// each subdirectory that is a git repository. When only is non-empty, just
// those subdirectories are considered; the root repository is always
// included.
func Status(root string, only []string) ([]RepoStatus, error) {
	var out []RepoStatus

	if st, ok, err := repoStatus(WorkspaceRepo, root); err != nil {
		return nil, err
	} else if ok {
		out = append(out, st)
	}

	dirs, err := Subdirs(root)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(only))
	for _, n := range only {
		wanted[n] = true
	}

	for _, d := range dirs {
		if len(wanted) > 0 && !wanted[d] {
			continue
		}
		st, ok, err := repoStatus(d, filepath.Join(root, d))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, st)
		}
	}
	return out, nil
}

// repoStatus opens path as a git repository. ok is false when path is not
// itself a repository root.
func repoStatus(name, path string) (RepoStatus, bool, error) {
	if _, err := os.Stat(filepath.Join(path, ".git")); err != nil {
		return RepoStatus{}, false, nil
	}

	repo, err := git.PlainOpen(path)
	if err != nil {
		return RepoStatus{}, false, fmt.Errorf("%s: opening repository: %w", name, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return RepoStatus{}, false, fmt.Errorf("%s: worktree: %w", name, err)
	}
	status, err := wt.Status()
	if err != nil {
		return RepoStatus{}, false, fmt.Errorf("%s: status: %w", name, err)
	}

	st := RepoStatus{Name: name, Path: path}
	for file, s := range status {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		st.Lines = append(st.Lines, fmt.Sprintf("%c%c %s", s.Staging, s.Worktree, file))
	}
	sort.Slice(st.Lines, func(i, j int) bool {
		return st.Lines[i][3:] < st.Lines[j][3:]
	})
	return st, true, nil
}
