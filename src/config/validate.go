package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate reports structural errors in a loaded workspace.
func Validate(ws *Workspace) error {
	var errs []string

	// ── Projects ──────────────────────────────────────────────────────────

	seen := make(map[string]bool)
	for _, p := range ws.Projects {
		if p.Name == "" {
			errs = append(errs, "projects: empty project name")
			continue
		}
		if strings.HasPrefix(p.Name, "@") {
			errs = append(errs, fmt.Sprintf("projects.%s: name must not start with @", p.Name))
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Sprintf("projects.%s: duplicate project", p.Name))
		}
		seen[p.Name] = true

		for i, img := range p.Images {
			if strings.TrimSpace(img.Name) == "" {
				errs = append(errs, fmt.Sprintf("projects.%s.images[%d]: name is required", p.Name, i))
			} else if strings.ContainsAny(img.Name, " \t@") || strings.Contains(lastSegment(img.Name), ":") {
				errs = append(errs, fmt.Sprintf("projects.%s.images[%d]: %q must be a repository name without tag or digest", p.Name, i, img.Name))
			}
		}
	}

	// ── Groups ────────────────────────────────────────────────────────────

	names := make([]string, 0, len(ws.Groups))
	for name := range ws.Groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if name == "all" {
			errs = append(errs, "groups.all: \"all\" is reserved")
		}
		for _, member := range ws.Groups[name] {
			if !seen[member] {
				errs = append(errs, fmt.Sprintf("groups.%s: unknown project %q", name, member))
			}
		}
	}
	if ws.DefaultGroup != "" {
		if _, ok := ws.Groups[ws.DefaultGroup]; !ok {
			errs = append(errs, fmt.Sprintf("groups.default_group: unknown group %q", ws.DefaultGroup))
		}
	}

	if ws.Push.Jobs < 1 {
		errs = append(errs, fmt.Sprintf("push.jobs: must be at least 1, got %d", ws.Push.Jobs))
	}
	if ws.Remote.CommandTimeout < 0 {
		errs = append(errs, "remote.command_timeout: must not be negative")
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}

// lastSegment returns the part of name after its final "/".
func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}
