package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AllGroup is the pseudo group selecting every project.
const AllGroup = "@all"

var (
	// ErrUnknownGroup is returned for an @group that is not configured.
	ErrUnknownGroup = errors.New("unknown group")

	// ErrUnknownProject is returned for a named project that does not exist
	// or has no images configured.
	ErrUnknownProject = errors.New("projects not found or have no images configured")
)

// ImageRef identifies one buildable/pushable image of a project, fully
// resolved against the workspace.
type ImageRef struct {
	Project    string
	Name       string // repository name, may carry a registry host
	Dockerfile string // relative to Context
	Context    string // absolute build context
}

// Target is an image selected by a command, with the alias its project
// applies after a successful build.
type Target struct {
	Image     ImageRef
	LatestTag string
}

// ResolveNames expands command-line targets into project names.
//
//   - no arguments: the members of the default group, or every project
//   - "@all" anywhere: every project (all=true)
//   - "@group": the group's members, in group order
//   - anything else: a project name
//
// Names are deduplicated keeping the first occurrence.
func (ws *Workspace) ResolveNames(args []string) (names []string, all bool, err error) {
	if len(args) == 0 {
		if ws.DefaultGroup == "" {
			return nil, true, nil
		}
		args = []string{"@" + ws.DefaultGroup}
	}

	seen := make(map[string]bool)
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	for _, arg := range args {
		if arg == AllGroup {
			return nil, true, nil
		}
		if group, ok := strings.CutPrefix(arg, "@"); ok {
			members, ok := ws.Groups[group]
			if !ok {
				return nil, false, fmt.Errorf("%w: %s", ErrUnknownGroup, group)
			}
			for _, m := range members {
				add(m)
			}
			continue
		}
		add(arg)
	}
	return names, false, nil
}

// DockerProjects returns the projects with at least one image. With all set
// every such project is returned in document order; otherwise the named
// projects are returned in the given order and any name that is unknown or
// has no images is an error.
func (ws *Workspace) DockerProjects(names []string, all bool) ([]*Project, error) {
	if all {
		var out []*Project
		for _, p := range ws.Projects {
			if len(p.Images) > 0 {
				out = append(out, p)
			}
		}
		return out, nil
	}

	var out []*Project
	var missing []string
	for _, n := range names {
		p, ok := ws.Project(n)
		if !ok || len(p.Images) == 0 {
			missing = append(missing, n)
			continue
		}
		out = append(out, p)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrUnknownProject, strings.Join(missing, ", "))
	}
	return out, nil
}

// Targets resolves command-line arguments into the ordered list of images a
// command operates on.
func (ws *Workspace) Targets(args []string) ([]Target, error) {
	names, all, err := ws.ResolveNames(args)
	if err != nil {
		return nil, err
	}
	projects, err := ws.DockerProjects(names, all)
	if err != nil {
		return nil, err
	}

	var targets []Target
	for _, p := range projects {
		latest := ws.EffectiveLatestTag(p)
		for _, img := range p.Images {
			targets = append(targets, Target{
				Image: ImageRef{
					Project:    p.Name,
					Name:       img.Name,
					Dockerfile: img.Dockerfile,
					Context:    BuildContext(p, img),
				},
				LatestTag: latest,
			})
		}
	}
	return targets, nil
}
