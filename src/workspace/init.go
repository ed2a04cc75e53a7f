package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/sofmeright/workman/src/config"
)

var (
	// ErrExists is returned when init would overwrite a workspace file.
	ErrExists = errors.New("workspace file already exists")

	// ErrEmpty is returned when the workspace has no subdirectories to scan.
	ErrEmpty = errors.New("no subdirectories found in workspace")
)

// ImageRepositories lists the repository names in the local image index.
type ImageRepositories interface {
	Repositories(ctx context.Context) ([]string, error)
}

// Discovery is what init found for one subdirectory.
type Discovery struct {
	Dir        string
	Dockerfile bool   // a Dockerfile exists at the directory root
	Image      string // matching local repository, if any
}

// Project reports whether the directory becomes a project.
func (d Discovery) Project() bool { return d.Dockerfile || d.Image != "" }

// ImageName is the image configured for the project: the matching local
// repository, else the directory name.
func (d Discovery) ImageName() string {
	if d.Image != "" {
		return d.Image
	}
	return d.Dir
}

// InitResult is the outcome of Init.
type InitResult struct {
	File        string
	Discoveries []Discovery // every scanned directory, sorted
	Projects    []string    // directories that became projects
}

type initFile struct {
	LatestTag string                  `yaml:"latest_tag"`
	Projects  map[string]initProject `yaml:"projects,omitempty"`
}

type initProject struct {
	Images []string `yaml:"images"`
}

// Init scans the immediate subdirectories of root and writes a workspace
// file with one project per directory that has a Dockerfile or a matching
// local image. A local repository matches when its final path component
// equals the directory name; the first repository listed wins. When images
// is nil or the listing fails, only Dockerfiles are considered. The managed
// .gitignore block is rewritten with the discovered projects.
func Init(ctx context.Context, root string, images ImageRepositories) (*InitResult, error) {
	file := filepath.Join(root, config.DefaultFile)
	if _, err := os.Stat(file); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, file)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("checking %s: %w", file, err)
	}

	dirs, err := Subdirs(root)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, ErrEmpty
	}

	local := localImages(ctx, images)

	result := &InitResult{File: file}
	doc := initFile{LatestTag: config.DefaultLatestTag, Projects: map[string]initProject{}}
	for _, dir := range dirs {
		d := Discovery{Dir: dir, Image: local[dir]}
		if fi, err := os.Stat(filepath.Join(root, dir, "Dockerfile")); err == nil && !fi.IsDir() {
			d.Dockerfile = true
		}
		result.Discoveries = append(result.Discoveries, d)
		if d.Project() {
			result.Projects = append(result.Projects, dir)
			doc.Projects[dir] = initProject{Images: []string{d.ImageName()}}
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", config.DefaultFile, err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", file, err)
	}

	if err := UpdateGitignore(root, result.Projects); err != nil {
		return result, err
	}
	return result, nil
}

// localImages maps the final path component of each local repository to
// the full repository name.
func localImages(ctx context.Context, images ImageRepositories) map[string]string {
	out := make(map[string]string)
	if images == nil {
		return out
	}
	repos, err := images.Repositories(ctx)
	if err != nil {
		return out
	}
	for _, repo := range repos {
		base := path.Base(repo)
		if _, ok := out[base]; !ok {
			out[base] = repo
		}
	}
	return out
}
