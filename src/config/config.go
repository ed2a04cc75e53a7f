// Package config loads the workspace file (.workman.yaml) into the
// in-memory model every command works from: the projects of the workspace,
// their images, the "latest" alias to apply, and named project groups.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultLatestTag is the alias applied after every successful build when
// neither the project nor the workspace names one.
const DefaultLatestTag = "latest"

// DefaultFile is the workspace file written by `workman init`.
const DefaultFile = ".workman.yaml"

// searchFiles are tried in order at the workspace root.
var searchFiles = []string{DefaultFile, ".workman.yml", ".workman.toml"}

// ErrNotFound is returned when no workspace file exists.
var ErrNotFound = errors.New("no workspace configuration found")

// Workspace is the loaded workspace model.
type Workspace struct {
	Root       string // absolute workspace root
	File       string // file the model was loaded from
	LatestTag  string
	DockerHost string
	Remote     RemoteConfig
	Push       PushConfig

	// Projects in document order.
	Projects []*Project

	// Groups maps a group name to its project names.
	Groups       map[string][]string
	DefaultGroup string
}

// Project is one subproject directory of the workspace.
type Project struct {
	Name      string
	Path      string // absolute project directory (<root>/<name>)
	Images    []Image
	LatestTag string // per-project override; empty falls back to the workspace
}

// Image is one buildable image of a project.
type Image struct {
	Name       string
	Dockerfile string // relative to the build context; empty uses the engine default
	Context    string // absolute; empty means the project directory
}

// RemoteConfig controls the remote tag lookup.
type RemoteConfig struct {
	Tool           string        `yaml:"tool"`            // listing tool on PATH (default skopeo)
	Disabled       bool          `yaml:"disabled"`        // never consult the registry
	CommandTimeout time.Duration `yaml:"command_timeout"` // forwarded to the tool, 0 = none
}

// PushConfig controls push concurrency.
type PushConfig struct {
	Jobs int `yaml:"jobs"` // images pushed at once, default 1
}

// EffectiveLatestTag returns the alias for p: the project override, else
// the workspace default, else "latest".
func (ws *Workspace) EffectiveLatestTag(p *Project) string {
	if p != nil && p.LatestTag != "" {
		return p.LatestTag
	}
	if ws.LatestTag != "" {
		return ws.LatestTag
	}
	return DefaultLatestTag
}

// Project returns the named project.
func (ws *Workspace) Project(name string) (*Project, bool) {
	for _, p := range ws.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// BuildContext returns the build context directory of img, defaulting to
// the project directory.
func BuildContext(p *Project, img Image) string {
	if img.Context != "" {
		return img.Context
	}
	return p.Path
}

// Find returns the workspace file at root, trying each supported name.
func Find(root string) (string, error) {
	for _, name := range searchFiles {
		path := filepath.Join(root, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (expected %s; are you in a workman workspace?)", ErrNotFound, root, DefaultFile)
}

// Load reads the workspace rooted at root. If path is empty the file is
// searched at the root; otherwise path is read as given. A missing or
// invalid file is an error.
func Load(root, path string) (*Workspace, error) {
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root: %w", err)
	}

	if path == "" {
		if path, err = Find(root); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if data, err = tomlToYAML(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	ws := f.resolve(root)
	ws.File = path
	if err := Validate(ws); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ws, nil
}

// tomlToYAML re-encodes a TOML document as YAML so both formats share one
// decoder (and its string-or-map image handling). TOML tables carry no
// order, so projects from a TOML file come out sorted by name.
func tomlToYAML(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// ── File schema ──────────────────────────────────────────────────────────

type file struct {
	LatestTag  string       `yaml:"latest_tag"`
	DockerHost string       `yaml:"docker_host"`
	Remote     RemoteConfig `yaml:"remote"`
	Push       pushSpec     `yaml:"push"`
	Projects   projectList  `yaml:"projects"`
	Groups     groupSet     `yaml:"groups"`
}

// pushSpec tells an absent jobs key apart from an explicit value, so only
// the absent key takes the default and Validate sees everything else.
type pushSpec struct {
	Jobs *int `yaml:"jobs"`
}

type projectSpec struct {
	LatestTag string      `yaml:"latest_tag"`
	Images    []imageSpec `yaml:"images"`
}

type projectEntry struct {
	name string
	spec projectSpec
}

// projectList decodes the projects mapping in document order. A project
// key with no value is a project without images.
type projectList []projectEntry

func (l *projectList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("projects: expected a mapping, got %s", kindName(value))
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		entry := projectEntry{name: key.Value}
		if !isNull(val) {
			if err := val.Decode(&entry.spec); err != nil {
				return fmt.Errorf("projects.%s: %w", key.Value, err)
			}
		}
		*l = append(*l, entry)
	}
	return nil
}

// imageSpec accepts both forms:
//
//	images:
//	  - myorg/app                      → imageSpec{Name: "myorg/app"}
//	  - name: myorg/app-worker
//	    dockerfile: Dockerfile.worker  → imageSpec{Name: ..., Dockerfile: ...}
type imageSpec struct {
	Name       string `yaml:"name"`
	Dockerfile string `yaml:"dockerfile"`
	Context    string `yaml:"context"`
}

func (s *imageSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		s.Name = value.Value
		return nil
	case yaml.MappingNode:
		type imageAlias imageSpec
		var alias imageAlias
		if err := value.Decode(&alias); err != nil {
			return fmt.Errorf("image: %w", err)
		}
		*s = imageSpec(alias)
		return nil
	}
	return fmt.Errorf("image: expected a name or a mapping, got %s", kindName(value))
}

// groupSet decodes the groups mapping. The reserved key default_group holds
// the name of the group used when a command gets no targets.
//
//	groups:
//	  frontend: [a, b]
//	  default_group: frontend
type groupSet struct {
	groups       map[string][]string
	defaultGroup string
}

func (g *groupSet) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("groups: expected a mapping, got %s", kindName(value))
	}
	g.groups = make(map[string][]string)
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		if key.Value == "default_group" {
			if err := val.Decode(&g.defaultGroup); err != nil {
				return fmt.Errorf("groups.default_group: %w", err)
			}
			continue
		}
		var members []string
		if !isNull(val) {
			if err := val.Decode(&members); err != nil {
				return fmt.Errorf("groups.%s: expected a list of project names: %w", key.Value, err)
			}
		}
		g.groups[key.Value] = members
	}
	return nil
}

func (f *file) resolve(root string) *Workspace {
	ws := &Workspace{
		Root:         root,
		LatestTag:    f.LatestTag,
		DockerHost:   f.DockerHost,
		Remote:       f.Remote,
		Push:         PushConfig{Jobs: 1},
		Groups:       f.Groups.groups,
		DefaultGroup: f.Groups.defaultGroup,
	}
	if ws.LatestTag == "" {
		ws.LatestTag = DefaultLatestTag
	}
	if ws.Groups == nil {
		ws.Groups = map[string][]string{}
	}
	if f.Push.Jobs != nil {
		ws.Push.Jobs = *f.Push.Jobs
	}

	for _, e := range f.Projects {
		p := &Project{
			Name:      e.name,
			Path:      filepath.Join(root, e.name),
			LatestTag: e.spec.LatestTag,
		}
		for _, is := range e.spec.Images {
			img := Image{Name: is.Name, Dockerfile: is.Dockerfile}
			switch {
			case is.Context == "":
			case filepath.IsAbs(is.Context):
				img.Context = filepath.Clean(is.Context)
			default:
				img.Context = filepath.Join(root, is.Context)
			}
			p.Images = append(p.Images, img)
		}
		ws.Projects = append(ws.Projects, p)
	}
	return ws
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		return "scalar " + fmt.Sprintf("%q", n.Value)
	case yaml.SequenceNode:
		return "list"
	case yaml.MappingNode:
		return "mapping"
	}
	return fmt.Sprintf("YAML kind %d", n.Kind)
}
