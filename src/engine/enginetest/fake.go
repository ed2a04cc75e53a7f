// Package enginetest provides an in-memory engine.Engine for tests.
package enginetest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/sofmeright/workman/src/engine"
)

// Fake is an in-memory image index. Tags are kept per repository in the
// order they were created. It is safe for concurrent use.
type Fake struct {
	mu sync.Mutex

	tags map[string][]string

	// Failure injection, keyed by image name (builds) or full ref.
	FailBuild  map[string]error
	FailTag    map[string]error // keyed by target ref
	FailRemove map[string]error
	FailPush   map[string]error
	FailList   error

	// Call log, one entry per call in call order.
	Builds  []engine.BuildRequest
	Tagged  [][2]string
	Removed []string
	Pushed  []string
	Lists   []string
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		tags:       make(map[string][]string),
		FailBuild:  make(map[string]error),
		FailTag:    make(map[string]error),
		FailRemove: make(map[string]error),
		FailPush:   make(map[string]error),
	}
}

// Seed adds existing tags for name.
func (f *Fake) Seed(name string, tags ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range tags {
		f.addLocked(name, t)
	}
	return f
}

// Tags returns the current tags of name.
func (f *Fake) Tags(name string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.tags[name]...)
}

// Repositories returns every repository holding at least one tag, sorted.
func (f *Fake) Repositories(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var repos []string
	for name, tags := range f.tags {
		if len(tags) > 0 {
			repos = append(repos, name)
		}
	}
	sort.Strings(repos)
	return repos, nil
}

func (f *Fake) ListTags(_ context.Context, name string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lists = append(f.Lists, name)
	if f.FailList != nil {
		return nil, f.FailList
	}
	return append([]string(nil), f.tags[name]...), nil
}

func (f *Fake) Build(ctx context.Context, req engine.BuildRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Builds = append(f.Builds, req)
	name, t, ok := engine.SplitRef(req.Ref)
	if !ok {
		return fmt.Errorf("build: %q has no tag", req.Ref)
	}
	if err := f.FailBuild[name]; err != nil {
		return err
	}
	f.addLocked(name, t)
	return nil
}

func (f *Fake) Tag(_ context.Context, source, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tagged = append(f.Tagged, [2]string{source, target})
	if err := f.FailTag[target]; err != nil {
		return err
	}
	srcName, srcTag, _ := engine.SplitRef(source)
	if !f.hasLocked(srcName, srcTag) {
		return fmt.Errorf("tag: no such image: %s", source)
	}
	name, t, _ := engine.SplitRef(target)
	f.addLocked(name, t)
	return nil
}

func (f *Fake) RemoveTag(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailRemove[ref]; err != nil {
		return err
	}
	name, t, _ := engine.SplitRef(ref)
	tags := f.tags[name]
	for i, existing := range tags {
		if existing == t {
			f.tags[name] = append(tags[:i:i], tags[i+1:]...)
			f.Removed = append(f.Removed, ref)
			return nil
		}
	}
	return errors.New("rmi: no such image: " + ref)
}

func (f *Fake) Push(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.FailPush[ref]; err != nil {
		return err
	}
	f.Pushed = append(f.Pushed, ref)
	return nil
}

func (f *Fake) addLocked(name, t string) {
	if !f.hasLocked(name, t) {
		f.tags[name] = append(f.tags[name], t)
	}
}

func (f *Fake) hasLocked(name, t string) bool {
	for _, existing := range f.tags[name] {
		if existing == t {
			return true
		}
	}
	return false
}

var _ engine.Engine = (*Fake)(nil)
