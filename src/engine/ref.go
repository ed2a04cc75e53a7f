package engine

import (
	"strings"

	"github.com/distribution/reference"
)

// Ref joins an image name and a tag into "name:tag".
func Ref(name, tag string) string {
	return name + ":" + tag
}

// SplitRef splits "name:tag" at the tag separator. A colon that belongs to a
// registry port ("host:5000/app") is not a tag separator. ok is false when
// ref carries no tag.
func SplitRef(ref string) (name, tag string, ok bool) {
	if i := strings.IndexByte(ref, '@'); i >= 0 {
		ref = ref[:i]
	}
	i := strings.LastIndexByte(ref, ':')
	if i < 0 || strings.ContainsRune(ref[i+1:], '/') {
		return ref, "", false
	}
	return ref[:i], ref[i+1:], true
}

// SameRepository reports whether two repository names refer to the same
// repository once normalized ("myapp" and "docker.io/library/myapp" are the
// same). Names that do not parse as references are compared verbatim.
func SameRepository(a, b string) bool {
	if a == b {
		return true
	}
	na, errA := reference.ParseNormalizedNamed(a)
	nb, errB := reference.ParseNormalizedNamed(b)
	if errA != nil || errB != nil {
		return false
	}
	return na.Name() == nb.Name()
}

// FamiliarName shortens a repository name the way the docker CLI displays
// it ("docker.io/library/redis" becomes "redis"). Names that do not parse
// are returned unchanged.
func FamiliarName(name string) string {
	named, err := reference.ParseNormalizedNamed(name)
	if err != nil {
		return name
	}
	return reference.FamiliarName(named)
}
