package magmawheel

import (
	"strings"

	"github.com/magefile/mage/sh"
)

// UnknownRevision is the revision reported when git cannot be queried.
const UnknownRevision = "Unknown"

const shortRevisionLen = 7

// RevisionFunc returns the full source revision of the tree.
type RevisionFunc func() (string, error)

// GitRevision returns a RevisionFunc running git rev-parse HEAD in root.
func GitRevision(root string) RevisionFunc {
	return func() (string, error) {
		return sh.Output("git", "-C", root, "rev-parse", "HEAD")
	}
}

// ResolveVersion computes the package version.
//
// BUILD_VERSION wins when set. Otherwise the static version gets a local
// version suffix "+<short revision>" when the revision is known. The
// second return value is the full revision, or UnknownRevision.
func ResolveVersion(env Environment, static string, revision RevisionFunc) (string, string) {
	sha := UnknownRevision
	if revision != nil {
		if rev, err := revision(); err == nil && strings.TrimSpace(rev) != "" {
			sha = strings.TrimSpace(rev)
		}
	}

	if override := env.Get(EnvBuildVersion); override != "" {
		return override, sha
	}

	version := static
	if sha != UnknownRevision {
		short := sha
		if len(short) > shortRevisionLen {
			short = short[:shortRevisionLen]
		}
		version += "+" + short
	}
	return version, sha
}
