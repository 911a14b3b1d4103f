package bwtailwind

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// IsV4OrLater reports whether a "v"-prefixed binary version is at least
// major version 4. Versions without the prefix, or that do not parse, are
// treated as older releases. Pre-releases of 4 count as 4.
func IsV4OrLater(version string) bool {
	rest, ok := strings.CutPrefix(version, "v")
	if !ok {
		return false
	}
	ver, err := semver.NewVersion(rest)
	if err != nil {
		return false
	}
	return ver.Major() >= 4
}
