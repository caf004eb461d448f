package update

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// debugSuffix marks development builds
const debugSuffix = "-debug"

// NormalizeVersion strips a trailing development marker so debug builds
// report the release version they were cut from ("2.0-debug" -> "2.0").
// The string is truncated at its last '-'.
func NormalizeVersion(s string) string {
	if !strings.HasSuffix(s, debugSuffix) {
		return s
	}
	return s[:strings.LastIndex(s, "-")]
}

// ParseVersion parses a version string
// Supports formats like "0.8.2", "v0.8.2", "2.0", "0.9.0-rc.1"
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid version format: %s", s)
	}
	return v, nil
}

// CompareVersions compares two version strings
// Returns:
//   - 1 if v1 > v2
//   - 0 if v1 == v2
//   - -1 if v1 < v2
//   - error if either version is invalid
func CompareVersions(v1, v2 string) (int, error) {
	ver1, err := ParseVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1: %w", err)
	}

	ver2, err := ParseVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2: %w", err)
	}

	return ver1.Compare(ver2), nil
}

// IsNewer reports whether candidate is strictly greater than current.
// The current version is normalized first.
func IsNewer(candidate, current string) (bool, error) {
	cmp, err := CompareVersions(candidate, NormalizeVersion(current))
	if err != nil {
		return false, err
	}
	return cmp > 0, nil
}
