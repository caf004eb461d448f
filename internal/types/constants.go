// Package types provides type-safe constants shared by the updater packages.
//
// The Updatefile parser, the CLI flags, and the update coordinator all accept
// these values, so validation lives here rather than being repeated at each
// entry point.
package types

import (
	"fmt"
	"strings"
)

// Method is the HTTP method used for the version-check request.
type Method string

const (
	// MethodGet sends the check parameters as a query string.
	MethodGet Method = "get"
	// MethodPost sends the check parameters as a form-encoded body.
	MethodPost Method = "post"
)

// AllMethods returns all valid request methods.
func AllMethods() []Method {
	return []Method{MethodGet, MethodPost}
}

// Validate checks if the Method is a valid value.
// Empty method is considered valid (defaults to GET).
func (m Method) Validate() error {
	switch m {
	case MethodGet, MethodPost, "":
		return nil
	default:
		return fmt.Errorf("invalid method '%s' (must be get or post)", m)
	}
}

// String returns the string representation of the Method.
func (m Method) String() string {
	return string(m)
}

// IsPost returns true if the method is POST.
func (m Method) IsPost() bool {
	return m == MethodPost
}

// Default returns GET if empty, otherwise returns the current method.
func (m Method) Default() Method {
	if m == "" {
		return MethodGet
	}
	return m
}

// ParseMethod parses a string into a Method.
// Returns an error if the string is not a valid method.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if err := m.Validate(); err != nil {
		return "", err
	}
	return m.Default(), nil
}

// StorageLocation names the directory the target-path policy settled on.
type StorageLocation string

const (
	// StorageExplicit means the caller supplied a target path.
	StorageExplicit StorageLocation = "explicit"
	// StorageExternalCache is the host's external cache directory.
	StorageExternalCache StorageLocation = "external-cache"
	// StoragePublicDownloads is the public downloads directory.
	StoragePublicDownloads StorageLocation = "public-downloads"
	// StorageInternalCache is the host's internal cache directory.
	StorageInternalCache StorageLocation = "internal-cache"
)

// AllStorageLocations returns all storage locations in fallback order.
func AllStorageLocations() []StorageLocation {
	return []StorageLocation{StorageExplicit, StorageExternalCache, StoragePublicDownloads, StorageInternalCache}
}

// Validate checks if the StorageLocation is a valid value.
func (l StorageLocation) Validate() error {
	switch l {
	case StorageExplicit, StorageExternalCache, StoragePublicDownloads, StorageInternalCache:
		return nil
	case "":
		return fmt.Errorf("storage location is required")
	default:
		return fmt.Errorf("invalid storage location '%s'", l)
	}
}

// String returns the string representation of the StorageLocation.
func (l StorageLocation) String() string {
	return string(l)
}

// IsExternal returns true for locations backed by external storage.
func (l StorageLocation) IsExternal() bool {
	return l == StorageExternalCache || l == StoragePublicDownloads
}
