package update

import (
	"fmt"
	"runtime"
)

// Detect returns the current platform (OS and architecture)
func Detect() Platform {
	return Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}
}

// Key returns the asset key for this platform
// e.g., "darwin-arm64"
func (p Platform) Key() string {
	return fmt.Sprintf("%s-%s", p.OS, p.Arch)
}

// AssetName returns the conventional package name for an app on this platform
// e.g., "myapp-linux-amd64"
func (p Platform) AssetName(app string) string {
	return fmt.Sprintf("%s-%s", app, p.Key())
}
