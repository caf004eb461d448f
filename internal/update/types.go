package update

import (
	"context"

	"github.com/adamancini/appupdate/internal/transport"
)

// Descriptor describes the outcome of one update check
type Descriptor struct {
	Available   bool   // Whether an update is available
	NewVersion  string // Version offered by the server
	DownloadURL string // Direct download URL for the package
	UpdateLog   string // Release notes shown to the user
	TargetSize  string // Human readable package size
	Constraint  bool   // Server marks the update as mandatory
	MD5         string // Optional MD5 of the package
	SHA256      string // Optional SHA256 of the package
	FileName    string // Optional file name for the downloaded package

	// TargetPath is the download directory, set when a download is dispatched.
	TargetPath string

	client transport.Client
}

// Client returns the transport attached to the descriptor at dispatch time.
func (d *Descriptor) Client() transport.Client {
	return d.client
}

func (d *Descriptor) hasChecksum() bool {
	return d.SHA256 != "" || d.MD5 != ""
}

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (darwin, linux, windows)
	Arch string // Architecture (amd64, arm64)
}

// Notice is a user-facing message the coordinator asks the host to show.
type Notice int

const (
	// NoticeAlreadyUpdating is raised when a check runs during a download.
	NoticeAlreadyUpdating Notice = iota + 1
)

func (n Notice) String() string {
	switch n {
	case NoticeAlreadyUpdating:
		return "app is already updating"
	default:
		return "unknown notice"
	}
}

// StorageEnv reports the storage state of the host environment.
type StorageEnv interface {
	ExternalStorageMounted() bool
	ExternalStorageRemovable() bool
	ExternalCacheDir() (string, error)
	PublicDownloadsDir() string
	InternalCacheDir() string
}

// Host is the embedding application.
type Host interface {
	StorageEnv
	// VersionName returns the installed version string.
	VersionName() string
	// Notify presents a short informational message to the user.
	Notify(ctx context.Context, n Notice)
}
