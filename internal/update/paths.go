package update

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/types"
)

// ResolveTargetPath picks the download directory when none is configured.
//
// When external storage is mounted or not removable the external cache is
// tried first, then the public downloads directory. Otherwise the internal
// cache is used. Lookup failures count as "unavailable".
func ResolveTargetPath(ctx context.Context, env StorageEnv) (string, types.StorageLocation) {
	log := logging.FromContext(ctx)

	if env.ExternalStorageMounted() || !env.ExternalStorageRemovable() {
		path, err := env.ExternalCacheDir()
		if err != nil {
			log.Debug().Err(err).Msg("external cache directory unavailable")
		}
		if err == nil && path != "" {
			return path, types.StorageExternalCache
		}
		return env.PublicDownloadsDir(), types.StoragePublicDownloads
	}

	return env.InternalCacheDir(), types.StorageInternalCache
}

// OSStorage is the StorageEnv for desktop hosts.
type OSStorage struct {
	AppName string
}

var _ StorageEnv = OSStorage{}

func (p OSStorage) appName() string {
	if p.AppName == "" {
		return "appupdate"
	}
	return p.AppName
}

// ExternalStorageMounted reports whether the user's home directory resolves.
func (p OSStorage) ExternalStorageMounted() bool {
	_, err := os.UserHomeDir()
	return err == nil
}

// ExternalStorageRemovable is always false on desktop hosts.
func (p OSStorage) ExternalStorageRemovable() bool {
	return false
}

// ExternalCacheDir returns the per-user cache directory for the app.
func (p OSStorage) ExternalCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", errors.New("user cache directory is empty")
	}
	return filepath.Join(dir, p.appName()), nil
}

// PublicDownloadsDir returns $XDG_DOWNLOAD_DIR or ~/Downloads.
func (p OSStorage) PublicDownloadsDir() string {
	if dir := os.Getenv("XDG_DOWNLOAD_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), p.appName())
	}
	return filepath.Join(home, "Downloads")
}

// InternalCacheDir returns a directory under the system temp dir.
func (p OSStorage) InternalCacheDir() string {
	return filepath.Join(os.TempDir(), p.appName())
}
