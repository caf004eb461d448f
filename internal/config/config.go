// Package config handles Updatefile parsing and location resolution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/appupdate/internal/types"
)

// Defaults applied to fields an Updatefile leaves empty.
const (
	DefaultAppName   = "appupdate"
	DefaultTimeout   = "30s"
	DefaultRetries   = 3
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// HTTPConfig tunes the HTTP transport.
type HTTPConfig struct {
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty"` // Go duration, e.g. "30s"
	Retries int    `yaml:"retries,omitempty" toml:"retries,omitempty" json:"retries,omitempty"` // Attempts per request
	// DownloadTimeout caps a whole package download. Empty means no cap.
	DownloadTimeout string            `yaml:"download_timeout,omitempty" toml:"download_timeout,omitempty" json:"download_timeout,omitempty"`
	UserAgent       string            `yaml:"user_agent,omitempty" toml:"user_agent,omitempty" json:"user_agent,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty" json:"headers,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value yields the default.
func (h HTTPConfig) TimeoutDuration() (time.Duration, error) {
	if h.Timeout == "" {
		return time.ParseDuration(DefaultTimeout)
	}
	return time.ParseDuration(h.Timeout)
}

// DownloadTimeoutDuration parses DownloadTimeout. An empty value yields zero.
func (h HTTPConfig) DownloadTimeoutDuration() (time.Duration, error) {
	if h.DownloadTimeout == "" {
		return 0, nil
	}
	return time.ParseDuration(h.DownloadTimeout)
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" toml:"level,omitempty" json:"level,omitempty"`
	Format string `yaml:"format,omitempty" toml:"format,omitempty" json:"format,omitempty"` // console or json
	File   string `yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`       // Optional rotating log file
}

// Updatefile represents the parsed configuration file.
type Updatefile struct {
	UpdateURL      string            `yaml:"update_url" toml:"update_url" json:"update_url"`
	Method         types.Method      `yaml:"method,omitempty" toml:"method,omitempty" json:"method,omitempty"`
	AppKey         string            `yaml:"app_key,omitempty" toml:"app_key,omitempty" json:"app_key,omitempty"`
	AppName        string            `yaml:"app_name,omitempty" toml:"app_name,omitempty" json:"app_name,omitempty"`
	CurrentVersion string            `yaml:"current_version,omitempty" toml:"current_version,omitempty" json:"current_version,omitempty"`
	TargetPath     string            `yaml:"target_path,omitempty" toml:"target_path,omitempty" json:"target_path,omitempty"`
	Params         map[string]string `yaml:"params,omitempty" toml:"params,omitempty" json:"params,omitempty"` // Replaces appKey/version when set
	HTTP           HTTPConfig        `yaml:"http,omitempty" toml:"http,omitempty" json:"http,omitempty"`
	Log            LogConfig         `yaml:"log,omitempty" toml:"log,omitempty" json:"log,omitempty"`
}

// Default returns an Updatefile with every default applied.
func Default() *Updatefile {
	u := &Updatefile{}
	u.ApplyDefaults()
	return u
}

// ApplyDefaults fills empty fields with their defaults.
func (u *Updatefile) ApplyDefaults() {
	u.Method = u.Method.Default()
	if u.AppName == "" {
		u.AppName = DefaultAppName
	}
	if u.HTTP.Timeout == "" {
		u.HTTP.Timeout = DefaultTimeout
	}
	if u.HTTP.Retries == 0 {
		u.HTTP.Retries = DefaultRetries
	}
	if u.Log.Level == "" {
		u.Log.Level = DefaultLogLevel
	}
	if u.Log.Format == "" {
		u.Log.Format = DefaultLogFormat
	}
	if u.Params == nil {
		u.Params = make(map[string]string)
	}
	if u.HTTP.Headers == nil {
		u.HTTP.Headers = make(map[string]string)
	}
}

// FindUpdatefile searches for an Updatefile in the standard locations.
// Returns the path to the first Updatefile found, or an error if none exists.
func FindUpdatefile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified Updatefile not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check APPUPDATE_CONFIG environment variable
	if envPath := os.Getenv("APPUPDATE_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	var searchPaths []string

	home, err := os.UserHomeDir()
	if err == nil {
		// XDG_CONFIG_HOME or default
		xdgConfig := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfig == "" {
			xdgConfig = filepath.Join(home, ".config")
		}
		searchPaths = append(searchPaths, filepath.Join(xdgConfig, "appupdate"))

		// ~/.appupdate
		searchPaths = append(searchPaths, filepath.Join(home, ".appupdate"))
	}

	// Working directory last
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}

	// File name variants
	fileNames := []string{
		"Updatefile",
		"Updatefile.yaml",
		"Updatefile.yml",
		"Updatefile.toml",
		"Updatefile.json",
		".Updatefile",
		".Updatefile.yaml",
		".Updatefile.yml",
		".Updatefile.toml",
		".Updatefile.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}

// Load reads and parses an Updatefile from the given path and applies
// defaults. Callers validate after layering flag and environment overrides.
func Load(path string) (*Updatefile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Updatefile: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	updatefile, err := parse(content, format)
	if err != nil {
		return nil, err
	}

	updatefile.ApplyDefaults()
	return updatefile, nil
}
