// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/appupdate/internal/update"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v interface{}) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// CheckResult is the rendered outcome of one update check.
type CheckResult struct {
	CurrentVersion string `json:"current_version" yaml:"current_version"`
	Available      bool   `json:"available" yaml:"available"`
	NewVersion     string `json:"new_version,omitempty" yaml:"new_version,omitempty"`
	DownloadURL    string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	TargetSize     string `json:"target_size,omitempty" yaml:"target_size,omitempty"`
	Required       bool   `json:"required,omitempty" yaml:"required,omitempty"`
	UpdateLog      string `json:"update_log,omitempty" yaml:"update_log,omitempty"`
	Message        string `json:"message,omitempty" yaml:"message,omitempty"`
}

// NewCheckResult builds a result from a descriptor. A nil descriptor means no update.
func NewCheckResult(current string, d *update.Descriptor) CheckResult {
	r := CheckResult{CurrentVersion: current}
	if d == nil || !d.Available {
		return r
	}
	r.Available = true
	r.NewVersion = d.NewVersion
	r.DownloadURL = d.DownloadURL
	r.TargetSize = d.TargetSize
	r.Required = d.Constraint
	r.UpdateLog = d.UpdateLog
	return r
}

func (r CheckResult) String() string {
	if r.Message != "" {
		return r.Message
	}
	if !r.Available {
		return fmt.Sprintf("%s is up to date", displayVersion(r.CurrentVersion))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Update available: %s -> %s", displayVersion(r.CurrentVersion), displayVersion(r.NewVersion))
	if r.Required {
		b.WriteString(" (required)")
	}
	if r.TargetSize != "" {
		fmt.Fprintf(&b, "\n  Size: %s", r.TargetSize)
	}
	if r.DownloadURL != "" {
		fmt.Fprintf(&b, "\n  URL:  %s", r.DownloadURL)
	}
	return b.String()
}

// DownloadResult is the rendered outcome of a download.
type DownloadResult struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Path    string `json:"path" yaml:"path"`
}

func (r DownloadResult) String() string {
	return fmt.Sprintf("Downloaded %s to %s", displayVersion(r.Version), r.Path)
}

func displayVersion(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
