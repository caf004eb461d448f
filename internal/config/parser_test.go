package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adamancini/appupdate/internal/types"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		content  string
		expected Format
	}{
		{"yaml extension", "Updatefile.yaml", "", FormatYAML},
		{"yml extension", "Updatefile.yml", "", FormatYAML},
		{"toml extension", "Updatefile.toml", "", FormatTOML},
		{"json extension", "Updatefile.json", "", FormatJSON},
		{"json content", "Updatefile", `{"update_url": "https://x"}`, FormatJSON},
		{"yaml content", "Updatefile", `update_url: https://x`, FormatYAML},
		{"toml content", "Updatefile", `update_url = "https://x"`, FormatTOML},
		{"toml section", "Updatefile", "[http]\nretries = 2", FormatTOML},
		{"comment then yaml", "Updatefile", "# settings\nmethod: post", FormatYAML},
		{"unknown content", "Updatefile", "just words", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFormat(tt.path, []byte(tt.content))
			if got != tt.expected {
				t.Errorf("detectFormat() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test_value")
	t.Setenv("EMPTY_VAR", "")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple var", "${TEST_VAR}", "test_value"},
		{"var with default", "${MISSING_VAR:-default_value}", "default_value"},
		{"existing var ignores default", "${TEST_VAR:-default_value}", "test_value"},
		{"empty var uses default", "${EMPTY_VAR:-default_value}", "default_value"},
		{"no var", "plain text", "plain text"},
		{"mixed content", "prefix ${TEST_VAR} suffix", "prefix test_value suffix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandEnvVars([]byte(tt.input)))
			if got != tt.expected {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseYAML(t *testing.T) {
	t.Setenv("APP_KEY", "secret-key")

	content := []byte(`
update_url: https://updates.example.com/check
method: post
app_key: ${APP_KEY}
current_version: 2.0-debug
params:
  channel: beta
http:
  timeout: 10s
  retries: 5
  headers:
    X-Client: cli
log:
  level: debug
  format: json
`)

	u, err := parse(content, FormatYAML)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	if u.UpdateURL != "https://updates.example.com/check" {
		t.Errorf("UpdateURL = %s", u.UpdateURL)
	}
	if u.Method != types.MethodPost {
		t.Errorf("Method = %s, want post", u.Method)
	}
	if u.AppKey != "secret-key" {
		t.Errorf("AppKey = %s, want secret-key", u.AppKey)
	}
	if u.CurrentVersion != "2.0-debug" {
		t.Errorf("CurrentVersion = %s, want 2.0-debug", u.CurrentVersion)
	}
	if u.Params["channel"] != "beta" {
		t.Errorf("Params[channel] = %s, want beta", u.Params["channel"])
	}
	if u.HTTP.Retries != 5 || u.HTTP.Timeout != "10s" {
		t.Errorf("HTTP = %+v", u.HTTP)
	}
	if u.HTTP.Headers["X-Client"] != "cli" {
		t.Errorf("HTTP.Headers = %v", u.HTTP.Headers)
	}
	if u.Log.Level != "debug" || u.Log.Format != "json" {
		t.Errorf("Log = %+v", u.Log)
	}
}

func TestParseTOML(t *testing.T) {
	content := []byte(`
update_url = "https://updates.example.com/check"
app_key = "k"

[params]
device = "desktop"

[http]
timeout = "5s"
`)

	u, err := parse(content, FormatTOML)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	if u.UpdateURL != "https://updates.example.com/check" {
		t.Errorf("UpdateURL = %s", u.UpdateURL)
	}
	if u.Params["device"] != "desktop" {
		t.Errorf("Params = %v", u.Params)
	}
	if u.HTTP.Timeout != "5s" {
		t.Errorf("HTTP.Timeout = %s, want 5s", u.HTTP.Timeout)
	}
}

func TestParseJSON(t *testing.T) {
	content := []byte(`{"update_url": "http://localhost:8080/v", "method": "get", "target_path": "/tmp/pkgs"}`)

	u, err := parse(content, FormatJSON)
	if err != nil {
		t.Fatalf("parse() error = %v", err)
	}

	if u.Method != types.MethodGet {
		t.Errorf("Method = %s, want get", u.Method)
	}
	if u.TargetPath != "/tmp/pkgs" {
		t.Errorf("TargetPath = %s", u.TargetPath)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		format  Format
	}{
		{"bad yaml", "update_url: [unclosed", FormatYAML},
		{"bad toml", "update_url = ", FormatTOML},
		{"bad json", `{"update_url":`, FormatJSON},
		{"unknown format", "x", FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parse([]byte(tt.content), tt.format); err == nil {
				t.Error("parse() expected error")
			}
		})
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Updatefile")
	if err := os.WriteFile(path, []byte("update_url: https://x/api\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	u, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if u.Method != types.MethodGet {
		t.Errorf("Method = %s, want get", u.Method)
	}
	if u.AppName != DefaultAppName {
		t.Errorf("AppName = %s, want %s", u.AppName, DefaultAppName)
	}
	if u.HTTP.Timeout != DefaultTimeout || u.HTTP.Retries != DefaultRetries {
		t.Errorf("HTTP = %+v", u.HTTP)
	}
	if u.Log.Level != DefaultLogLevel || u.Log.Format != DefaultLogFormat {
		t.Errorf("Log = %+v", u.Log)
	}
	if u.Params == nil {
		t.Error("Params should be initialized")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestFindUpdatefile(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("update_url: https://x\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		got, err := FindUpdatefile(path)
		if err != nil || got != path {
			t.Errorf("FindUpdatefile() = %s, %v", got, err)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		if _, err := FindUpdatefile(filepath.Join(t.TempDir(), "nope")); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("environment variable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "env.toml")
		if err := os.WriteFile(path, []byte(`update_url = "https://x"`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("APPUPDATE_CONFIG", path)

		got, err := FindUpdatefile("")
		if err != nil || got != path {
			t.Errorf("FindUpdatefile() = %s, %v", got, err)
		}
	})

	t.Run("xdg config dir", func(t *testing.T) {
		xdg := t.TempDir()
		dir := filepath.Join(xdg, "appupdate")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(dir, "Updatefile.yaml")
		if err := os.WriteFile(path, []byte("update_url: https://x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Setenv("APPUPDATE_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", xdg)

		got, err := FindUpdatefile("")
		if err != nil || got != path {
			t.Errorf("FindUpdatefile() = %s, %v", got, err)
		}
	})
}
