package update

import (
	"runtime"
	"testing"
)

func TestDetect(t *testing.T) {
	p := Detect()

	if p.OS == "" {
		t.Error("OS should not be empty")
	}

	if p.Arch == "" {
		t.Error("Arch should not be empty")
	}

	if p.OS != runtime.GOOS {
		t.Errorf("OS mismatch: got %s, want %s", p.OS, runtime.GOOS)
	}

	if p.Arch != runtime.GOARCH {
		t.Errorf("Arch mismatch: got %s, want %s", p.Arch, runtime.GOARCH)
	}
}

func TestPlatformKey(t *testing.T) {
	tests := []struct {
		name string
		p    Platform
		want string
	}{
		{
			name: "darwin arm64",
			p:    Platform{OS: "darwin", Arch: "arm64"},
			want: "darwin-arm64",
		},
		{
			name: "linux amd64",
			p:    Platform{OS: "linux", Arch: "amd64"},
			want: "linux-amd64",
		},
		{
			name: "windows amd64",
			p:    Platform{OS: "windows", Arch: "amd64"},
			want: "windows-amd64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Key(); got != tt.want {
				t.Errorf("Key() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlatformAssetName(t *testing.T) {
	p := Platform{OS: "linux", Arch: "arm64"}
	if got := p.AssetName("myapp"); got != "myapp-linux-arm64" {
		t.Errorf("AssetName() = %v, want myapp-linux-arm64", got)
	}
}
