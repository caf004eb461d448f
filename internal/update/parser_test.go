package update

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser_Parse(t *testing.T) {
	linux := Platform{OS: "linux", Arch: "amd64"}

	tests := []struct {
		name    string
		current string
		body    string
		want    *Descriptor
		wantErr bool
	}{
		{
			name:    "explicit yes",
			current: "1.0.0",
			body: `{"update":"Yes","new_version":"1.1.0","apk_file_url":"https://x/app.bin",
				"update_log":"fixes","target_size":"5M","constraint":true,"new_md5":"abc"}`,
			want: &Descriptor{
				Available:   true,
				NewVersion:  "1.1.0",
				DownloadURL: "https://x/app.bin",
				UpdateLog:   "fixes",
				TargetSize:  "5M",
				Constraint:  true,
				MD5:         "abc",
			},
		},
		{
			name:    "explicit no wins over newer version",
			current: "1.0.0",
			body:    `{"update":"No","new_version":"9.0.0"}`,
			want:    &Descriptor{NewVersion: "9.0.0"},
		},
		{
			name:    "version comparison when flag absent",
			current: "2.0-debug",
			body:    `{"new_version":"2.0.1","sha256":"ff"}`,
			want:    &Descriptor{Available: true, NewVersion: "2.0.1", SHA256: "ff"},
		},
		{
			name:    "same version when flag absent",
			current: "2.0.1",
			body:    `{"new_version":"2.0.1"}`,
			want:    &Descriptor{NewVersion: "2.0.1"},
		},
		{
			name:    "platform asset overrides url",
			current: "1.0.0",
			body:    `{"update":"yes","apk_file_url":"https://x/generic","assets":{"linux-amd64":"https://x/linux"}}`,
			want:    &Descriptor{Available: true, DownloadURL: "https://x/linux"},
		},
		{
			name:    "named asset",
			current: "1.0.0",
			body:    `{"update":"yes","assets":{"myapp-linux-amd64":"https://x/named"}}`,
			want:    &Descriptor{Available: true, DownloadURL: "https://x/named"},
		},
		{
			name:    "malformed json",
			current: "1.0.0",
			body:    `{"update":`,
			wantErr: true,
		},
		{
			name:    "unknown flag",
			current: "1.0.0",
			body:    `{"update":"maybe"}`,
			wantErr: true,
		},
		{
			name:    "uncomparable version",
			current: "1.0.0",
			body:    `{"new_version":"latest"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := JSONParser{CurrentVersion: tt.current, AppName: "myapp", Platform: linux}

			got, err := p.Parse(tt.body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSONParser(t *testing.T) {
	p := NewJSONParser("1.0.0", "myapp")
	assert.Equal(t, Detect(), p.Platform)
	assert.Equal(t, "1.0.0", p.CurrentVersion)
}
