package update

import (
	"encoding/json"
	"fmt"
	"strings"
)

// JSONParser parses the common update document:
//
//	{
//	  "update": "Yes",
//	  "new_version": "2.1.0",
//	  "apk_file_url": "https://example.com/app-2.1.0.bin",
//	  "update_log": "...",
//	  "target_size": "5M",
//	  "constraint": false,
//	  "new_md5": "...",
//	  "sha256": "...",
//	  "assets": {"linux-amd64": "https://..."}
//	}
//
// When "update" is absent, availability is decided by comparing new_version
// against CurrentVersion.
type JSONParser struct {
	CurrentVersion string
	AppName        string
	Platform       Platform
}

// NewJSONParser creates a parser for the running platform.
func NewJSONParser(currentVersion, appName string) JSONParser {
	return JSONParser{
		CurrentVersion: currentVersion,
		AppName:        appName,
		Platform:       Detect(),
	}
}

type updateDocument struct {
	Update      *string           `json:"update"`
	NewVersion  string            `json:"new_version"`
	DownloadURL string            `json:"apk_file_url"`
	UpdateLog   string            `json:"update_log"`
	TargetSize  string            `json:"target_size"`
	Constraint  bool              `json:"constraint"`
	MD5         string            `json:"new_md5"`
	SHA256      string            `json:"sha256"`
	FileName    string            `json:"file_name"`
	Assets      map[string]string `json:"assets"`
}

// Parse turns a response body into a descriptor.
func (p JSONParser) Parse(body string) (*Descriptor, error) {
	var doc updateDocument
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode update document: %w", err)
	}

	available, err := p.available(doc)
	if err != nil {
		return nil, err
	}

	return &Descriptor{
		Available:   available,
		NewVersion:  doc.NewVersion,
		DownloadURL: p.assetURL(doc),
		UpdateLog:   doc.UpdateLog,
		TargetSize:  doc.TargetSize,
		Constraint:  doc.Constraint,
		MD5:         doc.MD5,
		SHA256:      doc.SHA256,
		FileName:    doc.FileName,
	}, nil
}

func (p JSONParser) available(doc updateDocument) (bool, error) {
	if doc.Update != nil {
		switch strings.ToLower(strings.TrimSpace(*doc.Update)) {
		case "yes", "true", "1":
			return true, nil
		case "no", "false", "0", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid update flag %q", *doc.Update)
		}
	}

	if doc.NewVersion == "" {
		return false, nil
	}
	newer, err := IsNewer(doc.NewVersion, p.CurrentVersion)
	if err != nil {
		return false, fmt.Errorf("cannot compare versions: %w", err)
	}
	return newer, nil
}

// assetURL prefers a platform-specific asset over the generic URL.
func (p JSONParser) assetURL(doc updateDocument) string {
	if u, ok := doc.Assets[p.Platform.Key()]; ok && u != "" {
		return u
	}
	if p.AppName != "" {
		if u, ok := doc.Assets[p.Platform.AssetName(p.AppName)]; ok && u != "" {
			return u
		}
	}
	return doc.DownloadURL
}
