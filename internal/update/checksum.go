package update

import (
	"crypto/md5" //nolint:gosec // servers still publish MD5 package digests
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// verifyChecksum compares path against the descriptor's SHA256, falling back
// to MD5. A descriptor without either always verifies.
func verifyChecksum(path string, d *Descriptor) error {
	var (
		want string
		got  string
		err  error
	)
	switch {
	case d.SHA256 != "":
		want = d.SHA256
		got, err = calculateSHA256(path)
	case d.MD5 != "":
		want = d.MD5
		got, err = calculateMD5(path)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", path, err)
	}

	if !strings.EqualFold(strings.TrimSpace(want), got) {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, got)
	}
	return nil
}

// calculateSHA256 computes the SHA256 checksum of a file
func calculateSHA256(path string) (string, error) {
	return hashFile(path, sha256.New())
}

// calculateMD5 computes the MD5 checksum of a file
func calculateMD5(path string) (string, error) {
	return hashFile(path, md5.New()) //nolint:gosec
}

func hashFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
