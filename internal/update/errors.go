package update

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("invalid update configuration")

	// ErrNoDescriptor is returned by Download when no check has produced a descriptor.
	ErrNoDescriptor = errors.New("no update descriptor available")

	// ErrDownloadInProgress is returned when a download is started while another runs.
	ErrDownloadInProgress = errors.New("download already in progress")

	// ErrChecksumMismatch is returned when a downloaded package fails verification.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrNoDownloadURL is returned when the descriptor carries no download URL.
	ErrNoDownloadURL = errors.New("descriptor has no download URL")

	// ErrParse wraps failures of the response parser.
	ErrParse = errors.New("failed to parse update response")
)

// ConfigurationError reports a required builder field that is missing or invalid
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
