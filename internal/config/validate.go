package config

import (
	"fmt"
	"net/url"
	"strings"
)

// knownLevels are the level names logging.ParseLevel understands.
var knownLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "disabled": true, "off": true,
}

// ValidationError represents an Updatefile validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the Updatefile for required fields and valid values.
func Validate(u *Updatefile) error {
	var errors []string

	if err := validateURL("update_url", u.UpdateURL, true); err != nil {
		errors = append(errors, err.Error())
	}

	if err := u.Method.Validate(); err != nil {
		errors = append(errors, ValidationError{Field: "method", Message: err.Error()}.Error())
	}

	if err := validateHTTP(u.HTTP); err != nil {
		errors = append(errors, err.Error())
	}

	if err := validateLog(u.Log); err != nil {
		errors = append(errors, err.Error())
	}

	for key := range u.Params {
		if strings.TrimSpace(key) == "" {
			errors = append(errors, ValidationError{Field: "params", Message: "parameter name cannot be empty"}.Error())
			break
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateURL(field, raw string, required bool) error {
	if raw == "" {
		if required {
			return ValidationError{Field: field, Message: "is required"}
		}
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ValidationError{Field: field, Message: fmt.Sprintf("unsupported scheme '%s' (must be http or https)", u.Scheme)}
	}
	if u.Host == "" {
		return ValidationError{Field: field, Message: "host is required"}
	}

	return nil
}

func validateHTTP(h HTTPConfig) error {
	if d, err := h.TimeoutDuration(); err != nil {
		return ValidationError{Field: "http.timeout", Message: fmt.Sprintf("invalid duration '%s'", h.Timeout)}
	} else if d < 0 {
		return ValidationError{Field: "http.timeout", Message: "must not be negative"}
	}

	if d, err := h.DownloadTimeoutDuration(); err != nil {
		return ValidationError{Field: "http.download_timeout", Message: fmt.Sprintf("invalid duration '%s'", h.DownloadTimeout)}
	} else if d < 0 {
		return ValidationError{Field: "http.download_timeout", Message: "must not be negative"}
	}

	if h.Retries < 0 {
		return ValidationError{Field: "http.retries", Message: "must not be negative"}
	}

	return nil
}

func validateLog(l LogConfig) error {
	if l.Level != "" && !knownLevels[strings.ToLower(l.Level)] {
		return ValidationError{Field: "log.level", Message: fmt.Sprintf("unknown level '%s'", l.Level)}
	}

	switch l.Format {
	case "", "console", "json":
	default:
		return ValidationError{Field: "log.format", Message: fmt.Sprintf("invalid format '%s' (must be console or json)", l.Format)}
	}

	return nil
}
