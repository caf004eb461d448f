package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adamancini/appupdate/internal/config"
	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/output"
	"github.com/adamancini/appupdate/internal/transport"
	"github.com/adamancini/appupdate/internal/types"
	"github.com/adamancini/appupdate/internal/update"
)

// loadSettings reads the Updatefile, if any, and layers environment and flag
// overrides on top. The result is validated.
func (a *app) loadSettings() (*config.Updatefile, error) {
	explicit := a.v.GetString("config")

	settings := config.Default()
	path, err := config.FindUpdatefile(explicit)
	switch {
	case err == nil:
		if settings, err = config.Load(path); err != nil {
			return nil, err
		}
	case explicit == "" && errors.Is(err, config.ErrNotFound):
		// Flags and environment alone are enough.
	default:
		return nil, err
	}

	a.applyOverrides(settings)

	if settings.CurrentVersion == "" {
		settings.CurrentVersion = a.build.Version
	}

	if err := config.Validate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (a *app) applyOverrides(s *config.Updatefile) {
	v := a.v
	if v.IsSet("url") {
		s.UpdateURL = v.GetString("url")
	}
	if v.IsSet("method") {
		if m, err := types.ParseMethod(v.GetString("method")); err == nil {
			s.Method = m
		} else {
			// Keep the raw value so validation reports it.
			s.Method = types.Method(v.GetString("method"))
		}
	}
	if v.IsSet("app-key") {
		s.AppKey = v.GetString("app-key")
	}
	if v.IsSet("app-name") {
		s.AppName = v.GetString("app-name")
	}
	if v.IsSet("current-version") {
		s.CurrentVersion = v.GetString("current-version")
	}
	if v.IsSet("target-path") {
		s.TargetPath = v.GetString("target-path")
	}
	if v.IsSet("param") {
		if params := v.GetStringMapString("param"); len(params) > 0 {
			s.Params = params
		}
	}
	if v.IsSet("timeout") {
		s.HTTP.Timeout = v.GetString("timeout")
	}
	if v.IsSet("download-timeout") {
		s.HTTP.DownloadTimeout = v.GetString("download-timeout")
	}
	if v.IsSet("retries") {
		s.HTTP.Retries = v.GetInt("retries")
	}
	if v.IsSet("log-level") {
		s.Log.Level = v.GetString("log-level")
	}
	if v.IsSet("log-format") {
		s.Log.Format = v.GetString("log-format")
	}
	if v.IsSet("log-file") {
		s.Log.File = v.GetString("log-file")
	}
}

// withLogger attaches a logger built from settings and flags to ctx.
// The returned closer releases the log file.
func (a *app) withLogger(ctx context.Context, s *config.Updatefile, errOut io.Writer) (context.Context, io.Closer) {
	cfg := logging.DefaultConfig()
	cfg.Out = errOut
	cfg.Format = s.Log.Format
	cfg.File = s.Log.File
	cfg.Level = logging.ParseLevel(s.Log.Level)

	switch {
	case a.v.GetBool("verbose"):
		cfg.Level = zerolog.DebugLevel
	case a.v.GetBool("quiet"):
		cfg.Level = zerolog.ErrorLevel
	}

	logger, closer := logging.New(cfg)
	return logging.WithContext(ctx, logger), closer
}

func (a *app) outputWriter(cmd *cobra.Command) (*output.Writer, error) {
	format, err := output.ParseFormat(a.v.GetString("output"))
	if err != nil {
		return nil, err
	}
	return output.NewWriter(cmd.OutOrStdout(), format), nil
}

func (a *app) newHTTPClient(s *config.Updatefile) (*transport.HTTPClient, error) {
	timeout, err := s.HTTP.TimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid http timeout: %w", err)
	}
	downloadTimeout, err := s.HTTP.DownloadTimeoutDuration()
	if err != nil {
		return nil, fmt.Errorf("invalid download timeout: %w", err)
	}

	client := transport.NewHTTPClient().
		WithTimeout(timeout).
		WithDownloadTimeout(downloadTimeout).
		WithRetries(s.HTTP.Retries).
		WithUserAgent(userAgent(s, a.build))
	for k, v := range s.HTTP.Headers {
		client = client.WithHeader(k, v)
	}
	return client, nil
}

func userAgent(s *config.Updatefile, build buildInfo) string {
	if s.HTTP.UserAgent != "" {
		return s.HTTP.UserAgent
	}
	return fmt.Sprintf("%s/%s", s.AppName, build.Version)
}

func newCoordinator(ctx context.Context, s *config.Updatefile, host update.Host, client transport.Client, svc *update.Service) (*update.Coordinator, error) {
	return update.NewBuilder().
		Service(svc).
		Host(host).
		Client(client).
		UpdateURL(s.UpdateURL).
		AppKey(s.AppKey).
		TargetPath(s.TargetPath).
		Method(s.Method).
		Params(s.Params).
		Build(ctx)
}
