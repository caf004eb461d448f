package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/adamancini/appupdate/internal/config"
	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/output"
	"github.com/adamancini/appupdate/internal/update"
)

// session wires one invocation's settings into a coordinator.
type session struct {
	ctx      context.Context
	settings *config.Updatefile
	host     *cliHost
	client   *trackingClient
	service  *update.Service
	coord    *update.Coordinator
	closer   io.Closer
}

func (a *app) newSession(cmd *cobra.Command) (*session, error) {
	settings, err := a.loadSettings()
	if err != nil {
		return nil, err
	}

	ctx, closer := a.withLogger(cmd.Context(), settings, cmd.ErrOrStderr())

	httpClient, err := a.newHTTPClient(settings)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	s := &session{
		ctx:      ctx,
		settings: settings,
		host:     newCLIHost(settings.AppName, settings.CurrentVersion, cmd.ErrOrStderr()),
		client:   newTrackingClient(httpClient),
		service:  update.NewService(),
		closer:   closer,
	}

	s.coord, err = newCoordinator(ctx, settings, s.host, s.client, s.service)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return s, nil
}

func (s *session) Close() error {
	return s.closer.Close()
}

// checkOutcome is what one check cycle produced.
type checkOutcome struct {
	descriptor *update.Descriptor
	notice     string
}

// check runs a single check cycle and waits for it to complete.
func (s *session) check() (checkOutcome, error) {
	log := logging.FromContext(s.ctx)
	parser := update.NewJSONParser(s.settings.CurrentVersion, s.settings.AppName)

	var (
		mu  sync.Mutex
		out checkOutcome
	)
	s.coord.CheckForUpdate(s.ctx, update.CallbackFuncs{
		Parse: parser.Parse,
		Before: func(ctx context.Context) {
			log.Debug().Str("url", s.settings.UpdateURL).Str("method", string(s.settings.Method)).Msg("checking for update")
		},
		HasNew: func(ctx context.Context, d *update.Descriptor, _ *update.Coordinator) {
			mu.Lock()
			out.descriptor = d
			mu.Unlock()
		},
	})

	if err := s.client.wait(s.ctx); err != nil {
		return checkOutcome{}, err
	}
	if err := s.client.requestErr(); err != nil {
		return checkOutcome{}, fmt.Errorf("update check failed: %w", err)
	}

	for _, n := range s.host.Notices() {
		out.notice = n.String()
	}

	mu.Lock()
	defer mu.Unlock()
	return out, nil
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ask the update endpoint whether a newer version exists",
		Long: `Send one update check request and report the result.

Examples:
  appupdate check --url https://updates.example.com/check --app-key abc
  appupdate check --method post --param channel=beta -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd)
		},
	}
}

func (a *app) runCheck(cmd *cobra.Command) error {
	writer, err := a.outputWriter(cmd)
	if err != nil {
		return err
	}

	s, err := a.newSession(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	outcome, err := s.check()
	if err != nil {
		return err
	}

	result := output.NewCheckResult(s.settings.CurrentVersion, outcome.descriptor)
	result.Message = outcome.notice
	return writer.Write(result)
}
