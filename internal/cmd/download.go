package cmd

import (
	"errors"
	"math"

	"github.com/spf13/cobra"

	"github.com/adamancini/appupdate/internal/logging"
	"github.com/adamancini/appupdate/internal/output"
	"github.com/adamancini/appupdate/internal/update"
)

var errDeclined = errors.New("download declined")

func newDownloadCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Check for an update and download it",
		Long: `Run an update check and, when a newer version exists, download the package
to the target directory. The package checksum is verified when the update
endpoint provides one.

Without --yes, the update is described and you are asked to confirm.

Examples:
  appupdate download --url https://updates.example.com/check
  appupdate download --yes --target-path ./updates`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDownload(cmd, yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Download without asking for confirmation")

	return cmd
}

type downloadEvent struct {
	path string
	err  error
}

func (a *app) runDownload(cmd *cobra.Command, yes bool) error {
	writer, err := a.outputWriter(cmd)
	if err != nil {
		return err
	}

	if !yes && !a.isTerminal() {
		return errors.New("refusing to download without confirmation: stdin is not a terminal (use --yes)")
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
	if outcome.notice != "" || outcome.descriptor == nil {
		result := output.NewCheckResult(s.settings.CurrentVersion, outcome.descriptor)
		result.Message = outcome.notice
		return writer.Write(result)
	}

	d := outcome.descriptor
	if !yes && !a.newPrompter(cmd).ConfirmDownload(d) {
		return errDeclined
	}

	log := logging.FromContext(s.ctx)
	events := make(chan downloadEvent, 1)
	lastStep := -1
	err = s.coord.Download(s.ctx, update.DownloadCallbackFuncs{
		Start: func() {
			log.Info().Str("version", d.NewVersion).Str("url", d.DownloadURL).Msg("downloading update")
		},
		Max: func(total int64) {
			log.Debug().Int64("bytes", total).Msg("package size")
		},
		Progress: func(progress float64, total int64) {
			step := int(math.Floor(progress * 10))
			if step != lastStep {
				lastStep = step
				log.Debug().Float64("progress", progress).Int64("total", total).Msg("download progress")
			}
		},
		Finish: func(path string) {
			events <- downloadEvent{path: path}
		},
		Error: func(err error) {
			events <- downloadEvent{err: err}
		},
	})
	if err != nil {
		return err
	}

	var ev downloadEvent
	select {
	case ev = <-events:
	case <-s.ctx.Done():
		s.service.Stop()
		_ = s.service.Wait()
		return s.ctx.Err()
	}
	_ = s.service.Wait()

	if ev.err != nil {
		return ev.err
	}
	return writer.Write(output.DownloadResult{Version: d.NewVersion, Path: ev.path})
}
