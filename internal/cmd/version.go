package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (b buildInfo) String() string {
	return fmt.Sprintf("appupdate version %s (commit %s, built %s)", b.Version, b.Commit, b.Date)
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			writer, err := a.outputWriter(cmd)
			if err != nil {
				return err
			}
			return writer.Write(a.build)
		},
	}
}
