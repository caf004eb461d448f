package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adamancini/appupdate/internal/interactive"
)

// buildInfo carries the ldflags-injected build metadata.
type buildInfo struct {
	Version string `json:"version" yaml:"version"`
	Commit  string `json:"commit" yaml:"commit"`
	Date    string `json:"date" yaml:"date"`
}

// app holds per-invocation state shared by subcommands.
type app struct {
	v     *viper.Viper
	build buildInfo

	// Seams for tests.
	isTerminal  func() bool
	newPrompter func(cmd *cobra.Command) *interactive.Prompter
}

func Execute(version, commit, date string) error {
	rootCmd := newRootCmd(buildInfo{Version: version, Commit: commit, Date: date})
	return rootCmd.ExecuteContext(context.Background())
}

func newRootCmd(build buildInfo) *cobra.Command {
	return newApp(build).rootCmd()
}

func newApp(build buildInfo) *app {
	return &app{
		v:          viper.New(),
		build:      build,
		isTerminal: interactive.IsTerminal,
		newPrompter: func(cmd *cobra.Command) *interactive.Prompter {
			return interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	build := a.build
	rootCmd := &cobra.Command{
		Use:   "appupdate",
		Short: "Check for and download application updates",
		Long: `appupdate asks an update endpoint whether a newer version of an application
exists and downloads the new package in the background.

Settings come from an Updatefile, APPUPDATE_* environment variables, and flags,
in increasing order of precedence.`,
		Version:      build.Version,
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("output", "o", "text", "Output format: text, json, yaml")
	flags.String("config", "", "Path to Updatefile")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.BoolP("quiet", "q", false, "Quiet mode (errors only)")
	flags.String("log-level", "", "Log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "Log format: console, json")
	flags.String("log-file", "", "Also write JSON logs to this file (rotated)")

	// Update settings
	flags.String("url", "", "Update check endpoint")
	flags.String("method", "", "Check request method: get, post")
	flags.String("app-key", "", "Application key sent with the check request")
	flags.String("app-name", "", "Application name used for cache directories and asset lookup")
	flags.String("current-version", "", "Installed version to report (defaults to this binary's version)")
	flags.String("target-path", "", "Download directory (defaults to the user cache directory)")
	flags.StringToString("param", nil, "Custom request parameter key=value; replaces appKey/version (repeatable)")
	flags.String("timeout", "", "Check request timeout, e.g. 30s")
	flags.String("download-timeout", "", "Cap on a whole package download (default: none)")
	flags.Int("retries", 0, "Attempts per HTTP request")

	_ = a.v.BindPFlags(flags)
	a.v.SetEnvPrefix("APPUPDATE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	// Add subcommands
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion functions
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("method", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"get", "post"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
