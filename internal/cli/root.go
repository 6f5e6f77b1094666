package cli

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/lifecycle"
)

var (
	version = "1.0.0"
)

// Execute runs the CLI and exits with the resulting status.
func Execute() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{log: logrus.StandardLogger()}
	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var launchErr *lifecycle.LaunchError
	if errors.As(err, &launchErr) {
		a.log.Debugf("%v", err)
		return launchErr.Code
	}
	a.log.Errorf("%v", err)
	return 1
}

func newRootCommand(a *app) *cobra.Command {
	var opts launchOptions

	rootCmd := &cobra.Command{
		Use:   "dock [flags] [-- launch command...]",
		Short: "Run a project's development container",
		Long: `Dock provisions a development container for the current repository from the
.dock file at its root, and attaches to it if it is already running.

Any arguments after the flags replace the launch command declared in the file.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.launch(cmd.Context(), opts, args)
		},
	}

	// Disable default completion command.
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	// Everything after the first positional argument belongs to the launch command.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Project config file (default: .dock at the repository root)")
	rootCmd.Flags().BoolVarP(&opts.force, "force", "f", false, "Remove any existing container before launching")
	rootCmd.Flags().StringVar(&opts.name, "name", "", "Override the container name")

	rootCmd.AddCommand(
		newExtendCommand(a),
		newTerraformCommand(a),
		newListCommand(a),
		newCleanCommand(a),
		newUpgradeCommand(a),
		newVersionCommand(),
	)

	return rootCmd
}
