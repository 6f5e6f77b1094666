package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/compiler"
	"github.com/skorokithakis/dock/internal/extend"
)

// newExtendCommand creates the extend command.
func newExtendCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extend <shared-id> [-- launch command...]",
		Short: "Merge this project into a shared container",
		Long: `Merge the current project into the shared container named after <shared-id>,
creating it when it does not exist. The shared image is committed after every
successful extension, and the project's compose file is recorded so that
'dock terraform' can start its services.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, closeFn, err := a.gateway()
			if err != nil {
				return err
			}
			defer closeFn()

			project, err := a.loadProject(rt)
			if err != nil {
				return err
			}
			if len(args) > 1 {
				if err := project.Store.SetLaunchCommand(args[1:]...); err != nil {
					return err
				}
			}

			configPath := project.ConfigPath
			if configPath == "" {
				configPath = project.Root
			}

			coordinator := extend.New(rt, extend.Options{
				Compiler:  a.compiler(),
				Lifecycle: a.controller(rt),
				Log:       a.log,
			})
			if _, inside := os.LookupEnv(compiler.SentinelEnv); !inside {
				if err := rt.Ping(ctx); err != nil {
					return err
				}
			}

			result, err := coordinator.Extend(ctx, extend.Request{
				SharedID:    args[0],
				Project:     project.Name,
				ConfigPath:  configPath,
				ComposePath: project.ComposePath,
				Store:       project.Store,
			})
			if err != nil {
				return err
			}
			if !result.InPlace {
				fmt.Printf("%s now contains: %s\n", result.Name, result.Projects)
			}
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
