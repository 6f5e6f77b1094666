package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/lifecycle"
	"github.com/skorokithakis/dock/internal/runtime"
)

// newUpgradeCommand creates the upgrade command.
func newUpgradeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Pull or rebuild the project image",
		Long:  "Pull the latest version of the project's image, or rebuild it when the project uses a dockerfile",
		Args:  cobra.NoArgs,
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
			inv, err := a.compiler().Compile(project.Store)
			if err != nil {
				return err
			}
			if err := rt.Ping(ctx); err != nil {
				return err
			}

			if inv.Build != nil {
				fmt.Printf("Rebuilding %s from %s\n", inv.Build.Tag, inv.Build.Dockerfile)
				spec := *inv.Build
				spec.ExtraArgs = append(spec.ExtraArgs, "--pull")
				code, err := rt.Build(ctx, spec, runtime.ProcessStdio())
				if err != nil {
					return err
				}
				if code != 0 {
					return &lifecycle.LaunchError{Stage: "build", Code: code}
				}
				return nil
			}

			// Skip if image is SHA-pinned.
			if strings.Contains(inv.Image, "@sha256:") {
				fmt.Printf("%s is pinned by digest. Skipping upgrade.\n", inv.Image)
				return nil
			}

			fmt.Printf("Pulling %s\n", inv.Image)
			code, err := rt.Pull(ctx, inv.Image)
			if err != nil {
				return err
			}
			if code != 0 {
				return &lifecycle.LaunchError{Stage: "pull", Code: code}
			}
			return nil
		},
	}
}
