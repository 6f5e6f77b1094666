package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/extend"
	"github.com/skorokithakis/dock/internal/runtime"
)

// newCleanCommand creates the clean command.
func newCleanCommand(a *app) *cobra.Command {
	var stopped bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover containers",
		Long: `Remove the temporary containers an interrupted or failed 'dock extend' left
behind. With --stopped, also remove every stopped dock container.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, closeFn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			containers, err := rt.List(ctx, runtime.ListFilter{Label: config.LabelManaged + "=true"})
			if err != nil {
				return err
			}

			controller := a.controller(rt)
			removed := 0
			for _, c := range containers {
				if !extend.IsTemporaryName(c.Name) && !(stopped && c.Status == runtime.Stopped) {
					continue
				}
				if err := controller.Destroy(ctx, c.Name); err != nil {
					return fmt.Errorf("failed to remove %s: %w", c.Name, err)
				}
				removed++
			}

			fmt.Printf("Removed %d container(s).\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stopped, "stopped", false, "Also remove stopped dock containers")
	return cmd
}
