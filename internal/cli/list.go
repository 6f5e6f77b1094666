package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/config"
	"github.com/skorokithakis/dock/internal/labels"
	"github.com/skorokithakis/dock/internal/runtime"
)

// newListCommand creates the list command.
func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers managed by dock",
		Long:  "List every container created by dock, with the projects merged into shared containers",
		Args:  cobra.NoArgs,
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

			if len(containers) == 0 {
				fmt.Println("No dock containers.")
				return nil
			}

			fmt.Printf("%-30s %-8s %-35s %s\n", "NAME", "STATUS", "IMAGE", "PROJECTS")
			for _, c := range containers {
				fmt.Printf("%-30s %-8s %-35s %s\n", c.Name, c.Status, c.Image, c.Labels[labels.Projects])
			}
			return nil
		},
	}
}
