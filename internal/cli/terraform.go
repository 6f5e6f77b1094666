package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skorokithakis/dock/internal/terraform"
)

// newTerraformCommand creates the terraform command.
func newTerraformCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "terraform <shared-id>",
		Short: "Recompose the services of a shared container",
		Long: `Resolve the compose file of every project merged into the shared container,
remove the containers running inside it and start the merged composition with
the recorded startup services.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, closeFn, err := a.connect(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			plan, err := terraform.New(rt, terraform.Options{Log: a.log}).Terraform(ctx, args[0])
			if err != nil {
				return err
			}

			if len(plan.Services) > 0 {
				fmt.Printf("Started %s in %s\n", strings.Join(plan.Services, " "), plan.Name)
			}
			return nil
		},
	}
}
