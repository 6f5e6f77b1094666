package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCommand creates the version command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show dock version",
		Long:  "Display the version of dock",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("dock version %s\n", version)
			return nil
		},
	}
}
