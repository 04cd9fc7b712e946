package version

import (
	"fmt"

	"github.com/markuphq/markup/internal/version"
	"github.com/spf13/cobra"
)

func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the markup version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "markup version", version.Full())
		},
	}
}
