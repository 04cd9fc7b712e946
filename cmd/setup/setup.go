package setup

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/notify"
	"github.com/spf13/cobra"
)

var setupExample = `
# Provision the pipeline for a merchant center and google ads account
markup setup --project acme --merchant-center-id 1234 --google-ads-customer-id 123-456-7890

# Also schedule the main workflow and provision composer
markup setup --transfers-scheduled-query --composer-enable --composer-dags-dir dags`

func NewCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:          "setup",
		Short:        "Provision the markup pipeline",
		Example:      setupExample,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if env.Config.MerchantCenter.ID == "" {
				return fmt.Errorf("must specify a merchant center id")
			}
			if env.Config.GoogleAds.CustomerID == "" {
				return fmt.Errorf("must specify a google ads customer id")
			}

			services, err := env.Services(ctx)
			if err != nil {
				return err
			}

			j, err := env.Journal()
			if err != nil {
				return err
			}
			defer config.CloseJournal(j)

			n, err := env.Notifier(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = n.Close() }()

			summary, err := env.Pipeline(services, j, n).Run(ctx)
			printSummary(cmd.OutOrStdout(), summary)

			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nMarkup is set up in %s.%s\n", summary.Project, summary.Dataset)
			return nil
		},
	}
}

func printSummary(out io.Writer, summary *notify.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	formatted := func(row ...any) {
		_, _ = fmt.Fprintf(w, "%v\t%v\t%v\n", row...)
	}

	formatted(
		"STEP",
		"OUTCOME",
		"DETAIL",
	)

	for _, step := range summary.Steps {
		formatted(
			step.Name,
			step.Outcome,
			step.Detail,
		)
	}

	_ = w.Flush()
}
