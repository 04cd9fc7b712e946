package datasets

import (
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewCmd(env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"dataset"},
		Short:   "Bigquery dataset, reference tables and views",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(stepCmd(env, "create", "Create the dataset unless it exists", pipeline.StepDataset))
	cmd.AddCommand(stepCmd(env, "load-tables", "Load the reference tables from the data directory", pipeline.StepTables))
	cmd.AddCommand(stepCmd(env, "create-views", "Run the markup sql scripts in order", pipeline.StepViews))

	return cmd
}

func stepCmd(env *config.Env, use, short, step string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, err := env.BigQuery(ctx)
			if err != nil {
				return err
			}

			j, err := env.Journal()
			if err != nil {
				return err
			}
			defer config.CloseJournal(j)

			detail, err := env.Pipeline(&pipeline.Services{BigQuery: service}, j, nil).Step(ctx, step)
			if err != nil {
				return err
			}

			cmd.Printf("%s: %s\n", step, detail)
			return nil
		},
	}
}
