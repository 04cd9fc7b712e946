package operations

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/journal"
	"github.com/spf13/cobra"
)

func NewCmd(env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"operation", "ops"},
		Short:   "Journaled operations",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(ListCmd(env))
	cmd.AddCommand(ResumeCmd(env))

	return cmd
}

var listExample = `
# List the most recent operations
markup operations list

# List as json
markup operations list --limit 5 -o json`

func ListCmd(env *config.Env) *cobra.Command {
	var (
		limit  int
		output string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List journaled operations, most recent first",
		Example: listExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := env.Journal()
			if err != nil {
				return err
			}
			if j == nil {
				return fmt.Errorf("no journal is enabled")
			}
			defer config.CloseJournal(j)

			records, err := j.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if output == "json" {
				data, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return err
				}
				cmd.Println(string(data))
				return nil
			}

			prettyPrintRecords(cmd, records...)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "maximum number of operations")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}

func prettyPrintRecords(cmd *cobra.Command, records ...*journal.Record) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	formatted := func(row ...any) {
		_, _ = fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\t%v\n", row...)
	}

	formatted(
		"ID",
		"STEP",
		"KIND",
		"OPERATION",
		"STATE",
		"ATTEMPTS",
	)

	for _, r := range records {
		formatted(
			r.ID,
			r.Step,
			r.Kind,
			r.Handle(),
			r.State,
			r.Attempts,
		)
	}

	_ = w.Flush()
}

var resumeExample = `
# Keep waiting for an operation that ran out of status checks
markup operations resume 0b6f3c1e-52a4-4f43-9b0e-3d2f1c7a9e21`

func ResumeCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:     "resume <id>",
		Short:   "Resume waiting for a journaled operation",
		Example: resumeExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("must specify an operation id")
			}
			ctx := cmd.Context()

			j, err := env.Journal()
			if err != nil {
				return err
			}
			if j == nil {
				return fmt.Errorf("no journal is enabled")
			}
			defer config.CloseJournal(j)

			r, err := j.Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get operation %s: %w", args[0], err)
			}

			services, err := env.ServicesFor(ctx, r)
			if err != nil {
				return err
			}

			out, err := env.Pipeline(services, j, nil).Resume(ctx, r.ID)
			if err != nil {
				return err
			}

			cmd.Printf("Operation %s succeeded after %d status checks\n", out.Handle, out.Attempts)
			return nil
		},
	}
}
