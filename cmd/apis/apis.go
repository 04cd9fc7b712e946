package apis

import (
	"fmt"
	"strings"

	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewCmd(env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apis",
		Aliases: []string{"api"},
		Short:   "Google cloud apis",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(EnableCmd(env))
	cmd.AddCommand(IsEnabledCmd(env))

	return cmd
}

var enableExample = `
# Enable the apis markup depends on
markup apis enable

# Enable specific apis
markup apis enable composer.googleapis.com storage.googleapis.com`

func EnableCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:     "enable [api...]",
		Short:   "Enable apis and wait until they are enabled",
		Example: enableExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			apis := args
			if len(apis) == 0 {
				apis = env.Config.APIs
			}

			service, err := env.APIs(ctx)
			if err != nil {
				return err
			}

			h, err := service.Enable(ctx, apis)
			if err != nil {
				return err
			}

			out, err := env.Await(ctx, &pipeline.Services{APIs: service}, pipeline.StepAPIs, h, env.Config.Operations)
			if err != nil {
				return err
			}

			cmd.Printf("Enabled apis: %s (%d status checks)\n", strings.Join(apis, ", "), out.Attempts)
			return nil
		},
	}
}

func IsEnabledCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "is-enabled <api>",
		Short: "Check whether an api is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("must specify an api")
			}

			service, err := env.APIs(cmd.Context())
			if err != nil {
				return err
			}

			enabled, err := service.IsEnabled(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if enabled {
				cmd.Printf("%s is enabled\n", args[0])
			} else {
				cmd.Printf("%s is not enabled\n", args[0])
			}
			return nil
		},
	}
}
