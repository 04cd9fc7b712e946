package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewCmd(env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "composer",
		Short: "Cloud composer environment",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(CreateCmd(env))
	cmd.AddCommand(patchCmd(env, "install-packages [package[==version]...]", "Install pypi packages", "==", func(c *config.Composer) map[string]string { return c.Packages }, (*composer.Service).InstallPackages))
	cmd.AddCommand(patchCmd(env, "set-env [KEY=VALUE...]", "Set environment variables", "=", func(c *config.Composer) map[string]string { return c.EnvVariables }, (*composer.Service).SetEnvVariables))
	cmd.AddCommand(patchCmd(env, "override-airflow [section-key=value...]", "Override airflow configuration", "=", func(c *config.Composer) map[string]string { return c.AirflowOverrides }, (*composer.Service).OverrideAirflowConfigs))
	cmd.AddCommand(DescribeCmd(env))
	cmd.AddCommand(WaitReadyCmd(env))
	cmd.AddCommand(UploadDagsCmd(env))

	return cmd
}

func await(cmd *cobra.Command, env *config.Env, service *composer.Service, h operation.Handle) (operation.Outcome, error) {
	return env.Await(cmd.Context(), &pipeline.Services{Composer: service}, pipeline.StepComposer, h, env.Config.Composer.Poll)
}

func CreateCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create the composer environment and wait until it is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := env.Composer(cmd.Context())
			if err != nil {
				return err
			}

			name := env.Config.Composer.Environment.Name

			h, err := service.Create(cmd.Context(), &env.Config.Composer.Environment)
			if errors.Is(err, composer.ErrAlreadyExists) {
				cmd.Printf("Composer environment %s already exists\n", name)
				return nil
			}
			if err != nil {
				return err
			}

			if _, err := await(cmd, env, service, h); err != nil {
				return err
			}
			if _, err := await(cmd, env, service, composer.EnvironmentHandle(service.EnvironmentName(name))); err != nil {
				return err
			}

			cmd.Printf("Created composer environment %s\n", name)
			return nil
		},
	}
}

type patchFunc func(s *composer.Service, ctx context.Context, envName string, values map[string]string) (operation.Handle, error)

// parsePairs splits every arg on sep. The separator is kept in the value
// when it is "==" since pypi package specs carry it.
func parsePairs(args []string, sep string) (map[string]string, error) {
	pairs := map[string]string{}
	for _, arg := range args {
		key, value, found := strings.Cut(arg, sep)
		if key == "" {
			return nil, fmt.Errorf("invalid argument %q", arg)
		}

		switch {
		case sep == "==" && found:
			pairs[key] = sep + value
		case sep == "==":
			pairs[key] = ""
		case !found:
			return nil, fmt.Errorf("invalid argument %q, expected KEY%sVALUE", arg, sep)
		default:
			pairs[key] = value
		}
	}
	return pairs, nil
}

func patchCmd(env *config.Env, use, short, sep string, fromConfig func(*config.Composer) map[string]string, patch patchFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := fromConfig(&env.Config.Composer)
			if len(args) > 0 {
				var err error
				if values, err = parsePairs(args, sep); err != nil {
					return err
				}
			}
			if len(values) == 0 {
				return fmt.Errorf("nothing to update")
			}

			service, err := env.Composer(cmd.Context())
			if err != nil {
				return err
			}

			h, err := patch(service, cmd.Context(), env.Config.Composer.Environment.Name, values)
			if err != nil {
				return err
			}

			out, err := await(cmd, env, service, h)
			if err != nil {
				return err
			}

			cmd.Printf("Operation %s succeeded after %d status checks\n", out.Handle, out.Attempts)
			return nil
		},
	}
}

func DescribeCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Describe the composer environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := env.Composer(cmd.Context())
			if err != nil {
				return err
			}

			e, err := service.Get(cmd.Context(), env.Config.Composer.Environment.Name)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "Name:\t%s\n", e.Name)
			_, _ = fmt.Fprintf(w, "State:\t%s\n", e.State)
			if c := e.Config; c != nil {
				_, _ = fmt.Fprintf(w, "Airflow:\t%s\n", c.AirflowUri)
				_, _ = fmt.Fprintf(w, "Dags:\t%s\n", c.DagGcsPrefix)
				if c.SoftwareConfig != nil {
					_, _ = fmt.Fprintf(w, "Image:\t%s\n", c.SoftwareConfig.ImageVersion)
				}
			}
			_ = w.Flush()

			return nil
		},
	}
}

func WaitReadyCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "wait-ready",
		Short: "Wait until the composer environment is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := env.Composer(cmd.Context())
			if err != nil {
				return err
			}

			h := composer.EnvironmentHandle(service.EnvironmentName(env.Config.Composer.Environment.Name))
			out, err := await(cmd, env, service, h)
			if err != nil {
				return err
			}

			cmd.Printf("Composer environment %s is running after %d status checks\n", h.Name, out.Attempts)
			return nil
		},
	}
}

func UploadDagsCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "upload-dags <dir>",
		Short: "Upload a directory to the dags folder of the composer environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("must specify a directory")
			}

			service, err := env.Composer(cmd.Context())
			if err != nil {
				return err
			}
			storage, err := env.Storage(cmd.Context())
			if err != nil {
				return err
			}

			folder, err := service.DagsFolder(cmd.Context(), env.Config.Composer.Environment.Name)
			if err != nil {
				return err
			}

			n, err := storage.UploadDir(cmd.Context(), args[0], folder)
			if err != nil {
				return err
			}

			cmd.Printf("Uploaded %d files to %s\n", n, folder)
			return nil
		},
	}
}
