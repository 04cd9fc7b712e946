package transfers

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery/datatransfer/apiv1/datatransferpb"
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/internal/gcp/datatransfer"
	"github.com/markuphq/markup/internal/pipeline"
	"github.com/spf13/cobra"
)

func NewCmd(env *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transfers",
		Aliases: []string{"transfer"},
		Short:   "Bigquery data transfers",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(CreateMerchantCenterCmd(env))
	cmd.AddCommand(CreateGoogleAdsCmd(env))
	cmd.AddCommand(CreateScheduledQueryCmd(env))
	cmd.AddCommand(WaitCmd(env))

	return cmd
}

type createFunc func(ctx context.Context, s *datatransfer.Service) (*datatransferpb.TransferConfig, error)

func createCmd(env *config.Env, use, short string, check func() error, create createFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := check(); err != nil {
				return err
			}

			service, err := env.Transfers(ctx)
			if err != nil {
				return err
			}

			tc, err := create(ctx, service)
			if err != nil {
				return err
			}
			cmd.Printf("Transfer config: %s\n", tc.GetName())

			if !env.Config.Transfers.Wait {
				return nil
			}
			return wait(cmd, env, service, tc)
		},
	}
}

func CreateMerchantCenterCmd(env *config.Env) *cobra.Command {
	return createCmd(env,
		"create-merchant-center",
		"Create the merchant center transfer",
		func() error {
			if env.Config.MerchantCenter.ID == "" {
				return fmt.Errorf("must specify a merchant center id")
			}
			return nil
		},
		func(ctx context.Context, s *datatransfer.Service) (*datatransferpb.TransferConfig, error) {
			return s.CreateMerchantCenterTransfer(ctx, env.Config.MerchantCenter.ID, env.Config.Dataset.Name)
		},
	)
}

func CreateGoogleAdsCmd(env *config.Env) *cobra.Command {
	return createCmd(env,
		"create-google-ads",
		"Create the google ads transfer and backfill it",
		func() error {
			if env.Config.GoogleAds.CustomerID == "" {
				return fmt.Errorf("must specify a google ads customer id")
			}
			return nil
		},
		func(ctx context.Context, s *datatransfer.Service) (*datatransferpb.TransferConfig, error) {
			return s.CreateGoogleAdsTransfer(ctx, env.Config.GoogleAds.CustomerID, env.Config.Dataset.Name, env.Config.GoogleAds.BackfillDays)
		},
	)
}

func CreateScheduledQueryCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "create-scheduled-query",
		Short: "Schedule the markup workflows as bigquery scheduled queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			service, err := env.Transfers(ctx)
			if err != nil {
				return err
			}

			detail, err := env.Pipeline(&pipeline.Services{Transfers: service}, nil, nil).Step(ctx, pipeline.StepScheduledQuery)
			if err != nil {
				return err
			}

			cmd.Printf("Scheduled queries: %s\n", detail)
			return nil
		},
	}
}

func WaitCmd(env *config.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "wait <transfer-config-name>",
		Short: "Wait for the latest run of a transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("must specify a transfer config name")
			}

			service, err := env.Transfers(cmd.Context())
			if err != nil {
				return err
			}

			tc, err := service.Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get transfer config %s: %w", args[0], err)
			}
			return wait(cmd, env, service, tc)
		},
	}
}

func wait(cmd *cobra.Command, env *config.Env, service *datatransfer.Service, tc *datatransferpb.TransferConfig) error {
	h := datatransfer.Handle(tc)

	out, err := env.Await(cmd.Context(), &pipeline.Services{Transfers: service}, pipeline.StepTransfers, h, env.Config.Transfers.Poll)
	if err != nil {
		return err
	}

	cmd.Printf("Transfer %s succeeded after %d status checks\n", h, out.Attempts)
	return nil
}
