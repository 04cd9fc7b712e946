package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/markuphq/markup/cmd/apis"
	"github.com/markuphq/markup/cmd/composer"
	"github.com/markuphq/markup/cmd/config"
	"github.com/markuphq/markup/cmd/datasets"
	"github.com/markuphq/markup/cmd/operations"
	"github.com/markuphq/markup/cmd/setup"
	"github.com/markuphq/markup/cmd/transfers"
	"github.com/markuphq/markup/cmd/version"
	"github.com/markuphq/markup/internal/gcp/auth"
	"github.com/markuphq/markup/internal/metrics"
	"github.com/markuphq/markup/pkg/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewCmd() *cobra.Command {
	var (
		vip = viper.New()
		cfg = &config.Config{}
		env = &config.Env{
			Config:   cfg,
			Prompter: &auth.Terminal{In: os.Stdin, Out: os.Stderr},
		}
		metricsServer *http.Server
	)

	cmd := &cobra.Command{
		Use:          "markup",
		Short:        "Provision the markup analytics pipeline",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(cmd, vip); err != nil {
				return err
			}
			if err := cfg.Parse(vip); err != nil {
				return err
			}

			// logger
			logger, err := log.New(cmd.ErrOrStderr(), cfg.LogLevel)
			if err != nil {
				return err
			}
			env.Logger = logger
			slog.SetDefault(env.Logger)

			// metrics
			reg := prometheus.NewRegistry()
			env.Metrics = metrics.New(reg)

			if env.Dialer == nil {
				env.Dialer = config.NewDialer(cfg, env.Logger)
			}

			if cfg.MetricsAddr != "" {
				metricsServer = serveMetrics(cfg.MetricsAddr, reg)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if metricsServer != nil {
				if err := metricsServer.Close(); err != nil {
					slog.Warn("error stopping metrics server", "error", err)
				}
			}
		},
	}

	// bind config file flag
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default markup.yaml)")

	// bind config
	if err := cfg.Bind(cmd.PersistentFlags(), vip); err != nil {
		panic(err)
	}

	// Add subcommands
	cmd.AddCommand(setup.NewCmd(env))
	cmd.AddCommand(apis.NewCmd(env))
	cmd.AddCommand(datasets.NewCmd(env))
	cmd.AddCommand(transfers.NewCmd(env))
	cmd.AddCommand(composer.NewCmd(env))
	cmd.AddCommand(operations.NewCmd(env))
	cmd.AddCommand(version.NewCmd())

	// Set default output
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	return cmd
}

func readConfig(cmd *cobra.Command, vip *viper.Viper) error {
	if file, _ := cmd.Flags().GetString("config"); file != "" {
		vip.SetConfigFile(file)
	} else {
		vip.SetConfigName("markup")
		vip.AddConfigPath(".")
		vip.AddConfigPath("$HOME")
	}

	vip.SetEnvPrefix("markup")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		for {
			slog.Info("starting metrics server", "addr", server.Addr)
			if err := server.ListenAndServe(); err == http.ErrServerClosed {
				return
			} else {
				slog.Error("restarting metrics server...", "error", err)
			}

			time.Sleep(5 * time.Second)
		}
	}()

	return server
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := NewCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
