package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/markuphq/markup/internal/gcp/auth"
	"github.com/markuphq/markup/internal/gcp/composer"
	"github.com/markuphq/markup/internal/gcp/conn"
	"github.com/markuphq/markup/internal/journal/postgres"
	"github.com/markuphq/markup/internal/journal/sqlite"
	"github.com/markuphq/markup/internal/notify"
	"github.com/markuphq/markup/internal/operation"
	"github.com/markuphq/markup/internal/retry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Project        string           `flag:"project" desc:"google cloud project id" default:"" validate:"required"`
	Auth           auth.Config      `flag:"-"`
	GRPC           conn.Config      `flag:"grpc"`
	Retry          retry.Policy     `flag:"retry"`
	APIs           []string         `flag:"apis" desc:"apis enabled before setup" default:"bigquery.googleapis.com,bigquerydatatransfer.googleapis.com" validate:"min=1"`
	Dataset        Dataset          `flag:"dataset"`
	MerchantCenter MerchantCenter   `flag:"merchant-center"`
	GoogleAds      GoogleAds        `flag:"google-ads"`
	Transfers      Transfers        `flag:"transfers"`
	Operations     operation.Policy `flag:"operations"`
	Jobs           operation.Policy `flag:"jobs"`
	Composer       Composer         `flag:"composer"`
	ScriptsDir     string           `flag:"scripts-dir" desc:"directory holding the markup sql scripts" default:"scripts"`
	DataDir        string           `flag:"data-dir" desc:"directory holding the reference table csv files" default:"data"`
	Journal        Journal          `flag:"journal"`
	Notify         notify.Config    `flag:"notify"`
	MetricsAddr    string           `flag:"metrics-addr" desc:"prometheus metrics server address, disabled when empty" default:""`
	LogLevel       string           `flag:"log-level" desc:"can be one of: debug, info, warn, error, off" default:"info" validate:"oneof=debug info warn error off"`
}

type Dataset struct {
	Name     string `flag:"name" desc:"bigquery dataset receiving the transfers and views" default:"markup" validate:"required"`
	Location string `flag:"location" desc:"bigquery dataset location" default:"US" validate:"required"`
}

type MerchantCenter struct {
	ID             string `flag:"id" desc:"merchant center id" default:""`
	MarketInsights bool   `flag:"market-insights" desc:"create the market insights views and workflow" default:"false"`
}

type GoogleAds struct {
	CustomerID   string `flag:"customer-id" desc:"google ads external customer id" default:""`
	BackfillDays int    `flag:"backfill-days" desc:"days of google ads data backfilled on creation" default:"30" validate:"gte=0"`
}

type Transfers struct {
	Location       string           `flag:"location" desc:"data transfer location" default:"us" validate:"required"`
	Wait           bool             `flag:"wait" desc:"wait for the first transfer runs to finish" default:"true"`
	Poll           operation.Policy `flag:"poll"`
	ScheduledQuery bool             `flag:"scheduled-query" desc:"schedule the main workflow as a bigquery scheduled query" default:"false"`
	Schedule       string           `flag:"schedule" desc:"scheduled query schedule" default:"every 24 hours"`
}

type Composer struct {
	Enabled          bool                 `flag:"enable" desc:"provision a composer environment" default:"false"`
	Location         string               `flag:"location" desc:"composer location" default:"us-central1" validate:"required"`
	Environment      composer.Environment `flag:"-"`
	Packages         map[string]string    `flag:"packages" desc:"pypi packages installed in the environment"`
	EnvVariables     map[string]string    `flag:"env" desc:"environment variables set in the environment"`
	AirflowOverrides map[string]string    `flag:"airflow-overrides" desc:"airflow configuration overrides"`
	DagsDir          string               `flag:"dags-dir" desc:"directory uploaded to the environment dags folder, skipped when empty" default:""`
	Poll             operation.Policy     `flag:"poll"`
}

type Journal struct {
	Sqlite   EnabledStore[sqlite.Config]    `flag:"sqlite"`
	Postgres DisabledStore[postgres.Config] `flag:"postgres"`
}

type EnabledStore[T any] struct {
	Enabled bool `flag:"enable" desc:"enable store" default:"true"`
	Config  T    `flag:"-"`
}

type DisabledStore[T any] struct {
	Enabled bool `flag:"enable" desc:"enable store" default:"false"`
	Config  T    `flag:"-"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Bind registers a flag for every configuration field on flags and binds
// the flag to the matching viper key.
func (c *Config) Bind(flags *pflag.FlagSet, vip *viper.Viper) error {
	return bind(flags, vip, c, "", "")
}

func (c *Config) Parse(vip *viper.Viper) error {
	hooks := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)

	return vip.Unmarshal(c, viper.DecodeHook(hooks))
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Default returns the configuration described by the default tags.
func Default() (*Config, error) {
	cmd := &cobra.Command{}
	vip := viper.New()

	cfg := &Config{}
	if err := cfg.Bind(cmd.Flags(), vip); err != nil {
		return nil, err
	}
	if err := cfg.Parse(vip); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Helper functions

func bind(flags *pflag.FlagSet, vip *viper.Viper, cfg any, fPrefix string, kPrefix string) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		flag := field.Tag.Get("flag")
		desc := field.Tag.Get("desc")
		value := field.Tag.Get("default")

		var n string
		if flag == "-" {
			n = fPrefix
		} else if fPrefix == "" {
			n = flag
		} else {
			n = fmt.Sprintf("%s-%s", fPrefix, flag)
		}

		var k string
		if kPrefix == "" {
			k = field.Name
		} else {
			k = fmt.Sprintf("%s.%s", kPrefix, field.Name)
		}

		switch field.Type.Kind() {
		case reflect.String:
			flags.String(n, value, desc)
		case reflect.Bool:
			flags.Bool(n, value == "true", desc)
		case reflect.Int:
			v, _ := strconv.Atoi(value)
			flags.Int(n, v, desc)
		case reflect.Int64:
			if field.Type == reflect.TypeOf(time.Duration(0)) {
				v, _ := time.ParseDuration(value)
				flags.Duration(n, v, desc)
			} else {
				v, _ := strconv.ParseInt(value, 10, 64)
				flags.Int64(n, v, desc)
			}
		case reflect.Float64:
			v, _ := strconv.ParseFloat(value, 64)
			flags.Float64(n, v, desc)
		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				panic(fmt.Sprintf("unsupported slice type: %s", field.Type))
			}
			var v []string
			if value != "" {
				v = strings.Split(value, ",")
			}
			flags.StringSlice(n, v, desc)
		case reflect.Map:
			if field.Type != reflect.TypeOf(map[string]string{}) {
				panic(fmt.Sprintf("unsupported map type: %s", field.Type))
			}
			if value == "" {
				value = "{}"
			}
			var v map[string]string
			if err := json.Unmarshal([]byte(value), &v); err != nil {
				return fmt.Errorf("invalid default for %s: %w", n, err)
			}
			flags.StringToString(n, v, desc)
		case reflect.Struct:
			if err := bind(flags, vip, v.Field(i).Addr().Interface(), n, k); err != nil {
				return err
			}
			continue
		default:
			panic(fmt.Sprintf("unsupported type %s", field.Type.Kind()))
		}

		_ = vip.BindPFlag(k, flags.Lookup(n))
	}

	return nil
}
