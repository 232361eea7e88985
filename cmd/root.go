package cmd

import (
	"context"
	"fmt"

	"github.com/grovetools/core/cli"
	"github.com/grovetools/core/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/grovetools/altsync/pkg/config"
	"github.com/grovetools/altsync/pkg/logger"
)

type ctxKey string

const (
	configKey     ctxKey = "config"
	configFileKey ctxKey = "config-file"
)

const (
	// configKeyAnnotation marks a flag as an override of a config key
	configKeyAnnotation = "altsync/config-key"

	// skipConfigAnnotation marks commands that run without a valid config
	skipConfigAnnotation = "altsync/skip-config"
)

// Execute runs the root command with grove's styled help and error output
func Execute() error {
	return cli.Execute(NewRootCmd())
}

// NewRootCmd builds the altsync command tree
func NewRootCmd() *cobra.Command {
	cmd := cli.NewStandardCommand("altsync", "Keep an AltStore source in sync with GitHub releases")
	cmd.Long = `altsync records the newest stable GitHub release of a project in an
AltStore source (apps.json): version, date, release notes, download URL and size.

Settings come from altsync.yml / altsync.toml (working directory or .github/),
ALTSYNC_* environment variables and flags, in increasing order of precedence.

--json switches command output and logs to JSON.`
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.Version = version.GetInfo().Version
	cli.SetVersionTemplate(cmd, buildInfo())
	cmd.PersistentFlags().Lookup("config").Usage = "path to altsync config file (yaml|toml)"

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		opts := cli.GetOptions(cmd)
		logger.Configure(cmd.ErrOrStderr(), opts.Verbose, opts.JSONOutput)

		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}

		v := viper.New()
		if opts.ConfigFile != "" {
			v.SetConfigFile(opts.ConfigFile)
		}
		bindConfigFlags(cmd, v)

		cfg, err := config.Load(v)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger.New("config").WithField("file", v.ConfigFileUsed()).Debug("Configuration loaded")

		ctx := context.WithValue(cmd.Context(), configKey, cfg)
		ctx = context.WithValue(ctx, configFileKey, v.ConfigFileUsed())
		cmd.SetContext(ctx)
		return nil
	}

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newLatestCmd())
	cmd.AddCommand(newNotesCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newVersionCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

// configFlag registers a string flag overriding a config key
func configFlag(cmd *cobra.Command, name, key, usage string) {
	cmd.Flags().String(name, "", usage)
	_ = cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key})
}

func configBoolFlag(cmd *cobra.Command, name, key, usage string) {
	cmd.Flags().Bool(name, false, usage)
	_ = cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key})
}

// bindConfigFlags binds every annotated flag of cmd to its config key. Viper
// only prefers a bound flag over file and env values when it was set.
func bindConfigFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) > 0 {
			_ = v.BindPFlag(keys[0], f)
		}
	})
}

func getConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("internal error: configuration not loaded")
	}
	return cfg, nil
}

// getConfigFile returns the file the configuration was loaded from, if any
func getConfigFile(cmd *cobra.Command) string {
	path, _ := cmd.Context().Value(configFileKey).(string)
	return path
}
