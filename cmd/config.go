package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/altsync/pkg/config"
	"github.com/grovetools/altsync/pkg/logger"
)

// newConfigCmd creates the `config` command and its subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create, inspect and validate altsync configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Example: `  altsync config init
  altsync config init --output .github/altsync.toml`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := config.FormatFromPath(output)
			if err != nil {
				return err
			}

			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			}

			data, err := config.Marshal(config.Default(), format)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0755); err != nil {
					return fmt.Errorf("failed to create directory %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}

			logger.New("config").Infof("Wrote %s", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "altsync.yml", "file to write (.yml, .yaml or .toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg, config.Format(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&format, "format", string(config.FormatYAML), "output format (yaml|toml)")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for invalid values and unknown keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Invalid values were already rejected while loading.
			if _, err := getConfig(cmd); err != nil {
				return err
			}

			path := getConfigFile(cmd)
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), faintStyle.Render("No config file found; using defaults and environment."))
				return nil
			}

			unknown, err := config.Strict(path)
			if err != nil {
				return err
			}
			if len(unknown) > 0 {
				for _, u := range unknown {
					fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("✗ "+u))
				}
				return fmt.Errorf("%s has %d unknown key(s)", path, len(unknown))
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✓ "+path+" is valid"))
			return nil
		},
	}
}
