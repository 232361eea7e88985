package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/core/cli"
	"github.com/grovetools/core/version"
	"github.com/spf13/cobra"
)

// buildInfo reads the values stamped into github.com/grovetools/core/version
// at link time.
func buildInfo() cli.VersionInfo {
	info := version.GetInfo()
	return cli.VersionInfo{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		BuildArch: info.Platform,
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.GetInfo()

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			build := buildInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "altsync %s\n", versionStyle.Render(build.Version))
			printField(out, "Commit", build.Commit)
			printField(out, "Built", build.BuildDate)
			printField(out, "Arch", build.BuildArch)
			printField(out, "Go", info.GoVersion)
			return nil
		},
	}
}
