package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/grovetools/altsync/pkg/notes"
)

func newNotesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes [file|-]",
		Short: "Print release notes the way they are stored in the catalog",
		Long: `Read release notes (markdown) from a file or stdin and print the plain text
that sync writes as localizedDescription.`,
		Example: `  gh release view v0.6.2 --json body -q .body | altsync notes
  altsync notes CHANGELOG.md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				r = f
			}

			body, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read release notes: %w", err)
			}

			fmt.Fprint(cmd.OutOrStdout(), notes.Prepare(string(body), cfg.ReleaseMarker))
			return nil
		},
	}

	configFlag(cmd, "marker", "release_marker", "drop everything up to and including this phrase")
	return cmd
}
