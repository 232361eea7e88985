package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/altsync/pkg/config"
)

// newSchemaCmd creates the `schema` command.
func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of altsync config files",
		Long: `Print the JSON schema describing altsync.yml / altsync.toml.

Point your editor's YAML language server at it for completion and validation.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.SchemaJSON()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
