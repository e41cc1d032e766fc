package cli

import (
	"github.com/spf13/cobra"

	"github.com/jask/palette/internal/catalog"
)

func newCatalogCommand(a *app) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the command catalog",
	}
	catalogCmd.AddCommand(newCatalogExportCommand(a))
	return catalogCmd
}

func newCatalogExportCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the active catalog as TOML or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return catalog.Encode(cmd.OutOrStdout(), a.catalog, catalog.Format(format))
		},
	}

	cmd.Flags().StringVar(&format, "format", string(catalog.FormatTOML), "Output format: toml or yaml")
	return cmd
}
