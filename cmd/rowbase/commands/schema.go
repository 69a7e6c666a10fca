package commands

import (
	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/internal/ui"
)

func newSchemaCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Describe every user table",
		Long: `Introspect the database and print each table with its columns,
portable datatype (number or string), constraint and foreign keys.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("format") && cmd.Flags().Changed("output") {
				format = a.output
			}

			db, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			desc, err := db.Schema(cmd.Context())
			if err != nil {
				return err
			}
			return a.printer.Schema(format, desc)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", ui.FormatTable, "table, json or markdown")
	return cmd
}
