package commands

import (
	"errors"

	"github.com/spf13/cobra"
)

func newInsertCommand(a *app) *cobra.Command {
	var (
		into    string
		objects []string
	)

	cmd := &cobra.Command{
		Use:     "insert",
		Short:   "Insert rows into a table",
		Example: `  rowbase insert --into Pixels --row '{"x": 3, "y": 4, "color": "red"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := decodeRows(objects)
			if err != nil {
				return err
			}

			db, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.Insert(into).Values(rows...).Exec(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("inserted %d row(s) into %s", len(rows), into)
			return nil
		},
	}

	cmd.Flags().StringVar(&into, "into", "", "target table")
	cmd.Flags().StringArrayVar(&objects, "row", nil, "row as a JSON object (repeatable)")
	_ = cmd.MarkFlagRequired("into")
	_ = cmd.MarkFlagRequired("row")

	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		sets     []string
		wheres   []string
		orWheres []string
	)

	cmd := &cobra.Command{
		Use:     "update <table>",
		Short:   "Update rows in a table",
		Example: `  rowbase update Pixels --set color=blue --where "x = 3"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(sets)
			if err != nil {
				return err
			}

			db, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			q := db.Update(args[0]).Set(values)
			if err := applyWheres(wheres, orWheres, q.Where, q.OrWhere); err != nil {
				return err
			}
			if _, err := q.Exec(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("updated %s", args[0])
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&sets, "set", nil, "assignment as column=value (repeatable)")
	cmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "filter joined with AND (repeatable)")
	cmd.Flags().StringArrayVar(&orWheres, "or-where", nil, "filter joined with OR (repeatable)")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

var errUnboundedDelete = errors.New("refusing to delete every row without --where; pass --all to confirm")

func newDeleteCommand(a *app) *cobra.Command {
	var (
		from     string
		wheres   []string
		orWheres []string
		all      bool
	)

	cmd := &cobra.Command{
		Use:     "delete",
		Short:   "Delete rows from a table",
		Example: `  rowbase delete --from Pixels --where "color IS NULL"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(wheres) == 0 && len(orWheres) == 0 && !all {
				return errUnboundedDelete
			}

			db, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			q := db.Delete().From(from)
			if err := applyWheres(wheres, orWheres, q.Where, q.OrWhere); err != nil {
				return err
			}
			if _, err := q.Exec(cmd.Context()); err != nil {
				return err
			}
			a.printer.Success("deleted from %s", from)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "target table")
	cmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "filter joined with AND (repeatable)")
	cmd.Flags().StringArrayVar(&orWheres, "or-where", nil, "filter joined with OR (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "allow deleting every row")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}
