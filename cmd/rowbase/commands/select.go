package commands

import (
	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/internal/filter"
	"github.com/rowbase/rowbase-go/query"
)

func newSelectCommand(a *app) *cobra.Command {
	var (
		from      string
		joins     []string
		leftJoins []string
		wheres    []string
		orWheres  []string
		orders    []string
		limit     int
		offset    int
		count     bool
		first     bool
	)

	cmd := &cobra.Command{
		Use:   "select [columns...]",
		Short: "Select rows from a table",
		Example: `  rowbase select x y --from Pixels --where "color = 'red'" --order x:desc --limit 10
  rowbase select --from Pixels --count`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			q := db.Select(args...).From(from)
			for _, arg := range joins {
				table, on, err := parseJoin(arg)
				if err != nil {
					return err
				}
				q = q.Join(table, on)
			}
			for _, arg := range leftJoins {
				table, on, err := parseJoin(arg)
				if err != nil {
					return err
				}
				q = q.LeftJoin(table, on)
			}
			if err := applyWheres(wheres, orWheres, q.Where, q.OrWhere); err != nil {
				return err
			}
			for _, arg := range orders {
				col, dir := parseOrder(arg)
				q = q.OrderBy(col, dir)
			}
			if cmd.Flags().Changed("limit") {
				q = q.Limit(limit)
			}
			if cmd.Flags().Changed("offset") {
				q = q.Offset(offset)
			}

			switch {
			case count:
				n, err := q.Count(ctx)
				if err != nil {
					return err
				}
				return a.printer.Rows(a.output, []string{"count"}, []query.Row{{"count": n}})
			case first:
				row, ok, err := q.First(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return a.printer.Rows(a.output, args, []query.Row{})
				}
				return a.printer.Rows(a.output, args, []query.Row{row})
			default:
				rows, err := q.Exec(ctx)
				if err != nil {
					return err
				}
				return a.printer.Rows(a.output, args, rows)
			}
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "table to select from")
	cmd.Flags().StringArrayVar(&joins, "join", nil, "inner join as Table:on-expression (repeatable)")
	cmd.Flags().StringArrayVar(&leftJoins, "left-join", nil, "left join as Table:on-expression (repeatable)")
	cmd.Flags().StringArrayVarP(&wheres, "where", "w", nil, "filter joined with AND, e.g. \"x >= 3\" (repeatable)")
	cmd.Flags().StringArrayVar(&orWheres, "or-where", nil, "filter joined with OR (repeatable)")
	cmd.Flags().StringArrayVar(&orders, "order", nil, "order as column[:asc|desc] (repeatable)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&count, "count", false, "print the number of matching rows")
	cmd.Flags().BoolVar(&first, "first", false, "print only the first row")
	cmd.MarkFlagsMutuallyExclusive("count", "first")
	_ = cmd.MarkFlagRequired("from")

	return cmd
}

// applyWheres adds every AND filter, then every OR filter.
func applyWheres[S any](and, or []string, where, orWhere func(query.Condition) S) error {
	conds, err := filter.ParseAll(and)
	if err != nil {
		return err
	}
	for _, c := range conds {
		where(c)
	}

	conds, err = filter.ParseAll(or)
	if err != nil {
		return err
	}
	for _, c := range conds {
		orWhere(c)
	}
	return nil
}
