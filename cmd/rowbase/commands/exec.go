package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/client"
	"github.com/rowbase/rowbase-go/internal/watch"
)

func newExecCommand(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:     "exec <sql>",
		Short:   "Run a raw SQL statement",
		Example: `  rowbase exec 'SELECT * FROM "Pixels" WHERE "x" > ?' --param 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			bound := make([]any, len(params))
			for i, p := range params {
				bound[i] = parseLiteral(p)
			}

			rows, err := db.Raw(cmd.Context(), args[0], bound...)
			if err != nil {
				return err
			}
			return a.printer.Rows(a.output, nil, rows)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "positional parameter, parsed as JSON when possible (repeatable)")
	return cmd
}

func newRunCommand(a *app) *cobra.Command {
	var (
		watchFile bool
		debounce  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run <file.sql>",
		Short: "Run the statement in a SQL file",
		Long: `Run the statement in a SQL file and print its rows. With --watch the
file is re-run every time it is saved, until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			db, err := a.client(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			file := args[0]
			if !watchFile {
				return a.runFile(ctx, db, file)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(file, debounce, func(ctx context.Context) error {
				return a.runFile(ctx, db, file)
			})
			if err != nil {
				return err
			}
			w.OnError = func(err error) { a.printer.Error("%v", err) }

			a.printer.Info("watching %s, press Ctrl+C to stop", file)
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&watchFile, "watch", false, "re-run when the file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	return cmd
}

func (a *app) runFile(ctx context.Context, db *client.Client, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	sqlText := strings.TrimSpace(string(raw))
	if sqlText == "" {
		return fmt.Errorf("%s is empty", file)
	}

	rows, err := db.Raw(ctx, sqlText)
	if err != nil {
		return err
	}
	return a.printer.Rows(a.output, nil, rows)
}
