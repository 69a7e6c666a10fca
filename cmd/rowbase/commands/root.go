// Package commands implements the rowbase CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/client"
	"github.com/rowbase/rowbase-go/internal/config"
	"github.com/rowbase/rowbase-go/internal/debug"
	"github.com/rowbase/rowbase-go/internal/ui"
)

// app carries the persistent flags and the state shared by subcommands.
type app struct {
	configFile string
	profile    string
	provider   string
	dsn        string
	baseURL    string
	output     string
	debug      bool

	cfg     *config.Config
	printer *ui.Printer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "rowbase",
		Short: "Query a rowbase database from the command line",
		Long: `rowbase builds parameterized SQL statements and runs them against a
remote rowbase endpoint or a local SQLite, PostgreSQL or MySQL database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default searches .rowbase.yaml in ., $HOME, $HOME/.config/rowbase)")
	flags.StringVar(&a.profile, "profile", "", "keyring profile for the API key")
	flags.StringVar(&a.provider, "provider", "", "http, sqlite, postgres or mysql")
	flags.StringVar(&a.dsn, "dsn", "", "connection string for local providers")
	flags.StringVar(&a.baseURL, "base-url", "", "remote endpoint base URL")
	flags.StringVarP(&a.output, "output", "o", ui.FormatTable, "output format: table or json")
	flags.BoolVar(&a.debug, "debug", false, "log every statement to stderr")

	root.AddCommand(
		newSelectCommand(a),
		newInsertCommand(a),
		newUpdateCommand(a),
		newDeleteCommand(a),
		newExecCommand(a),
		newRunCommand(a),
		newSchemaCommand(a),
		newLoginCommand(a),
		newLogoutCommand(a),
		newConfigCommand(a),
		newVersionCommand(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.printer = &ui.Printer{Out: cmd.OutOrStdout(), Err: cmd.ErrOrStderr()}

	overrides := map[string]any{}
	set := func(flag, key, value string) {
		if cmd.Flags().Changed(flag) {
			overrides[key] = value
		}
	}
	set("profile", "profile", a.profile)
	set("provider", "provider", a.provider)
	set("dsn", "dsn", a.dsn)
	set("base-url", "base_url", a.baseURL)
	if cmd.Flags().Changed("debug") {
		overrides["debug"] = a.debug
	}

	cfg, err := config.Load(config.Options{ConfigFile: a.configFile, Overrides: overrides})
	if err != nil {
		return err
	}
	a.cfg = cfg

	debug.Init(debug.Options{Enabled: cfg.Debug, Output: cmd.ErrOrStderr()})
	if cfg.File != "" {
		debug.Debug("config loaded", "file", cfg.File, "provider", cfg.Provider)
	}
	return nil
}

// client connects using the loaded settings. Callers close it.
func (a *app) client(ctx context.Context) (*client.Client, error) {
	if !a.cfg.IsLocal() && a.cfg.APIKey != "" {
		warnIfExpired(a.printer, a.cfg.APIKey)
	}
	db, err := client.FromConfig(ctx, a.cfg, client.Logging())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return db, nil
}
