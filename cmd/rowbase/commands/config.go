package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/internal/ui"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			file := cfg.File
			if file == "" {
				file = "(none)"
			}

			if a.output == ui.FormatJSON {
				enc := json.NewEncoder(a.printer.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"file":               cfg.File,
					"profile":            cfg.Profile,
					"provider":           cfg.Provider,
					"base_url":           cfg.BaseURL,
					"api_key":            cfg.MaskedAPIKey(),
					"dsn":                cfg.DSN,
					"timeout":            cfg.Timeout.String(),
					"max_attempts":       cfg.MaxAttempts,
					"min_server_version": cfg.MinServerVersion,
					"debug":              cfg.Debug,
				})
			}

			a.printer.KeyValue("file", file)
			a.printer.KeyValue("profile", cfg.Profile)
			a.printer.KeyValue("provider", cfg.Provider)
			a.printer.KeyValue("base_url", cfg.BaseURL)
			a.printer.KeyValue("api_key", cfg.MaskedAPIKey())
			a.printer.KeyValue("dsn", cfg.DSN)
			a.printer.KeyValue("timeout", cfg.Timeout)
			a.printer.KeyValue("max_attempts", cfg.MaxAttempts)
			a.printer.KeyValue("min_server_version", cfg.MinServerVersion)
			a.printer.KeyValue("debug", cfg.Debug)

			if err := cfg.Validate(); err != nil {
				a.printer.Warning("%v", err)
			}
			return nil
		},
	}
}
