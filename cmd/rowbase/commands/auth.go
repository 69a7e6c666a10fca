package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/rowbase/rowbase-go/internal/config"
)

// promptAPIKey asks for the key without echoing it.
var promptAPIKey = func() (string, error) {
	var key string
	err := survey.AskOne(&survey.Password{
		Message: "API key:",
		Help:    "Create a key in the dashboard; it is stored in the OS keyring.",
	}, &key, survey.WithValidator(survey.Required))
	return strings.TrimSpace(key), err
}

func newLoginCommand(a *app) *cobra.Command {
	var (
		apiKey string
		save   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key in the OS keyring",
		Long: `Store an API key for the selected profile in the OS keyring. The key
is never written to the config file. With --save the current base URL and
provider are written to $HOME/.config/rowbase/.rowbase.yaml.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.printer.Header("rowbase login", "profile "+a.cfg.Profile)

			key := strings.TrimSpace(apiKey)
			if key == "" {
				var err error
				if key, err = promptAPIKey(); err != nil {
					return fmt.Errorf("failed to read API key: %w", err)
				}
			}
			if key == "" {
				return errors.New("API key must not be empty")
			}

			if exp, ok := config.TokenExpiry(key); ok {
				if time.Now().After(exp) {
					a.printer.Warning("this key expired at %s", exp.Format(time.RFC3339))
				} else {
					a.printer.Info("key expires at %s", exp.Format(time.RFC3339))
				}
			}

			if err := config.StoreAPIKey(a.cfg.Profile, key); err != nil {
				return err
			}
			a.printer.Success("stored API key for profile %s", a.cfg.Profile)

			if save {
				path, err := config.Save(a.cfg)
				if err != nil {
					return err
				}
				a.printer.Success("saved settings to %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "key to store instead of prompting")
	cmd.Flags().BoolVar(&save, "save", false, "also save base URL and provider to the config file")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := config.DeleteAPIKey(a.cfg.Profile)
			if errors.Is(err, config.ErrAPIKeyNotFound) {
				a.printer.Warning("no API key stored for profile %s", a.cfg.Profile)
				return nil
			}
			if err != nil {
				return err
			}
			a.printer.Success("removed API key for profile %s", a.cfg.Profile)
			return nil
		},
	}
}
