// Package config loads connection settings from files, the environment and the OS keyring.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/rowbase/rowbase-go/internal/debug"
)

var AppFs = afero.NewOsFs()

const (
	// KeyringService is the service name API keys are stored under.
	KeyringService = "rowbase"

	configName = ".rowbase"
)

var (
	// ErrMissingBaseURL is returned when the http provider has no base URL.
	ErrMissingBaseURL = errors.New("base_url is required for the http provider")

	// ErrMissingDSN is returned when a local provider has no DSN.
	ErrMissingDSN = errors.New("dsn is required for local providers")

	// ErrAPIKeyNotFound is returned when no API key is stored for a profile.
	ErrAPIKeyNotFound = errors.New("api key not found")
)

// Config holds the resolved settings.
type Config struct {
	BaseURL          string
	APIKey           string
	Profile          string
	Provider         string
	DSN              string
	Timeout          time.Duration
	MaxAttempts      int
	MinServerVersion string
	Debug            bool

	// File is the config file that was read, if any.
	File string
}

// Options controls Load.
type Options struct {
	// ConfigFile replaces the search path when set.
	ConfigFile string
	// Overrides take precedence over every other source.
	Overrides map[string]any
}

// Load resolves settings from, in increasing priority: defaults, the config
// file, .env and .env.local, ROWBASE_ environment variables, overrides.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "rowbase"))
	}
	v.SetFs(AppFs)

	v.SetEnvPrefix("ROWBASE")
	v.AutomaticEnv()

	v.SetDefault("profile", "default")
	v.SetDefault("provider", "http")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("max_attempts", 1)
	v.SetDefault("debug", false)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	cfg := &Config{
		BaseURL:          v.GetString("base_url"),
		APIKey:           v.GetString("api_key"),
		Profile:          v.GetString("profile"),
		Provider:         strings.ToLower(v.GetString("provider")),
		DSN:              v.GetString("dsn"),
		Timeout:          v.GetDuration("timeout"),
		MaxAttempts:      v.GetInt("max_attempts"),
		MinServerVersion: v.GetString("min_server_version"),
		Debug:            v.GetBool("debug"),
		File:             v.ConfigFileUsed(),
	}

	if cfg.APIKey == "" && cfg.Provider == "http" {
		key, err := LookupAPIKey(cfg.Profile)
		if err != nil {
			// No keyring backend is not fatal; requests go out unauthenticated.
			debug.Debug("api key lookup failed", "profile", cfg.Profile, "error", err)
		}
		cfg.APIKey = key
	}

	return cfg, nil
}

// loadDotEnv loads .env without touching variables already set, then lets
// .env.local override them.
func loadDotEnv() error {
	if err := loadEnvFile(".env", false); err != nil {
		return err
	}
	return loadEnvFile(".env.local", true)
}

func loadEnvFile(name string, overload bool) error {
	f, err := AppFs.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	for key, value := range vars {
		if _, set := os.LookupEnv(key); set && !overload {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set %s from %s: %w", key, name, err)
		}
	}
	return nil
}

// IsLocal reports whether the provider talks to a database directly.
func (c *Config) IsLocal() bool {
	return c.Provider != "http"
}

// Validate checks that the selected provider has what it needs.
func (c *Config) Validate() error {
	switch c.Provider {
	case "http":
		if c.BaseURL == "" {
			return ErrMissingBaseURL
		}
	case "sqlite", "sqlite3", "postgres", "postgresql", "mysql":
		if c.DSN == "" {
			return ErrMissingDSN
		}
	default:
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	return nil
}

// MaskedAPIKey hides all but the last four characters of the key.
func (c *Config) MaskedAPIKey() string {
	if c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + c.APIKey[len(c.APIKey)-4:]
}

// Save writes the non-secret settings to $HOME/.config/rowbase/.rowbase.yaml.
func Save(cfg *Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.Set("base_url", cfg.BaseURL)
	v.Set("profile", cfg.Profile)
	v.Set("provider", cfg.Provider)
	v.Set("dsn", cfg.DSN)
	v.Set("timeout", cfg.Timeout.String())
	v.Set("max_attempts", cfg.MaxAttempts)
	v.Set("min_server_version", cfg.MinServerVersion)

	configPath := filepath.Join(home, ".config", "rowbase")
	if err := AppFs.MkdirAll(configPath, 0o755); err != nil {
		return "", err
	}

	configFile := filepath.Join(configPath, configName+".yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return configFile, nil
}

// LookupAPIKey reads the key stored for profile.
func LookupAPIKey(profile string) (string, error) {
	key, err := keyring.Get(KeyringService, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w for profile %q", ErrAPIKeyNotFound, profile)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read keyring: %w", err)
	}
	return key, nil
}

// StoreAPIKey saves key for profile in the OS keyring.
func StoreAPIKey(profile, key string) error {
	if err := keyring.Set(KeyringService, profile, key); err != nil {
		return fmt.Errorf("failed to write keyring: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the key stored for profile.
func DeleteAPIKey(profile string) error {
	err := keyring.Delete(KeyringService, profile)
	if errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("%w for profile %q", ErrAPIKeyNotFound, profile)
	}
	if err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// TokenExpiry returns the exp claim of a JWT-shaped key. ok is false for
// opaque keys or tokens without exp. The signature is not verified.
func TokenExpiry(key string) (exp time.Time, ok bool) {
	if strings.Count(key, ".") != 2 {
		return time.Time{}, false
	}

	token, _, err := jwt.NewParser().ParseUnverified(key, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	at, err := token.Claims.GetExpirationTime()
	if err != nil || at == nil {
		return time.Time{}, false
	}
	return at.Time, true
}
