// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for partyline bots.
//
// Configuration is loaded from a single file specified by:
//   - PARTYLINE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for a partyline bot.
type Config struct {
	// Environment identifies the deployment type (development, production).
	Environment Environment `yaml:"environment"`

	// Services configures the vendor service endpoints.
	Services ServicesConfig `yaml:"services"`

	// Account configures the local account identity.
	Account AccountConfig `yaml:"account"`

	// Party configures default party behavior.
	Party PartyConfig `yaml:"party"`

	// Logging configures the slog handler.
	Logging LoggingConfig `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Services *ServicesConfig `yaml:"services,omitempty"`
	Party    *PartyConfig    `yaml:"party,omitempty"`
	Logging  *LoggingConfig  `yaml:"logging,omitempty"`
}

// ServicesConfig configures the vendor service endpoints.
type ServicesConfig struct {
	// RESTBaseURL is the base URL of the vendor's party and friends
	// REST services.
	RESTBaseURL string `yaml:"rest_base_url"`

	// FeedURL is the websocket URL of the realtime event feed.
	FeedURL string `yaml:"feed_url"`

	// AuthToken is the bearer token presented on REST and feed
	// connections. Typically injected via ${PARTYLINE_TOKEN}.
	AuthToken string `yaml:"auth_token"`

	// RequestTimeout bounds each REST round trip.
	// Default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// AccountConfig configures the local account identity.
type AccountConfig struct {
	// ID is the vendor account identifier of the local user.
	ID string `yaml:"id"`

	// DisplayName is the name shown to other party members.
	DisplayName string `yaml:"display_name"`

	// Platform is the platform tag advertised in the party roster.
	// Default: WIN
	Platform string `yaml:"platform"`
}

// PartyConfig configures default party behavior.
type PartyConfig struct {
	// Privacy is the default privacy preset for created parties.
	// Values: "public", "friends_allow_friends_of_friends", "friends",
	// "private_allow_friends_of_friends", "private".
	// Default: public
	Privacy string `yaml:"privacy"`

	// MaxSize is the default maximum member count for created
	// parties. Bounds: 1-16. Default: 16.
	MaxSize int `yaml:"max_size"`

	// OfflineTTL is the grace period a disconnected member is kept in
	// the roster before being expired. Default: 30s.
	OfflineTTL time.Duration `yaml:"offline_ttl"`

	// Joinability controls who may join without an invite.
	// Values: "open", "invite_and_formerly" . Default: open.
	Joinability string `yaml:"joinability"`

	// JoinConfirmation requires the leader to confirm each join.
	// Default: false.
	JoinConfirmation bool `yaml:"join_confirmation"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: info.
	Level string `yaml:"level"`

	// Format selects the handler: "text" or "json".
	// Default: text (development), json (production).
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	return &Config{
		Environment: Development,
		Services: ServicesConfig{
			RequestTimeout: 30 * time.Second,
		},
		Account: AccountConfig{
			Platform: "WIN",
		},
		Party: PartyConfig{
			Privacy:     "public",
			MaxSize:     16,
			OfflineTTL:  30 * time.Second,
			Joinability: "open",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the PARTYLINE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if PARTYLINE_CONFIG is not set, this
// fails. This ensures deterministic, auditable configuration with no hidden
// overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("PARTYLINE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("PARTYLINE_CONFIG environment variable not set; " +
			"set it to the path of your partyline.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do
// not override config values. The only expansion performed is
// ${VAR} / ${VAR:-default} substitution in string fields, so that secrets
// like the auth token can be injected without being written to disk.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	// Apply environment-specific overrides (development/production
	// sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${VAR} patterns in endpoint and credential fields.
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production defaults: structured logs.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Logging: &LoggingConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Services != nil {
		if overrides.Services.RESTBaseURL != "" {
			c.Services.RESTBaseURL = overrides.Services.RESTBaseURL
		}
		if overrides.Services.FeedURL != "" {
			c.Services.FeedURL = overrides.Services.FeedURL
		}
		if overrides.Services.AuthToken != "" {
			c.Services.AuthToken = overrides.Services.AuthToken
		}
		if overrides.Services.RequestTimeout != 0 {
			c.Services.RequestTimeout = overrides.Services.RequestTimeout
		}
	}

	if overrides.Party != nil {
		if overrides.Party.Privacy != "" {
			c.Party.Privacy = overrides.Party.Privacy
		}
		if overrides.Party.MaxSize != 0 {
			c.Party.MaxSize = overrides.Party.MaxSize
		}
		if overrides.Party.OfflineTTL != 0 {
			c.Party.OfflineTTL = overrides.Party.OfflineTTL
		}
		if overrides.Party.Joinability != "" {
			c.Party.Joinability = overrides.Party.Joinability
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
		if overrides.Logging.Format != "" {
			c.Logging.Format = overrides.Logging.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in string
// fields that commonly carry injected values.
func (c *Config) expandVariables() {
	c.Services.RESTBaseURL = expandVars(c.Services.RESTBaseURL)
	c.Services.FeedURL = expandVars(c.Services.FeedURL)
	c.Services.AuthToken = expandVars(c.Services.AuthToken)
	c.Account.ID = expandVars(c.Account.ID)
	c.Account.DisplayName = expandVars(c.Account.DisplayName)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Services.RESTBaseURL == "" {
		errs = append(errs, fmt.Errorf("services.rest_base_url is required"))
	}
	if c.Services.FeedURL == "" {
		errs = append(errs, fmt.Errorf("services.feed_url is required"))
	}
	if c.Account.ID == "" {
		errs = append(errs, fmt.Errorf("account.id is required"))
	}

	privacyValues := []string{
		"public",
		"friends_allow_friends_of_friends",
		"friends",
		"private_allow_friends_of_friends",
		"private",
	}
	if !contains(privacyValues, c.Party.Privacy) {
		errs = append(errs, fmt.Errorf("party.privacy must be one of: %v", privacyValues))
	}

	if c.Party.MaxSize < 1 || c.Party.MaxSize > 16 {
		errs = append(errs, fmt.Errorf("party.max_size must be between 1 and 16"))
	}
	if c.Party.OfflineTTL <= 0 {
		errs = append(errs, fmt.Errorf("party.offline_ttl must be positive"))
	}

	levelValues := []string{"debug", "info", "warn", "error"}
	if !contains(levelValues, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levelValues))
	}
	formatValues := []string{"text", "json"}
	if !contains(formatValues, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formatValues))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
