// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Party.MaxSize != 16 {
		t.Errorf("expected max_size=16, got %d", cfg.Party.MaxSize)
	}

	if cfg.Party.OfflineTTL != 30*time.Second {
		t.Errorf("expected offline_ttl=30s, got %s", cfg.Party.OfflineTTL)
	}

	if cfg.Logging.Format != "text" {
		t.Errorf("expected format=text for development, got %s", cfg.Logging.Format)
	}
}

func TestLoad_RequiresPartylineConfig(t *testing.T) {
	// Save and restore PARTYLINE_CONFIG.
	origConfig := os.Getenv("PARTYLINE_CONFIG")
	defer os.Setenv("PARTYLINE_CONFIG", origConfig)

	// Unset PARTYLINE_CONFIG - Load() should fail.
	os.Unsetenv("PARTYLINE_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when PARTYLINE_CONFIG not set, got nil")
	}

	expectedMsg := "PARTYLINE_CONFIG environment variable not set"
	if !strings.HasPrefix(err.Error(), expectedMsg) {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithPartylineConfig(t *testing.T) {
	// Save and restore PARTYLINE_CONFIG.
	origConfig := os.Getenv("PARTYLINE_CONFIG")
	defer os.Setenv("PARTYLINE_CONFIG", origConfig)

	configPath := writeConfig(t, `
environment: production
services:
  rest_base_url: https://party.example.com
  feed_url: wss://feed.example.com
account:
  id: acct-1
`)

	os.Setenv("PARTYLINE_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Production {
		t.Errorf("expected environment=production, got %s", cfg.Environment)
	}

	if cfg.Services.RESTBaseURL != "https://party.example.com" {
		t.Errorf("expected rest_base_url=https://party.example.com, got %s", cfg.Services.RESTBaseURL)
	}

	// Production defaults to JSON logs when no override section exists.
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format=json for production, got %s", cfg.Logging.Format)
	}
}

func TestLoadFile(t *testing.T) {
	configPath := writeConfig(t, `
environment: development

services:
  rest_base_url: https://party.example.com
  feed_url: wss://feed.example.com
  request_timeout: 10s

account:
  id: acct-1
  display_name: TestBot

party:
  privacy: friends
  max_size: 4
  offline_ttl: 45s
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Party.Privacy != "friends" {
		t.Errorf("expected privacy=friends, got %s", cfg.Party.Privacy)
	}
	if cfg.Party.MaxSize != 4 {
		t.Errorf("expected max_size=4, got %d", cfg.Party.MaxSize)
	}
	if cfg.Party.OfflineTTL != 45*time.Second {
		t.Errorf("expected offline_ttl=45s, got %s", cfg.Party.OfflineTTL)
	}
	if cfg.Services.RequestTimeout != 10*time.Second {
		t.Errorf("expected request_timeout=10s, got %s", cfg.Services.RequestTimeout)
	}

	// Unspecified fields keep defaults.
	if cfg.Account.Platform != "WIN" {
		t.Errorf("expected platform default WIN, got %s", cfg.Account.Platform)
	}
	if cfg.Party.Joinability != "open" {
		t.Errorf("expected joinability default open, got %s", cfg.Party.Joinability)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	configPath := writeConfig(t, `
environment: production

services:
  rest_base_url: https://party.example.com
  feed_url: wss://feed.example.com

account:
  id: acct-1

logging:
  level: debug

production:
  services:
    rest_base_url: https://party.live.example.com
  logging:
    level: warn
    format: json
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Services.RESTBaseURL != "https://party.live.example.com" {
		t.Errorf("override not applied: got %s", cfg.Services.RESTBaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level=warn, got %s", cfg.Logging.Level)
	}
	// FeedURL has no override and keeps the base value.
	if cfg.Services.FeedURL != "wss://feed.example.com" {
		t.Errorf("expected base feed_url, got %s", cfg.Services.FeedURL)
	}
}

func TestVariableExpansion(t *testing.T) {
	t.Setenv("PARTYLINE_TEST_TOKEN", "secret-token")

	configPath := writeConfig(t, `
services:
  rest_base_url: https://party.example.com
  feed_url: wss://feed.example.com
  auth_token: ${PARTYLINE_TEST_TOKEN}
account:
  id: ${PARTYLINE_TEST_ACCOUNT:-fallback-account}
`)

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Services.AuthToken != "secret-token" {
		t.Errorf("expected token from environment, got %q", cfg.Services.AuthToken)
	}
	if cfg.Account.ID != "fallback-account" {
		t.Errorf("expected default expansion, got %q", cfg.Account.ID)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Services.RESTBaseURL = "https://party.example.com"
		cfg.Services.FeedURL = "wss://feed.example.com"
		cfg.Account.ID = "acct-1"
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing account id", func(t *testing.T) {
		cfg := valid()
		cfg.Account.ID = ""
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for missing account.id")
		}
	})

	t.Run("bad privacy", func(t *testing.T) {
		cfg := valid()
		cfg.Party.Privacy = "secret"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for invalid privacy")
		}
	})

	t.Run("max size out of bounds", func(t *testing.T) {
		cfg := valid()
		cfg.Party.MaxSize = 17
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for max_size > 16")
		}
	})

	t.Run("multiple errors joined", func(t *testing.T) {
		cfg := valid()
		cfg.Account.ID = ""
		cfg.Party.MaxSize = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "account.id") || !strings.Contains(err.Error(), "max_size") {
			t.Errorf("expected both errors reported, got %v", err)
		}
	})
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partyline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
