// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for partyline bots.
//
// Configuration is loaded from a single file specified by either the
// PARTYLINE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, production) that override base values when
// [Config].Environment matches. Production defaults to JSON logs.
//
// Variable expansion is performed on endpoint and credential fields
// after loading: ${VAR} and ${VAR:-default} patterns are expanded, so
// that the auth token can be injected via environment without being
// written to disk. No other environment variables override config
// values.
//
// Key exports:
//
//   - [Config] -- master struct with Services, Account, Party, Logging
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other partyline packages.
package config
