// Copyright 2026 The Partyline Authors
// SPDX-License-Identifier: Apache-2.0

// Partybot is the reference partyline client daemon. It loads
// configuration, connects to the vendor's REST and realtime services,
// keeps the local user in a party, and logs party and presence
// activity until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/partyline/partyline/client"
	"github.com/partyline/partyline/lib/config"
	"github.com/partyline/partyline/party"
	"github.com/partyline/partyline/social"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to partyline.yaml (defaults to $PARTYLINE_CONFIG)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.New(client.Options{
		Config:      cfg,
		Logger:      logger,
		Hooks:       partyHooks(logger),
		SocialHooks: socialHooks(logger),
	})
	if err != nil {
		return err
	}

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("starting client: %w", err)
	}
	defer c.Close()

	logger.Info("partybot running", "environment", cfg.Environment)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// newLogger builds the slog handler described by the logging config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	options := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, options))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, options))
}

// partyHooks logs the party activity an operator cares about when
// tailing the daemon.
func partyHooks(logger *slog.Logger) *party.Hooks {
	return &party.Hooks{
		MemberJoined: func(m *party.Member) {
			logger.Info("member joined", "account_id", m.ID(), "display_name", m.DisplayName())
		},
		MemberLeft: func(m *party.Member) {
			logger.Info("member left", "account_id", m.ID())
		},
		MemberKicked: func(m *party.Member) {
			logger.Info("member kicked", "account_id", m.ID())
		},
		MemberExpired: func(m *party.Member) {
			logger.Info("member expired", "account_id", m.ID())
		},
		MemberDisconnected: func(m *party.Member) {
			logger.Info("member disconnected", "account_id", m.ID())
		},
		MemberReconnected: func(m *party.Member) {
			logger.Info("member reconnected", "account_id", m.ID())
		},
		LeaderChanged: func(previous, leader *party.Member) {
			previousID := ""
			if previous != nil {
				previousID = previous.ID()
			}
			logger.Info("leadership changed", "previous", previousID, "leader", leader.ID())
		},
		InviteReceived: func(invite *party.Invite) {
			logger.Info("invite received",
				"party_id", invite.PartyID,
				"from", invite.InviterName,
			)
		},
		PingReceived: func(ping *party.Ping) {
			logger.Info("ping received", "from", ping.PingerName)
		},
		MessageReceived: func(message *party.ChatMessage) {
			logger.Info("party message",
				"from", message.SenderName,
				"body", message.Body,
			)
		},
	}
}

func socialHooks(logger *slog.Logger) social.Hooks {
	return social.Hooks{
		FriendOnline: func(f social.Friend) {
			logger.Info("friend online", "account_id", f.ID, "display_name", f.DisplayName)
		},
		FriendOffline: func(f social.Friend, lastSeen time.Time) {
			logger.Info("friend offline", "account_id", f.ID, "last_seen", lastSeen)
		},
		FriendMessage: func(message *social.FriendMessage) {
			logger.Info("whisper",
				"from", message.SenderName,
				"body", message.Body,
			)
		},
	}
}
