/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/crescendo/internal/announce"
	"github.com/friendsincode/crescendo/internal/api"
	"github.com/friendsincode/crescendo/internal/audio"
	"github.com/friendsincode/crescendo/internal/config"
	"github.com/friendsincode/crescendo/internal/coordinator"
	"github.com/friendsincode/crescendo/internal/db"
	"github.com/friendsincode/crescendo/internal/events"
	"github.com/friendsincode/crescendo/internal/journal"
	"github.com/friendsincode/crescendo/internal/logging"
	"github.com/friendsincode/crescendo/internal/music"
	"github.com/friendsincode/crescendo/internal/relay"
	"github.com/friendsincode/crescendo/internal/sensor"
	"github.com/friendsincode/crescendo/internal/server"
	"github.com/friendsincode/crescendo/internal/version"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "crescendo",
	Short:   "Crescendo - presence-activated music player",
	Long:    "Crescendo plays scheduled music when a radar presence sensor detects someone in the room, switching a speaker on and off through a USB relay.",
	Version: version.Version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the presence-driven playback daemon",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Str("version", version.Version).Msg("Crescendo starting")

	musicCfg, err := music.Load(cfg.MusicConfig, cfg.MusicDir)
	if err != nil {
		return fmt.Errorf("load music config: %w", err)
	}

	database, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error().Err(err).Msg("close database")
		}
	}()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	if err := db.RegisterCallbacks(database); err != nil {
		return fmt.Errorf("register db callbacks: %w", err)
	}

	radar, err := sensor.Open(cfg.SensorPort, cfg.SensorBaud, cfg.SensorTimeout, logger)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer radar.Close()

	speaker, err := relay.Open(cfg.RelayVendorID, cfg.RelayProductID, cfg.RelayChannel, logger)
	if err != nil {
		return fmt.Errorf("open relay: %w", err)
	}
	defer speaker.Close()

	bus := events.NewBus()
	repo := journal.NewRepository(database, logger)
	player := audio.NewPlayer(cfg.PlayerBin, logger)

	coord := coordinator.New(cfg, radar, speaker, player, musicCfg, bus, repo, logger)

	var announcer *announce.Announcer
	if cfg.MQTTBrokerURL != "" {
		announcer, err = announce.Connect(cfg, bus, logger)
		if err != nil {
			return fmt.Errorf("connect mqtt: %w", err)
		}
		announcer.Run()
		defer announcer.Close()
	}

	srv := server.New(cfg, api.New(coord, repo, logger), logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	coordDone := make(chan error, 1)
	go func() {
		coordDone <- coord.Run(ctx)
	}()

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(database)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")

	cancel()
	if err := <-coordDone; err != nil {
		logger.Error().Err(err).Msg("coordinator shutdown failed")
	}

	timeoutCtx, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelTimeout()
	if err := srv.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("Crescendo stopped")
	return nil
}
