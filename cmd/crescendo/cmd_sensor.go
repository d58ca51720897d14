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

	"github.com/spf13/cobra"

	"github.com/friendsincode/crescendo/internal/sensor"
)

var sensorCmd = &cobra.Command{
	Use:   "sensor",
	Short: "Interact with the radar sensor directly",
}

var sensorReadCmd = &cobra.Command{
	Use:   "read",
	Short: "Stream decoded sensor reports until interrupted",
	RunE:  runSensorRead,
}

var (
	flagMaxMotionGate int
	flagMaxStaticGate int
	flagNoOneDuration int
)

var sensorConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write detection parameters to the sensor",
	RunE:  runSensorConfigure,
}

func init() {
	sensorConfigureCmd.Flags().IntVar(&flagMaxMotionGate, "max-motion-gate", 8, "furthest motion gate 1-8, 0.75 m per gate")
	sensorConfigureCmd.Flags().IntVar(&flagMaxStaticGate, "max-static-gate", 8, "furthest static gate 1-8")
	sensorConfigureCmd.Flags().IntVar(&flagNoOneDuration, "no-one-duration", 5, "seconds before the sensor reports no one")

	sensorCmd.AddCommand(sensorReadCmd)
	sensorCmd.AddCommand(sensorConfigureCmd)
	rootCmd.AddCommand(sensorCmd)
}

func runSensorRead(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	radar, err := sensor.Open(cfg.SensorPort, cfg.SensorBaud, cfg.SensorTimeout, logger)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer radar.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			report, err := radar.Poll(ctx)
			if err != nil {
				fmt.Printf("poll error: %v\n", err)
				continue
			}
			fmt.Printf("moving=%-5v static=%-5v moving_dist=%dcm static_dist=%dcm detect_dist=%dcm\n",
				report.MovingTarget(), report.StaticTarget(),
				report.MovingDistanceCM, report.StaticDistanceCM, report.DetectionDistanceCM)
		}
	}
}

func runSensorConfigure(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	settings := sensor.Settings{
		MaxMotionGate: flagMaxMotionGate,
		MaxStaticGate: flagMaxStaticGate,
		NoOneDuration: flagNoOneDuration,
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	radar, err := sensor.Open(cfg.SensorPort, cfg.SensorBaud, cfg.SensorTimeout, logger)
	if err != nil {
		return fmt.Errorf("open sensor: %w", err)
	}
	defer radar.Close()

	if err := radar.Configure(settings); err != nil {
		return fmt.Errorf("configure sensor: %w", err)
	}
	fmt.Println("sensor configured")
	return nil
}
