/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/crescendo/internal/relay"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Interact with the USB relay directly",
}

var flagHoldSeconds int

var relayTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Switch the relay on, hold, then switch it off",
	RunE:  runRelayTest,
}

func init() {
	relayTestCmd.Flags().IntVar(&flagHoldSeconds, "hold", 2, "seconds to keep the relay on")

	relayCmd.AddCommand(relayTestCmd)
	rootCmd.AddCommand(relayCmd)
}

func runRelayTest(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	speaker, err := relay.Open(cfg.RelayVendorID, cfg.RelayProductID, cfg.RelayChannel, logger)
	if err != nil {
		return fmt.Errorf("open relay: %w", err)
	}
	defer speaker.Close()

	fmt.Printf("relay channel %d on\n", cfg.RelayChannel)
	if err := speaker.SetPower(true); err != nil {
		return err
	}
	time.Sleep(time.Duration(flagHoldSeconds) * time.Second)

	fmt.Printf("relay channel %d off\n", cfg.RelayChannel)
	return speaker.SetPower(false)
}
