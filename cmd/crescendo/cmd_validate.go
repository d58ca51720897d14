/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/friendsincode/crescendo/internal/music"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the music configuration and exit",
	Long:  "Load the playlists and schedule rules, report every configuration error, and exit non-zero on the first problem found.",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	musicCfg, err := music.Load(cfg.MusicConfig, cfg.MusicDir)
	if err != nil {
		return err
	}

	fmt.Printf("configuration ok: %d playlists, %d schedule rules\n",
		len(musicCfg.Playlists), len(musicCfg.Rules))
	for name, playlist := range musicCfg.Playlists {
		tracks := playlist.Resolve(cfg.MusicDir)
		if len(tracks) == 0 {
			fmt.Printf("  warning: playlist %q currently has no tracks\n", name)
			continue
		}
		fmt.Printf("  %s: %d tracks\n", name, len(tracks))
	}
	if musicCfg.Default == nil {
		fmt.Println("  note: no default playlist; gaps in the schedule stay silent")
	}
	return nil
}
