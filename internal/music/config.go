/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPlaylistName is the playlist used when no schedule rule matches.
const DefaultPlaylistName = "default"

// ErrUnknownPlaylist indicates a schedule rule references a playlist that
// does not exist.
var ErrUnknownPlaylist = errors.New("unknown playlist")

// Config is the validated music configuration: the playlist catalogue plus
// the ordered schedule rules.
type Config struct {
	Playlists map[string]*Playlist
	Rules     []Rule
	Default   *Playlist
}

type fileConfig struct {
	Playlists map[string]playlistSpec `yaml:"playlists"`
	Schedules []Rule                  `yaml:"schedules"`
}

type playlistSpec struct {
	Tracks    []string `yaml:"tracks"`
	Directory string   `yaml:"directory"`
}

// Load reads and validates the YAML music configuration. Every
// configuration error is fatal here, before the coordinator starts: a bad
// rule must never be silently dropped at resolution time.
func Load(path, baseDir string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read music config: %w", err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse music config: %w", err)
	}

	cfg := &Config{Playlists: make(map[string]*Playlist, len(raw.Playlists))}

	for name, spec := range raw.Playlists {
		if err := validatePlaylist(name, spec, baseDir); err != nil {
			return nil, err
		}
		playlist := &Playlist{Name: name, Tracks: spec.Tracks, Directory: spec.Directory}
		cfg.Playlists[name] = playlist
		if name == DefaultPlaylistName {
			cfg.Default = playlist
		}
	}

	for i, rule := range raw.Schedules {
		if err := validateRule(i, rule, cfg.Playlists); err != nil {
			return nil, err
		}
	}
	cfg.Rules = raw.Schedules

	return cfg, nil
}

func validatePlaylist(name string, spec playlistSpec, baseDir string) error {
	if len(spec.Tracks) > 0 && spec.Directory != "" {
		return fmt.Errorf("playlist %q: tracks and directory are mutually exclusive", name)
	}
	if len(spec.Tracks) == 0 && spec.Directory == "" {
		return fmt.Errorf("playlist %q: one of tracks or directory is required", name)
	}
	if spec.Directory != "" {
		dir := spec.Directory
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("playlist %q: directory %s: %w", name, dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("playlist %q: %s is not a directory", name, dir)
		}
	}
	return nil
}

func validateRule(index int, rule Rule, playlists map[string]*Playlist) error {
	hasDays := len(rule.Days) > 0
	hasDate := rule.Date != ""

	if hasDays == hasDate {
		return fmt.Errorf("schedule rule %d: exactly one of days or date is required", index)
	}
	if hasDate {
		if _, err := time.Parse(dateLayout, rule.Date); err != nil {
			return fmt.Errorf("schedule rule %d: invalid date %q: %w", index, rule.Date, err)
		}
	}
	for _, day := range rule.Days {
		if day < 0 || day > 6 {
			return fmt.Errorf("schedule rule %d: day %d out of range 0-6", index, day)
		}
	}
	if len(rule.Hours) == 0 {
		return fmt.Errorf("schedule rule %d: hours is required", index)
	}
	for _, hour := range rule.Hours {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("schedule rule %d: hour %d out of range 0-23", index, hour)
		}
	}
	if rule.Playlist == "" {
		return fmt.Errorf("schedule rule %d: playlist is required", index)
	}
	if _, ok := playlists[rule.Playlist]; !ok {
		return fmt.Errorf("schedule rule %d: %w: %q", index, ErrUnknownPlaylist, rule.Playlist)
	}
	return nil
}
