/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "music.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesPlaylistsAndSchedules(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "ambient"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	path := writeConfig(t, dir, `
playlists:
  morning:
    tracks:
      - one.mp3
      - two.mp3
  default:
    directory: ambient
schedules:
  - days: [0, 1, 2, 3, 4]
    hours: [7, 8, 9]
    playlist: morning
  - date: "2026-12-24"
    hours: [18, 19, 20]
    playlist: default
`)

	cfg, err := Load(path, dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Playlists) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(cfg.Playlists))
	}
	if cfg.Default == nil || cfg.Default.Name != DefaultPlaylistName {
		t.Fatalf("expected default playlist, got %v", cfg.Default)
	}
	if len(cfg.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(cfg.Rules))
	}
	if got := cfg.Playlists["morning"].Tracks; len(got) != 2 {
		t.Fatalf("expected 2 tracks, got %v", got)
	}
}

func TestLoadRejectsUnknownPlaylistReference(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
playlists:
  morning:
    tracks: [one.mp3]
schedules:
  - days: [0]
    hours: [7]
    playlist: evening
`)

	_, err := Load(path, dir)
	if err == nil {
		t.Fatal("expected load to fail for unknown playlist reference")
	}
	if !errors.Is(err, ErrUnknownPlaylist) {
		t.Fatalf("expected ErrUnknownPlaylist, got %v", err)
	}
}

func TestLoadRejectsMalformedRules(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"both selectors", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - days: [0]
    date: "2026-01-01"
    hours: [7]
    playlist: m
`},
		{"neither selector", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - hours: [7]
    playlist: m
`},
		{"day out of range", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - days: [7]
    hours: [7]
    playlist: m
`},
		{"hour out of range", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - days: [0]
    hours: [24]
    playlist: m
`},
		{"missing hours", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - days: [0]
    playlist: m
`},
		{"bad date", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - date: "24/12/2026"
    hours: [7]
    playlist: m
`},
		{"missing playlist", `
playlists:
  m: {tracks: [a.mp3]}
schedules:
  - days: [0]
    hours: [7]
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.body)
			if _, err := Load(path, dir); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestLoadRejectsInvalidPlaylists(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"tracks and directory", `
playlists:
  m:
    tracks: [a.mp3]
    directory: music
schedules: []
`},
		{"neither tracks nor directory", `
playlists:
  m: {}
schedules: []
`},
		{"missing directory", `
playlists:
  m: {directory: does-not-exist}
schedules: []
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, tt.body)
			if _, err := Load(path, dir); err == nil {
				t.Fatal("expected load to fail")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "."); err == nil {
		t.Fatal("expected load to fail for missing file")
	}
}
