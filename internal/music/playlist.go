/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package music holds the playlist catalogue, the schedule rules that pick
// a playlist for a given instant, and the playback cursors that keep
// per-playlist listening position.
package music

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// audioExtensions are the file types considered playable when a playlist is
// backed by a directory.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
}

// Playlist is a named source of tracks: either a fixed track list or a
// directory scanned at resolution time.
type Playlist struct {
	Name      string
	Tracks    []string
	Directory string
}

// Resolve returns the playable tracks right now. Track-list playlists are
// fixed at configuration load; directory playlists re-read the directory
// on every call so files added since the last resolution are picked up.
// Relative paths are joined against baseDir.
func (p *Playlist) Resolve(baseDir string) []string {
	if len(p.Tracks) > 0 {
		tracks := make([]string, len(p.Tracks))
		for i, track := range p.Tracks {
			if filepath.IsAbs(track) {
				tracks[i] = track
			} else {
				tracks[i] = filepath.Join(baseDir, track)
			}
		}
		return tracks
	}

	if p.Directory == "" {
		return nil
	}

	dir := p.Directory
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var tracks []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			tracks = append(tracks, filepath.Join(dir, entry.Name()))
		}
	}
	// ReadDir sorts by filename already; keep the guarantee explicit.
	sort.Strings(tracks)
	return tracks
}
