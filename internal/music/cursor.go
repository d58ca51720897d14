/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import "sync"

// CursorSet tracks the next track index per playlist. Positions survive
// transient presence loss so listening resumes where it stopped; switching
// to a different playlist resets that playlist's position instead.
type CursorSet struct {
	mu        sync.Mutex
	positions map[string]int
}

// NewCursorSet creates an empty cursor set.
func NewCursorSet() *CursorSet {
	return &CursorSet{positions: make(map[string]int)}
}

// Next returns the current track for the playlist and advances the cursor,
// wrapping at the end. Returns ok=false when tracks is empty.
func (c *CursorSet) Next(playlist string, tracks []string) (string, bool) {
	if len(tracks) == 0 {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pos := c.positions[playlist]
	// Directory playlists shrink between resolutions; clamp by wrapping.
	pos %= len(tracks)
	c.positions[playlist] = (pos + 1) % len(tracks)
	return tracks[pos], true
}

// Reset rewinds a playlist to its first track.
func (c *CursorSet) Reset(playlist string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.positions, playlist)
}

// Position returns the current index for a playlist.
func (c *CursorSet) Position(playlist string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.positions[playlist]
}

// Snapshot returns a copy of all positions, for persistence.
func (c *CursorSet) Snapshot() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int, len(c.positions))
	for name, pos := range c.positions {
		out[name] = pos
	}
	return out
}

// Restore replaces positions from a persisted snapshot.
func (c *CursorSet) Restore(positions map[string]int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, pos := range positions {
		if pos < 0 {
			continue
		}
		c.positions[name] = pos
	}
}
