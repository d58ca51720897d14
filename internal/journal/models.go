/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package journal persists presence transitions, playback events, and
// playlist cursors so listening position survives restarts.
package journal

import "time"

// PresenceEvent records one presence verdict transition.
type PresenceEvent struct {
	ID      string `gorm:"type:uuid;primaryKey"`
	Present bool
	At      time.Time `gorm:"index"`
}

// PlayAction enumerates playback journal entries.
type PlayAction string

const (
	PlayStarted PlayAction = "started"
	PlayStopped PlayAction = "stopped"
	PlayFailed  PlayAction = "failed"
)

// PlayEvent records one playback action.
type PlayEvent struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	Playlist string `gorm:"index"`
	Track    string
	Action   PlayAction `gorm:"type:varchar(16)"`
	At       time.Time  `gorm:"index"`
}

// PlaylistCursor persists the next track index for a playlist.
type PlaylistCursor struct {
	Playlist  string `gorm:"primaryKey"`
	Position  int
	UpdatedAt time.Time
}
