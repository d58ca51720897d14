/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository stores and queries journal rows.
type Repository struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// NewRepository creates a journal repository.
func NewRepository(db *gorm.DB, logger zerolog.Logger) *Repository {
	return &Repository{db: db, logger: logger.With().Str("component", "journal").Logger()}
}

// RecordPresence appends a presence transition.
func (r *Repository) RecordPresence(ctx context.Context, present bool, at time.Time) error {
	event := &PresenceEvent{ID: uuid.NewString(), Present: present, At: at}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record presence: %w", err)
	}
	return nil
}

// RecordPlay appends a playback action.
func (r *Repository) RecordPlay(ctx context.Context, playlist, track string, action PlayAction, at time.Time) error {
	event := &PlayEvent{ID: uuid.NewString(), Playlist: playlist, Track: track, Action: action, At: at}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("record play: %w", err)
	}
	return nil
}

// RecentPresence returns the newest presence transitions, newest first.
func (r *Repository) RecentPresence(ctx context.Context, limit int) ([]PresenceEvent, error) {
	var events []PresenceEvent
	err := r.db.WithContext(ctx).
		Order("at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query presence events: %w", err)
	}
	return events, nil
}

// RecentPlays returns the newest playback actions, newest first.
func (r *Repository) RecentPlays(ctx context.Context, limit int) ([]PlayEvent, error) {
	var events []PlayEvent
	err := r.db.WithContext(ctx).
		Order("at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("query play events: %w", err)
	}
	return events, nil
}

// SaveCursors upserts the playlist cursor positions.
func (r *Repository) SaveCursors(ctx context.Context, positions map[string]int) error {
	now := time.Now().UTC()
	for playlist, position := range positions {
		cursor := &PlaylistCursor{Playlist: playlist, Position: position, UpdatedAt: now}
		err := r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "playlist"}},
				DoUpdates: clause.AssignmentColumns([]string{"position", "updated_at"}),
			}).
			Create(cursor).Error
		if err != nil {
			return fmt.Errorf("save cursor %q: %w", playlist, err)
		}
	}
	return nil
}

// LoadCursors returns all persisted cursor positions.
func (r *Repository) LoadCursors(ctx context.Context) (map[string]int, error) {
	var cursors []PlaylistCursor
	if err := r.db.WithContext(ctx).Find(&cursors).Error; err != nil {
		return nil, fmt.Errorf("load cursors: %w", err)
	}
	positions := make(map[string]int, len(cursors))
	for _, cursor := range cursors {
		positions[cursor.Playlist] = cursor.Position
	}
	return positions, nil
}
