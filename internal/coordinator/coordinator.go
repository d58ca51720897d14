/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package coordinator runs the poll loop that ties the radar sensor, the
// presence engine, the relay, and audio playback together.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/crescendo/internal/audio"
	"github.com/friendsincode/crescendo/internal/config"
	"github.com/friendsincode/crescendo/internal/events"
	"github.com/friendsincode/crescendo/internal/journal"
	"github.com/friendsincode/crescendo/internal/music"
	"github.com/friendsincode/crescendo/internal/presence"
	"github.com/friendsincode/crescendo/internal/relay"
	"github.com/friendsincode/crescendo/internal/sensor"
	"github.com/friendsincode/crescendo/internal/telemetry"
)

// SensorSource yields the latest radar report.
type SensorSource interface {
	Poll(ctx context.Context) (sensor.Report, error)
}

// Recorder persists presence transitions, playback actions, and cursors.
// *journal.Repository satisfies it.
type Recorder interface {
	RecordPresence(ctx context.Context, present bool, at time.Time) error
	RecordPlay(ctx context.Context, playlist, track string, action journal.PlayAction, at time.Time) error
	SaveCursors(ctx context.Context, positions map[string]int) error
	LoadCursors(ctx context.Context) (map[string]int, error)
}

// Status is a point-in-time snapshot for the HTTP API.
type Status struct {
	Present      bool      `json:"present"`
	LatchedUntil time.Time `json:"latched_until,omitempty"`
	RelayOn      bool      `json:"relay_on"`
	Playing      bool      `json:"playing"`
	Playlist     string    `json:"playlist,omitempty"`
	Track        string    `json:"track,omitempty"`
}

// Coordinator owns the tick loop.
type Coordinator struct {
	cfg     *config.Config
	sensor  SensorSource
	relay   relay.Switcher
	player  audio.Backend
	music   *music.Config
	cursors *music.CursorSet
	engine  *presence.Engine
	bus     *events.Bus
	journal Recorder
	logger  zerolog.Logger

	mu           sync.Mutex
	lastVerdict  bool
	lastPlaylist string
	relayOffAt   time.Time
}

// New assembles a coordinator. The journal recorder may not be nil.
func New(
	cfg *config.Config,
	src SensorSource,
	sw relay.Switcher,
	player audio.Backend,
	musicCfg *music.Config,
	bus *events.Bus,
	rec Recorder,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		sensor:  src,
		relay:   sw,
		player:  player,
		music:   musicCfg,
		cursors: music.NewCursorSet(),
		engine:  presence.New(logger),
		bus:     bus,
		journal: rec,
		logger:  logger.With().Str("component", "coordinator").Logger(),
	}
}

// Run polls until the context is cancelled, then shuts playback and the
// relay down and persists cursor positions.
func (c *Coordinator) Run(ctx context.Context) error {
	positions, err := c.journal.LoadCursors(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("restore cursors")
	} else {
		c.cursors.Restore(positions)
	}

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", c.cfg.PollInterval).Msg("coordinator started")

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		case now := <-ticker.C:
			c.tick(ctx, now)
		}
	}
}

// tick evaluates one sensor sample and drives the actuators.
func (c *Coordinator) tick(ctx context.Context, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	telemetry.TicksTotal.Inc()

	var present bool
	report, err := c.sensor.Poll(ctx)
	if err != nil {
		// A failed poll never flips the verdict on its own. The latch
		// keeps decaying on subsequent good samples.
		telemetry.SensorErrorsTotal.Inc()
		c.bus.Publish(events.EventSensorError, events.Payload{"error": err.Error()})
		c.logger.Warn().Err(err).Msg("sensor poll failed")
		present = c.engine.Present()
	} else {
		present = c.engine.Update(presence.Sample{
			Dynamic: report.MovingTarget(),
			Static:  report.StaticTarget(),
			At:      now,
		})
	}

	if present != c.lastVerdict {
		c.lastVerdict = present
		if present {
			telemetry.PresenceState.Set(1)
			c.bus.Publish(events.EventPresenceDetected, events.Payload{})
		} else {
			telemetry.PresenceState.Set(0)
			c.bus.Publish(events.EventPresenceLost, events.Payload{})
		}
		if err := c.journal.RecordPresence(ctx, present, now); err != nil {
			c.logger.Warn().Err(err).Msg("journal presence")
		}
	}

	if present {
		c.handlePresent(ctx, now)
	} else {
		c.handleAbsent(ctx, now)
	}
}

func (c *Coordinator) handlePresent(ctx context.Context, now time.Time) {
	c.relayOffAt = time.Time{}

	if !c.relay.IsOn() {
		if err := c.relay.SetPower(true); err != nil {
			c.logger.Error().Err(err).Msg("relay on failed")
		} else {
			telemetry.RelayState.Set(1)
			c.bus.Publish(events.EventRelayOn, events.Payload{})
		}
	}

	playlist := c.music.Active(now)
	if playlist == nil {
		c.logger.Debug().Msg("no playlist scheduled")
		return
	}

	if c.lastPlaylist != "" && playlist.Name != c.lastPlaylist {
		if c.player.IsPlaying() {
			c.stopPlayback(ctx, now)
		}
		c.cursors.Reset(playlist.Name)
		c.bus.Publish(events.EventPlaylistChange, events.Payload{
			"from": c.lastPlaylist,
			"to":   playlist.Name,
		})
		c.logger.Info().Str("from", c.lastPlaylist).Str("to", playlist.Name).Msg("playlist changed")
	}
	c.lastPlaylist = playlist.Name

	if c.player.IsPlaying() {
		return
	}

	tracks := playlist.Resolve(c.cfg.MusicDir)
	track, ok := c.cursors.Next(playlist.Name, tracks)
	if !ok {
		c.logger.Warn().Str("playlist", playlist.Name).Msg("playlist has no tracks")
		return
	}

	telemetry.PlaylistResolutionsTotal.WithLabelValues(playlist.Name).Inc()

	if err := c.player.Play(ctx, track); err != nil {
		telemetry.PlaybackErrorsTotal.Inc()
		c.bus.Publish(events.EventPlaybackError, events.Payload{
			"playlist": playlist.Name,
			"track":    track,
			"error":    err.Error(),
		})
		c.logger.Error().Err(err).Str("track", track).Msg("playback failed")
		if err := c.journal.RecordPlay(ctx, playlist.Name, track, journal.PlayFailed, now); err != nil {
			c.logger.Warn().Err(err).Msg("journal play")
		}
		return
	}

	telemetry.PlaybackStartsTotal.WithLabelValues(playlist.Name).Inc()
	c.bus.Publish(events.EventPlaybackStarted, events.Payload{
		"playlist": playlist.Name,
		"track":    track,
	})
	c.logger.Info().Str("playlist", playlist.Name).Str("track", track).Msg("playing")
	if err := c.journal.RecordPlay(ctx, playlist.Name, track, journal.PlayStarted, now); err != nil {
		c.logger.Warn().Err(err).Msg("journal play")
	}
}

func (c *Coordinator) handleAbsent(ctx context.Context, now time.Time) {
	if c.player.IsPlaying() {
		c.stopPlayback(ctx, now)
	}

	if !c.relay.IsOn() {
		c.relayOffAt = time.Time{}
		return
	}

	// The relay stays powered for a grace period so a short absence does
	// not cycle the speaker.
	if c.relayOffAt.IsZero() {
		c.relayOffAt = now.Add(c.cfg.RelayOffDelay)
		return
	}
	if now.Before(c.relayOffAt) {
		return
	}

	if err := c.relay.SetPower(false); err != nil {
		c.logger.Error().Err(err).Msg("relay off failed")
		return
	}
	telemetry.RelayState.Set(0)
	c.bus.Publish(events.EventRelayOff, events.Payload{})
	c.relayOffAt = time.Time{}
}

func (c *Coordinator) stopPlayback(ctx context.Context, now time.Time) {
	track := c.player.CurrentTrack()
	if err := c.player.Stop(); err != nil {
		c.logger.Warn().Err(err).Msg("stop playback")
	}
	c.bus.Publish(events.EventPlaybackStopped, events.Payload{
		"playlist": c.lastPlaylist,
		"track":    track,
	})
	if err := c.journal.RecordPlay(ctx, c.lastPlaylist, track, journal.PlayStopped, now); err != nil {
		c.logger.Warn().Err(err).Msg("journal play")
	}
}

// shutdown releases the actuators and persists cursors.
func (c *Coordinator) shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if c.player.IsPlaying() {
		c.stopPlayback(ctx, time.Now())
	}
	if c.relay.IsOn() {
		if err := c.relay.SetPower(false); err != nil {
			c.logger.Warn().Err(err).Msg("relay off on shutdown")
		} else {
			telemetry.RelayState.Set(0)
			c.bus.Publish(events.EventRelayOff, events.Payload{})
		}
	}

	if err := c.journal.SaveCursors(ctx, c.cursors.Snapshot()); err != nil {
		c.logger.Error().Err(err).Msg("persist cursors")
		return err
	}

	c.logger.Info().Msg("coordinator stopped")
	return nil
}

// Status reports the current state for the HTTP API.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Status{
		Present:      c.lastVerdict,
		LatchedUntil: c.engine.LatchedUntil(),
		RelayOn:      c.relay.IsOn(),
		Playing:      c.player.IsPlaying(),
		Playlist:     c.lastPlaylist,
		Track:        c.player.CurrentTrack(),
	}
}
