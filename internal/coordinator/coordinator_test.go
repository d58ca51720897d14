/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/crescendo/internal/config"
	"github.com/friendsincode/crescendo/internal/events"
	"github.com/friendsincode/crescendo/internal/journal"
	"github.com/friendsincode/crescendo/internal/music"
	"github.com/friendsincode/crescendo/internal/sensor"
)

type fakeSensor struct {
	report sensor.Report
	err    error
}

func (f *fakeSensor) Poll(context.Context) (sensor.Report, error) {
	return f.report, f.err
}

func (f *fakeSensor) set(moving, static bool) {
	f.err = nil
	f.report.TargetStatus = 0
	if moving {
		f.report.TargetStatus |= 0x01
	}
	if static {
		f.report.TargetStatus |= 0x02
	}
}

type fakeRelay struct {
	on  bool
	err error
}

func (f *fakeRelay) SetPower(on bool) error {
	if f.err != nil {
		return f.err
	}
	f.on = on
	return nil
}

func (f *fakeRelay) IsOn() bool { return f.on }

type fakePlayer struct {
	playing bool
	current string
	started []string
	stopped int
	playErr error
}

func (f *fakePlayer) Play(_ context.Context, track string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.playing = true
	f.current = track
	f.started = append(f.started, track)
	return nil
}

func (f *fakePlayer) Stop() error {
	f.playing = false
	f.current = ""
	f.stopped++
	return nil
}

func (f *fakePlayer) IsPlaying() bool      { return f.playing }
func (f *fakePlayer) CurrentTrack() string { return f.current }

type fakeRecorder struct {
	presence []bool
	plays    []journal.PlayAction
	cursors  map[string]int
}

func (f *fakeRecorder) RecordPresence(_ context.Context, present bool, _ time.Time) error {
	f.presence = append(f.presence, present)
	return nil
}

func (f *fakeRecorder) RecordPlay(_ context.Context, _, _ string, action journal.PlayAction, _ time.Time) error {
	f.plays = append(f.plays, action)
	return nil
}

func (f *fakeRecorder) SaveCursors(_ context.Context, positions map[string]int) error {
	f.cursors = positions
	return nil
}

func (f *fakeRecorder) LoadCursors(context.Context) (map[string]int, error) {
	if f.cursors == nil {
		return map[string]int{}, nil
	}
	return f.cursors, nil
}

type fixture struct {
	coord    *Coordinator
	sensor   *fakeSensor
	relay    *fakeRelay
	player   *fakePlayer
	recorder *fakeRecorder
	now      time.Time
}

func newFixture(t *testing.T, musicCfg *music.Config) *fixture {
	t.Helper()
	cfg := &config.Config{
		MusicDir:      t.TempDir(),
		PollInterval:  time.Second,
		RelayOffDelay: 10 * time.Second,
	}
	f := &fixture{
		sensor:   &fakeSensor{},
		relay:    &fakeRelay{},
		player:   &fakePlayer{},
		recorder: &fakeRecorder{},
		now:      time.Date(2026, time.March, 4, 9, 0, 0, 0, time.UTC),
	}
	f.coord = New(cfg, f.sensor, f.relay, f.player, musicCfg, events.NewBus(), f.recorder, zerolog.Nop())
	return f
}

// tick advances one poll interval and evaluates it.
func (f *fixture) tick() {
	f.coord.tick(context.Background(), f.now)
	f.now = f.now.Add(time.Second)
}

// confirmPresence feeds enough moving samples to pass the confirmation
// window; the final tick carries the confirmed verdict.
func (f *fixture) confirmPresence() {
	f.sensor.set(true, true)
	for i := 0; i < 4; i++ {
		f.tick()
	}
}

func singlePlaylist(name string, tracks ...string) *music.Config {
	playlist := &music.Playlist{Name: name, Tracks: tracks}
	return &music.Config{
		Playlists: map[string]*music.Playlist{name: playlist},
		Default:   playlist,
	}
}

func TestPresenceStartsRelayAndPlayback(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3", "/music/b.mp3"))

	f.confirmPresence()

	if !f.relay.on {
		t.Fatal("relay should be on after confirmed presence")
	}
	if !f.player.playing || f.player.current != "/music/a.mp3" {
		t.Fatalf("expected first track playing, got %q", f.player.current)
	}
	if len(f.recorder.presence) != 1 || !f.recorder.presence[0] {
		t.Fatalf("expected one presence transition, got %v", f.recorder.presence)
	}
}

func TestSingleMotionFrameDoesNotStart(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))

	f.sensor.set(true, true)
	f.tick()
	f.sensor.set(false, true)
	f.tick()

	if f.relay.on || f.player.playing {
		t.Fatal("unconfirmed motion must not actuate anything")
	}
}

func TestTrackAdvancesOnNaturalCompletion(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3", "/music/b.mp3"))

	f.confirmPresence()
	// The process exited on its own; the next tick starts the next track.
	f.player.playing = false
	f.tick()

	if f.player.current != "/music/b.mp3" {
		t.Fatalf("expected second track, got %q", f.player.current)
	}
	// Wrap around.
	f.player.playing = false
	f.tick()
	if f.player.current != "/music/a.mp3" {
		t.Fatalf("expected wrap to first track, got %q", f.player.current)
	}
}

func TestAbsenceStopsPlaybackAndDelaysRelayOff(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))

	f.confirmPresence()

	// Latch expires well before the relay grace period in this setup, so
	// drop straight to an absent verdict by expiring the latch.
	f.now = f.now.Add(6 * time.Minute)
	f.sensor.set(false, false)
	f.tick()

	if f.player.playing {
		t.Fatal("playback should stop on absence")
	}
	if !f.relay.on {
		t.Fatal("relay should stay on during the grace period")
	}

	// Grace period is 10s; ticks are 1s apart.
	for i := 0; i < 9; i++ {
		f.tick()
	}
	if !f.relay.on {
		t.Fatal("relay turned off before the grace period elapsed")
	}
	f.tick()
	f.tick()
	if f.relay.on {
		t.Fatal("relay should be off after the grace period")
	}
	if len(f.recorder.presence) != 2 || f.recorder.presence[1] {
		t.Fatalf("expected present then absent transitions, got %v", f.recorder.presence)
	}
}

func TestReturnDuringGraceCancelsRelayOff(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))

	f.confirmPresence()
	f.now = f.now.Add(6 * time.Minute)
	f.sensor.set(false, false)
	f.tick()
	f.tick()

	f.confirmPresence()
	// Past the original grace deadline now; the relay must still be on.
	for i := 0; i < 10; i++ {
		f.tick()
	}
	if !f.relay.on {
		t.Fatal("renewed presence should cancel the pending relay off")
	}
}

func TestSensorErrorKeepsLastVerdict(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))

	f.confirmPresence()

	f.sensor.err = errors.New("port gone")
	for i := 0; i < 5; i++ {
		f.tick()
	}

	if !f.relay.on || !f.player.playing {
		t.Fatal("sensor errors must not drop an established presence verdict")
	}
	if len(f.recorder.presence) != 1 {
		t.Fatalf("no transition expected during sensor outage, got %v", f.recorder.presence)
	}
}

func TestPlaylistSwitchResetsCursorAndRestarts(t *testing.T) {
	morning := &music.Playlist{Name: "morning", Tracks: []string{"/m/1.mp3", "/m/2.mp3"}}
	afternoon := &music.Playlist{Name: "afternoon", Tracks: []string{"/a/1.mp3", "/a/2.mp3"}}
	cfg := &music.Config{
		Playlists: map[string]*music.Playlist{"morning": morning, "afternoon": afternoon},
		Rules: []music.Rule{
			{Hours: []int{9}, Days: []int{0, 1, 2, 3, 4, 5, 6}, Playlist: "morning"},
			{Hours: []int{10, 11, 12}, Days: []int{0, 1, 2, 3, 4, 5, 6}, Playlist: "afternoon"},
		},
	}
	f := newFixture(t, cfg)

	f.confirmPresence()
	if f.player.current != "/m/1.mp3" {
		t.Fatalf("expected morning track, got %q", f.player.current)
	}

	// Cross the schedule boundary while still present.
	f.now = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	f.sensor.set(true, true)
	for i := 0; i < 4; i++ {
		f.tick()
	}

	if f.player.current != "/a/1.mp3" {
		t.Fatalf("switch should restart from the new playlist head, got %q", f.player.current)
	}
	if f.player.stopped == 0 {
		t.Fatal("previous playlist track should have been stopped")
	}
}

func TestPlaybackErrorIsJournaled(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))
	f.player.playErr = errors.New("no such binary")

	f.confirmPresence()

	if f.player.playing {
		t.Fatal("playback must not be marked running after a failed start")
	}
	found := false
	for _, action := range f.recorder.plays {
		if action == journal.PlayFailed {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a failed play record, got %v", f.recorder.plays)
	}
}

func TestShutdownStopsEverythingAndPersistsCursors(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3", "/music/b.mp3"))

	f.confirmPresence()
	if err := f.coord.shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if f.player.playing {
		t.Fatal("playback should stop on shutdown")
	}
	if f.relay.on {
		t.Fatal("relay should be off after shutdown")
	}
	if f.recorder.cursors == nil {
		t.Fatal("cursors were not persisted")
	}
	if pos := f.recorder.cursors["default"]; pos != 1 {
		t.Fatalf("persisted cursor = %d, want 1", pos)
	}
}

func TestStatusSnapshot(t *testing.T) {
	f := newFixture(t, singlePlaylist("default", "/music/a.mp3"))

	status := f.coord.Status()
	if status.Present || status.RelayOn || status.Playing {
		t.Fatalf("fresh coordinator should be idle: %+v", status)
	}

	f.confirmPresence()
	status = f.coord.Status()
	if !status.Present || !status.RelayOn || !status.Playing {
		t.Fatalf("expected active status, got %+v", status)
	}
	if status.Playlist != "default" || status.Track != "/music/a.mp3" {
		t.Fatalf("unexpected playback status: %+v", status)
	}
}
