/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package audio plays tracks through an external player process, one
// process per track. Natural track completion is observed as the process
// exiting, which is what lets the coordinator advance the playlist cursor.
package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrPlayback indicates a track could not be started.
var ErrPlayback = errors.New("playback failed")

// Backend is the coordinator-facing playback contract.
type Backend interface {
	Play(ctx context.Context, track string) error
	Stop() error
	IsPlaying() bool
	CurrentTrack() string
}

// Player runs a configured player binary with the track path as its only
// argument.
type Player struct {
	bin    string
	logger zerolog.Logger

	mu    sync.Mutex
	cmd   *exec.Cmd
	done  chan struct{} // signals when the process has exited
	track string
}

// NewPlayer creates a player using the given binary.
func NewPlayer(bin string, logger zerolog.Logger) *Player {
	return &Player{bin: bin, logger: logger.With().Str("component", "audio").Logger()}
}

// Play starts the track, stopping any current playback first.
func (p *Player) Play(ctx context.Context, track string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.stopLocked(); err != nil {
		return err
	}

	if _, err := os.Stat(track); err != nil {
		return fmt.Errorf("%w: %v", ErrPlayback, err)
	}

	cmd := exec.CommandContext(ctx, p.bin, track)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrPlayback, p.bin, err)
	}

	p.cmd = cmd
	p.done = make(chan struct{})
	p.track = track

	p.logger.Info().Str("track", track).Msg("playback started")

	// Single goroutine to wait for process completion
	go func(done chan struct{}, c *exec.Cmd, track string) {
		err := c.Wait()
		close(done)
		if err != nil {
			p.logger.Debug().Err(err).Str("track", track).Msg("player exited")
		} else {
			p.logger.Debug().Str("track", track).Msg("track finished")
		}
	}(p.done, cmd, track)

	return nil
}

// Stop terminates the running player, if any.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Player) stopLocked() error {
	cmd := p.cmd
	done := p.done
	if cmd == nil || done == nil {
		return nil
	}

	select {
	case <-done:
		p.cmd, p.done = nil, nil
		return nil
	default:
	}

	if cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}

	select {
	case <-time.After(5 * time.Second):
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		<-done
	case <-done:
		// Process exited on interrupt
	}

	p.cmd, p.done = nil, nil
	p.logger.Info().Str("track", p.track).Msg("playback stopped")
	return nil
}

// IsPlaying reports whether a player process is currently running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// CurrentTrack returns the most recently started track path.
func (p *Player) CurrentTrack() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}
