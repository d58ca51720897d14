/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package presence fuses raw radar detections into a debounced presence
// verdict. The sensor reports two independent signals per poll: a dynamic
// (moving target) flag and a static (stationary target) flag. Either alone
// is too noisy to gate playback on — a curtain moving in a draft trips the
// dynamic signal for a frame, and the static signal lingers on furniture
// rearrangements. The engine requires sustained motion to confirm someone
// arrived, then latches that confirmation so a person who sits still keeps
// their presence credit for a bounded window.
package presence

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMotionConfirmWindow is how long the dynamic signal must hold
	// continuously before motion counts as confirmed.
	DefaultMotionConfirmWindow = 3 * time.Second

	// DefaultLatchDuration is how long confirmed motion keeps its credit
	// after the dynamic signal drops.
	DefaultLatchDuration = 5 * time.Minute
)

// Sample is one sensor poll result.
type Sample struct {
	Dynamic bool
	Static  bool
	At      time.Time
}

// Engine maintains the fusion state across poll ticks. It is not safe for
// concurrent use; a single coordinator goroutine owns it.
type Engine struct {
	confirmWindow time.Duration
	latchDuration time.Duration
	logger        zerolog.Logger

	dynamicSince time.Time // start of the current unbroken dynamic run
	latchUntil   time.Time // expiry of the motion-confirmation hold
	present      bool
}

// New creates an engine with the default timing windows.
func New(logger zerolog.Logger) *Engine {
	return NewWithTiming(DefaultMotionConfirmWindow, DefaultLatchDuration, logger)
}

// NewWithTiming creates an engine with explicit timing windows.
func NewWithTiming(confirmWindow, latchDuration time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		confirmWindow: confirmWindow,
		latchDuration: latchDuration,
		logger:        logger.With().Str("component", "presence").Logger(),
	}
}

// Update folds one sample into the engine state and returns the presence
// verdict for this tick.
//
// Motion must hold continuously for the confirmation window before it
// counts; each tick of confirmed motion refreshes the latch. A broken run
// clears the run start but never the latch — the latch decays on its own,
// so a person who stops moving stays "dynamic" until it expires. The final
// verdict additionally requires the static signal, which rejects
// walk-throughs where nobody settles.
func (e *Engine) Update(s Sample) bool {
	confirmed := false
	if s.Dynamic {
		if e.dynamicSince.IsZero() {
			e.dynamicSince = s.At
		}
		if s.At.Sub(e.dynamicSince) >= e.confirmWindow {
			confirmed = true
			e.latchUntil = s.At.Add(e.latchDuration)
		}
	} else {
		e.dynamicSince = time.Time{}
	}

	latched := false
	if !e.latchUntil.IsZero() {
		if s.At.Before(e.latchUntil) {
			latched = true
		} else {
			e.latchUntil = time.Time{}
		}
	}

	present := (confirmed || latched) && s.Static

	if present != e.present {
		if present {
			e.logger.Info().
				Bool("motion_confirmed", confirmed).
				Bool("latched", latched).
				Msg("presence detected")
		} else {
			e.logger.Info().
				Bool("dynamic_active", confirmed || latched).
				Bool("static", s.Static).
				Msg("presence lost")
		}
	}

	e.present = present
	return present
}

// Present returns the last computed verdict.
func (e *Engine) Present() bool {
	return e.present
}

// LatchedUntil returns the latch expiry, or the zero time when no latch is
// held.
func (e *Engine) LatchedUntil() time.Time {
	return e.latchUntil
}
