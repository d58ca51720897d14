/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package relay switches speaker power through a USB HID relay board.
package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/gousb"
	"github.com/rs/zerolog"
)

// Default vendor/product for the common HID relay boards.
const (
	DefaultVendorID  = 0x16c0
	DefaultProductID = 0x05df
)

// HID SET_REPORT control transfer parameters.
const (
	requestTypeOut   = 0x21 // host to device, class, interface
	requestSetReport = 0x09
	reportValue      = 0x0300
)

// ErrUnavailable indicates the relay device is absent or unreachable.
var ErrUnavailable = errors.New("relay unavailable")

// Switcher is the coordinator-facing relay contract.
type Switcher interface {
	SetPower(on bool) error
	IsOn() bool
}

// Relay drives one channel of a USB HID relay board.
type Relay struct {
	usbCtx  *gousb.Context
	dev     *gousb.Device
	channel int
	logger  zerolog.Logger

	mu sync.Mutex
	on bool
}

// Open claims the relay device by vendor/product ID.
func Open(vendorID, productID, channel int, logger zerolog.Logger) (*Relay, error) {
	usbCtx := gousb.NewContext()

	dev, err := usbCtx.OpenDeviceWithVIDPID(gousb.ID(vendorID), gousb.ID(productID))
	if err != nil {
		usbCtx.Close()
		return nil, fmt.Errorf("%w: open %04x:%04x: %v", ErrUnavailable, vendorID, productID, err)
	}
	if dev == nil {
		usbCtx.Close()
		return nil, fmt.Errorf("%w: device %04x:%04x not found", ErrUnavailable, vendorID, productID)
	}

	// The kernel HID driver holds the interface by default.
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		usbCtx.Close()
		return nil, fmt.Errorf("%w: auto detach: %v", ErrUnavailable, err)
	}

	logger = logger.With().Str("component", "relay").Logger()
	logger.Info().
		Str("device", fmt.Sprintf("%04x:%04x", vendorID, productID)).
		Int("channel", channel).
		Msg("relay connected")

	return &Relay{usbCtx: usbCtx, dev: dev, channel: channel, logger: logger}, nil
}

// SetPower switches the relay channel on or off.
func (r *Relay) SetPower(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dev == nil {
		return ErrUnavailable
	}

	state := byte(0x00)
	if on {
		state = 0x01
	}
	cmd := []byte{0x01, byte(r.channel), state}

	if _, err := r.dev.Control(requestTypeOut, requestSetReport, reportValue, 0, cmd); err != nil {
		return fmt.Errorf("%w: control transfer: %v", ErrUnavailable, err)
	}

	r.on = on
	r.logger.Info().Bool("on", on).Msg("relay switched")
	return nil
}

// IsOn returns the last successfully commanded state.
func (r *Relay) IsOn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.on
}

// Close releases the USB device.
func (r *Relay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.dev == nil {
		return nil
	}
	err := r.dev.Close()
	r.dev = nil
	if cerr := r.usbCtx.Close(); err == nil {
		err = cerr
	}
	r.logger.Info().Msg("relay disconnected")
	return err
}
