/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sensor drives a 24 GHz mmWave human presence sensor over a
// serial port. The device streams framed reports carrying a target status
// (moving, stationary, both) plus per-target distance and energy readings,
// and accepts configuration commands using the same framing.
package sensor

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire framing. Little endian throughout.
var (
	frameHeader = []byte{0xFD, 0xFC, 0xFB, 0xFA}
	frameFooter = []byte{0x04, 0x03, 0x02, 0x01}
)

const (
	dataTypeEngineering = 0x01
	dataTypeBasic       = 0x02
	dataHead            = 0xAA

	// maxFrameData bounds the length field during resync; anything larger
	// is a corrupt length read mid-stream.
	maxFrameData = 512
)

// Target status bits.
const (
	targetMoving     = 0x01
	targetStationary = 0x02
)

// ErrBadFrame indicates a frame that does not decode as a sensor report.
var ErrBadFrame = errors.New("bad sensor frame")

// errReadTimeout indicates the port went quiet before a full frame arrived.
var errReadTimeout = errors.New("sensor read timeout")

// Report is one decoded detection report.
type Report struct {
	Engineering         bool
	TargetStatus        byte
	MovingDistanceCM    uint16
	MovingEnergy        byte
	StaticDistanceCM    uint16
	StaticEnergy        byte
	DetectionDistanceCM uint16
}

// MovingTarget reports whether a moving target is detected.
func (r Report) MovingTarget() bool {
	return r.TargetStatus&targetMoving != 0
}

// StaticTarget reports whether a stationary target is detected.
func (r Report) StaticTarget() bool {
	return r.TargetStatus&targetStationary != 0
}

// ReadFrame scans the stream for the next complete frame and returns it,
// header and footer included. Garbage between frames and frames with a
// corrupt length or footer are skipped; the scan resumes at the next
// header candidate.
func ReadFrame(br *bufio.Reader) ([]byte, error) {
	for {
		if err := syncHeader(br); err != nil {
			return nil, err
		}

		lengthBytes, err := br.Peek(2)
		if err != nil {
			return nil, err
		}
		length := int(binary.LittleEndian.Uint16(lengthBytes))
		if length > maxFrameData {
			// Corrupt length; drop one byte and resync.
			if _, err := br.Discard(1); err != nil {
				return nil, err
			}
			continue
		}

		rest := make([]byte, 2+length+len(frameFooter))
		if _, err := io.ReadFull(br, rest); err != nil {
			return nil, err
		}
		if !bytes.Equal(rest[2+length:], frameFooter) {
			continue
		}

		frame := make([]byte, 0, len(frameHeader)+len(rest))
		frame = append(frame, frameHeader...)
		frame = append(frame, rest...)
		return frame, nil
	}
}

// syncHeader consumes bytes until the 4-byte frame header has been read.
func syncHeader(br *bufio.Reader) error {
	matched := 0
	for matched < len(frameHeader) {
		b, err := br.ReadByte()
		if err != nil {
			return err
		}
		switch {
		case b == frameHeader[matched]:
			matched++
		case b == frameHeader[0]:
			matched = 1
		default:
			matched = 0
		}
	}
	return nil
}

// DecodeFrame parses a complete frame into a detection report.
func DecodeFrame(frame []byte) (Report, error) {
	minSize := len(frameHeader) + 2 + 3 + len(frameFooter)
	if len(frame) < minSize {
		return Report{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(frame))
	}
	if !bytes.Equal(frame[:4], frameHeader) || !bytes.Equal(frame[len(frame)-4:], frameFooter) {
		return Report{}, fmt.Errorf("%w: bad framing", ErrBadFrame)
	}

	length := int(binary.LittleEndian.Uint16(frame[4:6]))
	data := frame[6 : len(frame)-4]
	if len(data) != length {
		return Report{}, fmt.Errorf("%w: length %d, data %d", ErrBadFrame, length, len(data))
	}
	if len(data) < 3 {
		return Report{}, fmt.Errorf("%w: truncated data", ErrBadFrame)
	}

	dataType := data[0]
	if dataType != dataTypeBasic && dataType != dataTypeEngineering {
		return Report{}, fmt.Errorf("%w: data type 0x%02X", ErrBadFrame, dataType)
	}
	if data[1] != dataHead {
		return Report{}, fmt.Errorf("%w: head 0x%02X", ErrBadFrame, data[1])
	}

	target := data[2:]
	if len(target) < 9 {
		return Report{}, fmt.Errorf("%w: target data %d bytes", ErrBadFrame, len(target))
	}

	return Report{
		Engineering:         dataType == dataTypeEngineering,
		TargetStatus:        target[0],
		MovingDistanceCM:    binary.LittleEndian.Uint16(target[1:3]),
		MovingEnergy:        target[3],
		StaticDistanceCM:    binary.LittleEndian.Uint16(target[4:6]),
		StaticEnergy:        target[6],
		DetectionDistanceCM: binary.LittleEndian.Uint16(target[7:9]),
	}, nil
}
