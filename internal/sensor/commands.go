/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sensor

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Configuration command words. The sensor acknowledges each command with a
// frame whose command word is the request word with bit 8 set, followed by
// a u16 status (0 = success).
const (
	cmdEnableConfig    = 0x00FF
	cmdEndConfig       = 0x00FE
	cmdDistanceParams  = 0x0060
	cmdGateSensitivity = 0x0064

	ackFlag = 0x0100
)

// ErrCommandRejected indicates the sensor acknowledged a command with a
// failure status.
var ErrCommandRejected = errors.New("sensor rejected command")

// Settings are the tunable detection parameters.
type Settings struct {
	MaxMotionGate int // 1-8, each gate covers 0.75 m
	MaxStaticGate int // 1-8
	NoOneDuration int // seconds before the sensor reports "no one"

	// Per-gate sensitivity 0-100; nil leaves the sensor defaults.
	MotionSensitivity []int
	StaticSensitivity []int
}

// Validate checks settings ranges before any command is sent.
func (s Settings) Validate() error {
	if s.MaxMotionGate < 1 || s.MaxMotionGate > 8 {
		return fmt.Errorf("max motion gate %d out of range 1-8", s.MaxMotionGate)
	}
	if s.MaxStaticGate < 1 || s.MaxStaticGate > 8 {
		return fmt.Errorf("max static gate %d out of range 1-8", s.MaxStaticGate)
	}
	if s.NoOneDuration < 0 || s.NoOneDuration > 0xFFFF {
		return fmt.Errorf("no-one duration %d out of range", s.NoOneDuration)
	}
	for i, v := range s.MotionSensitivity {
		if v < 0 || v > 100 {
			return fmt.Errorf("motion sensitivity gate %d: %d out of range 0-100", i, v)
		}
	}
	for i, v := range s.StaticSensitivity {
		if v < 0 || v > 100 {
			return fmt.Errorf("static sensitivity gate %d: %d out of range 0-100", i, v)
		}
	}
	return nil
}

// encodeCommand builds a complete command frame for the given word.
func encodeCommand(word uint16, payload []byte) []byte {
	frame := make([]byte, 0, len(frameHeader)+2+2+len(payload)+len(frameFooter))
	frame = append(frame, frameHeader...)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(2+len(payload)))
	frame = binary.LittleEndian.AppendUint16(frame, word)
	frame = append(frame, payload...)
	frame = append(frame, frameFooter...)
	return frame
}

// parseAck validates an acknowledgement frame for the given command word.
func parseAck(frame []byte, word uint16) error {
	// header(4) + length(2) + ack word(2) + status(2) + footer(4)
	if len(frame) < 14 {
		return fmt.Errorf("%w: ack frame %d bytes", ErrBadFrame, len(frame))
	}
	ackWord := binary.LittleEndian.Uint16(frame[6:8])
	if ackWord != word|ackFlag {
		return fmt.Errorf("%w: ack word 0x%04X for command 0x%04X", ErrBadFrame, ackWord, word)
	}
	if status := binary.LittleEndian.Uint16(frame[8:10]); status != 0 {
		return fmt.Errorf("%w: status %d", ErrCommandRejected, status)
	}
	return nil
}

// distanceParamsPayload encodes the gate range and no-one duration as
// tagged u16/u32 parameter words.
func distanceParamsPayload(s Settings) []byte {
	payload := make([]byte, 0, 18)
	payload = appendParam(payload, 0x0000, uint32(s.MaxMotionGate))
	payload = appendParam(payload, 0x0001, uint32(s.MaxStaticGate))
	payload = appendParam(payload, 0x0002, uint32(s.NoOneDuration))
	return payload
}

// sensitivityPayload encodes per-gate motion and static sensitivity.
func sensitivityPayload(gate, motion, static int) []byte {
	payload := make([]byte, 0, 18)
	payload = appendParam(payload, 0x0000, uint32(gate))
	payload = appendParam(payload, 0x0001, uint32(motion))
	payload = appendParam(payload, 0x0002, uint32(static))
	return payload
}

func appendParam(payload []byte, tag uint16, value uint32) []byte {
	payload = binary.LittleEndian.AppendUint16(payload, tag)
	payload = binary.LittleEndian.AppendUint32(payload, value)
	return payload
}
