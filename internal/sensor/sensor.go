/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sensor

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.bug.st/serial"
)

// ErrUnavailable indicates the sensor cannot currently be read. The
// coordinator treats this as "no update this tick", never as fatal.
var ErrUnavailable = errors.New("sensor unavailable")

// Sensor reads detection reports from the serial port. Not safe for
// concurrent use; the coordinator goroutine owns it.
type Sensor struct {
	portName string
	port     serial.Port
	reader   *bufio.Reader
	logger   zerolog.Logger

	last     Report
	haveLast bool
}

// Open connects to the sensor on the given serial port (8N1).
func Open(portName string, baud int, readTimeout time.Duration, logger zerolog.Logger) (*Sensor, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout: %w", err)
	}

	logger = logger.With().Str("component", "sensor").Str("port", portName).Logger()
	logger.Info().Int("baud", baud).Msg("sensor connected")

	return &Sensor{
		portName: portName,
		port:     port,
		reader:   bufio.NewReaderSize(timeoutReader{port}, 4096),
		logger:   logger,
	}, nil
}

// timeoutReader converts the serial library's zero-byte timeout reads into
// an error so the frame scanner terminates instead of spinning.
type timeoutReader struct {
	port serial.Port
}

func (t timeoutReader) Read(p []byte) (int, error) {
	n, err := t.port.Read(p)
	if n == 0 && err == nil {
		return 0, errReadTimeout
	}
	return n, err
}

// Poll reads the next detection report. A quiet port inside the read
// timeout returns the last known report; a port that never produced one,
// or a transport failure, returns ErrUnavailable.
func (s *Sensor) Poll(ctx context.Context) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if s.port == nil {
		return Report{}, ErrUnavailable
	}

	frame, err := ReadFrame(s.reader)
	if err != nil {
		if errors.Is(err, errReadTimeout) && s.haveLast {
			return s.last, nil
		}
		return Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	report, err := DecodeFrame(frame)
	if err != nil {
		// Likely a command ACK or a corrupt report; keep the last verdict.
		s.logger.Debug().Err(err).Msg("undecodable frame")
		if s.haveLast {
			return s.last, nil
		}
		return Report{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.last = report
	s.haveLast = true
	return report, nil
}

// Configure pushes detection settings to the sensor. The sensor must be
// switched into configuration mode for the duration; configuration mode is
// always ended, even when a command in the middle fails.
func (s *Sensor) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validate settings: %w", err)
	}
	if s.port == nil {
		return ErrUnavailable
	}

	enable := binary.LittleEndian.AppendUint16(nil, 0x0001)
	if err := s.sendCommand(cmdEnableConfig, enable); err != nil {
		return fmt.Errorf("enable config mode: %w", err)
	}
	defer func() {
		if err := s.sendCommand(cmdEndConfig, nil); err != nil {
			s.logger.Warn().Err(err).Msg("failed to end config mode")
		}
	}()

	if err := s.sendCommand(cmdDistanceParams, distanceParamsPayload(settings)); err != nil {
		return fmt.Errorf("set distance params: %w", err)
	}

	gates := len(s.limitedSensitivities(settings))
	for gate := 0; gate < gates; gate++ {
		payload := sensitivityPayload(gate, settings.MotionSensitivity[gate], settings.StaticSensitivity[gate])
		if err := s.sendCommand(cmdGateSensitivity, payload); err != nil {
			s.logger.Warn().Err(err).Int("gate", gate).Msg("failed to set gate sensitivity")
		}
	}

	s.logger.Info().Msg("sensor configured")
	return nil
}

// limitedSensitivities returns the per-gate values both lists cover.
func (s *Sensor) limitedSensitivities(settings Settings) []int {
	n := len(settings.MotionSensitivity)
	if len(settings.StaticSensitivity) < n {
		n = len(settings.StaticSensitivity)
	}
	return settings.MotionSensitivity[:n]
}

// sendCommand writes one command frame and waits for its acknowledgement.
func (s *Sensor) sendCommand(word uint16, payload []byte) error {
	if err := s.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input: %w", err)
	}

	frame := encodeCommand(word, payload)
	if _, err := s.port.Write(frame); err != nil {
		return fmt.Errorf("%w: write: %v", ErrUnavailable, err)
	}

	s.reader.Reset(timeoutReader{s.port})
	ack, err := ReadFrame(s.reader)
	if err != nil {
		return fmt.Errorf("%w: read ack: %v", ErrUnavailable, err)
	}
	return parseAck(ack, word)
}

// Close releases the serial port.
func (s *Sensor) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	s.logger.Info().Msg("sensor disconnected")
	return err
}
