/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabaseSQLite   DatabaseBackend = "sqlite"
	DatabasePostgres DatabaseBackend = "postgres"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	// Sensor serial transport
	SensorPort    string // e.g. /dev/ttyAMA0
	SensorBaud    int
	SensorTimeout time.Duration

	// Relay (USB HID)
	RelayVendorID  int
	RelayProductID int
	RelayChannel   int

	// Playback
	PlayerBin     string // external player binary, one track path argument
	MusicDir      string // base directory for relative track paths
	MusicConfig   string // YAML playlists/schedules file
	PollInterval  time.Duration
	RelayOffDelay time.Duration

	// Journal storage
	DBBackend DatabaseBackend
	DBDSN     string

	// MQTT state announcements (disabled when BrokerURL is empty)
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("CRESCENDO_ENV", "development"),
		HTTPBind:    getEnv("CRESCENDO_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("CRESCENDO_HTTP_PORT", 8080),

		SensorPort:    getEnv("CRESCENDO_SENSOR_PORT", "/dev/ttyAMA0"),
		SensorBaud:    getEnvInt("CRESCENDO_SENSOR_BAUD", 256000),
		SensorTimeout: time.Duration(getEnvInt("CRESCENDO_SENSOR_TIMEOUT_MS", 1000)) * time.Millisecond,

		RelayVendorID:  getEnvHex("CRESCENDO_RELAY_VENDOR_ID", 0x16c0),
		RelayProductID: getEnvHex("CRESCENDO_RELAY_PRODUCT_ID", 0x05df),
		RelayChannel:   getEnvInt("CRESCENDO_RELAY_CHANNEL", 1),

		PlayerBin:     getEnv("CRESCENDO_PLAYER_BIN", "mpg123"),
		MusicDir:      getEnv("CRESCENDO_MUSIC_DIR", "./music"),
		MusicConfig:   getEnv("CRESCENDO_MUSIC_CONFIG", "music.yaml"),
		PollInterval:  time.Duration(getEnvInt("CRESCENDO_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		RelayOffDelay: time.Duration(getEnvInt("CRESCENDO_RELAY_OFF_DELAY_MINUTES", 15)) * time.Minute,

		DBBackend: DatabaseBackend(getEnv("CRESCENDO_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("CRESCENDO_DB_DSN", "crescendo.db"),

		MQTTBrokerURL:   getEnv("CRESCENDO_MQTT_BROKER_URL", ""),
		MQTTClientID:    getEnv("CRESCENDO_MQTT_CLIENT_ID", "crescendo"),
		MQTTUsername:    getEnv("CRESCENDO_MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("CRESCENDO_MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("CRESCENDO_MQTT_TOPIC_PREFIX", "crescendo"),
	}

	if cfg.DBBackend != DatabaseSQLite && cfg.DBBackend != DatabasePostgres {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("CRESCENDO_DB_DSN must be provided")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("CRESCENDO_POLL_INTERVAL_MS must be positive")
	}

	if cfg.RelayOffDelay < 0 {
		return nil, fmt.Errorf("CRESCENDO_RELAY_OFF_DELAY_MINUTES must not be negative")
	}

	if cfg.RelayChannel < 1 {
		return nil, fmt.Errorf("CRESCENDO_RELAY_CHANNEL must be at least 1")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

// getEnvHex parses a hexadecimal value, with or without a 0x prefix.
func getEnvHex(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		val = strings.TrimPrefix(strings.ToLower(val), "0x")
		if parsed, err := strconv.ParseInt(val, 16, 32); err == nil {
			return int(parsed)
		}
	}
	return def
}
