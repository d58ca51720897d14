/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal counts coordinator poll ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crescendo_ticks_total",
		Help: "Total coordinator poll ticks.",
	})

	// SensorErrorsTotal counts failed sensor polls.
	SensorErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crescendo_sensor_errors_total",
		Help: "Total sensor poll failures.",
	})

	// PresenceState reports the current presence verdict (1 present, 0 absent).
	PresenceState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crescendo_presence",
		Help: "Current presence verdict (1 present, 0 absent).",
	})

	// RelayState reports the last commanded relay state (1 on, 0 off).
	RelayState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crescendo_relay_state",
		Help: "Last commanded relay state (1 on, 0 off).",
	})

	// PlaybackStartsTotal counts tracks started, labelled by playlist.
	PlaybackStartsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crescendo_playback_starts_total",
		Help: "Total tracks started, by playlist.",
	}, []string{"playlist"})

	// PlaybackErrorsTotal counts tracks that failed to start.
	PlaybackErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "crescendo_playback_errors_total",
		Help: "Total playback start failures.",
	})

	// PlaylistResolutionsTotal counts schedule resolutions, by outcome playlist.
	PlaylistResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crescendo_playlist_resolutions_total",
		Help: "Total schedule resolutions, by resolved playlist.",
	}, []string{"playlist"})

	// DatabaseQueryDuration observes journal query latency by operation and table.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "crescendo_db_query_duration_seconds",
		Help:    "Database query duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts failed database operations.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "crescendo_db_errors_total",
		Help: "Total database operation failures.",
	}, []string{"operation"})

	// DatabaseConnectionsActive reports open connections in the pool.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "crescendo_db_connections_active",
		Help: "Open database connections.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
