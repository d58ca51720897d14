/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the read-only HTTP surface: current status and the
// presence/playback journals.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/crescendo/internal/coordinator"
	"github.com/friendsincode/crescendo/internal/journal"
	"github.com/friendsincode/crescendo/internal/version"
)

const defaultJournalLimit = 50

// StatusSource reports the coordinator's current state.
type StatusSource interface {
	Status() coordinator.Status
}

// API exposes HTTP handlers.
type API struct {
	status  StatusSource
	journal *journal.Repository
	logger  zerolog.Logger
}

// New creates the API.
func New(status StatusSource, repo *journal.Repository, logger zerolog.Logger) *API {
	return &API{status: status, journal: repo, logger: logger.With().Str("component", "api").Logger()}
}

// Routes mounts the API endpoints on the router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", a.handleStatus)
		r.Get("/journal/presence", a.handlePresenceJournal)
		r.Get("/journal/plays", a.handlePlayJournal)
	})
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := a.status.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"version": version.Version,
		"status":  status,
	})
}

func (a *API) handlePresenceJournal(w http.ResponseWriter, r *http.Request) {
	events, err := a.journal.RecentPresence(r.Context(), queryLimit(r))
	if err != nil {
		a.logger.Error().Err(err).Msg("presence journal query")
		writeError(w, http.StatusInternalServerError, "journal_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (a *API) handlePlayJournal(w http.ResponseWriter, r *http.Request) {
	events, err := a.journal.RecentPlays(r.Context(), queryLimit(r))
	if err != nil {
		a.logger.Error().Err(err).Msg("play journal query")
		writeError(w, http.StatusInternalServerError, "journal_query_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

// queryLimit parses the limit query parameter, clamped to a sane range.
func queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultJournalLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultJournalLimit
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
