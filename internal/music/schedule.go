/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import "time"

// dateLayout is the calendar-date format used by date-scoped rules.
const dateLayout = "2006-01-02"

// Rule maps a time window to a playlist. The selector is exactly one of
// Days (weekday numbers, 0 = Monday .. 6 = Sunday) or Date (a specific
// calendar day). Rules are evaluated in declaration order; the first match
// wins, with no specificity ordering between date and weekday rules.
type Rule struct {
	Days     []int  `yaml:"days,omitempty"`
	Date     string `yaml:"date,omitempty"`
	Hours    []int  `yaml:"hours"`
	Playlist string `yaml:"playlist"`
}

// matches reports whether the rule covers the given instant.
func (r *Rule) matches(now time.Time) bool {
	if !containsInt(r.Hours, now.Hour()) {
		return false
	}
	if r.Date != "" {
		return r.Date == now.Format(dateLayout)
	}
	return containsInt(r.Days, configWeekday(now))
}

// configWeekday converts Go's Sunday-based weekday to the configuration
// convention (0 = Monday).
func configWeekday(now time.Time) int {
	return (int(now.Weekday()) + 6) % 7
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Active resolves the playlist that should play at the given instant, or
// nil when no rule matches and no default playlist is configured.
func (c *Config) Active(now time.Time) *Playlist {
	for i := range c.Rules {
		if c.Rules[i].matches(now) {
			return c.Playlists[c.Rules[i].Playlist]
		}
	}
	return c.Default
}
