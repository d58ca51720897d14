/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import "testing"

func TestCursorAdvancesAndWraps(t *testing.T) {
	cursors := NewCursorSet()
	tracks := []string{"a", "b", "c"}

	for _, want := range []string{"a", "b", "c", "a"} {
		got, ok := cursors.Next("m", tracks)
		if !ok || got != want {
			t.Fatalf("Next = %q (%v), want %q", got, ok, want)
		}
	}
}

func TestCursorContinuesAcrossGap(t *testing.T) {
	cursors := NewCursorSet()
	tracks := []string{"a", "b", "c", "d"}

	// Play up to index 2.
	for i := 0; i < 3; i++ {
		cursors.Next("morning", tracks)
	}

	// Presence gap: nothing touches the cursor. The next play resumes at
	// index 3, not 0.
	got, _ := cursors.Next("morning", tracks)
	if got != "d" {
		t.Fatalf("resumed at %q, want d", got)
	}
}

func TestCursorResetOnPlaylistSwitch(t *testing.T) {
	cursors := NewCursorSet()
	morning := []string{"a", "b", "c"}
	afternoon := []string{"x", "y"}

	cursors.Next("morning", morning)
	cursors.Next("morning", morning)

	// Switching playlists resets the target playlist.
	cursors.Reset("afternoon")
	if got, _ := cursors.Next("afternoon", afternoon); got != "x" {
		t.Fatalf("afternoon started at %q, want x", got)
	}

	// The previous playlist's position is untouched.
	if got, _ := cursors.Next("morning", morning); got != "c" {
		t.Fatalf("morning resumed at %q, want c", got)
	}
}

func TestCursorEmptyTracks(t *testing.T) {
	cursors := NewCursorSet()
	if _, ok := cursors.Next("m", nil); ok {
		t.Fatal("expected ok=false for empty tracks")
	}
}

func TestCursorClampsWhenPlaylistShrinks(t *testing.T) {
	cursors := NewCursorSet()
	long := []string{"a", "b", "c", "d", "e"}
	for i := 0; i < 4; i++ {
		cursors.Next("m", long)
	}

	// Directory playlist shrank to two tracks; position 4 wraps to 0.
	short := []string{"a", "b"}
	if got, _ := cursors.Next("m", short); got != "a" {
		t.Fatalf("clamped cursor returned %q, want a", got)
	}
}

func TestCursorSnapshotRestore(t *testing.T) {
	cursors := NewCursorSet()
	tracks := []string{"a", "b", "c"}
	cursors.Next("m", tracks)
	cursors.Next("m", tracks)

	snap := cursors.Snapshot()

	restored := NewCursorSet()
	restored.Restore(snap)
	if got, _ := restored.Next("m", tracks); got != "c" {
		t.Fatalf("restored cursor returned %q, want c", got)
	}
}
