/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package music

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
		t.Fatalf("touch %s: %v", name, err)
	}
}

func TestResolveDirectorySortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.mp3")
	touch(t, dir, "a.flac")
	touch(t, dir, "c.OGG")
	touch(t, dir, "notes.txt")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	p := &Playlist{Name: "ambient", Directory: dir}
	tracks := p.Resolve("")

	want := []string{
		filepath.Join(dir, "a.flac"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(dir, "c.OGG"),
	}
	if len(tracks) != len(want) {
		t.Fatalf("resolved %v, want %v", tracks, want)
	}
	for i := range want {
		if tracks[i] != want[i] {
			t.Fatalf("track %d = %q, want %q", i, tracks[i], want[i])
		}
	}
}

func TestResolveDirectoryReflectsCurrentContents(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.mp3")

	p := &Playlist{Name: "ambient", Directory: dir}

	first := p.Resolve("")
	if len(first) != 1 {
		t.Fatalf("first resolution: %v", first)
	}

	// A file added between resolutions appears in the next one, and the
	// earlier result is unaffected.
	touch(t, dir, "b.mp3")
	second := p.Resolve("")
	if len(second) != 2 {
		t.Fatalf("second resolution: %v", second)
	}
	if len(first) != 1 {
		t.Fatalf("earlier resolution changed retroactively: %v", first)
	}
}

func TestResolveTrackListJoinsBaseDir(t *testing.T) {
	p := &Playlist{Name: "m", Tracks: []string{"one.mp3", "/abs/two.mp3"}}

	tracks := p.Resolve("/music")
	if tracks[0] != filepath.Join("/music", "one.mp3") {
		t.Fatalf("relative track = %q", tracks[0])
	}
	if tracks[1] != "/abs/two.mp3" {
		t.Fatalf("absolute track = %q", tracks[1])
	}
}

func TestResolveMissingDirectoryIsEmpty(t *testing.T) {
	p := &Playlist{Name: "m", Directory: filepath.Join(t.TempDir(), "gone")}
	if tracks := p.Resolve(""); tracks != nil {
		t.Fatalf("expected no tracks, got %v", tracks)
	}
}
