package music

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnknownBackend is returned by New for an unsupported backend name
	ErrUnknownBackend = errors.New("unknown player backend")
	// ErrNoPlayer is returned when no system media player can be reached
	ErrNoPlayer = errors.New("no media player available")
)

// Track represents a music track with its metadata and current state
type Track struct {
	ID         string        // Player-specific track identifier
	Name       string        // Track name/title
	Artist     string        // Artist name
	Album      string        // Album name
	Duration   time.Duration // Total track duration
	Position   time.Duration // Current playback position
	State      PlayState     // Current playback state
	ArtworkURL string        // Cover art location, empty if the player has none
}

// Item is an entry of the player's library that can be picked for playback
type Item struct {
	ID     string
	Name   string
	Artist string
	Kind   string // "track" or "playlist"
}

// Label returns the text shown for the item in a picker
func (i Item) Label() string {
	if i.Artist == "" {
		return i.Name
	}
	return i.Artist + " - " + i.Name
}

// PlayState represents the current playback state of the music player
type PlayState int

const (
	StateStopped PlayState = iota // No track playing
	StatePlaying                  // Track is currently playing
	StatePaused                   // Track is paused
)

// String returns a human-readable representation of the PlayState
func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Client defines the interface for interacting with the system media player
type Client interface {
	// GetCurrentTrack returns the currently playing/paused track, or nil if stopped
	GetCurrentTrack(ctx context.Context) (*Track, error)

	// Position returns the elapsed playback position of the current track
	Position(ctx context.Context) (time.Duration, error)

	// IsRunning checks if the music player application is running
	IsRunning(ctx context.Context) (bool, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	PlayPause(ctx context.Context) error
	NextTrack(ctx context.Context) error
	PreviousTrack(ctx context.Context) error

	// SetPosition moves the playback position of the current track
	SetPosition(ctx context.Context, position time.Duration) error

	SetShuffle(ctx context.Context, enabled bool) error
	SetVolume(ctx context.Context, level int) error

	// Library lists up to limit items the user can pick for playback
	Library(ctx context.Context, limit int) ([]Item, error)

	// PlayItem replaces the playback queue with the picked item
	PlayItem(ctx context.Context, item Item) error
}

// SameTrack reports whether two tracks refer to the same song
func SameTrack(t1, t2 *Track) bool {
	if t1 == nil || t2 == nil {
		return false
	}
	if t1.ID != "" && t2.ID != "" {
		return t1.ID == t2.ID
	}
	return t1.Name == t2.Name &&
		t1.Artist == t2.Artist &&
		t1.Album == t2.Album
}

// secondsToDuration converts seconds (as float) to time.Duration
func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func checkVolume(level int) error {
	if level < 0 || level > 100 {
		return fmt.Errorf("volume level must be between 0 and 100, got %d", level)
	}
	return nil
}
