package player

import (
	"image"
)

// Status is the playback status the coordinator last assigned
type Status int

const (
	StatusStopped Status = iota
	StatusPlaying
)

// String returns a human-readable representation of the Status
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Song is the display snapshot of the now playing item. A new value is built
// on every refresh and never mutated afterwards.
type Song struct {
	Name   string
	Artist string
	Album  string

	TotalLabel    string  // total duration as "M:SS"
	TotalFraction float64 // total duration in slider units, the slider maximum
	TotalSeconds  float64

	Artwork image.Image // nil when the player has no cover
}
