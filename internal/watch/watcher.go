// Package watch reports changes of the system player's now playing item.
package watch

import (
	"context"
	"time"

	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/rs/zerolog"
)

// Watcher polls the music client at regular intervals and calls onChange
// whenever a different track becomes current
type Watcher struct {
	client   music.Client
	interval time.Duration
	onChange func(track *music.Track)
	logger   zerolog.Logger

	last *music.Track
}

// New creates a new Watcher
func New(client music.Client, interval time.Duration, onChange func(track *music.Track), logger zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Watcher{
		client:   client,
		interval: interval,
		onChange: onChange,
		logger:   logger.With().Str("component", "watcher").Logger(),
	}
}

// Run starts the polling loop. The first poll only records the current track
// since the caller refreshes on startup anyway.
// Blocks until context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info().
		Dur("interval", w.interval).
		Msg("Starting now playing watcher")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.last, _ = w.client.GetCurrentTrack(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll queries the music client once
func (w *Watcher) poll(ctx context.Context) {
	track, err := w.client.GetCurrentTrack(ctx)
	if err != nil {
		w.logger.Debug().Err(err).Msg("Error getting current track")
		return
	}

	if track == nil {
		w.last = nil
		return
	}

	if music.SameTrack(w.last, track) {
		return
	}

	w.logger.Debug().
		Str("track", track.Name).
		Str("artist", track.Artist).
		Str("state", track.State.String()).
		Msg("Now playing changed")

	w.last = track
	if w.onChange != nil {
		w.onChange(track)
	}
}
