package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/rs/zerolog"
)

// Recorder is a player.Sink that records each distinct song it is shown
type Recorder struct {
	player.NopSink

	store     *Store
	sessionID string
	logger    zerolog.Logger
	now       func() time.Time

	last *player.Song
}

// NewRecorder creates a Recorder writing to store under a fresh session id
func NewRecorder(store *Store, logger zerolog.Logger) *Recorder {
	return &Recorder{
		store:     store,
		sessionID: uuid.NewString(),
		logger:    logger.With().Str("component", "history").Logger(),
		now:       time.Now,
	}
}

// SessionID identifies the plays recorded by this Recorder
func (r *Recorder) SessionID() string {
	return r.sessionID
}

// SetSong records the song unless it is the one recorded last
func (r *Recorder) SetSong(song player.Song) {
	if r.last != nil &&
		r.last.Name == song.Name &&
		r.last.Artist == song.Artist &&
		r.last.Album == song.Album {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.store.Record(ctx, Play{
		SessionID: r.sessionID,
		TrackName: song.Name,
		Artist:    song.Artist,
		Album:     song.Album,
		Duration:  time.Duration(song.TotalSeconds * float64(time.Second)),
		PlayedAt:  r.now(),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("track", song.Name).Msg("Failed to record play")
		return
	}

	r.last = &song
}
