// Package notify provides desktop notifications for track changes and
// player messages.
package notify

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/rs/zerolog"
)

// AppName is the application name shown by the notification daemon
const AppName = "nowplayer"

// SendFunc delivers one notification
type SendFunc func(title, body string) error

// Notifier is a player.Sink that raises a desktop notification whenever the
// song changes and for every message the player shows.
type Notifier struct {
	player.NopSink

	enabled atomic.Bool
	send    SendFunc
	logger  zerolog.Logger

	mu   sync.Mutex
	last string
}

// New creates a Notifier using the system notification service
func New(enabled bool, logger zerolog.Logger) *Notifier {
	beeep.AppName = AppName
	return NewWithSender(enabled, func(title, body string) error {
		return beeep.Notify(title, body, "")
	}, logger)
}

// NewWithSender creates a Notifier that delivers through send
func NewWithSender(enabled bool, send SendFunc, logger zerolog.Logger) *Notifier {
	n := &Notifier{
		send:   send,
		logger: logger.With().Str("component", "notify").Logger(),
	}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled turns notifications on or off
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Enabled reports whether notifications are sent
func (n *Notifier) Enabled() bool {
	return n.enabled.Load()
}

// SetSong notifies when a different song starts
func (n *Notifier) SetSong(song player.Song) {
	key := song.Name + "|" + song.Artist + "|" + song.Album

	n.mu.Lock()
	changed := key != n.last
	n.last = key
	n.mu.Unlock()

	if !changed {
		return
	}

	n.notify(song.Name, songBody(song))
}

// ShowMessage forwards the message as a notification
func (n *Notifier) ShowMessage(title, body string) {
	n.notify(title, body)
}

func (n *Notifier) notify(title, body string) {
	if !n.enabled.Load() {
		return
	}
	if err := n.send(title, body); err != nil {
		n.logger.Debug().Err(err).Str("title", title).Msg("Failed to send notification")
	}
}

func songBody(song player.Song) string {
	switch {
	case song.Artist != "" && song.Album != "":
		return fmt.Sprintf("%s · %s (%s)", song.Artist, song.Album, song.TotalLabel)
	case song.Artist != "":
		return fmt.Sprintf("%s (%s)", song.Artist, song.TotalLabel)
	default:
		return song.TotalLabel
	}
}
