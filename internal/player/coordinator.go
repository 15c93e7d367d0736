// Package player keeps the displayed play/pause state, slider and elapsed
// time label consistent with the system media player.
package player

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/jfmyers9/nowplayer/internal/music"
	"github.com/jfmyers9/nowplayer/internal/timefmt"
	"github.com/rs/zerolog"
)

// ErrUploadUnsupported is returned by RequestUpload. Library tracks are DRM
// protected and the player never exposes a file that could be uploaded.
var ErrUploadUnsupported = errors.New("upload is not supported for library tracks")

// Upload message shown to the user
const (
	UploadTitle   = "Upload unavailable"
	UploadMessage = "Library tracks are DRM protected, so the system player never exposes a file that could be uploaded."
)

// Config holds coordinator configuration
type Config struct {
	TickInterval        time.Duration // How often playback position is polled
	EndOfTrackTolerance time.Duration // Elapsed within this of the total counts as the end
	CommandTimeout      time.Duration // Timeout for player calls made from ticks
	LibraryLimit        int           // Maximum library items offered by OpenLibrary
}

// DefaultConfig returns the default coordinator configuration
func DefaultConfig() Config {
	return Config{
		TickInterval:        time.Second,
		EndOfTrackTolerance: 500 * time.Millisecond,
		CommandTimeout:      5 * time.Second,
		LibraryLimit:        200,
	}
}

// ArtworkSource resolves the cover image of a track
type ArtworkSource interface {
	Artwork(ctx context.Context, track *music.Track) (image.Image, error)
}

// Coordinator is the single authority over perceived playback state. It
// forwards UI intents to the music client and reports player facts to the
// sink. State changes serialize on an internal lock; cover images are
// resolved outside it so ticks keep running during a download.
type Coordinator struct {
	config  Config
	client  music.Client
	sink    Sink
	clock   Clock
	artwork ArtworkSource
	logger  zerolog.Logger

	mu          sync.Mutex
	status      Status
	total       float64 // seconds, zero until a track with a duration is seen
	ticker      Ticker
	generation  uint64 // bumped on every ticker change; stale ticks are dropped
	refreshes   uint64 // bumped when a refresh starts; superseded refreshes are dropped
	lastElapsed float64
}

// New creates a Coordinator. The initial status is stopped and no ticker runs
// until the first refresh.
func New(cfg Config, client music.Client, sink Sink, logger zerolog.Logger) *Coordinator {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}
	if sink == nil {
		sink = NopSink{}
	}

	return &Coordinator{
		config: cfg,
		client: client,
		sink:   sink,
		clock:  SystemClock(),
		logger: logger.With().Str("component", "coordinator").Logger(),
		status: StatusStopped,
	}
}

// SetClock replaces the tick source factory
func (c *Coordinator) SetClock(clock Clock) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clock = clock
}

// SetArtworkSource sets where cover images come from
func (c *Coordinator) SetArtworkSource(src ArtworkSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artwork = src
}

// Status returns the last assigned status
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Elapsed returns the last elapsed time in seconds seen by a tick or set by
// EndScrub
func (c *Coordinator) Elapsed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastElapsed
}

// Refresh reads the now playing item and, if there is one, reports it to the
// sink, restarts position polling and resumes playback. No item is a no-op.
// If another refresh starts while this one fetches artwork, this one is
// dropped.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.refreshes++
	seq := c.refreshes
	src := c.artwork
	track, err := c.client.GetCurrentTrack(ctx)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to read now playing item: %w", err)
	}
	if track == nil {
		c.logger.Debug().Msg("Nothing playing")
		return nil
	}

	song, err := buildSong(track)
	if err != nil {
		return err
	}
	if src != nil {
		img, err := src.Artwork(ctx, track)
		if err != nil {
			c.logger.Debug().Err(err).Str("track", track.Name).Msg("No artwork")
		} else {
			song.Artwork = img
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.refreshes {
		c.logger.Debug().Str("track", song.Name).Msg("Refresh superseded")
		return nil
	}

	c.logger.Info().
		Str("track", song.Name).
		Str("artist", song.Artist).
		Str("duration", song.TotalLabel).
		Msg("Now playing")

	c.sink.SetSong(song)
	c.total = song.TotalSeconds
	c.lastElapsed = 0
	c.restartTicker()

	return c.setStatus(ctx, StatusPlaying)
}

// buildSong constructs the display snapshot of a track, without artwork
func buildSong(track *music.Track) (Song, error) {
	seconds := track.Duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}

	label, err := timefmt.Display(seconds)
	if err != nil {
		return Song{}, fmt.Errorf("invalid duration for %q: %w", track.Name, err)
	}
	fraction, err := timefmt.Fraction(seconds)
	if err != nil {
		return Song{}, fmt.Errorf("invalid duration for %q: %w", track.Name, err)
	}

	song := Song{
		Name:          track.Name,
		Artist:        track.Artist,
		Album:         track.Album,
		TotalLabel:    label,
		TotalFraction: fraction,
		TotalSeconds:  seconds,
	}
	return song, nil
}

// SelectFromLibrary queues the picked item on the player and refreshes
func (c *Coordinator) SelectFromLibrary(ctx context.Context, item music.Item) error {
	c.mu.Lock()
	err := c.client.PlayItem(ctx, item)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to queue %q: %w", item.Name, err)
	}
	return c.Refresh(ctx)
}

// OpenLibrary loads the library and asks the sink to show the picker
func (c *Coordinator) OpenLibrary(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.client.Library(ctx, c.config.LibraryLimit)
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}
	c.sink.ShowLibrary(items)
	return nil
}

// TogglePlayPause resumes a stopped player or stops a playing one
func (c *Coordinator) TogglePlayPause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == StatusStopped {
		c.restartTicker()
		return c.setStatus(ctx, StatusPlaying)
	}

	c.stopTicker()
	return c.setStatus(ctx, StatusStopped)
}

// BeginScrub pauses playback and polling while the user drags the slider
func (c *Coordinator) BeginScrub(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTicker()
	return c.setStatus(ctx, StatusStopped)
}

// Scrub reports the elapsed time under the slider while it is being dragged.
// The player is not touched until EndScrub.
func (c *Coordinator) Scrub(ctx context.Context, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	label, err := timefmt.Display(timefmt.SliderToSeconds(value))
	if err != nil {
		return fmt.Errorf("invalid slider value: %w", err)
	}
	c.sink.SetElapsedLabel(label)
	return nil
}

// EndScrub moves the player to the released slider position and resumes
func (c *Coordinator) EndScrub(ctx context.Context, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	seconds := timefmt.SliderToSeconds(value)
	if _, err := timefmt.Display(seconds); err != nil {
		return fmt.Errorf("invalid slider value: %w", err)
	}

	var errs []error
	position := time.Duration(seconds * float64(time.Second))
	if err := c.client.SetPosition(ctx, position); err != nil {
		c.logger.Warn().Err(err).Dur("position", position).Msg("Failed to set position")
		errs = append(errs, err)
	}

	c.lastElapsed = seconds
	c.restartTicker()
	if err := c.setStatus(ctx, StatusPlaying); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Next skips to the next track and refreshes
func (c *Coordinator) Next(ctx context.Context) error {
	c.mu.Lock()
	err := c.client.NextTrack(ctx)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to skip to next track: %w", err)
	}
	return c.Refresh(ctx)
}

// Previous skips to the previous track and refreshes
func (c *Coordinator) Previous(ctx context.Context) error {
	c.mu.Lock()
	err := c.client.PreviousTrack(ctx)
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to go to previous track: %w", err)
	}
	return c.Refresh(ctx)
}

// RequestUpload never uploads anything. It tells the user why and returns
// ErrUploadUnsupported.
func (c *Coordinator) RequestUpload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sink.ShowMessage(UploadTitle, UploadMessage)
	return ErrUploadUnsupported
}

// Close stops position polling
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTicker()
}

// setStatus is the only place status changes. Every assignment sends the
// matching transport command and notifies the sink, even if the command fails.
// Must be called with c.mu held.
func (c *Coordinator) setStatus(ctx context.Context, status Status) error {
	c.status = status

	var err error
	if status == StatusPlaying {
		err = c.client.Play(ctx)
	} else {
		// Pause rather than stop: stopping drops the now playing item
		err = c.client.Pause(ctx)
	}

	c.sink.SetStatus(status)

	if err != nil {
		c.logger.Warn().Err(err).Str("status", status.String()).Msg("Player command failed")
		return fmt.Errorf("failed to apply %s: %w", status, err)
	}
	return nil
}

// restartTicker replaces the running ticker, if any, with a new one. Nothing
// is started while the track duration is unknown.
// Must be called with c.mu held.
func (c *Coordinator) restartTicker() {
	c.stopTicker()
	if c.total <= 0 {
		return
	}

	gen := c.generation
	c.ticker = c.clock.Every(c.config.TickInterval, func() {
		c.tick(gen)
	})
}

// stopTicker must be called with c.mu held
func (c *Coordinator) stopTicker() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	c.generation++
}

// tick polls the player position once
func (c *Coordinator) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation || c.ticker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.config.CommandTimeout)
	defer cancel()

	position, err := c.client.Position(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Error reading position")
		return
	}
	elapsed := position.Seconds()

	if elapsed >= c.total-c.config.EndOfTrackTolerance.Seconds() {
		c.endOfTrack(ctx)
		return
	}

	fraction, err := timefmt.Fraction(elapsed)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Ignoring position")
		return
	}
	label, err := timefmt.Display(elapsed)
	if err != nil {
		c.logger.Debug().Err(err).Msg("Ignoring position")
		return
	}

	c.lastElapsed = elapsed
	c.sink.SetSliderValue(fraction)
	c.sink.SetElapsedLabel(label)
}

// endOfTrack stops, cancels polling and skips once. The new track is picked
// up by whoever observes now playing changes.
// Must be called with c.mu held.
func (c *Coordinator) endOfTrack(ctx context.Context) {
	c.logger.Info().Float64("total", c.total).Msg("End of track")

	_ = c.setStatus(ctx, StatusStopped)
	c.stopTicker()

	if err := c.client.NextTrack(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to skip to next track")
	}
}
