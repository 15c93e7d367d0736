package player

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jfmyers9/nowplayer/internal/music"
)

// fakeClient records player commands and serves canned state
type fakeClient struct {
	track    *music.Track
	position time.Duration
	library  []music.Item
	err      error // returned by transport commands

	calls     []string
	positions []time.Duration // SetPosition arguments
	played    []music.Item
}

func (f *fakeClient) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeClient) count(name string) int {
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeClient) GetCurrentTrack(ctx context.Context) (*music.Track, error) {
	if f.track == nil {
		return nil, nil
	}
	t := *f.track
	return &t, nil
}

func (f *fakeClient) Position(ctx context.Context) (time.Duration, error) {
	return f.position, nil
}

func (f *fakeClient) IsRunning(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeClient) Play(ctx context.Context) error             { return f.record("play") }
func (f *fakeClient) Pause(ctx context.Context) error            { return f.record("pause") }
func (f *fakeClient) PlayPause(ctx context.Context) error        { return f.record("playpause") }
func (f *fakeClient) NextTrack(ctx context.Context) error        { return f.record("next") }
func (f *fakeClient) PreviousTrack(ctx context.Context) error    { return f.record("previous") }

func (f *fakeClient) SetPosition(ctx context.Context, position time.Duration) error {
	f.positions = append(f.positions, position)
	return f.record("setposition")
}

func (f *fakeClient) SetShuffle(ctx context.Context, enabled bool) error { return f.record("shuffle") }
func (f *fakeClient) SetVolume(ctx context.Context, level int) error     { return f.record("volume") }

func (f *fakeClient) Library(ctx context.Context, limit int) ([]music.Item, error) {
	if limit < len(f.library) {
		return f.library[:limit], nil
	}
	return f.library, nil
}

func (f *fakeClient) PlayItem(ctx context.Context, item music.Item) error {
	f.played = append(f.played, item)
	return f.record("playitem")
}

// recordingSink keeps every notification
type recordingSink struct {
	statuses []Status
	labels   []string
	sliders  []float64
	songs    []Song
	library  [][]music.Item
	messages []string
}

func (s *recordingSink) SetStatus(status Status)        { s.statuses = append(s.statuses, status) }
func (s *recordingSink) SetElapsedLabel(label string)   { s.labels = append(s.labels, label) }
func (s *recordingSink) SetSliderValue(value float64)   { s.sliders = append(s.sliders, value) }
func (s *recordingSink) SetSong(song Song)              { s.songs = append(s.songs, song) }
func (s *recordingSink) ShowLibrary(items []music.Item) { s.library = append(s.library, items) }
func (s *recordingSink) ShowMessage(title, body string) { s.messages = append(s.messages, title) }

// manualClock hands out tickers that only fire when the test says so
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	fn      func()
	stopped bool
}

func (t *manualTicker) Stop() { t.stopped = true }

func (c *manualClock) Every(d time.Duration, fn func()) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTicker{fn: fn}
	c.tickers = append(c.tickers, t)
	return t
}

// active returns the tickers that have not been stopped
func (c *manualClock) active() []*manualTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*manualTicker
	for _, t := range c.tickers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireAll invokes every ticker ever created, stopped or not, to prove that
// stale tick sources have no effect
func (c *manualClock) fireAll() {
	c.mu.Lock()
	tickers := append([]*manualTicker(nil), c.tickers...)
	c.mu.Unlock()
	for _, t := range tickers {
		t.fn()
	}
}

// gatedArtwork holds its first lookup until release is closed
type gatedArtwork struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func newGatedArtwork() *gatedArtwork {
	return &gatedArtwork{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedArtwork) Artwork(ctx context.Context, track *music.Track) (image.Image, error) {
	if g.calls.Add(1) == 1 {
		close(g.started)
		<-g.release
	}
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
