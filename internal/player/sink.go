package player

import (
	"sync"

	"github.com/jfmyers9/nowplayer/internal/music"
)

// Sink receives every UI-visible change the coordinator makes.
// Implementations must hop onto their own UI thread if they need one.
type Sink interface {
	SetStatus(status Status)
	SetElapsedLabel(label string)
	SetSliderValue(value float64)
	SetSong(song Song)
	ShowLibrary(items []music.Item)
	ShowMessage(title, body string)
}

// NopSink ignores every notification. Embed it to implement only part of Sink.
type NopSink struct{}

func (NopSink) SetStatus(Status)               {}
func (NopSink) SetElapsedLabel(string)         {}
func (NopSink) SetSliderValue(float64)         {}
func (NopSink) SetSong(Song)                   {}
func (NopSink) ShowLibrary([]music.Item)       {}
func (NopSink) ShowMessage(title, body string) {}

type teeSink []Sink

// Tee returns a Sink that forwards every notification to all sinks in order
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

func (t teeSink) SetStatus(status Status) {
	for _, s := range t {
		s.SetStatus(status)
	}
}

func (t teeSink) SetElapsedLabel(label string) {
	for _, s := range t {
		s.SetElapsedLabel(label)
	}
}

func (t teeSink) SetSliderValue(value float64) {
	for _, s := range t {
		s.SetSliderValue(value)
	}
}

func (t teeSink) SetSong(song Song) {
	for _, s := range t {
		s.SetSong(song)
	}
}

func (t teeSink) ShowLibrary(items []music.Item) {
	for _, s := range t {
		s.ShowLibrary(items)
	}
}

func (t teeSink) ShowMessage(title, body string) {
	for _, s := range t {
		s.ShowMessage(title, body)
	}
}

// BackgroundSink delivers notifications to a wrapped sink on its own
// goroutine, in order. Senders only block when the queue is full.
type BackgroundSink struct {
	sink  Sink
	queue chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// Background starts delivering to sink with room for size pending
// notifications. Close must be called to flush and stop it.
func Background(sink Sink, size int) *BackgroundSink {
	if size <= 0 {
		size = 1
	}
	b := &BackgroundSink{
		sink:  sink,
		queue: make(chan func(), size),
		done:  make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *BackgroundSink) run() {
	defer close(b.done)
	for fn := range b.queue {
		fn()
	}
}

// post is a no-op after Close
func (b *BackgroundSink) post(fn func()) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.queue <- fn
}

// Close delivers everything already queued and stops the goroutine
func (b *BackgroundSink) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.queue)
	}
	b.mu.Unlock()
	<-b.done
}

func (b *BackgroundSink) SetStatus(status Status) {
	b.post(func() { b.sink.SetStatus(status) })
}

func (b *BackgroundSink) SetElapsedLabel(label string) {
	b.post(func() { b.sink.SetElapsedLabel(label) })
}

func (b *BackgroundSink) SetSliderValue(value float64) {
	b.post(func() { b.sink.SetSliderValue(value) })
}

func (b *BackgroundSink) SetSong(song Song) {
	b.post(func() { b.sink.SetSong(song) })
}

func (b *BackgroundSink) ShowLibrary(items []music.Item) {
	b.post(func() { b.sink.ShowLibrary(items) })
}

func (b *BackgroundSink) ShowMessage(title, body string) {
	b.post(func() { b.sink.ShowMessage(title, body) })
}
