package player

import (
	"sync"
	"time"
)

// Ticker is a running periodic tick source
type Ticker interface {
	Stop()
}

// Clock creates tick sources. Tests replace it to drive ticks by hand.
type Clock interface {
	Every(d time.Duration, fn func()) Ticker
}

// SystemClock returns a Clock backed by time.Ticker
func SystemClock() Clock {
	return systemClock{}
}

type systemClock struct{}

type systemTicker struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (systemClock) Every(d time.Duration, fn func()) Ticker {
	t := &systemTicker{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				fn()
			}
		}
	}()

	return t
}

// Stop does not wait for an in-flight fn call to return
func (t *systemTicker) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
