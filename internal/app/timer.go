package app

import "time"

// Ticker delivers the per-second countdown of a question.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// NewTickerFunc creates a ticker firing every d.
type NewTickerFunc func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop() { r.t.Stop() }

// questionTimer is the cancellable countdown handle of one question. A new
// handle is armed for every question; the play compares handles so a tick from
// a cancelled handle is never applied.
type questionTimer struct {
	ticker Ticker
	done   chan struct{}
}

func (t *questionTimer) cancel() {
	t.ticker.Stop()
	close(t.done)
}
