package app

import (
	"sync"
	"time"

	"biodiversity-quiz/internal/domain"
)

// Play is a running session: the state machine, its countdown and the
// subscribers that render it. Commands and timer ticks are serialized by mu.
type Play struct {
	userID      string
	displayName string
	ageGroup    domain.AgeGroup
	newTicker   NewTickerFunc
	now         func() time.Time

	mu          sync.Mutex
	session     *Session
	timer       *questionTimer
	subscribers map[chan domain.Snapshot]struct{}
}

func newPlay(session *Session, userID, displayName string, group domain.AgeGroup, newTicker NewTickerFunc, now func() time.Time) *Play {
	p := &Play{
		userID:      userID,
		displayName: displayName,
		ageGroup:    group,
		newTicker:   newTicker,
		now:         now,
		session:     session,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	p.mu.Lock()
	p.armLocked()
	p.mu.Unlock()
	return p
}

// ID returns the session id.
func (p *Play) ID() string {
	return p.session.ID()
}

// UserID returns the player the session belongs to.
func (p *Play) UserID() string {
	return p.userID
}

// Active reports whether the session has neither completed nor been abandoned.
func (p *Play) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.State() == domain.StateActive
}

func (p *Play) Snapshot() domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session.Snapshot()
}

func (p *Play) selectAnswer(answerID string) domain.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session.SelectAnswer(answerID) {
		return p.broadcastLocked()
	}
	return p.session.Snapshot()
}

func (p *Play) submit() (domain.AnswerRecord, bool, domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.session.Submit()
	if !ok {
		return rec, false, p.session.Snapshot()
	}
	p.disarmLocked()
	return rec, true, p.broadcastLocked()
}

// advance moves to the next question and reports whether the session completed.
func (p *Play) advance() (bool, bool, domain.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	done, ok := p.session.Advance()
	if !ok {
		return false, false, p.session.Snapshot()
	}
	if !done {
		p.armLocked()
	}
	return done, true, p.broadcastLocked()
}

func (p *Play) abandon() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.session.Abandon() {
		return false
	}
	p.disarmLocked()
	p.broadcastLocked()
	p.closeSubscribersLocked()
	return true
}

// finish builds the result of a completed session and releases subscribers.
func (p *Play) finish() domain.SessionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.session.Result(p.now())
	r.UserID = p.userID
	r.DisplayName = p.displayName
	if r.Type == domain.SessionStandard {
		r.AgeGroup = p.ageGroup
	}
	p.closeSubscribersLocked()
	return r
}

// armLocked starts the countdown of the current question.
func (p *Play) armLocked() {
	p.disarmLocked()
	t := &questionTimer{
		ticker: p.newTicker(time.Second),
		done:   make(chan struct{}),
	}
	p.timer = t
	go p.runTimer(t)
}

// disarmLocked cancels the pending countdown, if any.
func (p *Play) disarmLocked() {
	if p.timer == nil {
		return
	}
	p.timer.cancel()
	p.timer = nil
}

func (p *Play) runTimer(t *questionTimer) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C():
			if !p.tick(t) {
				return
			}
		}
	}
}

// tick applies one countdown step and reports whether the timer keeps running.
func (p *Play) tick(t *questionTimer) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != t {
		// Cancelled while the tick was in flight.
		return false
	}
	if !p.session.Tick() {
		p.disarmLocked()
		return false
	}
	if p.session.Submitted() {
		p.disarmLocked()
		p.broadcastLocked()
		return false
	}
	p.broadcastLocked()
	return true
}

// subscribe returns a channel of snapshots, primed with the current one.
// The caller must invoke the returned cancel function to avoid leaks.
func (p *Play) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	p.mu.Lock()
	ch <- p.session.Snapshot()
	if p.session.State() == domain.StateActive {
		p.subscribers[ch] = struct{}{}
	} else {
		close(ch)
	}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

func (p *Play) broadcastLocked() domain.Snapshot {
	snap := p.session.Snapshot()
	for ch := range p.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow subscriber: drop its oldest snapshot, the newest supersedes it.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (p *Play) closeSubscribersLocked() {
	for ch := range p.subscribers {
		delete(p.subscribers, ch)
		close(ch)
	}
}
